package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/types"
	"erpledger/internal/domain/documents"
)

func money(s string) types.Money { return types.MustMoney(s) }

func TestSubtotal(t *testing.T) {
	assert.True(t, Subtotal(5, money("29.99")).Equal(money("149.95")))
	assert.True(t, Subtotal(3, money("15.50")).Equal(money("46.50")))
}

func TestMergeLine_UsesPersistedValues(t *testing.T) {
	qty := int64(10)
	q, u, sub := MergeLine(5, money("29.99"), LinePatch{Quantity: &qty})
	assert.Equal(t, int64(10), q)
	assert.True(t, u.Equal(money("29.99")))
	assert.True(t, sub.Equal(money("299.9")))

	price := money("2")
	q, u, sub = MergeLine(5, money("29.99"), LinePatch{UnitValue: &price})
	assert.Equal(t, int64(5), q)
	assert.True(t, u.Equal(price))
	assert.True(t, sub.Equal(money("10")))

	_, _, sub = MergeLine(4, money("1.25"), LinePatch{})
	assert.True(t, sub.Equal(money("5")))
}

func TestOrderTotal(t *testing.T) {
	items := []*documents.SalesOrderItem{
		{Subtotal: money("149.95")},
		{Subtotal: money("0.05")},
	}
	assert.True(t, OrderTotal(items).Equal(money("150")))
	assert.True(t, OrderTotal([]*documents.SalesOrderItem{}).IsZero())
}

func TestApplyStockMovement(t *testing.T) {
	cases := []struct {
		name    string
		current int64
		kind    documents.MovementType
		qty     int64
		want    int64
	}{
		{"inbound adds", 10, documents.MovementInbound, 5, 15},
		{"outbound subtracts", 10, documents.MovementOutbound, 4, 6},
		{"outbound clamps at zero", 20, documents.MovementOutbound, 30, 0},
		{"adjustment overwrites", 20, documents.MovementAdjustment, 7, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyStockMovement(tc.current, tc.kind, tc.qty)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyStockMovement_Invalid(t *testing.T) {
	got, err := ApplyStockMovement(10, documents.MovementInbound, 0)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, int64(10), got)

	_, err = ApplyStockMovement(10, "gift", 1)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestReverseStockMovement(t *testing.T) {
	got, err := ReverseStockMovement(3, documents.MovementInbound, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	got, err = ReverseStockMovement(3, documents.MovementOutbound, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got)

	got, err = ReverseStockMovement(3, documents.MovementAdjustment, 5)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnsupported))
	assert.Equal(t, int64(3), got)
}

func TestStockNeverNegativeAcrossSequence(t *testing.T) {
	steps := []struct {
		kind documents.MovementType
		qty  int64
	}{
		{documents.MovementInbound, 5},
		{documents.MovementOutbound, 8},
		{documents.MovementInbound, 2},
		{documents.MovementOutbound, 1},
	}
	stock := int64(0)
	for _, s := range steps {
		var err error
		stock, err = ApplyStockMovement(stock, s.kind, s.qty)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stock, int64(0))
	}
	assert.Equal(t, int64(1), stock)
}

func TestPromoteInvoiceStatus(t *testing.T) {
	amount := money("1000")
	assert.Equal(t, documents.InvoiceDraft, PromoteInvoiceStatus(documents.InvoiceDraft, money("0"), amount))
	assert.Equal(t, documents.InvoiceSent, PromoteInvoiceStatus(documents.InvoiceDraft, money("600"), amount))
	assert.Equal(t, documents.InvoicePaid, PromoteInvoiceStatus(documents.InvoiceSent, money("1000"), amount))
	assert.Equal(t, documents.InvoiceSent, PromoteInvoiceStatus(documents.InvoicePaid, money("600"), amount))
	assert.Equal(t, documents.InvoiceCancelled, PromoteInvoiceStatus(documents.InvoiceCancelled, money("1000"), amount))
	assert.Equal(t, documents.InvoiceOverdue, PromoteInvoiceStatus(documents.InvoiceOverdue, money("600"), amount))
	assert.Equal(t, documents.InvoicePaid, PromoteInvoiceStatus(documents.InvoiceOverdue, money("1000"), amount))
}

func TestInvoicePaidAmount(t *testing.T) {
	txs := []*documents.Transaction{{Amount: money("600")}, {Amount: money("400")}}
	assert.True(t, InvoicePaidAmount(txs).Equal(money("1000")))
	assert.True(t, AccountBalance(nil).IsZero())
}
