package documents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
)

func TestStockMovement_Validate(t *testing.T) {
	ctx := context.Background()
	m := &StockMovement{ProductID: id.New(), Type: MovementInbound, Quantity: 0}
	err := m.Validate(ctx)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	m.Quantity = 5
	m.Type = "teleport"
	assert.True(t, apperror.IsCode(m.Validate(ctx), apperror.CodeValidation))

	m.Type = MovementAdjustment
	assert.NoError(t, m.Validate(ctx))
}

func TestInvoiceStatus_Rank(t *testing.T) {
	assert.Equal(t, 0, InvoiceDraft.Rank())
	assert.Equal(t, 4, InvoiceCancelled.Rank())
	assert.Equal(t, -1, InvoiceStatus("void").Rank())
	assert.False(t, InvoiceStatus("void").Valid())
}

func TestInvoice_ValidateAndRemaining(t *testing.T) {
	ctx := context.Background()
	inv := &Invoice{
		Document:   entity.NewDocument(),
		CustomerID: id.New(),
		Amount:     types.MustMoney("1000"),
		PaidAmount: types.MustMoney("600"),
		Status:     InvoiceSent,
	}
	assert.NoError(t, inv.Validate(ctx))
	assert.True(t, inv.Remaining().Equal(types.MustMoney("400")))

	due := inv.Date.Add(-time.Hour)
	inv.DueDate = &due
	assert.Error(t, inv.Validate(ctx))
}

func TestTransaction_Validate(t *testing.T) {
	ctx := context.Background()
	invoiceID := id.New()
	tx := &Transaction{Date: time.Now(), Amount: types.MustMoney("-5"), AccountID: id.New(), InvoiceID: &invoiceID}
	assert.Error(t, tx.Validate(ctx))

	tx.InvoiceID = nil
	assert.NoError(t, tx.Validate(ctx))
}

func TestLineItems_SetValues(t *testing.T) {
	var item LineItem = &PurchaseOrderItem{PurchaseOrderID: id.New(), ProductID: id.New()}
	item.SetValues(3, types.MustMoney("15.50"), types.MustMoney("46.50"))
	assert.Equal(t, int64(3), item.GetQuantity())
	assert.True(t, item.GetSubtotal().Equal(types.MustMoney("46.5")))
	assert.NoError(t, item.Validate(context.Background()))
}
