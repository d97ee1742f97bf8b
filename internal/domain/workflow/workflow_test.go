package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/numerator"
	"erpledger/internal/core/types"
	"erpledger/internal/domain"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/filter"
	"erpledger/internal/infrastructure/storage/memory"
)

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type env struct {
	ctx      context.Context
	stores   domain.Stores
	m        *consistency.Maintainer
	orders   *OrderService
	invoices *InvoiceService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := memory.NewDB()
	stores := memory.NewStores(db)
	log := memory.NewAuditLog(db)
	now := func() time.Time { return testNow }

	m := consistency.New(consistency.Config{Stores: stores, TxManager: db, Audit: log, Now: now})
	cfg := Config{Maintainer: m, Numerator: memory.NewNumerator(), Audit: log, Now: now}
	return &env{
		ctx:      context.Background(),
		stores:   stores,
		m:        m,
		orders:   NewOrderService(cfg),
		invoices: NewInvoiceService(cfg),
	}
}

func (e *env) customer(t *testing.T) *catalogs.Customer {
	t.Helper()
	c := &catalogs.Customer{Party: catalogs.Party{Catalog: entity.NewCatalog("Acme"), Email: "ap@acme.test"}}
	require.NoError(t, e.stores.Customers.Create(e.ctx, c))
	return c
}

func (e *env) supplier(t *testing.T) *catalogs.Supplier {
	t.Helper()
	s := &catalogs.Supplier{Party: catalogs.Party{Catalog: entity.NewCatalog("Bolts Inc")}}
	require.NoError(t, e.stores.Suppliers.Create(e.ctx, s))
	return s
}

func (e *env) product(t *testing.T, sku string, stock int64) *catalogs.Product {
	t.Helper()
	p := &catalogs.Product{
		Catalog:       entity.NewCatalog("Product " + sku),
		SKU:           sku,
		StockQuantity: stock,
		UnitPrice:     types.MustMoney("10"),
	}
	require.NoError(t, e.stores.Products.Create(e.ctx, p))
	return p
}

func TestCreateOrders_Numbered(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t)
	s := e.supplier(t)

	so1, err := e.orders.CreateSalesOrder(e.ctx, SalesOrderInput{CustomerID: c.ID})
	require.NoError(t, err)
	so2, err := e.orders.CreateSalesOrder(e.ctx, SalesOrderInput{CustomerID: c.ID})
	require.NoError(t, err)
	po, err := e.orders.CreatePurchaseOrder(e.ctx, PurchaseOrderInput{SupplierID: s.ID})
	require.NoError(t, err)

	assert.Equal(t, "SO-000001", so1.Number)
	assert.Equal(t, "SO-000002", so2.Number)
	assert.Equal(t, "PO-000001", po.Number)
	assert.Equal(t, documents.SalesOrderDraft, so1.Status)
	assert.True(t, so1.TotalAmount.IsZero())

	kept, err := e.orders.CreateSalesOrder(e.ctx, SalesOrderInput{CustomerID: c.ID, Number: "SO-MANUAL"})
	require.NoError(t, err)
	assert.Equal(t, "SO-MANUAL", kept.Number)
}

func TestCreateOrders_RelatedMustExist(t *testing.T) {
	e := newEnv(t)

	_, err := e.orders.CreateSalesOrder(e.ctx, SalesOrderInput{CustomerID: id.New()})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Contains(t, err.Error(), "Related Customer does not exist")

	_, err = e.orders.CreatePurchaseOrder(e.ctx, PurchaseOrderInput{SupplierID: id.New()})
	assert.True(t, apperror.IsNotFound(err))

	s := e.supplier(t)
	_, err = e.orders.CreatePurchaseOrder(e.ctx, PurchaseOrderInput{SupplierID: s.ID, WarehouseID: id.Ref(id.New())})
	assert.True(t, apperror.IsNotFound(err))

	// the failed attempts did not persist anything
	n, err := e.stores.PurchaseOrders.Count(e.ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurchaseOrderReceipt_BooksInboundMovements(t *testing.T) {
	e := newEnv(t)
	s := e.supplier(t)
	bolts := e.product(t, "BOLT", 10)
	nuts := e.product(t, "NUT", 0)

	po, err := e.orders.CreatePurchaseOrder(e.ctx, PurchaseOrderInput{SupplierID: s.ID})
	require.NoError(t, err)
	for _, line := range []struct {
		product *catalogs.Product
		qty     int64
	}{{bolts, 3}, {nuts, 7}} {
		_, err := e.m.CreatePurchaseOrderItem(e.ctx, consistency.PurchaseOrderItemInput{
			PurchaseOrderID: po.ID, ProductID: line.product.ID, Quantity: line.qty, UnitCost: types.MustMoney("15.50"),
		})
		require.NoError(t, err)
	}

	detail, err := e.orders.GetPurchaseOrder(e.ctx, po.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 2)
	assert.Equal(t, "155.00", detail.Order.TotalAmount.StringFixed(2))

	received, err := e.orders.UpdatePurchaseOrderStatus(e.ctx, po.ID, documents.PurchaseOrderReceived)
	require.NoError(t, err)
	assert.Equal(t, documents.PurchaseOrderReceived, received.Status)

	movements, err := domain.All(e.ctx, e.stores.StockMovements, filter.Eq("reference", po.Number))
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, mv := range movements {
		assert.Equal(t, documents.MovementInbound, mv.Type)
	}

	got, err := e.stores.Products.GetByID(e.ctx, bolts.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(13), got.StockQuantity)
	got, err = e.stores.Products.GetByID(e.ctx, nuts.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.StockQuantity)

	// repeating the move books nothing
	_, err = e.orders.UpdatePurchaseOrderStatus(e.ctx, po.ID, documents.PurchaseOrderReceived)
	require.NoError(t, err)
	n, err := e.stores.StockMovements.Count(e.ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUpdateSalesOrderStatus(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t)
	so, err := e.orders.CreateSalesOrder(e.ctx, SalesOrderInput{CustomerID: c.ID})
	require.NoError(t, err)

	updated, err := e.orders.UpdateSalesOrderStatus(e.ctx, so.ID, documents.SalesOrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, documents.SalesOrderConfirmed, updated.Status)

	_, err = e.orders.UpdateSalesOrderStatus(e.ctx, so.ID, "lost")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = e.orders.UpdateSalesOrderStatus(e.ctx, id.New(), documents.SalesOrderShipped)
	assert.True(t, apperror.IsNotFound(err))
}

func TestInvoices_CreateAndNumber(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t)

	inv, err := e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("1000")})
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", inv.Number)
	assert.Equal(t, documents.InvoiceDraft, inv.Status)
	assert.True(t, inv.PaidAmount.IsZero())
	assert.Equal(t, testNow, inv.Date)

	_, err = e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("1000"), SalesOrderID: id.Ref(id.New())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Related Sales Order does not exist")

	// the rejected invoice did not consume a number
	next, err := e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("5")})
	require.NoError(t, err)
	assert.Equal(t, "INV-000002", next.Number)

	_, err = e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.Zero()})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestInvoices_StatusTransitions(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t)
	inv, err := e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("100")})
	require.NoError(t, err)

	_, err = e.invoices.UpdateStatus(e.ctx, inv.ID, documents.InvoiceSent)
	require.NoError(t, err)

	_, err = e.invoices.UpdateStatus(e.ctx, inv.ID, documents.InvoiceDraft)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Contains(t, err.Error(), "Cannot change invoice status from sent to draft")

	overdue, err := e.invoices.UpdateStatus(e.ctx, inv.ID, documents.InvoiceOverdue)
	require.NoError(t, err)
	assert.Equal(t, documents.InvoiceOverdue, overdue.Status)

	cancelled, err := e.invoices.UpdateStatus(e.ctx, inv.ID, documents.InvoiceCancelled)
	require.NoError(t, err)
	assert.Equal(t, documents.InvoiceCancelled, cancelled.Status)
}

func TestInvoices_DeleteGuardedByPayments(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t)
	acc := &catalogs.Account{Catalog: entity.NewCatalog("Bank"), Code: "1010", Type: catalogs.AccountAsset}
	require.NoError(t, e.stores.Accounts.Create(e.ctx, acc))

	inv, err := e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("100")})
	require.NoError(t, err)
	tr, err := e.m.CreateTransaction(e.ctx, consistency.TransactionInput{
		Amount: types.MustMoney("40"), AccountID: acc.ID, InvoiceID: id.Ref(inv.ID),
	})
	require.NoError(t, err)

	payments, err := e.invoices.Payments(e.ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	err = e.invoices.Delete(e.ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Contains(t, err.Error(), "Cannot delete invoice that has associated payments/transactions")

	require.NoError(t, e.m.DeleteTransaction(e.ctx, tr.ID))
	require.NoError(t, e.invoices.Delete(e.ctx, inv.ID))
	_, err = e.invoices.Get(e.ctx, inv.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestInvoices_MarkOverdue(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t)
	past := testNow.AddDate(0, 0, -1)
	future := testNow.AddDate(0, 0, 10)

	late, err := e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("10"), Date: past.AddDate(0, 0, -30), DueDate: &past})
	require.NoError(t, err)
	onTime, err := e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("10"), DueDate: &future})
	require.NoError(t, err)
	for _, inv := range []*documents.Invoice{late, onTime} {
		_, err := e.invoices.UpdateStatus(e.ctx, inv.ID, documents.InvoiceSent)
		require.NoError(t, err)
	}

	marked, err := e.invoices.MarkOverdue(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	got, err := e.invoices.Get(e.ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.InvoiceOverdue, got.Status)
	got, err = e.invoices.Get(e.ctx, onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.InvoiceSent, got.Status)
}

func TestNumbering_StrategyAndFailure(t *testing.T) {
	db := memory.NewDB()
	stores := memory.NewStores(db)
	log := memory.NewAuditLog(db)
	now := func() time.Time { return testNow }
	m := consistency.New(consistency.Config{Stores: stores, TxManager: db, Audit: log, Now: now})

	var strategies []numerator.Strategy
	fail := false
	gen := &numerator.MockGenerator{
		GetNextNumberFunc: func(_ context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			if fail {
				return "", errors.New("sequence unavailable")
			}
			strategies = append(strategies, opts.Strategy)
			return numerator.Format(cfg, period, 42), nil
		},
	}
	cfg := Config{Maintainer: m, Numerator: gen, Audit: log, Now: now}
	e := &env{ctx: context.Background(), stores: stores, m: m, orders: NewOrderService(cfg), invoices: NewInvoiceService(cfg)}
	c := e.customer(t)

	so, err := e.orders.CreateSalesOrder(e.ctx, SalesOrderInput{CustomerID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "SO-000042", so.Number)
	inv, err := e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("5")})
	require.NoError(t, err)
	assert.Equal(t, "INV-000042", inv.Number)
	assert.Equal(t, []numerator.Strategy{numerator.StrategyCached, numerator.StrategyStrict}, strategies)

	fail = true
	_, err = e.orders.CreateSalesOrder(e.ctx, SalesOrderInput{CustomerID: c.ID})
	require.Error(t, err)
	_, err = e.invoices.Create(e.ctx, InvoiceInput{CustomerID: c.ID, Amount: types.MustMoney("5")})
	require.Error(t, err)

	orders, err := e.orders.ListSalesOrders(e.ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Len(t, orders.Items, 1)
	n, err := stores.Invoices.Count(e.ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
