package masterdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
	"erpledger/internal/domain"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/documents"
	"erpledger/internal/infrastructure/storage/memory"
)

func newServices(t *testing.T) (*Services, domain.Stores) {
	t.Helper()
	db := memory.NewDB()
	stores := memory.NewStores(db)
	return New(Config{Stores: stores, TxManager: db, Audit: memory.NewAuditLog(db)}), stores
}

func newProduct(sku string, stock int64) *catalogs.Product {
	return &catalogs.Product{
		Catalog:       entity.NewCatalog("Product " + sku),
		SKU:           sku,
		StockQuantity: stock,
		UnitPrice:     types.MustMoney("10"),
	}
}

func TestAccountDelete_GuardedByTransactions(t *testing.T) {
	ctx := context.Background()
	svc, stores := newServices(t)

	acc := &catalogs.Account{Catalog: entity.NewCatalog("Cash"), Code: "1000", Type: catalogs.AccountAsset}
	require.NoError(t, svc.Accounts.Create(ctx, acc))

	tr := &documents.Transaction{
		BaseEntity: entity.NewBaseEntity(),
		Date:       time.Now().UTC(),
		Amount:     types.MustMoney("5"),
		AccountID:  acc.ID,
	}
	require.NoError(t, stores.Transactions.Create(ctx, tr))

	err := svc.Accounts.Delete(ctx, acc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Contains(t, err.Error(), "Cannot delete account that has associated transactions")

	_, err = svc.Accounts.GetByID(ctx, acc.ID)
	require.NoError(t, err)

	require.NoError(t, stores.Transactions.Delete(ctx, tr.ID))
	require.NoError(t, svc.Accounts.Delete(ctx, acc.ID))

	_, err = svc.Accounts.GetByID(ctx, acc.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCustomerDelete_OnlyUnsettledInvoicesBlock(t *testing.T) {
	ctx := context.Background()
	svc, stores := newServices(t)

	c := &catalogs.Customer{Party: catalogs.Party{Catalog: entity.NewCatalog("Acme")}}
	require.NoError(t, svc.Customers.Create(ctx, c))

	inv := &documents.Invoice{
		Document:   entity.NewDocument(),
		CustomerID: c.ID,
		Amount:     types.MustMoney("100"),
		Status:     documents.InvoiceSent,
	}
	require.NoError(t, stores.Invoices.Create(ctx, inv))

	err := svc.Customers.Delete(ctx, c.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot delete customer with unpaid invoices")

	inv.Status = documents.InvoicePaid
	require.NoError(t, stores.Invoices.Update(ctx, inv))

	order := documents.NewSalesOrder(c.ID)
	require.NoError(t, stores.SalesOrders.Create(ctx, order))
	err = svc.Customers.Delete(ctx, c.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot delete customer with active sales orders")

	order.Status = documents.SalesOrderCompleted
	require.NoError(t, stores.SalesOrders.Update(ctx, order))
	require.NoError(t, svc.Customers.Delete(ctx, c.ID))
}

func TestDepartmentDelete_GuardedByEmployees(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	dep := &catalogs.Department{Catalog: entity.NewCatalog("Sales")}
	require.NoError(t, svc.Departments.Create(ctx, dep))

	emp := &catalogs.Employee{Catalog: entity.NewCatalog("Ann"), DepartmentID: id.Ref(dep.ID)}
	require.NoError(t, svc.Employees.Create(ctx, emp))

	err := svc.Departments.Delete(ctx, dep.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, catalogs.EntityEmployee, appErr.Details["dependent"])

	require.NoError(t, svc.Employees.Delete(ctx, emp.ID))
	require.NoError(t, svc.Departments.Delete(ctx, dep.ID))
}

func TestEmployee_UnknownDepartment(t *testing.T) {
	svc, _ := newServices(t)

	emp := &catalogs.Employee{Catalog: entity.NewCatalog("Bob"), DepartmentID: id.Ref(id.New())}
	err := svc.Employees.Create(context.Background(), emp)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Contains(t, err.Error(), "Department does not exist")
}

func TestAccountUpdate_KeepsDerivedBalance(t *testing.T) {
	ctx := context.Background()
	svc, stores := newServices(t)

	acc := &catalogs.Account{Catalog: entity.NewCatalog("Cash"), Code: "1000", Type: catalogs.AccountAsset}
	acc.Balance = types.MustMoney("999")
	require.NoError(t, svc.Accounts.Create(ctx, acc))
	assert.True(t, acc.Balance.IsZero())

	stored, err := stores.Accounts.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	stored.Balance = types.MustMoney("250")
	require.NoError(t, stores.Accounts.Update(ctx, stored))

	stored.Name = "Petty cash"
	stored.Balance = types.MustMoney("1")
	require.NoError(t, svc.Accounts.Update(ctx, stored))

	got, err := svc.Accounts.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Petty cash", got.Name)
	assert.Equal(t, "250.00", got.Balance.StringFixed(2))
}

func TestProducts_UniqueSKU(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	first := newProduct("W-1", 5)
	require.NoError(t, svc.Products.Create(ctx, first))

	err := svc.Products.Create(ctx, newProduct("W-1", 1))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Contains(t, err.Error(), "Product with SKU W-1 already exists")

	second := newProduct("W-2", 1)
	require.NoError(t, svc.Products.Create(ctx, second))
	second.SKU = "W-1"
	assert.Error(t, svc.Products.Update(ctx, second))

	// keeping its own SKU is not a clash
	first.Name = "Renamed"
	require.NoError(t, svc.Products.Update(ctx, first))
}

func TestProducts_StockFloor(t *testing.T) {
	ctx := context.Background()
	svc, stores := newServices(t)

	p := newProduct("W-1", 5)
	require.NoError(t, svc.Products.Create(ctx, p))

	order := documents.NewSalesOrder(id.New())
	require.NoError(t, stores.SalesOrders.Create(ctx, order))
	require.NoError(t, stores.SalesOrderItems.Create(ctx, &documents.SalesOrderItem{
		BaseEntity:   entity.NewBaseEntity(),
		SalesOrderID: order.ID,
		ProductID:    p.ID,
		Quantity:     2,
		UnitPrice:    types.MustMoney("10"),
		Subtotal:     types.MustMoney("20"),
	}))

	p.StockQuantity = -1
	err := svc.Products.Update(ctx, p)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Contains(t, err.Error(), "Cannot reduce stock below zero when product has pending orders")

	order.Status = documents.SalesOrderShipped
	require.NoError(t, stores.SalesOrders.Update(ctx, order))

	current, err := svc.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	current.StockQuantity = -1
	require.NoError(t, svc.Products.Update(ctx, current))
}

func TestProducts_LowStock(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServices(t)

	a := newProduct("A", 3)
	a.ReorderLevel = 5
	b := newProduct("B", 1)
	b.ReorderLevel = 2
	c := newProduct("C", 50)
	c.ReorderLevel = 10
	for _, p := range []*catalogs.Product{a, b, c} {
		require.NoError(t, svc.Products.Create(ctx, p))
	}

	low, err := svc.Products.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "B", low[0].SKU)
	assert.Equal(t, "A", low[1].SKU)
}
