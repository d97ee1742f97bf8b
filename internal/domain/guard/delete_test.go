package guard

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

func transaction(accountID id.ID) *documents.Transaction {
	return &documents.Transaction{
		BaseEntity: entity.NewBaseEntity(),
		Date:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:     types.MustMoney("10"),
		AccountID:  accountID,
	}
}

func invoice(customerID id.ID, status documents.InvoiceStatus) *documents.Invoice {
	return &documents.Invoice{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Amount:     types.MustMoney("100"),
		PaidAmount: types.Zero(),
		Status:     status,
	}
}

func TestDeleteTable_Check(t *testing.T) {
	tests := []struct {
		name    string
		parent  string
		seed    func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID)
		blocked bool
	}{
		{
			name:   "account without transactions",
			parent: catalogs.EntityAccount,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, _ id.ID) {
				require.NoError(t, s.Transactions.Create(ctx, transaction(id.New())))
			},
		},
		{
			name:   "account with a transaction",
			parent: catalogs.EntityAccount,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				require.NoError(t, s.Transactions.Create(ctx, transaction(parentID)))
			},
			blocked: true,
		},
		{
			name:   "customer with sent invoice",
			parent: catalogs.EntityCustomer,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				require.NoError(t, s.Invoices.Create(ctx, invoice(parentID, documents.InvoiceSent)))
			},
			blocked: true,
		},
		{
			name:   "customer with overdue invoice",
			parent: catalogs.EntityCustomer,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				require.NoError(t, s.Invoices.Create(ctx, invoice(parentID, documents.InvoiceOverdue)))
			},
			blocked: true,
		},
		{
			name:   "customer with paid and cancelled invoices",
			parent: catalogs.EntityCustomer,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				require.NoError(t, s.Invoices.Create(ctx, invoice(parentID, documents.InvoicePaid)))
				require.NoError(t, s.Invoices.Create(ctx, invoice(parentID, documents.InvoiceCancelled)))
			},
		},
		{
			name:   "customer with confirmed sales order",
			parent: catalogs.EntityCustomer,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				o := documents.NewSalesOrder(parentID)
				o.Status = documents.SalesOrderConfirmed
				require.NoError(t, s.SalesOrders.Create(ctx, o))
			},
			blocked: true,
		},
		{
			name:   "customer with completed sales order",
			parent: catalogs.EntityCustomer,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				o := documents.NewSalesOrder(parentID)
				o.Status = documents.SalesOrderCompleted
				require.NoError(t, s.SalesOrders.Create(ctx, o))
			},
		},
		{
			name:   "department with employee",
			parent: catalogs.EntityDepartment,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				e := &catalogs.Employee{Catalog: entity.NewCatalog("Dana"), DepartmentID: id.Ref(parentID)}
				require.NoError(t, s.Employees.Create(ctx, e))
			},
			blocked: true,
		},
		{
			name:   "department with unassigned employee",
			parent: catalogs.EntityDepartment,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, _ id.ID) {
				require.NoError(t, s.Employees.Create(ctx, &catalogs.Employee{Catalog: entity.NewCatalog("Lee")}))
			},
		},
		{
			name:   "employee with transaction",
			parent: catalogs.EntityEmployee,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				tr := transaction(id.New())
				tr.EmployeeID = id.Ref(parentID)
				require.NoError(t, s.Transactions.Create(ctx, tr))
			},
			blocked: true,
		},
		{
			name:   "employee with transactions of others",
			parent: catalogs.EntityEmployee,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, _ id.ID) {
				tr := transaction(id.New())
				tr.EmployeeID = id.Ref(id.New())
				require.NoError(t, s.Transactions.Create(ctx, tr))
				require.NoError(t, s.Transactions.Create(ctx, transaction(id.New())))
			},
		},
		{
			name:   "supplier with draft purchase order",
			parent: catalogs.EntitySupplier,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				require.NoError(t, s.PurchaseOrders.Create(ctx, documents.NewPurchaseOrder(parentID)))
			},
			blocked: true,
		},
		{
			name:   "supplier with confirmed purchase order",
			parent: catalogs.EntitySupplier,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				o := documents.NewPurchaseOrder(parentID)
				o.Status = documents.PurchaseOrderConfirmed
				require.NoError(t, s.PurchaseOrders.Create(ctx, o))
			},
			blocked: true,
		},
		{
			name:   "supplier with received and closed purchase orders",
			parent: catalogs.EntitySupplier,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				for _, status := range []documents.PurchaseOrderStatus{documents.PurchaseOrderReceived, documents.PurchaseOrderClosed} {
					o := documents.NewPurchaseOrder(parentID)
					o.Status = status
					require.NoError(t, s.PurchaseOrders.Create(ctx, o))
				}
			},
		},
		{
			name:   "warehouse with stock movement",
			parent: catalogs.EntityWarehouse,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				mv := &documents.StockMovement{
					BaseEntity:   entity.NewBaseEntity(),
					ProductID:    id.New(),
					WarehouseID:  id.Ref(parentID),
					Type:         documents.MovementInbound,
					Quantity:     3,
					MovementDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				}
				require.NoError(t, s.StockMovements.Create(ctx, mv))
			},
			blocked: true,
		},
		{
			name:   "warehouse with movements elsewhere",
			parent: catalogs.EntityWarehouse,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, _ id.ID) {
				mv := &documents.StockMovement{
					BaseEntity: entity.NewBaseEntity(),
					ProductID:  id.New(),
					Type:       documents.MovementOutbound,
					Quantity:   1,
				}
				require.NoError(t, s.StockMovements.Create(ctx, mv))
			},
		},
		{
			name:   "invoice with payment",
			parent: documents.EntityInvoice,
			seed: func(t *testing.T, ctx context.Context, s domain.Stores, parentID id.ID) {
				tr := transaction(id.New())
				tr.InvoiceID = id.Ref(parentID)
				require.NoError(t, s.Transactions.Create(ctx, tr))
			},
			blocked: true,
		},
		{
			name:   "invoice without payments",
			parent: documents.EntityInvoice,
			seed:   func(*testing.T, context.Context, domain.Stores, id.ID) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			stores := memory.NewStores(memory.NewDB())
			parentID := id.New()
			tt.seed(t, ctx, stores, parentID)

			err := NewDeleteTable(stores).Check(ctx, tt.parent, parentID)
			if !tt.blocked {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.parent, appErr.Details["entity"])
			assert.Equal(t, parentID.String(), appErr.Details["id"])
		})
	}
}

func TestDeleteTable_EveryGuardedParentHasRules(t *testing.T) {
	table := NewDeleteTable(memory.NewStores(memory.NewDB()))
	for _, parent := range []string{
		catalogs.EntityAccount,
		catalogs.EntityCustomer,
		catalogs.EntityDepartment,
		catalogs.EntityEmployee,
		catalogs.EntitySupplier,
		catalogs.EntityWarehouse,
		documents.EntityInvoice,
	} {
		assert.NotEmpty(t, table.Rules(parent), parent)
	}
	assert.Empty(t, table.Rules(catalogs.EntityProduct))
}
