package memory

import (
	"erpledger/internal/domain"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/documents"
)

// NewStores registers one collection per entity kind with db.
func NewStores(db *DB) domain.Stores {
	return domain.Stores{
		Accounts:    NewStore[*catalogs.Account](db, catalogs.EntityAccount),
		Customers:   NewStore[*catalogs.Customer](db, catalogs.EntityCustomer),
		Suppliers:   NewStore[*catalogs.Supplier](db, catalogs.EntitySupplier),
		Departments: NewStore[*catalogs.Department](db, catalogs.EntityDepartment),
		Employees:   NewStore[*catalogs.Employee](db, catalogs.EntityEmployee),
		Warehouses:  NewStore[*catalogs.Warehouse](db, catalogs.EntityWarehouse),
		Products:    NewStore[*catalogs.Product](db, catalogs.EntityProduct),

		SalesOrders:        NewStore[*documents.SalesOrder](db, documents.EntitySalesOrder),
		PurchaseOrders:     NewStore[*documents.PurchaseOrder](db, documents.EntityPurchaseOrder),
		SalesOrderItems:    NewStore[*documents.SalesOrderItem](db, documents.EntitySalesOrderItem),
		PurchaseOrderItems: NewStore[*documents.PurchaseOrderItem](db, documents.EntityPurchaseOrderItem),
		StockMovements:     NewStore[*documents.StockMovement](db, documents.EntityStockMovement),
		Invoices:           NewStore[*documents.Invoice](db, documents.EntityInvoice),
		Transactions:       NewStore[*documents.Transaction](db, documents.EntityTransaction),
	}
}
