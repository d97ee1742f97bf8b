package domain

import (
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/documents"
)

// Stores bundles one Record Store per entity kind. Both the Postgres and
// the in-memory backends produce a Stores value at wiring time.
type Stores struct {
	Accounts    Store[*catalogs.Account]
	Customers   Store[*catalogs.Customer]
	Suppliers   Store[*catalogs.Supplier]
	Departments Store[*catalogs.Department]
	Employees   Store[*catalogs.Employee]
	Warehouses  Store[*catalogs.Warehouse]
	Products    Store[*catalogs.Product]

	SalesOrders        Store[*documents.SalesOrder]
	PurchaseOrders     Store[*documents.PurchaseOrder]
	SalesOrderItems    Store[*documents.SalesOrderItem]
	PurchaseOrderItems Store[*documents.PurchaseOrderItem]
	StockMovements     Store[*documents.StockMovement]
	Invoices           Store[*documents.Invoice]
	Transactions       Store[*documents.Transaction]
}
