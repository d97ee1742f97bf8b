package record_repo

import (
	"time"

	"erpledger/internal/domain"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/documents"
	"erpledger/internal/infrastructure/storage/postgres"
)

// Table names.
const (
	TableAccounts           = "accounts"
	TableCustomers          = "customers"
	TableSuppliers          = "suppliers"
	TableDepartments        = "departments"
	TableEmployees          = "employees"
	TableWarehouses         = "warehouses"
	TableProducts           = "products"
	TableSalesOrders        = "sales_orders"
	TablePurchaseOrders     = "purchase_orders"
	TableSalesOrderItems    = "sales_order_items"
	TablePurchaseOrderItems = "purchase_order_items"
	TableStockMovements     = "stock_movements"
	TableInvoices           = "invoices"
	TableTransactions       = "transactions"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// NewStores builds a Postgres Record Store for every ledger table.
func NewStores(txm *postgres.TxManager) domain.Stores {
	return domain.Stores{
		Accounts:    NewRepo(txm, TableAccounts, catalogs.EntityAccount, func() *catalogs.Account { return new(catalogs.Account) }),
		Customers:   NewRepo(txm, TableCustomers, catalogs.EntityCustomer, func() *catalogs.Customer { return new(catalogs.Customer) }),
		Suppliers:   NewRepo(txm, TableSuppliers, catalogs.EntitySupplier, func() *catalogs.Supplier { return new(catalogs.Supplier) }),
		Departments: NewRepo(txm, TableDepartments, catalogs.EntityDepartment, func() *catalogs.Department { return new(catalogs.Department) }),
		Employees:   NewRepo(txm, TableEmployees, catalogs.EntityEmployee, func() *catalogs.Employee { return new(catalogs.Employee) }),
		Warehouses:  NewRepo(txm, TableWarehouses, catalogs.EntityWarehouse, func() *catalogs.Warehouse { return new(catalogs.Warehouse) }),
		Products:    NewRepo(txm, TableProducts, catalogs.EntityProduct, func() *catalogs.Product { return new(catalogs.Product) }),

		SalesOrders:        NewRepo(txm, TableSalesOrders, documents.EntitySalesOrder, func() *documents.SalesOrder { return new(documents.SalesOrder) }),
		PurchaseOrders:     NewRepo(txm, TablePurchaseOrders, documents.EntityPurchaseOrder, func() *documents.PurchaseOrder { return new(documents.PurchaseOrder) }),
		SalesOrderItems:    NewRepo(txm, TableSalesOrderItems, documents.EntitySalesOrderItem, func() *documents.SalesOrderItem { return new(documents.SalesOrderItem) }),
		PurchaseOrderItems: NewRepo(txm, TablePurchaseOrderItems, documents.EntityPurchaseOrderItem, func() *documents.PurchaseOrderItem { return new(documents.PurchaseOrderItem) }),
		StockMovements:     NewRepo(txm, TableStockMovements, documents.EntityStockMovement, func() *documents.StockMovement { return new(documents.StockMovement) }),
		Invoices:           NewRepo(txm, TableInvoices, documents.EntityInvoice, func() *documents.Invoice { return new(documents.Invoice) }),
		Transactions:       NewRepo(txm, TableTransactions, documents.EntityTransaction, func() *documents.Transaction { return new(documents.Transaction) }),
	}
}
