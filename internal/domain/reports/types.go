// Package reports provides the read-only dashboard and financial statements.
package reports

import (
	"time"

	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
)

// --- Repository rows ---

// Totals are the scalar aggregates every report draws from.
type Totals struct {
	SalesRevenue   types.Money `db:"sales_revenue" json:"salesRevenue"`
	PurchaseSpend  types.Money `db:"purchase_spend" json:"purchaseSpend"`
	SalesOrders    int64       `db:"sales_orders" json:"salesOrders"`
	PurchaseOrders int64       `db:"purchase_orders" json:"purchaseOrders"`
	Employees      int64       `db:"employees" json:"employees"`
	InventoryValue types.Money `db:"inventory_value" json:"inventoryValue"`

	// OpenReceivables sums sales orders that are not completed.
	OpenReceivables types.Money `db:"open_receivables" json:"openReceivables"`
	// OpenPayables sums purchase orders that are not closed.
	OpenPayables types.Money `db:"open_payables" json:"openPayables"`

	// Inflow sums positive transaction amounts, Outflow the absolute
	// value of negative ones.
	Inflow  types.Money `db:"inflow" json:"inflow"`
	Outflow types.Money `db:"outflow" json:"outflow"`
}

// StatusKind selects the document set for StatusCounts.
type StatusKind string

const (
	StatusSalesOrders    StatusKind = "sales_orders"
	StatusPurchaseOrders StatusKind = "purchase_orders"
	StatusInvoices       StatusKind = "invoices"
)

// StatusCount is the number of documents in one status.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int64  `db:"count" json:"count"`
}

// NamedAmount is an amount attributed to a named record.
type NamedAmount struct {
	ID     id.ID       `db:"id" json:"id"`
	Name   string      `db:"name" json:"name"`
	Amount types.Money `db:"amount" json:"amount"`
}

// ProductStock is a product's stock position.
type ProductStock struct {
	ID           id.ID  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	SKU          string `db:"sku" json:"sku"`
	Stock        int64  `db:"stock" json:"stock"`
	ReorderLevel int64  `db:"reorder_level" json:"reorderLevel"`
}

// DepartmentCount is the headcount of one department.
type DepartmentCount struct {
	Department string `db:"department" json:"department"`
	Employees  int64  `db:"employees" json:"employees"`
}

// UnassignedDepartment buckets employees without a department.
const UnassignedDepartment = "Unassigned"

// --- Dashboard ---

// KPI is the dashboard headline.
type KPI struct {
	TotalRevenue    types.Money `json:"totalRevenue"`
	TotalExpenses   types.Money `json:"totalExpenses"`
	NetProfit       types.Money `json:"netProfit"`
	ActiveEmployees int64       `json:"activeEmployees"`
	SalesOrders     int64       `json:"salesOrders"`
	PurchaseOrders  int64       `json:"purchaseOrders"`
	InventoryValue  types.Money `json:"inventoryValue"`
}

// SalesAnalytics breaks sales orders down by status and customer.
type SalesAnalytics struct {
	OrderStatusCounts []StatusCount `json:"orderStatusCounts"`
	TopCustomers      []NamedAmount `json:"topCustomers"`
}

// ProcurementAnalytics breaks purchase orders down by status and supplier.
type ProcurementAnalytics struct {
	StatusCounts []StatusCount `json:"statusCounts"`
	TopSuppliers []NamedAmount `json:"topSuppliers"`
}

// InventoryAnalytics lists the largest stock positions and reorder candidates.
type InventoryAnalytics struct {
	TopProducts []ProductStock `json:"topProducts"`
	LowStock    []ProductStock `json:"lowStock"`
}

// HRAnalytics is the headcount per department.
type HRAnalytics struct {
	DepartmentCounts []DepartmentCount `json:"departmentCounts"`
}

// InvoiceSummary counts invoices by payment state. Draft and sent count as unpaid.
type InvoiceSummary struct {
	Paid    int64 `json:"paid"`
	Unpaid  int64 `json:"unpaid"`
	Overdue int64 `json:"overdue"`
}

// FinanceAnalytics lists account balances and the invoice summary.
type FinanceAnalytics struct {
	AccountBalances []NamedAmount  `json:"accountBalances"`
	Invoices        InvoiceSummary `json:"invoicesSummary"`
}

// --- Statements ---

// IncomeStatement derives profit from order totals and expense transactions.
type IncomeStatement struct {
	GeneratedAt       time.Time   `json:"generatedAt"`
	Revenue           types.Money `json:"revenue"`
	CostOfGoodsSold   types.Money `json:"costOfGoodsSold"`
	GrossProfit       types.Money `json:"grossProfit"`
	OperatingExpenses types.Money `json:"operatingExpenses"`
	NetIncome         types.Money `json:"netIncome"`
	ProfitMargin      types.Money `json:"profitMargin"`
}

// BalanceSheet is the simplified position at generation time.
type BalanceSheet struct {
	GeneratedAt        time.Time   `json:"generatedAt"`
	Inventory          types.Money `json:"inventory"`
	AccountsReceivable types.Money `json:"accountsReceivable"`
	Cash               types.Money `json:"cash"`
	TotalAssets        types.Money `json:"totalAssets"`
	AccountsPayable    types.Money `json:"accountsPayable"`
	RetainedEarnings   types.Money `json:"retainedEarnings"`
	TotalLiabilities   types.Money `json:"totalLiabilitiesAndEquity"`
	Difference         types.Money `json:"balanceDifference"`
}

// Balanced reports whether assets equal liabilities and equity.
func (b *BalanceSheet) Balanced() bool { return b.Difference.IsZero() }

// CashFlow is the cash flow statement. Only operating activity is recorded.
type CashFlow struct {
	GeneratedAt     time.Time   `json:"generatedAt"`
	Operating       types.Money `json:"operating"`
	Investing       types.Money `json:"investing"`
	Financing       types.Money `json:"financing"`
	Net             types.Money `json:"net"`
	CashFromSales   types.Money `json:"cashFromSales"`
	CashToPurchases types.Money `json:"cashToPurchases"`
	OtherOperating  types.Money `json:"otherOperating"`
}
