package reports

import (
	"context"
	"fmt"
	"time"

	"erpledger/internal/core/types"
	"erpledger/internal/domain/documents"
)

// Rankings on the dashboard show this many rows.
const defaultTopN = 5

// Service provides report generation operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the clock stamped on statements.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetKPI returns the dashboard headline.
func (s *Service) GetKPI(ctx context.Context) (*KPI, error) {
	t, err := s.repo.GetTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get kpi: %w", err)
	}
	return &KPI{
		TotalRevenue:    t.SalesRevenue,
		TotalExpenses:   t.PurchaseSpend,
		NetProfit:       t.SalesRevenue.Sub(t.PurchaseSpend),
		ActiveEmployees: t.Employees,
		SalesOrders:     t.SalesOrders,
		PurchaseOrders:  t.PurchaseOrders,
		InventoryValue:  t.InventoryValue,
	}, nil
}

// GetSalesAnalytics returns order status counts and the top customers by revenue.
func (s *Service) GetSalesAnalytics(ctx context.Context) (*SalesAnalytics, error) {
	counts, err := s.repo.GetStatusCounts(ctx, StatusSalesOrders)
	if err != nil {
		return nil, fmt.Errorf("get sales analytics: %w", err)
	}
	top, err := s.repo.GetTopCustomers(ctx, defaultTopN)
	if err != nil {
		return nil, fmt.Errorf("get sales analytics: %w", err)
	}
	return &SalesAnalytics{OrderStatusCounts: counts, TopCustomers: top}, nil
}

// GetProcurementAnalytics returns PO status counts and the top suppliers by spend.
func (s *Service) GetProcurementAnalytics(ctx context.Context) (*ProcurementAnalytics, error) {
	counts, err := s.repo.GetStatusCounts(ctx, StatusPurchaseOrders)
	if err != nil {
		return nil, fmt.Errorf("get procurement analytics: %w", err)
	}
	top, err := s.repo.GetTopSuppliers(ctx, defaultTopN)
	if err != nil {
		return nil, fmt.Errorf("get procurement analytics: %w", err)
	}
	return &ProcurementAnalytics{StatusCounts: counts, TopSuppliers: top}, nil
}

// GetInventoryAnalytics returns the largest stock positions and the low stock list.
func (s *Service) GetInventoryAnalytics(ctx context.Context) (*InventoryAnalytics, error) {
	top, err := s.repo.GetTopProducts(ctx, defaultTopN)
	if err != nil {
		return nil, fmt.Errorf("get inventory analytics: %w", err)
	}
	low, err := s.repo.GetLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("get inventory analytics: %w", err)
	}
	return &InventoryAnalytics{TopProducts: top, LowStock: low}, nil
}

// GetHRAnalytics returns the headcount per department.
func (s *Service) GetHRAnalytics(ctx context.Context) (*HRAnalytics, error) {
	counts, err := s.repo.GetDepartmentCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get hr analytics: %w", err)
	}
	return &HRAnalytics{DepartmentCounts: counts}, nil
}

// GetFinanceAnalytics returns account balances and the invoice summary.
func (s *Service) GetFinanceAnalytics(ctx context.Context) (*FinanceAnalytics, error) {
	balances, err := s.repo.GetAccountBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("get finance analytics: %w", err)
	}
	counts, err := s.repo.GetStatusCounts(ctx, StatusInvoices)
	if err != nil {
		return nil, fmt.Errorf("get finance analytics: %w", err)
	}

	var summary InvoiceSummary
	for _, c := range counts {
		switch documents.InvoiceStatus(c.Status) {
		case documents.InvoicePaid:
			summary.Paid += c.Count
		case documents.InvoiceDraft, documents.InvoiceSent:
			summary.Unpaid += c.Count
		case documents.InvoiceOverdue:
			summary.Overdue += c.Count
		}
	}
	return &FinanceAnalytics{AccountBalances: balances, Invoices: summary}, nil
}

// GetIncomeStatement treats sales order totals as revenue, purchase order
// totals as cost of goods sold and negative transactions as operating expenses.
func (s *Service) GetIncomeStatement(ctx context.Context) (*IncomeStatement, error) {
	t, err := s.repo.GetTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get income statement: %w", err)
	}
	gross := t.SalesRevenue.Sub(t.PurchaseSpend)
	net := gross.Sub(t.Outflow)
	return &IncomeStatement{
		GeneratedAt:       s.now(),
		Revenue:           t.SalesRevenue,
		CostOfGoodsSold:   t.PurchaseSpend,
		GrossProfit:       gross,
		OperatingExpenses: t.Outflow,
		NetIncome:         net,
		ProfitMargin:      types.Percent(net, t.SalesRevenue),
	}, nil
}

// GetBalanceSheet builds the simplified balance sheet. Cash is floored at
// zero on the asset side.
func (s *Service) GetBalanceSheet(ctx context.Context) (*BalanceSheet, error) {
	t, err := s.repo.GetTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get balance sheet: %w", err)
	}
	cash := types.FloorZero(t.Inflow.Sub(t.Outflow))
	assets := types.Sum(t.InventoryValue, t.OpenReceivables, cash)
	retained := t.SalesRevenue.Sub(t.PurchaseSpend)
	liabilities := t.OpenPayables.Add(retained)
	return &BalanceSheet{
		GeneratedAt:        s.now(),
		Inventory:          t.InventoryValue,
		AccountsReceivable: t.OpenReceivables,
		Cash:               cash,
		TotalAssets:        assets,
		AccountsPayable:    t.OpenPayables,
		RetainedEarnings:   retained,
		TotalLiabilities:   liabilities,
		Difference:         assets.Sub(liabilities),
	}, nil
}

// GetCashFlow builds the cash flow statement from net transactions.
func (s *Service) GetCashFlow(ctx context.Context) (*CashFlow, error) {
	t, err := s.repo.GetTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("get cash flow: %w", err)
	}
	operating := t.Inflow.Sub(t.Outflow)
	return &CashFlow{
		GeneratedAt:     s.now(),
		Operating:       operating,
		Investing:       types.Zero(),
		Financing:       types.Zero(),
		Net:             operating,
		CashFromSales:   t.SalesRevenue,
		CashToPurchases: t.PurchaseSpend,
		OtherOperating:  operating.Sub(t.SalesRevenue).Add(t.PurchaseSpend),
	}, nil
}
