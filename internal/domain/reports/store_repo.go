package reports

import (
	"context"
	"fmt"
	"sort"

	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
	"erpledger/internal/domain"
	"erpledger/internal/domain/documents"
)

// StoreRepository computes reports by scanning Record Stores. It serves
// backends without a query engine, such as the in-memory store.
type StoreRepository struct {
	stores domain.Stores
}

// NewStoreRepository creates a repository over stores.
func NewStoreRepository(stores domain.Stores) *StoreRepository {
	return &StoreRepository{stores: stores}
}

// GetTotals implements Repository.
func (r *StoreRepository) GetTotals(ctx context.Context) (*Totals, error) {
	salesOrders, err := domain.All(ctx, r.stores.SalesOrders)
	if err != nil {
		return nil, fmt.Errorf("scan sales orders: %w", err)
	}
	purchaseOrders, err := domain.All(ctx, r.stores.PurchaseOrders)
	if err != nil {
		return nil, fmt.Errorf("scan purchase orders: %w", err)
	}
	products, err := domain.All(ctx, r.stores.Products)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	transactions, err := domain.All(ctx, r.stores.Transactions)
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	employees, err := r.stores.Employees.Count(ctx, domain.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}

	t := &Totals{
		SalesRevenue:    types.Zero(),
		PurchaseSpend:   types.Zero(),
		SalesOrders:     int64(len(salesOrders)),
		PurchaseOrders:  int64(len(purchaseOrders)),
		Employees:       employees,
		InventoryValue:  types.Zero(),
		OpenReceivables: types.Zero(),
		OpenPayables:    types.Zero(),
		Inflow:          types.Zero(),
		Outflow:         types.Zero(),
	}
	for _, o := range salesOrders {
		t.SalesRevenue = t.SalesRevenue.Add(o.TotalAmount)
		if o.Status != documents.SalesOrderCompleted {
			t.OpenReceivables = t.OpenReceivables.Add(o.TotalAmount)
		}
	}
	for _, o := range purchaseOrders {
		t.PurchaseSpend = t.PurchaseSpend.Add(o.TotalAmount)
		if o.Status != documents.PurchaseOrderClosed {
			t.OpenPayables = t.OpenPayables.Add(o.TotalAmount)
		}
	}
	for _, p := range products {
		t.InventoryValue = t.InventoryValue.Add(types.Times(p.StockQuantity, p.UnitPrice))
	}
	for _, tr := range transactions {
		if tr.Amount.IsPositive() {
			t.Inflow = t.Inflow.Add(tr.Amount)
		} else {
			t.Outflow = t.Outflow.Add(tr.Amount.Abs())
		}
	}
	return t, nil
}

// GetStatusCounts implements Repository.
func (r *StoreRepository) GetStatusCounts(ctx context.Context, kind StatusKind) ([]StatusCount, error) {
	var statuses []string
	switch kind {
	case StatusSalesOrders:
		rows, err := domain.All(ctx, r.stores.SalesOrders)
		if err != nil {
			return nil, err
		}
		for _, o := range rows {
			statuses = append(statuses, string(o.Status))
		}
	case StatusPurchaseOrders:
		rows, err := domain.All(ctx, r.stores.PurchaseOrders)
		if err != nil {
			return nil, err
		}
		for _, o := range rows {
			statuses = append(statuses, string(o.Status))
		}
	case StatusInvoices:
		rows, err := domain.All(ctx, r.stores.Invoices)
		if err != nil {
			return nil, err
		}
		for _, inv := range rows {
			statuses = append(statuses, string(inv.Status))
		}
	default:
		return nil, fmt.Errorf("unknown status kind %q", kind)
	}

	counts := make(map[string]int64)
	for _, s := range statuses {
		counts[s]++
	}
	out := make([]StatusCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, StatusCount{Status: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

// GetTopCustomers implements Repository.
func (r *StoreRepository) GetTopCustomers(ctx context.Context, limit int) ([]NamedAmount, error) {
	customers, err := domain.All(ctx, r.stores.Customers)
	if err != nil {
		return nil, fmt.Errorf("scan customers: %w", err)
	}
	orders, err := domain.All(ctx, r.stores.SalesOrders)
	if err != nil {
		return nil, fmt.Errorf("scan sales orders: %w", err)
	}

	revenue := make(map[id.ID]types.Money, len(customers))
	for _, o := range orders {
		revenue[o.CustomerID] = revenue[o.CustomerID].Add(o.TotalAmount)
	}
	out := make([]NamedAmount, 0, len(customers))
	for _, c := range customers {
		out = append(out, NamedAmount{ID: c.ID, Name: c.Name, Amount: revenue[c.ID]})
	}
	return rankAmounts(out, limit), nil
}

// GetTopSuppliers implements Repository.
func (r *StoreRepository) GetTopSuppliers(ctx context.Context, limit int) ([]NamedAmount, error) {
	suppliers, err := domain.All(ctx, r.stores.Suppliers)
	if err != nil {
		return nil, fmt.Errorf("scan suppliers: %w", err)
	}
	orders, err := domain.All(ctx, r.stores.PurchaseOrders)
	if err != nil {
		return nil, fmt.Errorf("scan purchase orders: %w", err)
	}

	spend := make(map[id.ID]types.Money, len(suppliers))
	for _, o := range orders {
		spend[o.SupplierID] = spend[o.SupplierID].Add(o.TotalAmount)
	}
	out := make([]NamedAmount, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, NamedAmount{ID: s.ID, Name: s.Name, Amount: spend[s.ID]})
	}
	return rankAmounts(out, limit), nil
}

// GetTopProducts implements Repository.
func (r *StoreRepository) GetTopProducts(ctx context.Context, limit int) ([]ProductStock, error) {
	products, err := domain.All(ctx, r.stores.Products)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	out := make([]ProductStock, 0, len(products))
	for _, p := range products {
		out = append(out, ProductStock{ID: p.ID, Name: p.Name, SKU: p.SKU, Stock: p.StockQuantity, ReorderLevel: p.ReorderLevel})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock > out[j].Stock
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetLowStock implements Repository.
func (r *StoreRepository) GetLowStock(ctx context.Context) ([]ProductStock, error) {
	products, err := domain.All(ctx, r.stores.Products)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	out := make([]ProductStock, 0)
	for _, p := range products {
		if p.LowStock() {
			out = append(out, ProductStock{ID: p.ID, Name: p.Name, SKU: p.SKU, Stock: p.StockQuantity, ReorderLevel: p.ReorderLevel})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

// GetDepartmentCounts implements Repository.
func (r *StoreRepository) GetDepartmentCounts(ctx context.Context) ([]DepartmentCount, error) {
	departments, err := domain.All(ctx, r.stores.Departments)
	if err != nil {
		return nil, fmt.Errorf("scan departments: %w", err)
	}
	employees, err := domain.All(ctx, r.stores.Employees)
	if err != nil {
		return nil, fmt.Errorf("scan employees: %w", err)
	}

	names := make(map[id.ID]string, len(departments))
	for _, d := range departments {
		names[d.ID] = d.Name
	}
	counts := make(map[string]int64)
	for _, e := range employees {
		name := UnassignedDepartment
		if e.DepartmentID != nil {
			if n, ok := names[*e.DepartmentID]; ok {
				name = n
			}
		}
		counts[name]++
	}

	out := make([]DepartmentCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, DepartmentCount{Department: name, Employees: n})
	}
	sortDepartments(out)
	return out, nil
}

// GetAccountBalances implements Repository.
func (r *StoreRepository) GetAccountBalances(ctx context.Context) ([]NamedAmount, error) {
	accounts, err := domain.All(ctx, r.stores.Accounts)
	if err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}
	out := make([]NamedAmount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NamedAmount{ID: a.ID, Name: a.Name, Amount: a.Balance})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// rankAmounts sorts by amount descending, then name, and keeps the first limit.
func rankAmounts(rows []NamedAmount, limit int) []NamedAmount {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].Amount.Cmp(rows[j].Amount); c != 0 {
			return c > 0
		}
		return rows[i].Name < rows[j].Name
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// sortDepartments orders by name with the unassigned bucket last.
func sortDepartments(rows []DepartmentCount) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Department, rows[j].Department
		if (a == UnassignedDepartment) != (b == UnassignedDepartment) {
			return b == UnassignedDepartment
		}
		return a < b
	})
}

var _ Repository = (*StoreRepository)(nil)
