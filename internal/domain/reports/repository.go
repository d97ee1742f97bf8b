package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	GetTotals(ctx context.Context) (*Totals, error)
	GetStatusCounts(ctx context.Context, kind StatusKind) ([]StatusCount, error)

	// Rankings, largest first
	GetTopCustomers(ctx context.Context, limit int) ([]NamedAmount, error)
	GetTopSuppliers(ctx context.Context, limit int) ([]NamedAmount, error)
	GetTopProducts(ctx context.Context, limit int) ([]ProductStock, error)

	GetLowStock(ctx context.Context) ([]ProductStock, error)
	GetDepartmentCounts(ctx context.Context) ([]DepartmentCount, error)
	GetAccountBalances(ctx context.Context) ([]NamedAmount, error)
}
