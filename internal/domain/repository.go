// Package domain provides the Record Store contract, list filters and
// lifecycle hooks shared by every business package.
package domain

import (
	"context"

	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListFilter contains filtering options for list operations.
type ListFilter struct {
	// IDs filters by specific IDs
	IDs []id.ID

	// AdvancedFilters are ANDed field predicates
	AdvancedFilters []filter.Item

	// OrderBy specifies sorting (e.g., "name", "-created_at").
	// Empty means creation order.
	OrderBy string

	// Limit 0 means no limit (full scans for recomputation)
	Limit  int
	Offset int
}

// DefaultListFilter returns defaults for API listing.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// Where builds an unpaginated filter in creation order.
func Where(items ...filter.Item) ListFilter {
	return ListFilter{AdvancedFilters: items}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Record Store ---

// Store is the generic persistence contract for one entity collection.
// Implementations map a missing row to apperror NotFound and a stale
// Version on Update to apperror ConcurrentModification.
type Store[T entity.Record] interface {
	// Create inserts a new entity
	Create(ctx context.Context, e T) error

	// GetByID retrieves entity by ID
	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetForUpdate retrieves entity by ID and locks the row until the
	// surrounding transaction ends
	GetForUpdate(ctx context.Context, id id.ID) (T, error)

	// Update modifies existing entity (optimistic locking on Version)
	Update(ctx context.Context, e T) error

	// Delete removes the entity physically
	Delete(ctx context.Context, id id.ID) error

	// List retrieves entities with filtering and pagination
	List(ctx context.Context, f ListFilter) (ListResult[T], error)

	// Count returns the number of entities matching the filter
	Count(ctx context.Context, f ListFilter) (int64, error)

	// Exists reports whether at least one entity matches (stops at first match)
	Exists(ctx context.Context, f ListFilter) (bool, error)
}

// All returns every entity matching the filter items.
func All[T entity.Record](ctx context.Context, s Store[T], items ...filter.Item) ([]T, error) {
	res, err := s.List(ctx, Where(items...))
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
