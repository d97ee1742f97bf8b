package memory

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/domain"
	"erpledger/pkg/dbmap"
)

// Store is an in-memory domain.Store. Rows are cloned on the way in and
// out so callers never share state with the collection.
type Store[T entity.Record] struct {
	db     *DB
	entity string

	mu   sync.RWMutex
	rows map[id.ID]T
}

// NewStore creates a collection registered with db.
func NewStore[T entity.Record](db *DB, entityName string) *Store[T] {
	s := &Store[T]{
		db:     db,
		entity: entityName,
		rows:   make(map[id.ID]T),
	}
	db.register(s)
	return s
}

func (s *Store[T]) snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[id.ID]T, len(s.rows))
	for k, v := range s.rows {
		cp[k] = v
	}
	return cp
}

func (s *Store[T]) restore(state any) {
	s.mu.Lock()
	s.rows = state.(map[id.ID]T)
	s.mu.Unlock()
}

// Create inserts a new entity.
func (s *Store[T]) Create(ctx context.Context, e T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rows[e.GetID()]; exists {
		return apperror.NewConflict(s.entity + " already exists").WithDetail("id", e.GetID().String())
	}
	if e.GetVersion() == 0 {
		e.SetVersion(1)
	}
	e.Stamp(s.db.now())
	s.rows[e.GetID()] = clone(e)
	return nil
}

// GetByID retrieves entity by ID.
func (s *Store[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[entityID]
	if !ok {
		return zero, apperror.NewNotFound(s.entity, entityID.String())
	}
	return clone(row), nil
}

// GetForUpdate behaves like GetByID; transactions are already serialized.
func (s *Store[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return s.GetByID(ctx, entityID)
}

// Update replaces the entity if its version matches, then bumps the version.
func (s *Store[T]) Update(ctx context.Context, e T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows[e.GetID()]
	if !ok {
		return apperror.NewNotFound(s.entity, e.GetID().String())
	}
	if current.GetVersion() != e.GetVersion() {
		return apperror.NewConcurrentModification(s.entity, e.GetID().String())
	}
	e.SetVersion(e.GetVersion() + 1)
	e.Stamp(s.db.now())
	s.rows[e.GetID()] = clone(e)
	return nil
}

// Delete removes the entity.
func (s *Store[T]) Delete(ctx context.Context, entityID id.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[entityID]; !ok {
		return apperror.NewNotFound(s.entity, entityID.String())
	}
	delete(s.rows, entityID)
	return nil
}

// List retrieves entities with filtering and pagination.
func (s *Store[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	matched, err := s.match(ctx, f, 0)
	if err != nil {
		return domain.ListResult[T]{}, err
	}
	if err := sortRows(matched, f.OrderBy); err != nil {
		return domain.ListResult[T]{}, err
	}

	total := int64(len(matched))
	page := paginate(matched, f.Limit, f.Offset)

	items := make([]T, len(page))
	for i, r := range page {
		items[i] = clone(r.entity)
	}
	return domain.ListResult[T]{Items: items, TotalCount: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Count returns the number of entities matching the filter.
func (s *Store[T]) Count(ctx context.Context, f domain.ListFilter) (int64, error) {
	matched, err := s.match(ctx, f, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Exists stops scanning at the first match.
func (s *Store[T]) Exists(ctx context.Context, f domain.ListFilter) (bool, error) {
	matched, err := s.match(ctx, f, 1)
	if err != nil {
		return false, err
	}
	return len(matched) > 0, nil
}

type row[T any] struct {
	entity T
	cols   map[string]any
}

func (s *Store[T]) match(ctx context.Context, f domain.ListFilter, stopAfter int) ([]row[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, item := range f.AdvancedFilters {
		if !item.Valid() {
			return nil, apperror.NewValidation("unsupported filter operator").
				WithDetail("operator", string(item.Operator))
		}
	}

	var ids map[id.ID]struct{}
	if len(f.IDs) > 0 {
		ids = make(map[id.ID]struct{}, len(f.IDs))
		for _, v := range f.IDs {
			ids[v] = struct{}{}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []row[T]
	for key, e := range s.rows {
		if ids != nil {
			if _, ok := ids[key]; !ok {
				continue
			}
		}
		cols := dbmap.StructToMap(e)
		ok, err := matchAll(cols, f.AdvancedFilters)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, row[T]{entity: e, cols: cols})
		if stopAfter > 0 && len(out) >= stopAfter {
			break
		}
	}
	return out, nil
}

func sortRows[T entity.Record](rows []row[T], orderBy string) error {
	desc := strings.HasPrefix(orderBy, "-")
	col := strings.TrimPrefix(orderBy, "-")

	sort.SliceStable(rows, func(i, j int) bool {
		if col != "" {
			if c, ok := dbmap.Compare(rows[i].cols[col], rows[j].cols[col]); ok && c != 0 {
				if desc {
					return c > 0
				}
				return c < 0
			}
		}
		// UUIDv7 ids are creation-ordered
		a, b := rows[i].entity.GetID().String(), rows[j].entity.GetID().String()
		if desc && col != "" {
			return a > b
		}
		return a < b
	})
	if col != "" && len(rows) > 0 {
		if _, ok := rows[0].cols[col]; !ok {
			return apperror.NewValidation("unknown sort field").WithDetail("field", col)
		}
	}
	return nil
}

func paginate[T any](rows []row[T], limit, offset int) []row[T] {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// clone copies the struct behind a pointer entity.
func clone[T any](v T) T {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return v
	}
	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface().(T)
}
