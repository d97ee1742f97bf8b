// Package record_repo provides the PostgreSQL Record Store shared by every
// catalog and document table of the ledger.
package record_repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/domain"
	"erpledger/internal/domain/filter"
	"erpledger/internal/infrastructure/storage/postgres"
	"erpledger/pkg/dbmap"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// Repo is a domain.Store backed by one table. Columns come from the
// entity's "db" tags; the TxManager decides whether a statement joins the
// transaction carried by ctx.
type Repo[T entity.Record] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	validCols  map[string]struct{}
	newFn      func() T
}

// NewRepo creates a repository for tableName.
func NewRepo[T entity.Record](txm *postgres.TxManager, tableName, entityName string, newFn func() T) *Repo[T] {
	cols := dbmap.ExtractDBColumns[T]()
	valid := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		valid[c] = struct{}{}
	}
	return &Repo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: cols,
		validCols:  valid,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *Repo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *Repo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// columns keeps only the table's columns from the entity map.
func (r *Repo[T]) columns(e T, skip ...string) map[string]any {
	data := dbmap.StructToMap(e)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if slices.Contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Create inserts a new entity using its "db" tags.
func (r *Repo[T]) Create(ctx context.Context, e T) error {
	if e.GetVersion() == 0 {
		e.SetVersion(1)
	}
	e.Stamp(nowUTC())

	q := r.Builder().
		Insert(r.tableName).
		SetMap(r.columns(e))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapError(err, e.GetID(), "insert")
	}
	return nil
}

// Update modifies an existing entity with optimistic locking.
func (r *Repo[T]) Update(ctx context.Context, e T) error {
	version := e.GetVersion()
	e.Stamp(nowUTC())

	q := r.Builder().
		Update(r.tableName).
		SetMap(r.columns(e, "id", "version", "created_at")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": e.GetID()}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapError(err, e.GetID(), "update")
	}

	if result.RowsAffected() == 0 {
		exists, err := r.Exists(ctx, domain.ListFilter{IDs: []id.ID{e.GetID()}})
		if err != nil {
			return err
		}
		if !exists {
			return apperror.NewNotFound(r.entityName, e.GetID().String())
		}
		return apperror.NewConcurrentModification(r.entityName, e.GetID().String())
	}

	e.SetVersion(version + 1)
	return nil
}

// baseSelect creates a SELECT builder.
func (r *Repo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID.
func (r *Repo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, entityID, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1))
}

// GetForUpdate retrieves entity by ID with row lock.
func (r *Repo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, entityID, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE"))
}

func (r *Repo[T]) get(ctx context.Context, entityID id.ID, q squirrel.SelectBuilder) (T, error) {
	e := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return e, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return e, nil
}

// filtered applies ids and advanced filters to q.
func (r *Repo[T]) filtered(q squirrel.SelectBuilder, f domain.ListFilter) (squirrel.SelectBuilder, error) {
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	return r.applyAdvancedFilters(q, f.AdvancedFilters)
}

// List retrieves entities with filtering and pagination.
func (r *Repo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q, err := r.filtered(r.baseSelect(), f)
	if err != nil {
		return result, err
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy...)

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

// Count returns the number of rows matching the filter.
func (r *Repo[T]) Count(ctx context.Context, f domain.ListFilter) (int64, error) {
	q, err := r.filtered(r.Builder().Select("id").From(r.tableName), f)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, q)
}

func (r *Repo[T]) count(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	sql, args, err := countQ.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.tableName, err)
	}
	return total, nil
}

// Exists reports whether any row matches the filter.
func (r *Repo[T]) Exists(ctx context.Context, f domain.ListFilter) (bool, error) {
	q, err := r.filtered(r.Builder().Select("1").From(r.tableName), f)
	if err != nil {
		return false, err
	}

	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return true, nil
}

// Delete performs physical removal from the database.
func (r *Repo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapError(err, entityID, "delete")
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

// applyAdvancedFilters applies field predicates. Columns are whitelisted
// against the entity's db tags.
func (r *Repo[T]) applyAdvancedFilters(q squirrel.SelectBuilder, items []filter.Item) (squirrel.SelectBuilder, error) {
	for _, item := range items {
		if _, ok := r.validCols[item.Field]; !ok {
			return q, apperror.NewValidation("invalid filter column").WithDetail("field", item.Field)
		}

		switch item.Operator {
		case filter.Equal, filter.InList:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual, filter.NotInList:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.Less:
			q = q.Where(squirrel.Lt{item.Field: item.Value})
		case filter.Greater:
			q = q.Where(squirrel.Gt{item.Field: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		default:
			return q, apperror.NewValidation("invalid filter operator").WithDetail("operator", string(item.Operator))
		}
	}
	return q, nil
}

// parseOrderBy converts "-field" / "field" into ORDER BY terms.
// Empty means creation order; id breaks ties.
func (r *Repo[T]) parseOrderBy(orderBy string) ([]string, error) {
	if orderBy == "" {
		return []string{"created_at ASC", "id ASC"}, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := r.validCols[field]; !ok {
		return nil, apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return []string{field + " " + direction, "id " + direction}, nil
}

// mapError translates constraint violations into application errors.
func (r *Repo[T]) mapError(err error, entityID id.ID, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return apperror.NewConflict("Record is referenced by other records or references a missing one").
				WithDetail("entity", r.entityName).
				WithDetail("id", entityID.String()).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgUniqueViolation:
			return apperror.NewDuplicate(r.entityName, pgErr.ColumnName, entityID.String()).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		}
	}
	return fmt.Errorf("%s %s: %w", op, r.tableName, err)
}
