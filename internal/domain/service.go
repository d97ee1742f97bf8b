package domain

import (
	"context"
	"fmt"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/tx"
	"erpledger/internal/domain/audit"
	"erpledger/pkg/logger"
)

// CatalogService provides business logic for reference entities:
// validate, before-hooks and write in one transaction, then after-hooks.
// Before-hooks share the write's transaction, so delete guards and
// uniqueness checks read the same snapshot the write commits against.
type CatalogService[T entity.Record] struct {
	store     Store[T]
	txManager tx.Manager
	audit     audit.Recorder
	hooks     *HookRegistry[T]

	// entityName for error messages and audit entries
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Record] struct {
	Store      Store[T]
	TxManager  tx.Manager
	Audit      audit.Recorder
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Record](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Passthrough
	}
	rec := cfg.Audit
	if rec == nil {
		rec = audit.Nop{}
	}
	return &CatalogService[T]{
		store:      cfg.Store,
		txManager:  txm,
		audit:      rec,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName returns the name used in errors and audit entries.
func (s *CatalogService[T]) EntityName() string {
	return s.entityName
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	// If entity already returns structured AppError, keep it.
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", entityID.String())
}

func (s *CatalogService[T]) record(ctx context.Context, action audit.Action, entityID id.ID, changes map[string]any) error {
	entry := audit.Prepare(ctx, audit.Entry{
		EntityType: s.entityName,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
	}, time.Now().UTC())
	if err := s.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit %s %s: %w", action, s.entityName, err)
	}
	return nil
}

// runAfter executes after-hooks. The write is committed at this point,
// so failures are logged and swallowed.
func (s *CatalogService[T]) runAfter(ctx context.Context, event HookEvent, e T) {
	if err := s.hooks.Run(ctx, event, e); err != nil {
		logger.Warn(ctx, "after hook failed",
			"entity", s.entityName, "id", e.GetID().String(), "event", string(event), "error", err)
	}
}

// Create creates a new catalog entity.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
			return err
		}
		if err := s.store.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return s.record(ctx, audit.ActionCreate, e.GetID(), audit.Snapshot(e))
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterCreate, e)
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.store.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// Update updates an existing entity. The caller's Version is checked
// against the stored one.
func (s *CatalogService[T]) Update(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		old, err := s.store.GetForUpdate(ctx, e.GetID())
		if err != nil {
			return s.normalizeGetErr(err, e.GetID())
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
			return err
		}
		if err := s.store.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return s.record(ctx, audit.ActionUpdate, e.GetID(), audit.Diff(audit.Snapshot(old), audit.Snapshot(e)))
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterUpdate, e)
	return nil
}

// Delete removes the entity physically. Delete guards registered as
// before-delete hooks veto the removal.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	var deleted T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.store.GetForUpdate(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
			return err
		}
		if err := s.store.Delete(ctx, entityID); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		deleted = e
		return s.record(ctx, audit.ActionDelete, entityID, nil)
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterDelete, deleted)
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.store.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.store.Exists(ctx, ListFilter{IDs: []id.ID{entityID}})
}
