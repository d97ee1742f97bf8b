// Package workflow holds the document services: sales and purchase orders
// with their status workflow and purchase receipt, and invoices with
// numbering, status guard and guarded delete. Line items, movements and
// transactions go through the consistency maintainer.
package workflow

import (
	"context"
	"fmt"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/lock"
	"erpledger/internal/core/numerator"
	"erpledger/internal/core/tx"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/guard"
)

// Config wires the document services. Stores, transactions and locks are
// taken from the maintainer so every writer shares them.
type Config struct {
	Maintainer *consistency.Maintainer
	Numerator  numerator.Generator
	Audit      audit.Recorder
	Guards     *guard.DeleteTable

	// Now returns the current time; defaults to time.Now in UTC
	Now func() time.Time
}

// base carries what every document service needs.
type base struct {
	m         *consistency.Maintainer
	stores    domain.Stores
	txm       tx.Manager
	locker    lock.Locker
	numerator numerator.Generator
	audit     audit.Recorder
	guards    *guard.DeleteTable
	now       func() time.Time
}

func newBase(cfg Config) base {
	b := base{
		m:         cfg.Maintainer,
		stores:    cfg.Maintainer.Stores(),
		txm:       cfg.Maintainer.TxManager(),
		locker:    cfg.Maintainer.Locker(),
		numerator: cfg.Numerator,
		audit:     cfg.Audit,
		guards:    cfg.Guards,
		now:       cfg.Now,
	}
	if b.audit == nil {
		b.audit = audit.Nop{}
	}
	if b.guards == nil {
		b.guards = guard.NewDeleteTable(b.stores)
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	return b
}

// run takes the keys, then runs fn in one transaction.
func (b *base) run(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	ctx, release, err := lock.Acquire(ctx, b.locker, keys...)
	if err != nil {
		return err
	}
	defer release()

	return b.txm.RunInTransaction(ctx, fn)
}

// nextNumber assigns the next PREFIX-000001 number. It runs inside the
// caller's transaction so a rolled-back document does not consume a
// strict number.
func (b *base) nextNumber(ctx context.Context, prefix string, strategy numerator.Strategy) (string, error) {
	number, err := b.numerator.GetNextNumber(ctx, numerator.DefaultConfig(prefix),
		&numerator.Options{Strategy: strategy}, b.now())
	if err != nil {
		return "", fmt.Errorf("generate %s number: %w", prefix, err)
	}
	return number, nil
}

func (b *base) record(ctx context.Context, action audit.Action, entityType string, entityID id.ID, changes map[string]any) error {
	entry := audit.Prepare(ctx, audit.Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
	}, b.now())
	if err := b.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit %s %s: %w", action, entityType, err)
	}
	return nil
}

// related loads a referenced record, reporting a miss with message.
func related[T entity.Record](ctx context.Context, store domain.Store[T], ref id.ID, entityName, message string) (T, error) {
	rec, err := store.GetByID(ctx, ref)
	if err != nil && apperror.IsNotFound(err) {
		e := apperror.NewNotFound(entityName, ref.String())
		e.Message = message
		return rec, e
	}
	return rec, err
}

func notFound(err error, entityName string, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entityName, entityID.String())
	}
	return err
}
