// Package consistency keeps every derived aggregate of the ledger equal to
// a function of its children. Each child mutation runs in one transaction
// under a keyed lock on the affected parents and finishes by recomputing
// those parents from their full current child set.
package consistency

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/id"
	"erpledger/internal/core/lock"
	"erpledger/internal/core/tx"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/guard"
	"erpledger/pkg/logger"
)

var tracer = otel.Tracer("erpledger/consistency")

// DefaultPriceTolerance is the allowed relative deviation of a sales line
// price from the product's list price.
const DefaultPriceTolerance = 0.5

// Config wires the maintainer.
type Config struct {
	Stores    domain.Stores
	TxManager tx.Manager
	Locker    lock.Locker
	Audit     audit.Recorder

	// Now returns the current time; defaults to time.Now in UTC
	Now func() time.Time

	// BackdateLimitDays bounds how far back a transaction date may be moved
	BackdateLimitDays int
	// PriceTolerance bounds sales line prices around the product price
	PriceTolerance float64
}

// Maintainer is the Consistency Maintainer.
type Maintainer struct {
	stores            domain.Stores
	txm               tx.Manager
	locker            lock.Locker
	audit             audit.Recorder
	now               func() time.Time
	backdateLimitDays int
	priceTolerance    float64

	salesLines    lineKind[*documents.SalesOrderItem, *documents.SalesOrder]
	purchaseLines lineKind[*documents.PurchaseOrderItem, *documents.PurchaseOrder]
}

// New creates a maintainer. Missing optional collaborators fall back to
// an in-process locker, a no-op audit log and the wall clock.
func New(cfg Config) *Maintainer {
	m := &Maintainer{
		stores:            cfg.Stores,
		txm:               cfg.TxManager,
		locker:            cfg.Locker,
		audit:             cfg.Audit,
		now:               cfg.Now,
		backdateLimitDays: cfg.BackdateLimitDays,
		priceTolerance:    cfg.PriceTolerance,
	}
	if m.txm == nil {
		m.txm = tx.Passthrough
	}
	if m.locker == nil {
		m.locker = lock.NewKeyedMutex()
	}
	if m.audit == nil {
		m.audit = audit.Nop{}
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	if m.backdateLimitDays <= 0 {
		m.backdateLimitDays = guard.DefaultBackdateLimitDays
	}
	if m.priceTolerance <= 0 {
		m.priceTolerance = DefaultPriceTolerance
	}
	m.salesLines = newSalesLines(cfg.Stores)
	m.purchaseLines = newPurchaseLines(cfg.Stores)
	return m
}

// Locker exposes the locker so callers composing several maintainer
// operations in one transaction can take every key up front.
func (m *Maintainer) Locker() lock.Locker {
	return m.locker
}

// TxManager returns the transaction manager the maintainer writes through.
func (m *Maintainer) TxManager() tx.Manager {
	return m.txm
}

// Stores returns the record stores the maintainer writes to.
func (m *Maintainer) Stores() domain.Stores {
	return m.stores
}

// run takes the keys, then runs fn in one transaction. Keys are always
// taken before the transaction starts.
func (m *Maintainer) run(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	ctx, release, err := lock.Acquire(ctx, m.locker, keys...)
	if err != nil {
		return err
	}
	defer release()

	return m.txm.RunInTransaction(ctx, fn)
}

func (m *Maintainer) record(ctx context.Context, action audit.Action, entityType string, entityID id.ID, changes map[string]any) error {
	entry := audit.Prepare(ctx, audit.Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
	}, m.now())
	if err := m.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit %s %s: %w", action, entityType, err)
	}
	return nil
}

// staleAggregate reports a recompute that failed after its child was
// written. The error is returned unchanged so the transaction rolls back.
func staleAggregate(ctx context.Context, childEntity string, childID id.ID, parentEntity string, parentID id.ID, err error) error {
	logger.Error(ctx, "aggregate recompute failed after child write",
		"child_entity", childEntity,
		"child_id", childID.String(),
		"parent_entity", parentEntity,
		"parent_id", parentID.String(),
		"error", err,
	)
	return err
}

// startSpan opens a recompute span for one parent.
func startSpan(ctx context.Context, name, entityName string, entityID id.ID) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("entity", entityName),
		attribute.String("entity.id", entityID.String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// notFound rewrites a store miss as NotFound for the referenced entity.
func notFound(err error, entityName string, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entityName, entityID.String())
	}
	return err
}
