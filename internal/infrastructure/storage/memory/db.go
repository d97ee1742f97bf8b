// Package memory provides an in-process Record Store used by tests and by
// the server when no DATABASE_URL is configured. Transactions serialize on a
// single mutex and roll back by restoring per-collection snapshots.
package memory

import (
	"context"
	"sync"
	"time"

	"erpledger/internal/core/tx"
)

type snapshotter interface {
	snapshot() any
	restore(state any)
}

type txKey struct{}

// DB groups collections that share one transaction scope.
type DB struct {
	txMu sync.Mutex

	mu     sync.Mutex
	stores []snapshotter

	now func() time.Time
}

// NewDB creates an empty database.
func NewDB() *DB {
	return &DB{now: func() time.Time { return time.Now().UTC() }}
}

// SetClock overrides the timestamp source (tests).
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func (db *DB) register(s snapshotter) {
	db.mu.Lock()
	db.stores = append(db.stores, s)
	db.mu.Unlock()
}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (db *DB) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	stores := append([]snapshotter(nil), db.stores...)
	db.mu.Unlock()

	states := make([]any, len(stores))
	for i, s := range stores {
		states[i] = s.snapshot()
	}
	rollback := func() {
		for i, s := range stores {
			s.restore(states[i])
		}
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		rollback()
	}
	return err
}

// InTransaction reports whether ctx carries a memory transaction.
func InTransaction(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

var _ tx.Manager = (*DB)(nil)
