package memory

import (
	"context"
	"sync"
	"time"

	"erpledger/internal/domain/audit"
)

// AuditLog keeps audit entries in memory. Entries recorded inside a
// transaction that rolls back are discarded with it.
type AuditLog struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

// NewAuditLog creates an audit log registered with db.
func NewAuditLog(db *DB) *AuditLog {
	l := &AuditLog{}
	db.register(l)
	return l
}

// Record implements audit.Recorder.
func (l *AuditLog) Record(ctx context.Context, e audit.Entry) error {
	e = audit.Prepare(ctx, e, time.Now().UTC())
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return nil
}

// Entries returns a copy of the log, optionally filtered by entity type.
func (l *AuditLog) Entries(entityType string) []audit.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []audit.Entry
	for _, e := range l.entries {
		if entityType == "" || e.EntityType == entityType {
			out = append(out, e)
		}
	}
	return out
}

func (l *AuditLog) snapshot() any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *AuditLog) restore(state any) {
	l.mu.Lock()
	n := state.(int)
	if n < len(l.entries) {
		l.entries = l.entries[:n]
	}
	l.mu.Unlock()
}

var _ audit.Recorder = (*AuditLog)(nil)
