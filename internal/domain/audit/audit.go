// Package audit defines the audit trail written next to every ledger mutation.
package audit

import (
	"context"
	"time"

	appctx "erpledger/internal/core/context"
	"erpledger/internal/core/id"
	"erpledger/pkg/dbmap"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionRecompute Action = "recompute"
)

// Entry is one audit record.
type Entry struct {
	ID         id.ID          `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   id.ID          `json:"entityId"`
	Action     Action         `json:"action"`
	Changes    map[string]any `json:"changes,omitempty"`
	RequestID  string         `json:"requestId,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Recorder persists audit entries. Implementations write inside the
// caller's transaction when one is present in ctx.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }

// Prepare fills the generated fields of an entry.
func Prepare(ctx context.Context, e Entry, now time.Time) Entry {
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.RequestID == "" {
		e.RequestID = appctx.GetRequestID(ctx)
	}
	return e
}

// Snapshot flattens an entity into normalized column values, suitable
// for Diff and for JSON payloads.
func Snapshot(v any) map[string]any {
	m := dbmap.StructToMap(v)
	for k, val := range m {
		m[k] = dbmap.Normalize(val)
	}
	return m
}

// Diff calculates the difference between old and new entity states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)
	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}
	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}
	return changes
}

func equal(a, b any) bool {
	return dbmap.Equal(a, b)
}

// Change is a one-field change set.
func Change(field string, oldVal, newVal any) map[string]any {
	return map[string]any{field: map[string]any{"old": oldVal, "new": newVal}}
}
