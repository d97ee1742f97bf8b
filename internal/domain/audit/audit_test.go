package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appctx "erpledger/internal/core/context"
	"erpledger/internal/core/id"
)

func TestDiff(t *testing.T) {
	changes := Diff(
		map[string]any{"total": "10", "status": "draft", "gone": 1},
		map[string]any{"total": "15", "status": "draft", "added": true},
	)

	assert.Equal(t, map[string]any{"old": "10", "new": "15"}, changes["total"])
	assert.NotContains(t, changes, "status")
	assert.Equal(t, map[string]any{"old": 1, "new": nil}, changes["gone"])
	assert.Equal(t, map[string]any{"old": nil, "new": true}, changes["added"])
}

func TestPrepare(t *testing.T) {
	ctx := appctx.WithTrace(context.Background(), appctx.NewTraceContext("req-1"))
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	e := Prepare(ctx, Entry{EntityType: "invoice", Action: ActionUpdate}, now)
	assert.False(t, id.IsNil(e.ID))
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, "req-1", e.RequestID)
}

type snapshotRow struct {
	ID       id.ID  `db:"id"`
	ParentID *id.ID `db:"parent_id"`
	Qty      int64  `db:"quantity"`
	Note     string `db:"-"`
}

func TestSnapshot_PointersCompareByValue(t *testing.T) {
	parent := id.New()
	a := snapshotRow{ID: id.New(), ParentID: id.Ref(parent), Qty: 2}
	b := a
	b.ParentID = id.Ref(parent)
	b.Qty = 3

	changes := Diff(Snapshot(&a), Snapshot(&b))
	assert.NotContains(t, changes, "parent_id")
	assert.Contains(t, changes, "quantity")
	assert.NotContains(t, Snapshot(&a), "Note")
	assert.Equal(t, parent.String(), Snapshot(&a)["parent_id"])
}
