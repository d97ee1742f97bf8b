package memory

import (
	"context"
	"sync"
	"time"

	corenumerator "erpledger/internal/core/numerator"
)

// Numerator is an in-process numerator.Generator. Sequences live only as
// long as the process, so every strategy behaves like StrategyStrict.
type Numerator struct {
	mu   sync.Mutex
	seqs map[string]int64
}

// NewNumerator creates an empty sequence table.
func NewNumerator() *Numerator {
	return &Numerator{seqs: make(map[string]int64)}
}

// GetNextNumber implements numerator.Generator.
func (n *Numerator) GetNextNumber(ctx context.Context, cfg corenumerator.Config, _ *corenumerator.Options, period time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := corenumerator.Key(cfg, period)

	n.mu.Lock()
	n.seqs[key]++
	v := n.seqs[key]
	n.mu.Unlock()

	return corenumerator.Format(cfg, period, v), nil
}

// SetNextNumber implements numerator.Generator.
func (n *Numerator) SetNextNumber(_ context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	n.mu.Lock()
	n.seqs[corenumerator.Key(cfg, period)] = value
	n.mu.Unlock()
	return nil
}

var _ corenumerator.Generator = (*Numerator)(nil)
