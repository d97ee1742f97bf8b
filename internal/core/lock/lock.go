// Package lock provides keyed mutual exclusion for aggregate recomputation.
// Every parent aggregate (order, product, invoice, account) is serialized
// on its own key so concurrent child writes cannot lose an update.
package lock

import (
	"context"
	"sort"
	"sync"
)

// Locker acquires exclusive ownership of a key.
// The returned release function must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// LockAll acquires every key in sorted order (deduplicated) so two callers
// locking overlapping sets cannot deadlock. Keys are released in reverse.
func LockAll(ctx context.Context, l Locker, keys ...string) (func(), error) {
	uniq := make(map[string]struct{}, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := uniq[k]; ok {
			continue
		}
		uniq[k] = struct{}{}
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	releases := make([]func(), 0, len(ordered))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, k := range ordered {
		release, err := l.Lock(ctx, k)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

type heldKey struct{}

// Acquire is the reentrant form of LockAll: keys already held by ctx are
// skipped and the returned context carries every held key. Code running
// inside a transaction must only lock keys its caller already holds.
func Acquire(ctx context.Context, l Locker, keys ...string) (context.Context, func(), error) {
	held, _ := ctx.Value(heldKey{}).(map[string]struct{})

	missing := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := held[k]; !ok && k != "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return ctx, func() {}, nil
	}

	release, err := LockAll(ctx, l, missing...)
	if err != nil {
		return ctx, nil, err
	}

	next := make(map[string]struct{}, len(held)+len(missing))
	for k := range held {
		next[k] = struct{}{}
	}
	for _, k := range missing {
		next[k] = struct{}{}
	}
	return context.WithValue(ctx, heldKey{}, next), release, nil
}

// Holds reports whether ctx carries key.
func Holds(ctx context.Context, key string) bool {
	held, _ := ctx.Value(heldKey{}).(map[string]struct{})
	_, ok := held[key]
	return ok
}

// KeyedMutex is an in-process Locker. Entries are reference counted and
// removed once the last holder or waiter releases them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates an empty in-process locker.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyEntry)}
}

// Lock blocks until key is free or ctx is done.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.unref(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.unref(key, e)
		})
	}, nil
}

func (m *KeyedMutex) unref(key string, e *keyEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}

// Key builds a lock key for an aggregate.
func Key(kind string, id interface{ String() string }) string {
	return kind + ":" + id.String()
}

var _ Locker = (*KeyedMutex)(nil)
