// Package core implements the reconciliation engine: branch ancestry,
// point-in-time diffing, three-way merge with strategy-based resolution,
// and dependency-aware rollback planning and execution.
package core

import (
	"database/sql"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/evoludigit/pggit/internal/store"
)

// Engine coordinates the history store, the dependency graph, and the
// merge/rollback pipelines. All mutating operations take the per-branch
// advisory lock; read-only operations are lock-free.
type Engine struct {
	store *store.Store
	log   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an engine over the given store
func New(st *store.Store, log zerolog.Logger) *Engine {
	return &Engine{
		store: st,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// Store exposes the underlying store for read-only queries
func (e *Engine) Store() *store.Store {
	return e.store
}

// branchLock returns the advisory lock for one branch
func (e *Engine) branchLock(branchID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[branchID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[branchID] = l
	}
	return l
}

// lockBranches acquires advisory locks for the given branches in a stable
// order so concurrent merges cannot deadlock. The returned func releases
// them in reverse order.
func (e *Engine) lockBranches(branchIDs ...string) func() {
	ids := append([]string(nil), branchIDs...)
	sort.Strings(ids)

	locks := make([]*sync.Mutex, 0, len(ids))
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		l := e.branchLock(id)
		l.Lock()
		locks = append(locks, l)
	}

	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// notFound normalizes sql.ErrNoRows into the engine's NotFoundError
func notFound(err error, kind, ref string) error {
	if err == sql.ErrNoRows {
		return NotFoundError(kind, ref)
	}
	return err
}
