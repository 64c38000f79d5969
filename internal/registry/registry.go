package registry

import (
	"sync"

	"github.com/mydumper/myloader-go/pkg/model"
)

// TableRegistry holds every TableState known to the current run, keyed by
// identity, plus an ordered list used by the dispatcher's fallback scan.
//
// The registry lock is only held for insertion and to snapshot
// loadingTables for iteration; it is always released before any per-table
// lock is taken (registry lock -> table lock, never the reverse).
type TableRegistry struct {
	mu            sync.RWMutex
	tables        map[model.TableIdent]*TableState
	loadingTables []*TableState
}

// NewTableRegistry creates an empty registry.
func NewTableRegistry() *TableRegistry {
	return &TableRegistry{
		tables: make(map[model.TableIdent]*TableState),
	}
}

// GetOrCreate returns the existing table for ident, or creates one in
// NotCreated state and inserts it. Used by the parser on first sight of a
// table.
func (r *TableRegistry) GetOrCreate(ident model.TableIdent, db *model.DatabaseState, kind model.TableKind, maxParallel int) *TableState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tables[ident]; ok {
		return t
	}
	t := NewTableState(ident, db, kind, maxParallel)
	r.tables[ident] = t
	r.loadingTables = append(r.loadingTables, t)
	return t
}

// Insert adds an already-constructed table to the registry and the
// fallback-scan list.
func (r *TableRegistry) Insert(t *TableState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t.Ident]; ok {
		return
	}
	r.tables[t.Ident] = t
	r.loadingTables = append(r.loadingTables, t)
}

// Get looks up a table by identity.
func (r *TableRegistry) Get(ident model.TableIdent) (*TableState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[ident]
	return t, ok
}

// Refresh is idempotent: it guarantees every table the registry knows about
// appears in loadingTables exactly once. Called right after the parser
// signals FILE_TYPE_ENDED to close races where a table was inserted via a
// path that bypassed loadingTables.
func (r *TableRegistry) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[model.TableIdent]bool, len(r.loadingTables))
	for _, t := range r.loadingTables {
		seen[t.Ident] = true
	}
	for ident, t := range r.tables {
		if !seen[ident] {
			r.loadingTables = append(r.loadingTables, t)
			seen[ident] = true
		}
	}
}

// ForEach snapshots the fallback-scan list under the registry lock, releases
// the lock, then calls fn on each table of the snapshot. fn runs without the
// registry lock held, so it may take each table's own lock; tables inserted
// after the snapshot are not visited.
func (r *TableRegistry) ForEach(fn func(*TableState)) {
	r.mu.RLock()
	tables := make([]*TableState, len(r.loadingTables))
	copy(tables, r.loadingTables)
	r.mu.RUnlock()

	for _, t := range tables {
		fn(t)
	}
}

// Len returns the number of tables known to the registry.
func (r *TableRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}
