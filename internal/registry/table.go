// Package registry holds every table known to the current restore run and
// their mutable lifecycle state.
//
// Design:
//
//	Each TableState owns its own mutex, guarding the fields the dispatcher,
//	schema workers, and data workers all touch: schema_state, pending_jobs,
//	in_flight, max_parallel, and in_ready_queue. The TableRegistry itself is
//	guarded by a separate, coarser lock used only for insertion and
//	iteration setup — per-table locks are always acquired after releasing
//	the registry lock, never while holding it, and no goroutine ever holds
//	two table locks at once.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/mydumper/myloader-go/pkg/model"
)

// TableState is one table present in the dump: its identity, its schema
// lifecycle, and the data jobs still owed to it.
type TableState struct {
	mu sync.Mutex

	Ident    model.TableIdent
	Database *model.DatabaseState
	Kind     model.TableKind
	NoData   bool

	// schemaState is guarded by mu; access it through State()/SetState().
	schemaState model.SchemaState

	// pendingJobs is the ordered queue of jobs not yet dispatched for this
	// table. Popped from the front, so dispatch order matches parser
	// insertion order (per-table FIFO).
	pendingJobs []model.RestoreJob

	// inFlight counts jobs currently running on data workers. Bounded by
	// maxParallel.
	inFlight int

	// maxParallel is the hard cap on inFlight for this table (>= 1).
	maxParallel int

	// inReadyQueue guards against double-enqueue into the ready queue.
	inReadyQueue bool

	// expectedJobs counts data jobs added to the table that have not yet
	// been acknowledged complete or drained; with every PopJob paired with
	// IncInFlight it equals len(pendingJobs)+inFlight. It drops to zero
	// whenever every job added so far is done, which can happen before the
	// parser is finished with the table, so maybeFinalize also requires the
	// dispatcher's all-jobs-enqueued flag.
	expectedJobs int64
}

// NewTableState creates a table in NotCreated state with the given
// concurrency cap. maxParallel must be >= 1.
func NewTableState(ident model.TableIdent, db *model.DatabaseState, kind model.TableKind, maxParallel int) *TableState {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &TableState{
		Ident:       ident,
		Database:    db,
		Kind:        kind,
		maxParallel: maxParallel,
		schemaState: model.NotCreated,
	}
}

// Lock acquires the table's mutex. Callers must call Unlock.
func (t *TableState) Lock() { t.mu.Lock() }

// Unlock releases the table's mutex.
func (t *TableState) Unlock() { t.mu.Unlock() }

// State returns the table's schema state. Caller must hold the lock.
func (t *TableState) State() model.SchemaState { return t.schemaState }

// SetState sets the table's schema state. Caller must hold the lock.
func (t *TableState) SetState(s model.SchemaState) { t.schemaState = s }

// PendingCount returns the number of jobs still queued. Caller must hold
// the lock.
func (t *TableState) PendingCount() int { return len(t.pendingJobs) }

// InFlight returns the number of jobs currently running. Caller must hold
// the lock.
func (t *TableState) InFlight() int { return t.inFlight }

// MaxParallel returns the table's concurrency cap.
func (t *TableState) MaxParallel() int { return t.maxParallel }

// InReadyQueue reports whether the table is currently enqueued. Caller must
// hold the lock.
func (t *TableState) InReadyQueue() bool { return t.inReadyQueue }

// SetInReadyQueue sets the enqueue guard flag. Caller must hold the lock.
func (t *TableState) SetInReadyQueue(v bool) { t.inReadyQueue = v }

// ExpectedJobs returns the number of jobs the parser has produced for this
// table that have not yet been acknowledged complete.
func (t *TableState) ExpectedJobs() int64 { return atomic.LoadInt64(&t.expectedJobs) }

// AddJob appends a job to the table's pending queue. Caller must hold the
// lock. Increments expectedJobs.
func (t *TableState) AddJob(job model.RestoreJob) {
	t.pendingJobs = append(t.pendingJobs, job)
	atomic.AddInt64(&t.expectedJobs, 1)
}

// PopJob removes and returns the oldest pending job. Caller must hold the
// lock. Panics if the queue is empty; callers must check PendingCount first.
func (t *TableState) PopJob() model.RestoreJob {
	job := t.pendingJobs[0]
	t.pendingJobs = t.pendingJobs[1:]
	return job
}

// DrainJobs discards every pending job (used for no_data tables, whose rows
// are never restored) and returns how many were freed. Caller must hold the
// lock.
func (t *TableState) DrainJobs() int {
	n := len(t.pendingJobs)
	t.pendingJobs = nil
	atomic.AddInt64(&t.expectedJobs, -int64(n))
	return n
}

// IncInFlight bumps the in-flight counter. Caller must hold the lock.
func (t *TableState) IncInFlight() { t.inFlight++ }

// DecInFlight decrements the in-flight counter and the expected-jobs
// counter for the job that just completed. Caller must hold the lock.
func (t *TableState) DecInFlight() {
	t.inFlight--
	atomic.AddInt64(&t.expectedJobs, -1)
}

// Eligible reports whether this table may be handed a data job right now:
// schema created, jobs pending, parallelism slack, not already queued, and
// a base table with data restoration enabled. Caller must hold the lock.
func (t *TableState) Eligible() bool {
	return t.schemaState == model.Created &&
		len(t.pendingJobs) > 0 &&
		t.inFlight < t.maxParallel &&
		!t.inReadyQueue &&
		!t.NoData &&
		t.Kind == model.Base
}
