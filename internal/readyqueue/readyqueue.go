// Package readyqueue implements the fast-path O(1) dispatch structure: a
// FIFO of tables currently eligible for immediate dispatch. It is the
// optimization layer on top of the dispatcher's O(N) fallback scan; both
// must agree on the eligibility predicate (registry.TableState.Eligible).
//
// Modeled on a slice-backed FIFO job queue design.
package readyqueue

import (
	"sync"

	"github.com/mydumper/myloader-go/internal/registry"
)

// ReadyQueue is a concurrent FIFO of table references.
type ReadyQueue struct {
	mu    sync.Mutex
	items []*registry.TableState
}

// New creates an empty ready queue.
func New() *ReadyQueue {
	return &ReadyQueue{}
}

// Push appends a table to the tail of the queue. Callers are responsible
// for having set TableState.SetInReadyQueue(true) before calling this (the
// enqueue rule lives in the dispatcher's notifyTableReady, which holds the
// table's lock across both operations).
func (q *ReadyQueue) Push(t *registry.TableState) {
	if q == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
}

// TryPop removes and returns the table at the head of the queue, or nil if
// empty.
func (q *ReadyQueue) TryPop() *registry.TableState {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t
}

// Len reports the current queue length, mainly for metrics.
func (q *ReadyQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
