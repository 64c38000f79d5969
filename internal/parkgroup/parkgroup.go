// Package parkgroup tracks data workers that found no job and are waiting
// to be woken. It replaces a hand-built condition variable with channel
// indirection: waking a parked worker is modeled as pushing a
// WAKE_DATA_THREAD control event, which the dispatcher turns into a
// REQUEST_DATA_JOB on its own loop. This keeps every scheduling decision on
// the single dispatcher goroutine instead of coupling workers directly to a
// predicate.
//
// Grounded on the original mydumper loader's threads_waiting_mutex and
// wake_thread/wake_all_threads in myloader_worker_loader_main.c.
package parkgroup

import (
	"sync"

	"github.com/mydumper/myloader-go/internal/control"
)

// ParkGroup counts data workers currently parked, bounded by the worker
// count N.
type ParkGroup struct {
	mu      sync.Mutex
	parked  int
	n       int
	control *control.Channel
}

// New creates a ParkGroup bounded at n workers, posting wakeups to ch.
func New(n int, ch *control.Channel) *ParkGroup {
	return &ParkGroup{n: n, control: ch}
}

// Park records one more parked worker. The contract is no-lost-wakeup: a
// worker that calls Park before WakeOne/WakeAll fires will be released by
// it.
func (p *ParkGroup) Park() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.parked < p.n {
		p.parked++
	}
	p.mu.Unlock()
}

// WakeOne releases a single parked worker by posting one WAKE_DATA_THREAD
// event. No-op if nothing is parked; waking one parked worker is allowed to
// produce no work (the worker will simply re-park).
func (p *ParkGroup) WakeOne() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.parked == 0 {
		p.mu.Unlock()
		return
	}
	p.parked--
	p.mu.Unlock()

	p.control.Push(control.WakeDataThread)
}

// WakeAll drains the parked count to zero, emitting one REQUEST_DATA_JOB per
// released worker. Used when a broad state change (e.g. FILE_TYPE_SCHEMA_ENDED)
// may have made many tables eligible at once.
func (p *ParkGroup) WakeAll() {
	if p == nil {
		return
	}
	p.mu.Lock()
	n := p.parked
	p.parked = 0
	p.mu.Unlock()

	for i := 0; i < n; i++ {
		p.control.Push(control.RequestDataJob)
	}
}

// Parked reports the current parked count, mainly for metrics.
func (p *ParkGroup) Parked() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parked
}

// N reports the worker count this group was sized for. The dispatcher uses
// it to know how many SHUTDOWN events to broadcast: one PushShutdown only
// wakes one of the N workers blocked on the job channel.
func (p *ParkGroup) N() int {
	if p == nil {
		return 0
	}
	return p.n
}
