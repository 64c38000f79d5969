// Package dispatcher implements the single coordinator loop that decides,
// at every moment, which table is eligible to receive the next data-load
// unit of work and which data worker should run it.
//
// Modeled on an event-loop coordinator pattern (a single loop consuming
// control events and owning termination detection), and on the mydumper
// loader's data_control_thread switch in myloader_worker_loader_main.c.
package dispatcher

import (
	"log/slog"
	"sync/atomic"

	"github.com/mydumper/myloader-go/internal/control"
	"github.com/mydumper/myloader-go/internal/executor"
	"github.com/mydumper/myloader-go/internal/jobqueue"
	"github.com/mydumper/myloader-go/internal/metrics"
	"github.com/mydumper/myloader-go/internal/parkgroup"
	"github.com/mydumper/myloader-go/internal/readyqueue"
	"github.com/mydumper/myloader-go/internal/registry"
	"github.com/mydumper/myloader-go/pkg/model"
)

var log = slog.Default()

// Dispatcher is the event loop over the control channel. It owns
// termination detection: once the parser has finished, all schema work is
// complete, and every data job has been acknowledged, the loop exits.
type Dispatcher struct {
	registry *registry.TableRegistry
	ready    *readyqueue.ReadyQueue
	parked   *parkgroup.ParkGroup
	control  *control.Channel
	jobs     *jobqueue.Channel
	index    executor.IndexExecutor
	metrics  *metrics.Collector

	// allJobsEnqueued and controlJobEnded are one-shot monotonic bits,
	// written once and always followed by a control-channel post so no
	// observer misses the change.
	allJobsEnqueued int32 // atomic bool
	controlJobEnded int32 // atomic bool

	// tablesInFlight counts tables with at least one in-flight job, kept in
	// step with IncInFlight/DecInFlight transitions across zero so it can
	// back a gauge without a registry scan.
	tablesInFlight int64

	doneCh chan struct{}
}

// Config bundles the collaborators a Dispatcher needs. ReadyQueue and
// ParkGroup may be nil (schema-only / no-data mode): with a nil ReadyQueue,
// NotifyTableReady queues nothing and leaves the in-ready-queue flag unset,
// so dispatch relies on the fallback scan; every ParkGroup call is a safe
// no-op on a nil receiver.
type Config struct {
	Registry *registry.TableRegistry
	Ready    *readyqueue.ReadyQueue
	Parked   *parkgroup.ParkGroup
	Control  *control.Channel
	Jobs     *jobqueue.Channel
	Index    executor.IndexExecutor
	Metrics  *metrics.Collector
}

// New creates a Dispatcher. Call Run in its own goroutine.
func New(cfg Config) *Dispatcher {
	if cfg.Index == nil {
		cfg.Index = executor.NoopIndexExecutor{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector()
	}
	return &Dispatcher{
		registry: cfg.Registry,
		ready:    cfg.Ready,
		parked:   cfg.Parked,
		control:  cfg.Control,
		jobs:     cfg.Jobs,
		index:    cfg.Index,
		metrics:  cfg.Metrics,
		doneCh:   make(chan struct{}),
	}
}

// Done is closed once the dispatcher loop has exited and every data worker
// has been told to shut down.
func (d *Dispatcher) Done() <-chan struct{} { return d.doneCh }

// Run consumes control events until SHUTDOWN or until termination is
// detected. It is meant to run in its own goroutine; there is exactly one
// Dispatcher per restore run.
func (d *Dispatcher) Run() {
	defer close(d.doneCh)

	for {
		ev := d.control.Pop()
		switch ev.Kind {
		case control.RequestDataJob:
			job, ok, giveUp := d.pickNextJob()
			if ok {
				d.jobs.PushJob(job)
				d.metrics.RecordDispatch()
				continue
			}
			if d.allJobsDone() && giveUp {
				atomic.StoreInt32(&d.controlJobEnded, 1)
				log.Info("dispatcher: no more work possible, ending data phase")
				d.broadcastShutdown()
				d.index.StartOptimizeIndexesAllTables()
				return
			}
			d.parked.Park()
			d.metrics.SetWorkersParked(d.parked.Parked())

		case control.WakeDataThread:
			d.control.Push(control.RequestDataJob)

		case control.FileTypeSchemaEnded:
			log.Debug("dispatcher: schema phase ended, waking all parked workers")
			d.parked.WakeAll()
			d.metrics.SetWorkersParked(d.parked.Parked())

		case control.FileTypeEnded:
			log.Info("dispatcher: parser drained, finalizing already-done tables")
			atomic.StoreInt32(&d.allJobsEnqueued, 1)
			d.registry.Refresh()
			d.registry.ForEach(func(t *registry.TableState) {
				t.Lock()
				d.maybeFinalize(t)
				t.Unlock()
			})
			d.control.Push(control.RequestDataJob)

		case control.Shutdown:
			atomic.StoreInt32(&d.controlJobEnded, 1)
			d.broadcastShutdown()
			return
		}
	}
}

func (d *Dispatcher) allJobsDone() bool {
	return atomic.LoadInt32(&d.allJobsEnqueued) == 1
}

// broadcastShutdown posts one SHUTDOWN per data worker. A single
// PushShutdown only wakes one of the N workers blocked on jobs.Pop(); every
// worker must receive its own SHUTDOWN event to exit.
func (d *Dispatcher) broadcastShutdown() {
	n := d.parked.N()
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		d.jobs.PushShutdown()
	}
}

// pickNextJob implements the two-tier dispatch: the O(1) ready-queue fast
// path, falling back to an O(N) scan of the registry when the queue is
// empty. giveUp reports whether there is nothing useful the calling worker
// could wait for; it starts true and clears as soon as the scan (or the
// fast path, implicitly, since a table it pops is not terminal) finds a
// table that is not yet terminal.
func (d *Dispatcher) pickNextJob() (job model.RestoreJob, ok bool, giveUp bool) {
	for {
		t := d.ready.TryPop()
		if t == nil {
			break
		}
		t.Lock()
		t.SetInReadyQueue(false)
		d.metrics.SetReadyQueueLength(d.ready.Len())
		if !t.Eligible() {
			d.maybeFinalize(t)
			t.Unlock()
			continue
		}
		job = t.PopJob()
		t.IncInFlight()
		d.trackJobStarted(t)
		d.notifyTableReady(t)
		t.Unlock()
		return job, true, false
	}

	return d.scanFallback()
}

// scanFallback walks the registry's fallback list once. It mirrors the
// ready-queue eligibility predicate exactly (registry.TableState.Eligible),
// and additionally handles the transitions the ready queue doesn't:
// no_data draining and the CREATED-but-capped "more work coming" signal.
func (d *Dispatcher) scanFallback() (job model.RestoreJob, ok bool, giveUp bool) {
	giveUp = true

	d.registry.ForEach(func(t *registry.TableState) {
		if ok {
			return
		}
		if t.Database != nil && t.Database.State() == model.NotFound {
			return
		}

		t.Lock()
		defer t.Unlock()

		s := t.State()
		if s >= model.DataDone || (s == model.Created && (t.Kind == model.View || t.Kind == model.Sequence)) {
			return
		}
		if s != model.Created {
			giveUp = false
			return
		}

		// s == Created
		if t.PendingCount() == 0 {
			finalized := d.maybeFinalize(t)
			if !finalized {
				giveUp = false
			}
			return
		}
		if t.NoData {
			freed := t.DrainJobs()
			t.SetState(model.AllDone)
			d.metrics.RecordTableFinalized()
			log.Debug("dispatcher: no-data table finalized", "table", t.Ident, "jobs_freed", freed)
			return
		}
		if t.InFlight() >= t.MaxParallel() {
			giveUp = false
			return
		}

		job = t.PopJob()
		t.IncInFlight()
		d.trackJobStarted(t)
		d.notifyTableReady(t)
		ok = true
	})

	return job, ok, giveUp
}

// notifyTableReady is invoked whenever a table's schema_state, pending
// jobs, in_flight count, or max_parallel might have changed favorably.
// Caller must hold t's lock. Enqueues the table iff Eligible() holds, and
// wakes one parked data worker on success — without that wakeup, a worker
// could be parked while a newly-ready table sits in the queue indefinitely.
// With a nil ready queue it only wakes a parked worker.
func (d *Dispatcher) notifyTableReady(t *registry.TableState) {
	if !t.Eligible() {
		return
	}
	if d.ready != nil {
		t.SetInReadyQueue(true)
		d.ready.Push(t)
		d.metrics.SetReadyQueueLength(d.ready.Len())
	}
	d.parked.WakeOne()
	d.metrics.SetWorkersParked(d.parked.Parked())
}

// trackJobStarted updates the in-flight-tables gauge when a job just pushed
// a table's in-flight count from zero to one. Caller must hold t's lock and
// must have already called t.IncInFlight().
func (d *Dispatcher) trackJobStarted(t *registry.TableState) {
	if t.InFlight() == 1 {
		d.metrics.SetTablesInFlight(int(atomic.AddInt64(&d.tablesInFlight, 1)))
	}
}

// trackJobFinished updates the in-flight-tables gauge when a job just
// dropped a table's in-flight count back to zero. Caller must hold t's lock
// and must have already called t.DecInFlight().
func (d *Dispatcher) trackJobFinished(t *registry.TableState) {
	if t.InFlight() == 0 {
		d.metrics.SetTablesInFlight(int(atomic.AddInt64(&d.tablesInFlight, -1)))
	}
}

// maybeFinalize promotes a table from CREATED to DATA_DONE once the parser
// is done producing jobs for it and every dispatched job has been
// acknowledged. Caller must hold t's lock. Returns whether it finalized.
func (d *Dispatcher) maybeFinalize(t *registry.TableState) bool {
	if !d.allJobsDone() {
		return false
	}
	if t.PendingCount() != 0 || t.InFlight() != 0 || t.ExpectedJobs() != 0 {
		return false
	}
	if t.State() == model.DataDone || t.State() == model.AllDone {
		return false
	}
	t.SetState(model.DataDone)
	d.metrics.RecordTableFinalized()
	d.index.EnqueueIndexesFor(t)
	log.Debug("dispatcher: table finalized", "table", t.Ident)
	return true
}

// OnJobComplete is called by a data worker after executing a job, whether
// it succeeded or failed — the dispatcher does not distinguish; a higher
// layer counts failures via metrics.
func (d *Dispatcher) OnJobComplete(t *registry.TableState, success bool) {
	t.Lock()
	t.DecInFlight()
	d.trackJobFinished(t)
	d.notifyTableReady(t)
	finalized := false
	if !t.InReadyQueue() {
		finalized = d.maybeFinalize(t)
	}
	t.Unlock()

	if success {
		d.metrics.RecordCompleted()
	} else {
		d.metrics.RecordFailed()
	}
	if finalized {
		d.control.Push(control.RequestDataJob)
	}
}

// NotifyTableReady is the exported entry point schema workers call after
// transitioning a table to CREATED (and the parser calls after AddJob).
// Caller must hold t's lock.
func (d *Dispatcher) NotifyTableReady(t *registry.TableState) {
	d.notifyTableReady(t)
}

// ControlJobEnded reports whether the dispatcher has decided to end the
// data phase. Data workers use this together with an empty job channel to
// decide whether to exit on their own.
func (d *Dispatcher) ControlJobEnded() bool {
	return atomic.LoadInt32(&d.controlJobEnded) == 1
}
