// Package worker runs the data workers: goroutines that pull restore jobs
// off the job channel and execute them via a RestoreExecutor.
//
// Each worker loops: post REQUEST_DATA_JOB, block on the job channel,
// execute the job (with a per-job context timeout), call OnJobComplete.
// On SHUTDOWN, or once the dispatcher has ended the control phase and the
// job channel is empty, the worker exits.
//
// Modeled on a per-goroutine Run loop with a context.WithTimeout-per-task
// pattern.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mydumper/myloader-go/internal/control"
	"github.com/mydumper/myloader-go/internal/dispatcher"
	"github.com/mydumper/myloader-go/internal/executor"
	"github.com/mydumper/myloader-go/internal/jobqueue"
	"github.com/mydumper/myloader-go/internal/registry"
	"github.com/mydumper/myloader-go/pkg/model"
)

var log = slog.Default()

// Pool runs N data worker goroutines against a shared job channel.
type Pool struct {
	n          int
	jobTimeout time.Duration
	jobs       *jobqueue.Channel
	control    *control.Channel
	dispatch   *dispatcher.Dispatcher
	exec       executor.RestoreExecutor
	resolve    func(model.TableIdent) *registry.TableState

	wg sync.WaitGroup
}

// NewPool creates a pool of n data workers. resolve maps the table identity
// embedded in a job back to its TableState (a job only carries a table
// identity value, not a pointer, so the pool needs a way back to the
// registry entry to report completion).
func NewPool(n int, jobTimeout time.Duration, jobs *jobqueue.Channel, ctrl *control.Channel, d *dispatcher.Dispatcher, exec executor.RestoreExecutor, resolve func(model.TableIdent) *registry.TableState) *Pool {
	return &Pool{
		n:          n,
		jobTimeout: jobTimeout,
		jobs:       jobs,
		control:    ctrl,
		dispatch:   d,
		exec:       exec,
		resolve:    resolve,
	}
}

// Start launches all N worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Wait blocks until every worker goroutine has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for {
		if p.dispatch.ControlJobEnded() && p.jobs.Len() == 0 {
			log.Debug("data worker exiting: control phase ended and queue is empty", "worker", id)
			return
		}

		p.control.Push(control.RequestDataJob)
		ev := p.jobs.Pop()

		switch ev.Kind {
		case jobqueue.Shutdown:
			log.Debug("data worker exiting on shutdown", "worker", id)
			return
		case jobqueue.DataJob:
			job := ev.Job
			t := p.resolve(job.Table)
			if t == nil {
				log.Warn("data worker: job references unknown table, dropping", "worker", id, "table", job.Table)
				continue
			}

			ctx := context.Background()
			var cancel context.CancelFunc
			if p.jobTimeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
			} else {
				cancel = func() {}
			}
			err := p.exec.Execute(ctx, job)
			cancel()

			p.dispatch.OnJobComplete(t, err == nil)
		}
	}
}
