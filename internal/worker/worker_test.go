package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mydumper/myloader-go/internal/control"
	"github.com/mydumper/myloader-go/internal/dispatcher"
	"github.com/mydumper/myloader-go/internal/executor"
	"github.com/mydumper/myloader-go/internal/jobqueue"
	"github.com/mydumper/myloader-go/internal/metrics"
	"github.com/mydumper/myloader-go/internal/parkgroup"
	"github.com/mydumper/myloader-go/internal/readyqueue"
	"github.com/mydumper/myloader-go/internal/registry"
	"github.com/mydumper/myloader-go/pkg/model"
	"github.com/stretchr/testify/require"
)

type countingExecutor struct {
	count int64
}

func (c *countingExecutor) Execute(ctx context.Context, job model.RestoreJob) error {
	atomic.AddInt64(&c.count, 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func TestPool_DrainsAllJobsThenShutsDown(t *testing.T) {
	reg := registry.NewTableRegistry()
	ctrl := control.NewChannel(128)
	jobs := jobqueue.NewChannel(32)
	parked := parkgroup.New(3, ctrl)
	ready := readyqueue.New()

	d := dispatcher.New(dispatcher.Config{
		Registry: reg,
		Ready:    ready,
		Parked:   parked,
		Control:  ctrl,
		Jobs:     jobs,
		Index:    executor.NoopIndexExecutor{},
		Metrics:  metrics.NewUnregisteredCollector(),
	})

	exec := &countingExecutor{}
	pool := NewPool(3, time.Second, jobs, ctrl, d, exec, func(ident model.TableIdent) *registry.TableState {
		t, _ := reg.Get(ident)
		return t
	})

	go d.Run()
	pool.Start()

	db := model.NewDatabaseState("db")
	tbl := reg.GetOrCreate(model.TableIdent{TargetSchema: "db", SourceName: "t"}, db, model.Base, 2)
	tbl.Lock()
	for i := 0; i < 6; i++ {
		tbl.AddJob(model.RestoreJob{ID: "j", Table: tbl.Ident})
	}
	tbl.SetState(model.Created)
	d.NotifyTableReady(tbl)
	tbl.Unlock()

	ctrl.Push(control.FileTypeEnded)

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not finish in time")
	}
	pool.Wait()

	require.EqualValues(t, 6, atomic.LoadInt64(&exec.count))
}
