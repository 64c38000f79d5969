// Package executor defines the dispatcher's external collaborators: the
// schema and index worker pools, and the per-job restore execution
// interface. The real backends (DDL execution, index builds, actual
// database I/O) live outside this module; the dispatcher only calls
// through these interfaces and observes the state transitions they
// perform.
//
// Modeled on a job-source interface-abstraction pattern that decouples the
// worker pool from the specific job origin.
package executor

import (
	"context"

	"github.com/mydumper/myloader-go/internal/registry"
	"github.com/mydumper/myloader-go/pkg/model"
)

// RestoreExecutor runs a single restore job against the target database.
// Execution of SQL, connection handling, and retries are entirely the
// implementation's concern; the dispatcher never inspects job payloads.
type RestoreExecutor interface {
	Execute(ctx context.Context, job model.RestoreJob) error
}

// IndexExecutor receives non-blocking handoffs once a table's data (or all
// tables' data) is done, and builds indexes out of band.
type IndexExecutor interface {
	// EnqueueIndexesFor hands off one table's index definitions for
	// asynchronous creation. Non-blocking.
	EnqueueIndexesFor(t *registry.TableState)
	// StartOptimizeIndexesAllTables is called once by the dispatcher when
	// it ends the data phase on its own, right after it has posted SHUTDOWN
	// to the data workers; it does not wait for the workers to exit. It is
	// not called when the loop stops on a SHUTDOWN control event.
	StartOptimizeIndexesAllTables()
}

// NoopIndexExecutor discards index requests. Useful for tests that only
// care about data-job dispatch.
type NoopIndexExecutor struct{}

func (NoopIndexExecutor) EnqueueIndexesFor(*registry.TableState) {}
func (NoopIndexExecutor) StartOptimizeIndexesAllTables()         {}
