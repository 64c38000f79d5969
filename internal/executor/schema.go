package executor

import (
	"log/slog"

	"github.com/mydumper/myloader-go/internal/parkgroup"
	"github.com/mydumper/myloader-go/internal/registry"
	"github.com/mydumper/myloader-go/pkg/model"
)

var log = slog.Default()

// ReadyNotifier is the one dispatcher call a schema worker needs: notify
// that a table may now be eligible for dispatch. *dispatcher.Dispatcher
// satisfies this without executor importing the dispatcher package, which
// would otherwise cycle back through IndexExecutor.
type ReadyNotifier interface {
	NotifyTableReady(t *registry.TableState)
}

// MockSchemaExecutor stands in for the real DDL-executing schema worker
// pool. It only performs the two state transitions the dispatcher observes
// from a real SchemaExecutor: CREATED on success, NOT_FOUND (on the
// containing database) plus a WakeAll on failure.
type MockSchemaExecutor struct {
	Dispatch ReadyNotifier
	Parked   *parkgroup.ParkGroup
}

// CreateTable simulates a schema worker finishing (or failing) a table's
// DDL. On success it sets the table CREATED and notifies the dispatcher so
// any pending jobs can be picked up. On failure it marks the table's
// database NOT_FOUND and wakes every parked worker so the fallback scan can
// re-evaluate and skip that database's tables permanently.
func (s *MockSchemaExecutor) CreateTable(t *registry.TableState, ok bool) {
	if !ok {
		t.Database.MarkFailed()
		log.Warn("schema executor: DDL failed, database marked NOT_FOUND", "database", t.Database.Name)
		s.Parked.WakeAll()
		return
	}

	t.Lock()
	t.SetState(model.Created)
	s.Dispatch.NotifyTableReady(t)
	t.Unlock()
}
