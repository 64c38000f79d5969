// Package parser is a demo/test stand-in for the real dump-format parser.
// It satisfies exactly the interface the dispatcher consumes from a parser
// (TableRegistry.GetOrCreate, TableState.AddJob, and the two control-channel
// pushes) by replaying an in-memory manifest of tables and chunk counts.
//
// It never inspects SQL or a real dump file; cmd/myloader-dispatch (through
// internal/cli's run command) uses it to drive the dispatcher end-to-end.
// The dispatcher's scenario tests use their own harness instead.
//
// Grounded on cmd/demo/main.go's simulation-harness style.
package parser

import (
	"fmt"
	"log/slog"

	"github.com/mydumper/myloader-go/internal/control"
	"github.com/mydumper/myloader-go/internal/dispatcher"
	"github.com/mydumper/myloader-go/internal/registry"
	"github.com/mydumper/myloader-go/pkg/model"
)

var log = slog.Default()

// TableSpec describes one table to synthesize: its target database, kind,
// per-table concurrency cap, whether to skip data restoration, and how many
// data chunks to produce for it.
type TableSpec struct {
	Database    string
	Name        string
	Kind        model.TableKind
	MaxParallel int
	NoData      bool
	ChunkCount  int
}

// Manifest simulates a dump: a flat list of tables to create and load.
type Manifest struct {
	Tables []TableSpec
}

// Run replays the manifest against reg and d: creates every table (as the
// schema-definition pass would), adds every data job (as the data pass
// would), then posts FILE_TYPE_SCHEMA_ENDED followed by FILE_TYPE_ENDED.
// It does not itself transition any table to CREATED — that remains the
// schema executor's job, simulated separately by MockSchemaExecutor.
func Run(reg *registry.TableRegistry, d *dispatcher.Dispatcher, ctrl *control.Channel, m Manifest) []*registry.TableState {
	dbs := make(map[string]*model.DatabaseState)
	tables := make([]*registry.TableState, 0, len(m.Tables))

	for _, spec := range m.Tables {
		db, ok := dbs[spec.Database]
		if !ok {
			db = model.NewDatabaseState(spec.Database)
			dbs[spec.Database] = db
		}

		ident := model.TableIdent{TargetSchema: spec.Database, SourceName: spec.Name}
		maxParallel := spec.MaxParallel
		if maxParallel < 1 {
			maxParallel = 1
		}
		t := reg.GetOrCreate(ident, db, spec.Kind, maxParallel)
		t.NoData = spec.NoData
		tables = append(tables, t)

		for i := 0; i < spec.ChunkCount; i++ {
			job := model.RestoreJob{
				ID:       fmt.Sprintf("%s.%s#%d", spec.Database, spec.Name, i),
				Table:    ident,
				ChunkNum: i,
			}
			t.Lock()
			t.AddJob(job)
			d.NotifyTableReady(t)
			t.Unlock()
		}
		log.Debug("parser: table registered", "table", ident, "chunks", spec.ChunkCount)
	}

	ctrl.Push(control.FileTypeSchemaEnded)
	ctrl.Push(control.FileTypeEnded)
	return tables
}
