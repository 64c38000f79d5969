package registry

import (
	"testing"

	"github.com/mydumper/myloader-go/pkg/model"
)

func newTestTable(maxParallel int) *TableState {
	db := model.NewDatabaseState("testdb")
	ident := model.TableIdent{TargetSchema: "testdb", SourceName: "t1"}
	return NewTableState(ident, db, model.Base, maxParallel)
}

func TestTableState_EligibleRequiresAllFive(t *testing.T) {
	table := newTestTable(2)

	table.Lock()
	defer table.Unlock()

	if table.Eligible() {
		t.Fatalf("freshly-created table should not be eligible: no jobs, not CREATED")
	}

	table.AddJob(model.RestoreJob{ID: "j1"})
	if table.Eligible() {
		t.Fatalf("table with jobs but schema not CREATED should not be eligible")
	}

	table.SetState(model.Created)
	if !table.Eligible() {
		t.Fatalf("table with CREATED schema, pending jobs, and slack should be eligible")
	}

	table.SetInReadyQueue(true)
	if table.Eligible() {
		t.Fatalf("table already in ready queue should not be eligible again")
	}
	table.SetInReadyQueue(false)

	table.IncInFlight()
	table.IncInFlight()
	if table.Eligible() {
		t.Fatalf("table at max_parallel in-flight should not be eligible")
	}
	table.DecInFlight()
	if !table.Eligible() {
		t.Fatalf("table with slack again should be eligible")
	}

	table.NoData = true
	if table.Eligible() {
		t.Fatalf("no_data table should never be eligible")
	}
	table.NoData = false

	table.Kind = model.View
	if table.Eligible() {
		t.Fatalf("view should never be eligible")
	}
}

func TestTableState_PerTableFIFO(t *testing.T) {
	table := newTestTable(4)
	table.Lock()
	for i := 0; i < 5; i++ {
		table.AddJob(model.RestoreJob{ID: string(rune('a' + i))})
	}
	var order []string
	for table.PendingCount() > 0 {
		order = append(order, table.PopJob().ID)
	}
	table.Unlock()

	want := []string{"a", "b", "c", "d", "e"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("job %d: got %s, want %s (FIFO order violated)", i, order[i], id)
		}
	}
}

func TestTableState_ExpectedJobsTracksAddAndComplete(t *testing.T) {
	table := newTestTable(1)
	table.Lock()
	table.AddJob(model.RestoreJob{ID: "j1"})
	table.AddJob(model.RestoreJob{ID: "j2"})
	if table.ExpectedJobs() != 2 {
		t.Fatalf("expected 2 expected jobs, got %d", table.ExpectedJobs())
	}
	table.PopJob()
	table.IncInFlight()
	table.DecInFlight() // simulates on_job_complete
	if table.ExpectedJobs() != 1 {
		t.Fatalf("expected 1 expected job after one completion, got %d", table.ExpectedJobs())
	}
	table.Unlock()
}

func TestTableState_DrainJobsForNoData(t *testing.T) {
	table := newTestTable(1)
	table.NoData = true
	table.Lock()
	table.AddJob(model.RestoreJob{ID: "j1"})
	table.AddJob(model.RestoreJob{ID: "j2"})
	table.AddJob(model.RestoreJob{ID: "j3"})
	freed := table.DrainJobs()
	table.Unlock()

	if freed != 3 {
		t.Fatalf("expected 3 jobs freed, got %d", freed)
	}
	if table.ExpectedJobs() != 0 {
		t.Fatalf("expected_jobs should be 0 after drain, got %d", table.ExpectedJobs())
	}
}

func TestTableRegistry_RefreshIsIdempotent(t *testing.T) {
	reg := NewTableRegistry()
	db := model.NewDatabaseState("d")
	t1 := reg.GetOrCreate(model.TableIdent{TargetSchema: "d", SourceName: "t1"}, db, model.Base, 1)
	reg.Refresh()
	reg.Refresh()

	count := 0
	reg.ForEach(func(ts *TableState) {
		if ts == t1 {
			count++
		}
	})
	if count != 1 {
		t.Fatalf("table should appear exactly once after repeated Refresh, appeared %d times", count)
	}
}

func TestTableRegistry_GetOrCreateReturnsSameInstance(t *testing.T) {
	reg := NewTableRegistry()
	db := model.NewDatabaseState("d")
	ident := model.TableIdent{TargetSchema: "d", SourceName: "t1"}
	a := reg.GetOrCreate(ident, db, model.Base, 1)
	b := reg.GetOrCreate(ident, db, model.Base, 1)
	if a != b {
		t.Fatalf("GetOrCreate should return the same TableState for the same identity")
	}
	if reg.Len() != 1 {
		t.Fatalf("registry should only hold one table, got %d", reg.Len())
	}
}
