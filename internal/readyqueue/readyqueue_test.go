package readyqueue

import (
	"testing"

	"github.com/mydumper/myloader-go/internal/registry"
	"github.com/mydumper/myloader-go/pkg/model"
)

func newTable(name string) *registry.TableState {
	db := model.NewDatabaseState("d")
	return registry.NewTableState(model.TableIdent{TargetSchema: "d", SourceName: name}, db, model.Base, 1)
}

func TestReadyQueue_FIFOOrder(t *testing.T) {
	q := New()
	a, b, c := newTable("a"), newTable("b"), newTable("c")
	q.Push(a)
	q.Push(b)
	q.Push(c)

	if got := q.TryPop(); got != a {
		t.Fatalf("expected a first")
	}
	if got := q.TryPop(); got != b {
		t.Fatalf("expected b second")
	}
	if got := q.TryPop(); got != c {
		t.Fatalf("expected c third")
	}
	if got := q.TryPop(); got != nil {
		t.Fatalf("expected empty queue to return nil")
	}
}

func TestReadyQueue_NilReceiverIsNoop(t *testing.T) {
	var q *ReadyQueue
	q.Push(newTable("a"))
	if got := q.TryPop(); got != nil {
		t.Fatalf("nil queue should always report empty")
	}
	if q.Len() != 0 {
		t.Fatalf("nil queue length should be 0")
	}
}
