package parkgroup

import (
	"testing"

	"github.com/mydumper/myloader-go/internal/control"
)

func TestParkGroup_WakeOneDrainsOnePark(t *testing.T) {
	ctrl := control.NewChannel(8)
	pg := New(2, ctrl)

	pg.Park()
	pg.Park()
	if pg.Parked() != 2 {
		t.Fatalf("expected 2 parked, got %d", pg.Parked())
	}

	pg.WakeOne()
	if pg.Parked() != 1 {
		t.Fatalf("expected 1 parked after WakeOne, got %d", pg.Parked())
	}
	ev := ctrl.Pop()
	if ev.Kind != control.WakeDataThread {
		t.Fatalf("expected WAKE_DATA_THREAD, got %v", ev.Kind)
	}
}

func TestParkGroup_WakeOneNoopWhenEmpty(t *testing.T) {
	ctrl := control.NewChannel(8)
	pg := New(2, ctrl)

	pg.WakeOne() // nothing parked

	select {
	case ev := <-ctrl.C():
		t.Fatalf("expected no event, got %v", ev.Kind)
	default:
	}
}

func TestParkGroup_WakeAllDrainsAndEmitsPerWorker(t *testing.T) {
	ctrl := control.NewChannel(8)
	pg := New(3, ctrl)
	pg.Park()
	pg.Park()
	pg.Park()

	pg.WakeAll()
	if pg.Parked() != 0 {
		t.Fatalf("expected 0 parked after WakeAll, got %d", pg.Parked())
	}

	count := 0
	for i := 0; i < 3; i++ {
		ev := ctrl.Pop()
		if ev.Kind != control.RequestDataJob {
			t.Fatalf("expected REQUEST_DATA_JOB, got %v", ev.Kind)
		}
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 wake events, got %d", count)
	}
}

func TestParkGroup_ParkIsBoundedByN(t *testing.T) {
	ctrl := control.NewChannel(8)
	pg := New(1, ctrl)
	pg.Park()
	pg.Park()
	pg.Park()
	if pg.Parked() != 1 {
		t.Fatalf("parked count should be bounded by N=1, got %d", pg.Parked())
	}
}

func TestParkGroup_NilReceiverIsNoop(t *testing.T) {
	var pg *ParkGroup
	pg.Park()
	pg.WakeOne()
	pg.WakeAll()
	if pg.Parked() != 0 {
		t.Fatalf("nil ParkGroup should report 0 parked")
	}
}
