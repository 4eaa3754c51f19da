package ingress

import "testing"

func TestBackpressure_AdmitsUpToHighWaterMark(t *testing.T) {
	bp := NewBackpressure(2, 1000, 1000)

	release1, ok1 := bp.Admit()
	if !ok1 {
		t.Fatal("expected first admit to succeed")
	}
	release2, ok2 := bp.Admit()
	if !ok2 {
		t.Fatal("expected second admit to succeed")
	}
	if _, ok3 := bp.Admit(); ok3 {
		t.Fatal("expected third admit to be rejected past the high water mark")
	}

	release1()
	if _, ok := bp.Admit(); !ok {
		t.Fatal("expected a slot to free up after release")
	}
	release2()
}

func TestBackpressure_InFlightReflectsHeldSlots(t *testing.T) {
	bp := NewBackpressure(5, 1000, 1000)
	if bp.InFlight() != 0 {
		t.Fatalf("expected 0 in flight, got %d", bp.InFlight())
	}

	release, ok := bp.Admit()
	if !ok {
		t.Fatal("expected admit to succeed")
	}
	if bp.InFlight() != 1 {
		t.Fatalf("expected 1 in flight, got %d", bp.InFlight())
	}
	release()
	if bp.InFlight() != 0 {
		t.Fatalf("expected 0 in flight after release, got %d", bp.InFlight())
	}
}
