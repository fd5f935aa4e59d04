package core

import "testing"

func TestRingEvictsOldestOnOverflow(t *testing.T) {
	r := newRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	got := r.Snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0] != 5 || got[1] != 4 || got[2] != 3 {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestRingSnapshotIsACopy(t *testing.T) {
	r := newRing[string](2)
	r.Push("a")
	snap := r.Snapshot()
	snap[0] = "mutated"
	if r.Snapshot()[0] != "a" {
		t.Fatalf("snapshot must not alias the buffer")
	}
}

func TestRingReset(t *testing.T) {
	r := newRing[int](4)
	r.Push(1)
	r.Push(2)
	r.Reset()
	if r.Len() != 0 {
		t.Fatalf("expected empty ring after reset, got %d", r.Len())
	}
}

func TestRingZeroCapacityClampsToOne(t *testing.T) {
	r := newRing[int](0)
	r.Push(1)
	r.Push(2)
	if r.Len() != 1 || r.Snapshot()[0] != 2 {
		t.Fatalf("expected single newest entry, got %v", r.Snapshot())
	}
}
