package memory

import (
	"context"
	"errors"
	"testing"

	st "github.com/unkn0wn-root/durabledict/store"
)

func TestStampStartsAtOne(t *testing.T) {
	m := New()
	if v, err := m.LastUpdated(context.Background()); err != nil || v != 1 {
		t.Fatalf("LastUpdated = %d, %v (want 1)", v, err)
	}
}

func TestWritesBumpTheStamp(t *testing.T) {
	ctx := context.Background()
	m := New()

	s1, err := m.Persist(ctx, "a", "1")
	if err != nil || s1 != 2 {
		t.Fatalf("Persist = %d, %v", s1, err)
	}
	s2, err := m.Depersist(ctx, "a")
	if err != nil || s2 != 3 {
		t.Fatalf("Depersist = %d, %v", s2, err)
	}
}

func TestNoOpPathsDoNotBump(t *testing.T) {
	ctx := context.Background()
	m := New()

	if _, err := m.Depersist(ctx, "missing"); !errors.Is(err, st.ErrKeyNotFound) {
		t.Fatalf("Depersist missing: err = %v", err)
	}

	if _, _, stamp, _ := m.Take(ctx, "missing"); stamp != 0 {
		t.Fatalf("Take missing: stamp = %d, want 0", stamp)
	}

	if _, inserted, stamp, _ := m.InsertIfAbsent(ctx, "k", "v"); !inserted || stamp == 0 {
		t.Fatalf("first InsertIfAbsent: inserted=%v stamp=%d", inserted, stamp)
	}
	v, inserted, stamp, _ := m.InsertIfAbsent(ctx, "k", "other")
	if inserted || stamp != 0 || v != "v" {
		t.Fatalf("second InsertIfAbsent = %q inserted=%v stamp=%d", v, inserted, stamp)
	}

	if last, _ := m.LastUpdated(ctx); last != 2 {
		t.Fatalf("LastUpdated = %d, want 2 (1 initial + 1 insert)", last)
	}
}

func TestTakeReturnsAndRemoves(t *testing.T) {
	ctx := context.Background()
	m := New()

	if _, err := m.Persist(ctx, "a", "1"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	v, took, stamp, err := m.Take(ctx, "a")
	if err != nil || !took || v != "1" || stamp == 0 {
		t.Fatalf("Take = %q took=%v stamp=%d err=%v", v, took, stamp, err)
	}
	all, _ := m.Persistents(ctx)
	if len(all) != 0 {
		t.Fatalf("Persistents after take = %v", all)
	}
}

func TestPersistentsIsACopy(t *testing.T) {
	ctx := context.Background()
	m := New()
	if _, err := m.Persist(ctx, "a", "1"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	all, _ := m.Persistents(ctx)
	all["a"] = "mutated"
	again, _ := m.Persistents(ctx)
	if again["a"] != "1" {
		t.Fatalf("Persistents exposed internal map")
	}
}
