package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	st "github.com/unkn0wn-root/durabledict/store"
)

func openTestStore(t *testing.T) *Bolt {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dict.db"), "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStampSeededAtOne(t *testing.T) {
	s := openTestStore(t)
	if v, err := s.LastUpdated(context.Background()); err != nil || v != 1 {
		t.Fatalf("LastUpdated = %d, %v (want 1)", v, err)
	}
}

func TestPersistDepersist(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	stamp, err := s.Persist(ctx, "a", "1")
	if err != nil || stamp != 2 {
		t.Fatalf("Persist = %d, %v", stamp, err)
	}
	all, err := s.Persistents(ctx)
	if err != nil || len(all) != 1 || all["a"] != "1" {
		t.Fatalf("Persistents = %v, %v", all, err)
	}

	stamp, err = s.Depersist(ctx, "a")
	if err != nil || stamp != 3 {
		t.Fatalf("Depersist = %d, %v", stamp, err)
	}
	if _, err := s.Depersist(ctx, "a"); !errors.Is(err, st.ErrKeyNotFound) {
		t.Fatalf("Depersist missing: err = %v", err)
	}
	// failed delete must not bump
	if v, _ := s.LastUpdated(ctx); v != 3 {
		t.Fatalf("LastUpdated after failed delete = %d, want 3", v)
	}
}

func TestInsertIfAbsentAndTake(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	v, inserted, stamp, err := s.InsertIfAbsent(ctx, "k", "def")
	if err != nil || !inserted || v != "def" || stamp != 2 {
		t.Fatalf("InsertIfAbsent = %q inserted=%v stamp=%d err=%v", v, inserted, stamp, err)
	}
	v, inserted, stamp, err = s.InsertIfAbsent(ctx, "k", "other")
	if err != nil || inserted || v != "def" || stamp != 0 {
		t.Fatalf("second InsertIfAbsent = %q inserted=%v stamp=%d err=%v", v, inserted, stamp, err)
	}

	v, took, stamp, err := s.Take(ctx, "k")
	if err != nil || !took || v != "def" || stamp != 3 {
		t.Fatalf("Take = %q took=%v stamp=%d err=%v", v, took, stamp, err)
	}
	if _, took, stamp, _ := s.Take(ctx, "k"); took || stamp != 0 {
		t.Fatalf("Take missing: took=%v stamp=%d", took, stamp)
	}
}

// TestSurvivesReopen is the durability check: entries and the stamp must be
// identical after closing and reopening the file.
func TestSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dict.db")

	s, err := Open(path, "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Persist(ctx, "a", "1"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if _, err := s.Persist(ctx, "b", "2"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path, "test")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close(ctx)

	all, err := s.Persistents(ctx)
	if err != nil || len(all) != 2 || all["a"] != "1" || all["b"] != "2" {
		t.Fatalf("Persistents after reopen = %v, %v", all, err)
	}
	if v, _ := s.LastUpdated(ctx); v != 3 {
		t.Fatalf("LastUpdated after reopen = %d, want 3", v)
	}
}

func TestKeyspacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dict.db")

	a, err := Open(path, "alpha")
	if err != nil {
		t.Fatalf("Open alpha: %v", err)
	}
	defer a.Close(ctx)

	b, err := New(a.db, "beta")
	if err != nil {
		t.Fatalf("New beta: %v", err)
	}
	defer b.Close(ctx)

	if _, err := a.Persist(ctx, "k", "from-alpha"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if all, _ := b.Persistents(ctx); len(all) != 0 {
		t.Fatalf("beta sees alpha's entries: %v", all)
	}
	if v, _ := b.LastUpdated(ctx); v != 1 {
		t.Fatalf("beta stamp moved with alpha's write: %d", v)
	}
}
