package counter

import (
	"context"
	"sync"
	"testing"
)

func TestAddIfAbsentOnlyCreates(t *testing.T) {
	ctx := context.Background()
	c := NewLocal()

	if err := c.AddIfAbsent(ctx, "n", 1); err != nil {
		t.Fatalf("AddIfAbsent: %v", err)
	}
	if v, _ := c.Current(ctx, "n"); v != 1 {
		t.Fatalf("Current = %d, want 1", v)
	}

	// second add must not reset
	if _, err := c.Increment(ctx, "n"); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if err := c.AddIfAbsent(ctx, "n", 1); err != nil {
		t.Fatalf("AddIfAbsent again: %v", err)
	}
	if v, _ := c.Current(ctx, "n"); v != 2 {
		t.Fatalf("Current after re-add = %d, want 2", v)
	}
}

func TestMissingCounterReadsZero(t *testing.T) {
	c := NewLocal()
	if v, err := c.Current(context.Background(), "never"); err != nil || v != 0 {
		t.Fatalf("Current = %d, %v", v, err)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	c := NewLocal()

	const workers, each = 8, 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				if _, err := c.Increment(ctx, "n"); err != nil {
					t.Errorf("Increment: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if v, _ := c.Current(ctx, "n"); v != workers*each {
		t.Fatalf("Current = %d, want %d", v, workers*each)
	}
}
