package durabledict

import (
	"context"
	"errors"
	"testing"

	"github.com/unkn0wn-root/durabledict/codec"
	"github.com/unkn0wn-root/durabledict/store/memory"
)

type setting struct {
	Enabled bool   `json:"enabled"`
	Rollout int    `json:"rollout"`
	Note    string `json:"note,omitempty"`
}

func TestTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := newTestDict(t, memory.New(), nil)
	defer d.Close(ctx)

	td := NewTyped[setting](d, codec.JSON[setting]{})

	want := setting{Enabled: true, Rollout: 25, Note: "canary"}
	if err := td.Set(ctx, "feature", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := td.Get(ctx, "feature")
	if err != nil || got != want {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	// the raw string view stays readable through the untyped dict
	if raw, err := d.Get(ctx, "feature"); err != nil || raw == "" {
		t.Fatalf("untyped Get = %q, %v", raw, err)
	}
}

func TestTypedSetDefaultAndPop(t *testing.T) {
	ctx := context.Background()
	d := newTestDict(t, memory.New(), nil)
	defer d.Close(ctx)

	td := NewTyped[setting](d, codec.JSON[setting]{})

	def := setting{Enabled: false, Rollout: 0}
	v, err := td.SetDefault(ctx, "flag", def)
	if err != nil || v != def {
		t.Fatalf("SetDefault = %+v, %v", v, err)
	}

	// second default loses to the stored value
	v, err = td.SetDefault(ctx, "flag", setting{Enabled: true, Rollout: 100})
	if err != nil || v != def {
		t.Fatalf("SetDefault existing = %+v, %v", v, err)
	}

	popped, err := td.Pop(ctx, "flag")
	if err != nil || popped != def {
		t.Fatalf("Pop = %+v, %v", popped, err)
	}
	if _, err := td.Pop(ctx, "flag"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Pop missing: err = %v", err)
	}

	fallback := setting{Note: "absent"}
	got, err := td.PopDefault(ctx, "flag", fallback)
	if err != nil || got != fallback {
		t.Fatalf("PopDefault = %+v, %v", got, err)
	}
}
