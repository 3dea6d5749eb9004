package form

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/values"
)

func TestOpen_OptionFanout(t *testing.T) {
	t.Parallel()

	var deptLoads int32
	deptLoader := options.LoaderFunc(func(context.Context) ([]options.Option, error) {
		atomic.AddInt32(&deptLoads, 1)
		return []options.Option{{Label: "Ops", Value: 1}, {Label: "R&D", Value: 2}}, nil
	})
	roleLoader := options.LoaderFunc(func(context.Context) ([]options.Option, error) {
		return nil, errors.New("roles endpoint down")
	})

	reg, err := field.NewRegistry(
		field.Descriptor{Key: "dept", Kind: field.KindSelect, Load: deptLoader},
		field.Descriptor{Key: "role", Kind: field.KindMultiSelect, Load: roleLoader},
		field.Descriptor{Key: "status", Kind: field.KindRadio, Options: []options.Option{
			{Label: "Enabled", Value: 1},
			{Label: "Disabled", Value: 0},
		}},
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	f, err := New(reg, newBackend().collaborators())
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	ctx := context.Background()
	if err := f.Open(ctx, "", nil); err != nil {
		t.Fatalf("open: %v", err)
	}

	want := []options.Option{{Label: "Ops", Value: 1}, {Label: "R&D", Value: 2}}
	if diff := cmp.Diff(want, f.Options("dept")); diff != "" {
		t.Fatalf("dept options (-want +got):\n%s", diff)
	}

	// The failed loader degrades to an empty list without touching siblings.
	if got := f.Options("role"); got != nil {
		t.Fatalf("failed loader should yield an empty list, got %v", got)
	}

	// Static options bypass the cache entirely.
	if got := f.Options("status"); len(got) != 2 {
		t.Fatalf("static options missing: %v", got)
	}

	// Loaders run once per open lifecycle; a reopen starts cold and loads
	// again.
	if got := atomic.LoadInt32(&deptLoads); got != 1 {
		t.Fatalf("dept loader ran %d times after one open", got)
	}
	if err := f.Open(ctx, "", nil); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := atomic.LoadInt32(&deptLoads); got != 2 {
		t.Fatalf("dept loader ran %d times after reopen, want 2", got)
	}
}

func TestSwitchRecord_KeepsOptionCache(t *testing.T) {
	t.Parallel()

	var loads int32
	loader := options.LoaderFunc(func(context.Context) ([]options.Option, error) {
		atomic.AddInt32(&loads, 1)
		return []options.Option{{Label: "Ops", Value: 1}}, nil
	})

	reg, err := field.NewRegistry(
		field.Descriptor{Key: "name", Kind: field.KindText, Required: true},
		field.Descriptor{Key: "dept", Kind: field.KindSelect, Load: loader},
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	be := newBackend()
	be.records["1"] = values.Map{"name": "Ada"}
	be.records["2"] = values.Map{"name": "Grace"}

	f, err := New(reg, be.collaborators())
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	ctx := context.Background()
	if err := f.Open(ctx, "1", nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.SetValue("name", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(f.Errors()) == 0 {
		t.Fatalf("expected an inline error before switching")
	}

	if err := f.SwitchRecord(ctx, "2"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	// The error map resets and the draft re-materializes for the new record,
	// but choices are not re-fetched; they resolve once per open lifecycle.
	if len(f.Errors()) != 0 {
		t.Fatalf("switch must reset the error map, got %v", f.Errors())
	}
	if got := f.Value("name"); got != "Grace" {
		t.Fatalf("draft not re-materialized: name=%v", got)
	}
	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("option loader ran %d times, switching records must not refetch", got)
	}
	if got := f.Options("dept"); len(got) != 1 {
		t.Fatalf("cache entry lost on switch: %v", got)
	}
}

func TestSwitchRecord_OnClosedForm(t *testing.T) {
	t.Parallel()

	f, err := New(userRegistry(t), newBackend().collaborators())
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if err := f.SwitchRecord(context.Background(), "1"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("switch on closed form = %v, want ErrNotOpen", err)
	}
}

func TestClose_DuringPendingOpenDropsResults(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	loader := options.LoaderFunc(func(context.Context) ([]options.Option, error) {
		<-gate
		return []options.Option{{Label: "late", Value: 1}}, nil
	})

	reg, err := field.NewRegistry(
		field.Descriptor{Key: "dept", Kind: field.KindSelect, Load: loader},
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	f, err := New(reg, newBackend().collaborators(), WithDestroyOnClose(true))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- f.Open(ctx, "", nil) }()
	waitFor(t, "editing state", func() bool { return f.State() == StateEditing })

	// Teardown races the pending loader; the late result must be dropped
	// without panicking or resurrecting state.
	f.Reset()
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("open: %v", err)
	}

	if f.State() != StateClosed {
		t.Fatalf("state = %v, want closed", f.State())
	}
	if got := f.Options("dept"); got != nil {
		t.Fatalf("late loader result applied after reset: %v", got)
	}
}
