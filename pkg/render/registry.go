package render

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formengine/pkg/field"
)

// Registry stores widgets by field kind, providing discovery and duplication
// safeguards. A Custom field short-circuits to its descriptor's own Render
// callback and never consults the registry.
type Registry struct {
	mu      sync.RWMutex
	widgets map[field.Kind]Widget
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		widgets: make(map[field.Kind]Widget),
	}
}

// Register adds a widget by its Kind(). Duplicate kinds return an error.
func (r *Registry) Register(w Widget) error {
	if w == nil {
		return fmt.Errorf("render: widget is required")
	}
	kind := w.Kind()
	if !kind.Valid() {
		return fmt.Errorf("render: unknown widget kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.widgets[kind]; exists {
		return fmt.Errorf("render: widget for kind %q already registered", kind)
	}
	r.widgets[kind] = w
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(w Widget) {
	if err := r.Register(w); err != nil {
		panic(err)
	}
}

// Get retrieves the widget for a kind.
func (r *Registry) Get(kind field.Kind) (Widget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.widgets[kind]
	if !ok {
		return nil, fmt.Errorf("render: no widget for kind %q", kind)
	}
	return w, nil
}

// Has reports whether a widget is registered for the kind.
func (r *Registry) Has(kind field.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.widgets[kind]
	return ok
}

// Kinds returns the registered kinds, sorted for determinism.
func (r *Registry) Kinds() []field.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]field.Kind, 0, len(r.widgets))
	for kind := range r.widgets {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Render resolves the widget for the state's field and invokes it. Custom
// descriptors dispatch to their own Render callback.
func (r *Registry) Render(ctx context.Context, state FieldState) ([]byte, error) {
	d := state.Descriptor
	if d.Kind == field.KindCustom {
		if d.Render == nil {
			return nil, fmt.Errorf("render: custom field %q has no render callback", d.Key)
		}
		return d.Render(ctx, d, state.Value)
	}

	w, err := r.Get(d.Kind)
	if err != nil {
		return nil, err
	}
	out, err := w.Render(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("render: field %q: %w", d.Key, err)
	}
	return out, nil
}
