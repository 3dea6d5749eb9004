package field

import (
	"errors"
	"fmt"
)

var (
	errKeyMissing     = errors.New("field registry: descriptor key is required")
	errNoDescriptors  = errors.New("field registry: at least one descriptor is required")
	errOptionsAndLoad = errors.New("field registry: options and loader are mutually exclusive")
	errCustomNoRender = errors.New("field registry: custom kind requires a render callback")
)

// Registry is the ordered, immutable-per-instance list of descriptors for one
// form. Iteration order is used consistently for both rendering and
// validation; Lookup resolves a descriptor by key.
type Registry struct {
	descriptors []Descriptor
	byKey       map[string]int
}

// NewRegistry validates the descriptors and freezes them into a Registry.
// Invariants enforced here rather than at use sites: non-empty unique keys,
// a declared kind, at most one of Options/Load, choice payloads only on
// choice kinds, and Render present on Custom fields.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, errNoDescriptors
	}

	byKey := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		if d.Key == "" {
			return nil, errKeyMissing
		}
		if _, exists := byKey[d.Key]; exists {
			return nil, fmt.Errorf("field registry: duplicate key %q", d.Key)
		}
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("field registry: field %q: unknown kind %q", d.Key, d.Kind)
		}
		if len(d.Options) > 0 && d.Load != nil {
			return nil, fmt.Errorf("field registry: field %q: %w", d.Key, errOptionsAndLoad)
		}
		if (len(d.Options) > 0 || d.Load != nil) && !d.Kind.Choice() {
			return nil, fmt.Errorf("field registry: field %q: kind %q does not take options", d.Key, d.Kind)
		}
		if d.Kind == KindCustom && d.Render == nil {
			return nil, fmt.Errorf("field registry: field %q: %w", d.Key, errCustomNoRender)
		}
		byKey[d.Key] = i
	}

	return &Registry{
		descriptors: append([]Descriptor(nil), descriptors...),
		byKey:       byKey,
	}, nil
}

// MustRegistry panics on invalid descriptors. Useful for package-level screen
// definitions wired at init time.
func MustRegistry(descriptors ...Descriptor) *Registry {
	reg, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return reg
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.descriptors)
}

// All returns the descriptors in declaration order. The slice is a copy;
// mutating it does not affect the registry.
func (r *Registry) All() []Descriptor {
	if r == nil {
		return nil
	}
	return append([]Descriptor(nil), r.descriptors...)
}

// Each calls fn for every descriptor in declaration order, stopping early if
// fn returns false.
func (r *Registry) Each(fn func(d Descriptor) bool) {
	if r == nil || fn == nil {
		return
	}
	for _, d := range r.descriptors {
		if !fn(d) {
			return
		}
	}
}

// Lookup resolves a descriptor by key.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	idx, ok := r.byKey[key]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[idx], true
}
