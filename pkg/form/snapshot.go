package form

import (
	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/validate"
)

// Snapshot returns the currently visible fields in registry order, each with
// its value, inline error, and resolved options: everything an external
// renderer needs. Hidden fields are omitted entirely; their values persist
// in the draft but neither their widgets nor their errors are shown.
func (f *Form) Snapshot() []render.FieldState {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]render.FieldState, 0, f.reg.Len())
	f.reg.Each(func(d field.Descriptor) bool {
		if !f.visibleLocked(d) {
			return true
		}
		out = append(out, render.FieldState{
			Descriptor: d,
			Value:      f.vals[d.Key],
			Error:      f.errs[d.Key],
			Options:    f.optionsLocked(d),
		})
		return true
	})
	return out
}

// Errors returns the displayed error map: entries only for currently
// visible, currently invalid fields. Hidden fields may still hold stale
// entries internally; they reappear if validation re-flags them once
// visible again.
func (f *Form) Errors() validate.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.errs) == 0 {
		return nil
	}
	out := make(validate.Errors, len(f.errs))
	for key, msg := range f.errs {
		d, ok := f.reg.Lookup(key)
		if ok && !f.visibleLocked(d) {
			continue
		}
		out[key] = msg
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Options returns the resolved choice list for a field: the static list when
// declared, otherwise the cache entry from the open-time fan-out. A field
// whose loader failed (or has not settled) yields nil, which renders as an
// empty choice list.
func (f *Form) Options(key string) []options.Option {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.reg.Lookup(key)
	if !ok {
		return nil
	}
	return f.optionsLocked(d)
}

func (f *Form) optionsLocked(d field.Descriptor) []options.Option {
	if len(d.Options) > 0 {
		return append([]options.Option(nil), d.Options...)
	}
	if d.Load != nil {
		return f.cache.Get(d.Key)
	}
	return nil
}
