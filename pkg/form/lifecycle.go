package form

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/validate"
	"github.com/goliatone/go-formengine/pkg/values"
)

// Open materializes the form for a record. Initial values are resolved with
// strict precedence: a record fetched through LoadByID when id is non-empty,
// then explicit initial data, then per-field defaults. A failed record fetch
// is logged and the form opens in a degraded, create-like state on defaults.
//
// Option loaders fan out concurrently and Open returns once they settle.
// Every piece of async work started here is keyed by the open generation:
// if the form is closed or reopened for a different record meanwhile, stale
// results are dropped instead of applied (a stale LoadByID response for
// record A must never overwrite record B's draft).
//
// Reopening while a previous lifecycle is still settling is safe; the newer
// generation wins.
func (f *Form) Open(ctx context.Context, id string, initial values.Map) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.state = StateOpening
	f.id = id
	f.errs = nil
	f.cache.Clear()
	f.mu.Unlock()

	draft := f.defaultValues()
	if len(initial) > 0 {
		draft = values.Merge(draft, initial.Clone())
	}

	if id != "" && f.collab.LoadByID != nil {
		record, err := f.collab.LoadByID(ctx, id)
		if err != nil {
			f.log.Error().Err(err).Str("id", id).Msg("form: load record failed")
		} else {
			draft = values.Merge(draft, record)
		}
	}

	f.mu.Lock()
	if f.gen != gen {
		// Superseded by a newer Open or a Close while fetching.
		f.mu.Unlock()
		return nil
	}
	if !values.Equal(f.vals, draft) {
		f.vals = draft
	}
	f.state = StateEditing
	sources := f.loaderSourcesLocked()
	f.mu.Unlock()

	options.Fanout(ctx, sources, f.log, func(key string, opts []options.Option) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen != gen {
			return
		}
		f.cache.Put(key, opts)
	})
	return nil
}

func (f *Form) defaultValues() values.Map {
	draft := make(values.Map, f.reg.Len())
	f.reg.Each(func(d field.Descriptor) bool {
		if d.Default != nil {
			draft[d.Key] = d.Default
		}
		return true
	})
	return draft
}

func (f *Form) loaderSourcesLocked() []options.Source {
	var sources []options.Source
	f.reg.Each(func(d field.Descriptor) bool {
		if d.Load != nil {
			sources = append(sources, options.Source{Key: d.Key, Loader: d.Load})
		}
		return true
	})
	return sources
}

// SwitchRecord points an already-open form at a different record: the error
// map resets and the draft re-materializes from the fetched record over the
// defaults. Option cache entries are deliberately NOT re-fetched; choices
// resolve once per form-open lifecycle, a known limitation kept on purpose
// for fields whose options might depend on the record.
//
// Stale fetches are handled the same way as in Open: if the form moves on
// (another switch, a reopen, a close) before LoadByID resolves, the late
// response is dropped.
func (f *Form) SwitchRecord(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	if f.state == StateClosed {
		f.mu.Unlock()
		return ErrNotOpen
	}
	f.gen++
	gen := f.gen
	f.state = StateOpening
	f.id = id
	f.errs = nil
	f.mu.Unlock()

	draft := f.defaultValues()
	if id != "" && f.collab.LoadByID != nil {
		record, err := f.collab.LoadByID(ctx, id)
		if err != nil {
			f.log.Error().Err(err).Str("id", id).Msg("form: load record failed")
		} else {
			draft = values.Merge(draft, record)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		return nil
	}
	if !values.Equal(f.vals, draft) {
		f.vals = draft
	}
	f.state = StateEditing
	return nil
}

// SetValue commits one field edit and immediately revalidates that field
// alone, clearing or setting its inline error for responsive feedback
// without re-running the rest of the form. Unchanged values are skipped.
func (f *Form) SetValue(key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEditing && f.state != StateValidating {
		return ErrNotOpen
	}
	d, ok := f.reg.Lookup(key)
	if !ok {
		return nil
	}

	if current, exists := f.vals[key]; exists && values.Same(current, value) {
		return nil
	}
	if f.vals == nil {
		f.vals = make(values.Map)
	}
	f.vals[key] = value

	if !f.visibleLocked(d) {
		delete(f.errs, key)
		return nil
	}
	if msg := f.pipeline.Field(d, f.vals); msg != "" {
		if f.errs == nil {
			f.errs = make(validate.Errors)
		}
		f.errs[key] = msg
	} else {
		delete(f.errs, key)
	}
	return nil
}

// SetValues replaces the whole draft, typically when an external source
// pushes a new record. The candidate is compared to the current draft by
// shallow key/value equality first so a referentially new but value-equal
// map does not trigger a render feedback loop.
func (f *Form) SetValues(next values.Map) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateEditing && f.state != StateValidating {
		return ErrNotOpen
	}
	if values.Equal(f.vals, next) {
		return nil
	}
	f.vals = next.Clone()
	return nil
}

// Value returns the current value for a field key.
func (f *Form) Value(key string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vals[key]
}

// Values returns a snapshot of the working draft.
func (f *Form) Values() values.Map {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vals.Clone()
}

// Close ends the lifecycle and orphans any still-pending async work. With
// the destroy-on-close policy enabled the draft, errors, and option cache
// are torn down; otherwise they are retained until the next Open. Idempotent.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked(f.destroyOnClose)
}

// Reset forces a full teardown regardless of the destroy-on-close policy.
// Safe to call at any time, including from teardown paths racing pending
// loaders; those resolve into the old generation and are dropped.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked(true)
}

func (f *Form) closeLocked(destroy bool) {
	f.gen++
	f.state = StateClosed
	f.inFlight = false
	if destroy {
		f.id = ""
		f.vals = nil
		f.errs = nil
		f.cache.Clear()
	}
}
