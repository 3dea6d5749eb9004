package form

import (
	"context"
	"errors"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/values"
)

// Submit runs the full validation sweep and, when clean, dispatches the
// transformed payload through the create or update collaborator.
//
// Guarantees:
//   - While a dispatch is in flight Submit is a no-op, so rapid repeated
//     invocation produces exactly one dispatch.
//   - Any validation error aborts the attempt with ErrValidation, leaving
//     the error map visible and performing no dispatch.
//   - The transform runs exactly once per dispatch, and the collaborators
//     only ever see its output.
//   - The in-flight flag is reset on every path, panics included; a failed
//     dispatch never leaves the form stuck.
//   - Dispatch failures propagate unchanged. No retry, no notification, and
//     the user's draft is retained so the owning screen can keep the form
//     open.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return nil
	}
	if f.state != StateEditing && f.state != StateValidating {
		f.mu.Unlock()
		return ErrNotOpen
	}

	f.state = StateValidating
	draft := f.vals.Clone()
	errs := f.pipeline.Run(f.reg, draft, func(d field.Descriptor) bool {
		return f.visibleLocked(d)
	})
	if len(errs) > 0 {
		f.errs = errs
		f.state = StateEditing
		f.mu.Unlock()
		return ErrValidation
	}
	f.errs = nil
	f.inFlight = true
	f.state = StateSubmitting
	id := f.id
	gen := f.gen
	f.mu.Unlock()

	mode := modeFor(id)
	err := f.dispatch(ctx, gen, mode, id, draft)
	if err != nil {
		return err
	}

	// A dispatch that resolves after the form was closed or reopened belongs
	// to a dead lifecycle: report success to the caller but leave the active
	// lifecycle untouched.
	f.mu.Lock()
	stale := f.gen != gen
	f.mu.Unlock()
	if stale {
		return nil
	}

	if f.onSuccess != nil {
		f.onSuccess(mode)
	}
	f.Close()
	return nil
}

// dispatch applies the transform and invokes the collaborator. The in-flight
// reset lives in a defer so it runs on every exit, the engine's
// finally-equivalent path; it only touches state still owned by this open
// generation.
func (f *Form) dispatch(ctx context.Context, gen uint64, mode Mode, id string, draft values.Map) error {
	defer func() {
		f.mu.Lock()
		if f.gen == gen {
			f.inFlight = false
			if f.state == StateSubmitting {
				f.state = StateEditing
			}
		}
		f.mu.Unlock()
	}()

	payload := f.transform(draft)

	switch mode {
	case ModeUpdate:
		if f.collab.Update == nil {
			return errors.New("form: update collaborator is required")
		}
		return f.collab.Update(ctx, id, payload)
	default:
		if f.collab.Create == nil {
			return errors.New("form: create collaborator is required")
		}
		return f.collab.Create(ctx, payload)
	}
}
