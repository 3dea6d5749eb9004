// Package field defines the declarative descriptor contract every admin
// screen uses to describe its form: one Descriptor per field, collected into
// an ordered Registry. The engine renders, validates, and submits arbitrary
// records from descriptors alone, with no screen-specific logic.
package field

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/values"
)

// Kind is the enum of supported field variants. Each kind carries only the
// descriptor payload it needs: the choice kinds carry options or a loader,
// Custom carries a render callback, everything else is payload-free.
type Kind string

const (
	KindText        Kind = "text"
	KindNumber      Kind = "number"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiselect"
	KindSwitch      Kind = "switch"
	KindDate        Kind = "date"
	KindDateRange   Kind = "daterange"
	KindRadio       Kind = "radio"
	KindCustom      Kind = "custom"
)

// Choice reports whether the kind presents a list of selectable values and
// may therefore carry Options or a Loader.
func (k Kind) Choice() bool {
	switch k {
	case KindSelect, KindMultiSelect, KindRadio:
		return true
	}
	return false
}

// Valid reports whether the kind is one of the declared variants.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindSelect, KindMultiSelect, KindSwitch,
		KindDate, KindDateRange, KindRadio, KindCustom:
		return true
	}
	return false
}

// ValidateFunc is a per-field validator. It receives the candidate value and
// the full working draft so cross-field rules (confirm-password style) can
// read siblings. A non-empty return is the inline error message; empty means
// valid. It is only invoked for visible fields holding a non-empty value.
type ValidateFunc func(value any, vals values.Map) string

// ShowFunc decides whether the field is currently visible given the working
// draft. Evaluated on every change with no caching, since a predicate may
// reference any other field. Nil means always visible.
type ShowFunc func(vals values.Map) bool

// RenderFunc is the widget factory a Custom field must supply. The engine
// treats the output as opaque bytes for the owning renderer; it has no
// opinion on presentation.
type RenderFunc func(ctx context.Context, d Descriptor, value any) ([]byte, error)

// Descriptor declares one form field. Key must name a property of the record
// under edit; at most one of Options and Load may be set; Kind == KindCustom
// requires Render. NewRegistry enforces these invariants.
type Descriptor struct {
	// Key is the record property this field edits. Unique within a form.
	Key string
	// Label is the human caption, also interpolated into the synthesized
	// "please provide X" message for required fields.
	Label string
	// Kind selects the widget variant.
	Kind Kind
	// Required marks the field as mandatory while it is visible. Hidden
	// fields are exempt.
	Required bool
	// Default seeds the initial value when neither a fetched record nor
	// explicit initial data supplies one.
	Default any
	// Options is the static choice list for choice kinds.
	Options []options.Option
	// Load resolves the choice list asynchronously at form-open time.
	// Mutually exclusive with Options.
	Load options.Loader
	// Rules is a validator/v10 tag expression ("min=1,max=10", "email")
	// applied to non-empty values before Validate runs.
	Rules string
	// Validate is the custom per-field validator.
	Validate ValidateFunc
	// Show is the visibility predicate.
	Show ShowFunc
	// ShowRule is an expression alternative to Show ("status == 1 &&
	// kind != 'dir'") evaluated by the configured visibility evaluator.
	ShowRule string
	// Render is the widget factory for KindCustom.
	Render RenderFunc
	// Placeholder and Help are passed through to the renderer untouched.
	Placeholder string
	Help        string
}

// DisplayLabel returns the label, falling back to the key so synthesized
// messages never read "please provide ".
func (d Descriptor) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Key
}
