package formengine

import (
	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/validate"
	"github.com/goliatone/go-formengine/pkg/values"
)

// Descriptor declares one form field; see pkg/field for the full contract.
type Descriptor = field.Descriptor

// Registry is the ordered descriptor list backing one form.
type Registry = field.Registry

// Kind selects a field's widget variant.
type Kind = field.Kind

// The supported field kinds, re-exported for screen definitions.
const (
	KindText        = field.KindText
	KindNumber      = field.KindNumber
	KindSelect      = field.KindSelect
	KindMultiSelect = field.KindMultiSelect
	KindSwitch      = field.KindSwitch
	KindDate        = field.KindDate
	KindDateRange   = field.KindDateRange
	KindRadio       = field.KindRadio
	KindCustom      = field.KindCustom
)

// Values is the working draft of the record under edit.
type Values = values.Map

// Errors maps field key to inline message.
type Errors = validate.Errors

// ChoiceOption is one selectable value of a choice field.
type ChoiceOption = options.Option

// Form is the per-instance state container and submission controller.
type Form = form.Form

// Collaborators are the injected data functions (load, create, update).
type Collaborators = form.Collaborators

// Mode distinguishes create from update submissions.
type Mode = form.Mode

const (
	ModeCreate = form.ModeCreate
	ModeUpdate = form.ModeUpdate
)

// NewRegistry validates descriptors into a Registry.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	return field.NewRegistry(descriptors...)
}

// MustRegistry panics on invalid descriptors; for init-time screen wiring.
func MustRegistry(descriptors ...Descriptor) *Registry {
	return field.MustRegistry(descriptors...)
}

// New constructs a Form over the registry with the injected collaborators,
// mirroring a single-constructor quick start: defaults cover the visibility
// evaluator, validation pipeline, transform, and logging.
func New(reg *Registry, collab Collaborators, opts ...form.Option) (*Form, error) {
	return form.New(reg, collab, opts...)
}

// StaticOptions builds a fixed choice list loader.
func StaticOptions(opts ...ChoiceOption) options.Loader {
	return options.Static(opts...)
}
