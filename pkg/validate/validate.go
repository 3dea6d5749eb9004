// Package validate computes the inline error map for a form. Validation runs
// in two synchronous phases with no short-circuit, so the result reflects
// every invalid visible field at once: a field-level sweep in registry order,
// then an optional form-level validator whose messages win on shared keys.
package validate

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/values"
)

// Errors maps field key to inline message. Entries exist only for currently
// visible, currently invalid fields; validation errors are surfaced here and
// never thrown.
type Errors map[string]string

// Merge overlays other onto e, last writer wins. Used for the form-level
// phase so cross-field messages take precedence over field-level ones.
func (e Errors) Merge(other Errors) Errors {
	if e == nil {
		e = make(Errors, len(other))
	}
	for k, v := range other {
		e[k] = v
	}
	return e
}

// Clone returns a copy so callers can hand out snapshots.
func (e Errors) Clone() Errors {
	if e == nil {
		return nil
	}
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// FormValidator is the optional cross-field phase. It receives the full
// working draft and returns a partial error map.
type FormValidator func(vals values.Map) Errors

// Messages localizes the synthesized messages. Screens wire their own
// translations; the defaults are plain English.
type Messages struct {
	// Required builds the "please provide X" message for an empty required
	// field.
	Required func(label string) string
	// Rule builds the message for a failed validator/v10 tag.
	Rule func(label, tag, param string) string
}

func defaultMessages() Messages {
	return Messages{
		Required: func(label string) string {
			return fmt.Sprintf("please provide %s", label)
		},
		Rule: func(label, tag, param string) string {
			if param != "" {
				return fmt.Sprintf("%s must satisfy %s=%s", label, tag, param)
			}
			return fmt.Sprintf("%s must satisfy %s", label, tag)
		},
	}
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithMessages overrides the synthesized message builders. Nil members keep
// their defaults.
func WithMessages(msgs Messages) Option {
	return func(p *Pipeline) {
		if msgs.Required != nil {
			p.messages.Required = msgs.Required
		}
		if msgs.Rule != nil {
			p.messages.Rule = msgs.Rule
		}
	}
}

// WithFormValidator installs the cross-field phase.
func WithFormValidator(fn FormValidator) Option {
	return func(p *Pipeline) {
		p.formValidator = fn
	}
}

// Pipeline evaluates descriptors against the working draft. Safe for reuse
// across submits; it holds no per-form state.
type Pipeline struct {
	rules         *validator.Validate
	messages      Messages
	formValidator FormValidator
}

// New constructs a Pipeline with a shared validator/v10 engine for Rules
// expressions.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:    validator.New(),
		messages: defaultMessages(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Run executes both phases over the visible descriptors and returns the
// complete error map. Hidden fields are skipped entirely: no required check,
// no custom validator, no entry in the result. Every visible field is
// evaluated even after failures, so callers see all problems at once.
func (p *Pipeline) Run(reg *field.Registry, vals values.Map, visible func(field.Descriptor) bool) Errors {
	errs := make(Errors)
	reg.Each(func(d field.Descriptor) bool {
		if visible != nil && !visible(d) {
			return true
		}
		if msg := p.Field(d, vals); msg != "" {
			errs[d.Key] = msg
		}
		return true
	})

	if p.formValidator != nil {
		errs = errs.Merge(p.formValidator(vals))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Field validates a single descriptor and returns its inline message, empty
// when valid. Required-ness wins over the custom validator: an empty required
// field yields the synthesized message and nothing else runs. Non-empty
// values pass through the Rules expression first, then the Validate func with
// the full draft.
func (p *Pipeline) Field(d field.Descriptor, vals values.Map) string {
	value := vals[d.Key]

	if values.IsEmpty(value) {
		if d.Required {
			return p.messages.Required(d.DisplayLabel())
		}
		return ""
	}

	if d.Rules != "" {
		if err := p.rules.Var(value, d.Rules); err != nil {
			return p.ruleMessage(d, err)
		}
	}

	if d.Validate != nil {
		return d.Validate(value, vals)
	}
	return ""
}

func (p *Pipeline) ruleMessage(d field.Descriptor, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return p.messages.Rule(d.DisplayLabel(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", d.DisplayLabel())
}
