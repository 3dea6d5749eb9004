// Package visibility decides which descriptors are currently shown. A field
// with neither a Show predicate nor a ShowRule is always visible. Predicates
// are re-evaluated against the current values on every change with no result
// caching, since a predicate may reference any other field.
//
// Hiding a field never clears its stored value: hidden fields are excluded
// from required-ness checks and from the displayed error map, but their data
// persists so toggling a dependent switch does not lose prior input.
package visibility

import (
	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/values"
)

// Evaluator resolves a rule string against the current values. The expr
// subpackage provides the default implementation.
type Evaluator interface {
	Eval(fieldKey, rule string, vals values.Map) (bool, error)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldKey, rule string, vals values.Map) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldKey, rule string, vals values.Map) (bool, error) {
	return fn(fieldKey, rule, vals)
}

// Visible reports whether the descriptor is currently shown. The Show
// predicate wins over ShowRule when both are set; eval is only consulted for
// rule strings and may be nil when no descriptor carries one.
func Visible(d field.Descriptor, vals values.Map, eval Evaluator) (bool, error) {
	if d.Show != nil {
		return d.Show(vals), nil
	}
	if d.ShowRule != "" && eval != nil {
		return eval.Eval(d.Key, d.ShowRule, vals)
	}
	return true, nil
}
