// Package options resolves the selectable values behind choice-type fields.
// Static lists are served as-is; async loaders are fanned out once per
// form-open lifecycle and cached per field key.
package options

import "context"

// Option is one selectable choice presented by a Select, MultiSelect, or
// Radio field.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Loader resolves the choices for a single field. Implementations typically
// wrap a dictionary or lookup endpoint.
type Loader interface {
	Load(ctx context.Context) ([]Option, error)
}

// LoaderFunc adapts a function into a Loader.
type LoaderFunc func(ctx context.Context) ([]Option, error)

// Load delegates to the underlying function.
func (fn LoaderFunc) Load(ctx context.Context) ([]Option, error) {
	return fn(ctx)
}

// Static returns a Loader serving a fixed list.
func Static(opts ...Option) Loader {
	fixed := append([]Option(nil), opts...)
	return LoaderFunc(func(context.Context) ([]Option, error) {
		return fixed, nil
	})
}
