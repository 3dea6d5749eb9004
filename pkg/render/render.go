// Package render is the engine's narrow contract with the outside widget
// layer. The engine has no opinion on pixel-level presentation; it only hands
// a renderer the visible field states and expects a widget per field kind.
package render

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/options"
)

// FieldState is one visible field as the renderer sees it: the descriptor,
// the current value, the inline error (empty when valid), and the resolved
// choice list for choice kinds.
type FieldState struct {
	Descriptor field.Descriptor
	Value      any
	Error      string
	Options    []options.Option
}

// Widget renders a single field state into bytes; the engine does not care
// whether those bytes are HTML or terminal output. One widget is registered
// per field kind.
type Widget interface {
	Kind() field.Kind
	Render(ctx context.Context, state FieldState) ([]byte, error)
}

// WidgetFunc adapts a function into a Widget for a fixed kind.
func WidgetFunc(kind field.Kind, fn func(ctx context.Context, state FieldState) ([]byte, error)) Widget {
	return widgetFunc{kind: kind, fn: fn}
}

type widgetFunc struct {
	kind field.Kind
	fn   func(ctx context.Context, state FieldState) ([]byte, error)
}

func (w widgetFunc) Kind() field.Kind { return w.kind }

func (w widgetFunc) Render(ctx context.Context, state FieldState) ([]byte, error) {
	return w.fn(ctx, state)
}
