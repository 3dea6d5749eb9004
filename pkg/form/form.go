// Package form owns the per-instance orchestration of one admin form: the
// working values, the inline error map, the option cache, and the in-flight
// submission guard. Descriptors come from pkg/field, collaborators are
// injected functions, and the renderer consumes snapshots; the engine itself
// never talks to a transport or emits user-facing notifications.
package form

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formengine/pkg/field"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/validate"
	"github.com/goliatone/go-formengine/pkg/values"
	"github.com/goliatone/go-formengine/pkg/visibility"
	"github.com/goliatone/go-formengine/pkg/visibility/expr"
)

// State is the lifecycle position of a form instance.
type State int

const (
	// StateClosed is both the initial and the terminal state.
	StateClosed State = iota
	// StateOpening covers initial-value materialization and the option fan-out.
	StateOpening
	// StateEditing is the interactive phase with live per-field validation.
	StateEditing
	// StateValidating is the full-form check during a submit attempt.
	StateValidating
	// StateSubmitting means a dispatch is in flight.
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Mode distinguishes create from update submissions. Selected by presence of
// a record identifier at open time.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Sentinel errors returned by Open and Submit.
var (
	// ErrNotOpen is returned when an operation needs an open form.
	ErrNotOpen = errors.New("form: not open")
	// ErrValidation is returned by Submit when the error map is non-empty;
	// the attempt is aborted and nothing is dispatched.
	ErrValidation = errors.New("form: validation failed")
)

// Collaborators are the injected async data functions. Transport-agnostic:
// REST, GraphQL, and RPC backends are all equally valid. LoadByID may return
// a partial record; absent keys keep their defaults.
type Collaborators struct {
	LoadByID func(ctx context.Context, id string) (values.Map, error)
	Create   func(ctx context.Context, payload values.Map) error
	Update   func(ctx context.Context, id string, payload values.Map) error
}

// Transform maps the working draft to the outbound payload. Pure; applied
// exactly once per successful validation, never to invalid drafts.
type Transform func(vals values.Map) values.Map

// Option customises a Form.
type Option func(*Form)

// WithLogger injects the logger used for option-load and record-load
// failures. Defaults to a no-op logger; the engine logs, it never toasts.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Form) { f.log = log }
}

// WithTransform sets the outbound payload transform. Defaults to a clone of
// the working draft.
func WithTransform(t Transform) Option {
	return func(f *Form) {
		if t != nil {
			f.transform = t
		}
	}
}

// WithEvaluator overrides the rule-string visibility evaluator. Defaults to
// the expr implementation.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(f *Form) {
		if eval != nil {
			f.eval = eval
		}
	}
}

// WithValidation injects a configured validation pipeline, typically to add
// a form-level validator or localized messages.
func WithValidation(p *validate.Pipeline) Option {
	return func(f *Form) {
		if p != nil {
			f.pipeline = p
		}
	}
}

// WithOnSuccess registers the callback invoked after a successful dispatch,
// before the form closes. The owning screen typically refreshes its table
// and shows its own notification there.
func WithOnSuccess(fn func(Mode)) Option {
	return func(f *Form) { f.onSuccess = fn }
}

// WithDestroyOnClose controls whether Close tears down values, errors, and
// the option cache (true) or retains them until the next Open (false, the
// default).
func WithDestroyOnClose(destroy bool) Option {
	return func(f *Form) { f.destroyOnClose = destroy }
}

// Form is the state container for one form instance. All exported methods
// are safe for concurrent use; option loaders commit from their own
// goroutines and are serialized through the same mutex.
type Form struct {
	reg       *field.Registry
	collab    Collaborators
	pipeline  *validate.Pipeline
	eval      visibility.Evaluator
	transform Transform
	onSuccess func(Mode)
	log       zerolog.Logger

	destroyOnClose bool

	mu       sync.Mutex
	state    State
	gen      uint64
	id       string
	vals     values.Map
	errs     validate.Errors
	cache    *options.Cache
	inFlight bool
}

// New constructs a Form over the descriptor registry with the injected
// collaborators. Missing optional pieces get working defaults so a single
// constructor call is enough.
func New(reg *field.Registry, collab Collaborators, opts ...Option) (*Form, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, errors.New("form: a non-empty field registry is required")
	}

	f := &Form{
		reg:       reg,
		collab:    collab,
		pipeline:  validate.New(),
		eval:      expr.New(),
		transform: func(vals values.Map) values.Map { return vals.Clone() },
		log:       zerolog.Nop(),
		cache:     options.NewCache(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// State returns the current lifecycle state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// InFlight reports whether a submission dispatch is pending.
func (f *Form) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// ID returns the active record identifier, empty in create mode.
func (f *Form) ID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

// Mode reports create or update, selected by identifier presence.
func (f *Form) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return modeFor(f.id)
}

func modeFor(id string) Mode {
	if id != "" {
		return ModeUpdate
	}
	return ModeCreate
}

// Registry exposes the descriptor registry the form was built over.
func (f *Form) Registry() *field.Registry { return f.reg }

// visibleLocked evaluates the descriptor's visibility against the current
// draft. Evaluator errors are logged and the field stays visible; a broken
// rule must not silently hide data. Callers hold f.mu.
func (f *Form) visibleLocked(d field.Descriptor) bool {
	ok, err := visibility.Visible(d, f.vals, f.eval)
	if err != nil {
		f.log.Warn().Err(err).Str("field", d.Key).Msg("form: visibility rule failed")
		return true
	}
	return ok
}
