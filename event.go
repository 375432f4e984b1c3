package runner

import "context"

// AnyEvent is the type-erased view of an Event, used by the event manager
// and hook registrations that must work across payload types.
type AnyEvent interface {
	Definition
	newPayloadHolder() *eventPayload
	isParallel() bool
}

// eventPayload carries an emitted event's data plus the mutable
// stopPropagation flag hooks observe and set (data model §Event), and the
// last non-nil value a hook proposed via SetResult ("emit with returned
// payload", §4.4.6).
type eventPayload struct {
	data    any
	stopped bool
	source  string
	result  any
}

// StopPropagation marks the current emission as stopped: subsequent
// hooks (by order) will not run for this emission.
func (p *eventPayload) StopPropagation() { p.stopped = true }

// IsPropagationStopped reports whether an earlier hook already stopped
// this emission.
func (p *eventPayload) IsPropagationStopped() bool { return p.stopped }

// Source returns the id of the task/resource/hook that emitted the
// event, or "" if emitted directly through the runtime facade.
func (p *eventPayload) Source() string { return p.source }

// SetResult proposes a mutated payload value for this emission. Only
// meaningful when the emitter requested WithReturnPayload; the manager
// folds the last non-nil proposal across all hooks into the emission
// result, so a nil proposal does not overwrite an earlier one. Forbidden
// on a parallel event (§4.4.6, invariant #6).
func (p *eventPayload) SetResult(v any) {
	if v != nil {
		p.result = v
	}
}

// EventCtx is what a hook body receives: the typed payload plus the
// ambient context and propagation controls.
type EventCtx[P any] struct {
	ctx     context.Context
	payload *eventPayload
	Data    P
}

func (e *EventCtx[P]) Context() context.Context  { return e.ctx }
func (e *EventCtx[P]) StopPropagation()           { e.payload.StopPropagation() }
func (e *EventCtx[P]) IsPropagationStopped() bool { return e.payload.IsPropagationStopped() }
func (e *EventCtx[P]) Source() string             { return e.payload.Source() }
func (e *EventCtx[P]) SetResult(v any)            { e.payload.SetResult(v) }

// Event is a registered, typed signal. P is the payload shape every
// emission of this event carries.
type Event[P any] struct {
	base
	parallel bool
}

// EventOption configures an Event at construction time.
type EventOption[P any] func(*Event[P])

// WithEventParallel sets the event's dispatch mode: hooks sharing an
// order value are batched and awaited concurrently, with
// stopPropagation checked only between batches (§4.4 Emission). A
// parallel event cannot be emitted with WithReturnPayload.
func WithEventParallel[P any](v bool) EventOption[P] {
	return func(e *Event[P]) { e.parallel = v }
}

// WithEventTags appends tag instances to the event's declared tag list.
func WithEventTags[P any](tags ...TagRef) EventOption[P] {
	return func(e *Event[P]) { e.tags = append(e.tags, tags...) }
}

// WithEventMeta sets an opaque metadata entry on the event.
func WithEventMeta[P any](key string, value any) EventOption[P] {
	return func(e *Event[P]) { e.meta[key] = value }
}

// NewEvent registers a new event id with payload type P.
func NewEvent[P any](id string, opts ...EventOption[P]) *Event[P] {
	e := &Event[P]{base: newBase(id, nil, nil)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Event[P]) Kind() Kind       { return KindEvent }
func (e *Event[P]) isParallel() bool { return e.parallel }

func (e *Event[P]) newPayloadHolder() *eventPayload {
	return &eventPayload{}
}

// emitterFunc is the dependency value a task/resource/hook receives when
// it declares an Event as a dependency: a bound function that emits P
// through whatever runtime instance is currently injecting it.
type emitterFunc[P any] func(ctx context.Context, data P) error
