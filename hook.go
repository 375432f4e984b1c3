package runner

import "context"

// HookHandler is the body of a Hook registration: it observes (and may
// stop) a single emission of the event it subscribes to.
type HookHandler[P any] func(ctx *EventCtx[P], deps Deps) error

// AnyHook is the type-erased view the event manager dispatches through.
type AnyHook interface {
	Definition
	targetEventID() string
	order() int
	deps() []DepRef
	invoke(ctx context.Context, payload *eventPayload, deps Deps) error
}

// Hook subscribes to exactly one event (or the wildcard event, see
// OnAll) with a declared dispatch order; lower order values run first,
// hooks sharing an order value are eligible to run concurrently under
// Parallel emission (§Event Manager).
type Hook[P any] struct {
	base
	event      AnyEvent
	eventID    string
	hookOrder  int
	hookDeps   []DepRef
	handler    HookHandler[P]
}

// HookOption configures a Hook at construction time.
type HookOption func(*hookOptions)

type hookOptions struct {
	def   defOptions
	order int
	deps  []DepRef
}

// WithHookOrder sets the dispatch order (default 0).
func WithHookOrder(order int) HookOption {
	return func(h *hookOptions) { h.order = order }
}

// WithHookDeps declares the dependencies injected into the handler.
func WithHookDeps(deps ...DepRef) HookOption {
	return func(h *hookOptions) { h.deps = append(h.deps, deps...) }
}

// WithHookTags appends tag instances to the hook's declared tag list.
func WithHookTags(tags ...TagRef) HookOption {
	return func(h *hookOptions) { h.def.tags = append(h.def.tags, tags...) }
}

// wildcardEventID is the internal id OnAll hooks subscribe to; no real
// Event is ever registered under it, the event manager special-cases it
// to mean "every event this runtime emits".
const wildcardEventID = "*"

// NewHook registers a hook bound to event, running handler whenever
// event (or an ancestor/wildcard-emitting code path) emits.
func NewHook[P any](id string, event *Event[P], handler HookHandler[P], opts ...HookOption) *Hook[P] {
	cfg := hookOptions{}
	for _, opt := range opts {
		opt(&cfg)
	}
	eventID := wildcardEventID
	if event != nil {
		eventID = event.ID()
	}
	return &Hook[P]{
		base:      newBase(id, cfg.def.tags, cfg.def.meta),
		event:     event,
		eventID:   eventID,
		hookOrder: cfg.order,
		hookDeps:  cfg.deps,
		handler:   handler,
	}
}

// OnAll registers a hook that runs for every event emitted by the
// runtime, typically used for cross-cutting logging/tracing.
func OnAll(id string, handler HookHandler[any], opts ...HookOption) *Hook[any] {
	return NewHook[any](id, nil, handler, opts...)
}

func (h *Hook[P]) Kind() Kind           { return KindHook }
func (h *Hook[P]) targetEventID() string { return h.eventID }
func (h *Hook[P]) order() int            { return h.hookOrder }
func (h *Hook[P]) deps() []DepRef        { return h.hookDeps }

func (h *Hook[P]) invoke(ctx context.Context, payload *eventPayload, deps Deps) error {
	data, _ := payload.data.(P)
	eventCtx := &EventCtx[P]{ctx: ctx, payload: payload, Data: data}
	return h.handler(eventCtx, deps)
}
