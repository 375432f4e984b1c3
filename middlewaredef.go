package runner

import (
	"context"

	"github.com/bluelibs/runner-go/pkg/schema"
)

// MiddlewareNext is the continuation a middleware body calls to proceed
// to the next link in the chain (another middleware, or the task
// body/resource init itself), onion-style: everything before the call is
// "on the way in", everything after is "on the way out" (§Middleware).
type MiddlewareNext func(input any) (any, error)

// MiddlewareCtx exposes the invocation this middleware wraps: which
// definition is being run, and the ambient context it is running under.
type MiddlewareCtx struct {
	ctx      context.Context
	targetID string
	kind     Kind
	input    any
}

func (m *MiddlewareCtx) Context() context.Context { return m.ctx }
func (m *MiddlewareCtx) TargetID() string         { return m.targetID }
func (m *MiddlewareCtx) TargetKind() Kind         { return m.kind }
func (m *MiddlewareCtx) Input() any                { return m.input }

// MiddlewareHandler is the body of a Middleware: given the next
// continuation, the invocation context, injected deps and the
// middleware's own config, it returns the (possibly transformed) result.
type MiddlewareHandler[C any] func(next MiddlewareNext, ctx *MiddlewareCtx, deps Deps, cfg C) (any, error)

// Middleware wraps task invocations and/or resource initialization.
// Global (Everywhere) middleware sits outermost, ordered by id; local
// middleware follows in declaration order, first declared outermost
// (see Middleware Manager).
type Middleware[C any] struct {
	base
	appliesToTasks     bool
	appliesToResources bool
	everywhere         func(def Definition) bool
	handler            MiddlewareHandler[C]
	configSchema       schema.Typed[C]
	middlewareDeps     []DepRef
}

// MiddlewareOption configures a Middleware at construction time.
type MiddlewareOption[C any] func(*Middleware[C])

// Everywhere registers this middleware as global, applied to every
// task/resource for which predicate returns true (nil predicate means
// "all of them").
func Everywhere[C any](predicate func(def Definition) bool) MiddlewareOption[C] {
	return func(m *Middleware[C]) {
		if predicate == nil {
			predicate = func(Definition) bool { return true }
		}
		m.everywhere = predicate
	}
}

// WithMiddlewareConfigSchema stores a validator for this middleware's
// config value on the definition. No kernel code path runs it: configs
// passed through With reach the handler unvalidated.
func WithMiddlewareConfigSchema[C any](s schema.Typed[C]) MiddlewareOption[C] {
	return func(m *Middleware[C]) { m.configSchema = s }
}

// WithMiddlewareDeps declares the dependencies injected into the
// middleware handler.
func WithMiddlewareDeps[C any](deps ...DepRef) MiddlewareOption[C] {
	return func(m *Middleware[C]) { m.middlewareDeps = append(m.middlewareDeps, deps...) }
}

// NewTaskMiddleware registers a middleware applicable to tasks.
func NewTaskMiddleware[C any](id string, handler MiddlewareHandler[C], opts ...MiddlewareOption[C]) *Middleware[C] {
	m := &Middleware[C]{base: newBase(id, nil, nil), appliesToTasks: true, handler: handler}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewResourceMiddleware registers a middleware applicable to resource
// initialization.
func NewResourceMiddleware[C any](id string, handler MiddlewareHandler[C], opts ...MiddlewareOption[C]) *Middleware[C] {
	m := &Middleware[C]{base: newBase(id, nil, nil), appliesToResources: true, handler: handler}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewUniversalMiddleware registers a middleware applicable to both tasks
// and resource initialization.
func NewUniversalMiddleware[C any](id string, handler MiddlewareHandler[C], opts ...MiddlewareOption[C]) *Middleware[C] {
	m := &Middleware[C]{base: newBase(id, nil, nil), appliesToTasks: true, appliesToResources: true, handler: handler}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Middleware[C]) Kind() Kind {
	switch {
	case m.appliesToTasks && m.appliesToResources:
		return KindMiddlewareTask
	case m.appliesToResources:
		return KindMiddlewareResource
	default:
		return KindMiddlewareTask
	}
}

// With binds a config value, producing the MiddlewareRef a task/resource
// attaches via its own With(...) list.
func (m *Middleware[C]) With(cfg C) MiddlewareRef {
	return MiddlewareRef{Middleware: m, Config: cfg}
}

// IsGlobal reports whether this middleware was registered with
// Everywhere, and whether it applies to def.
func (m *Middleware[C]) IsGlobal(def Definition) bool {
	return m.everywhere != nil && m.everywhere(def)
}

// MiddlewareRef binds a registered middleware to a config value, the
// middleware analogue of TagRef.
type MiddlewareRef struct {
	Middleware AnyMiddleware
	Config     any
}

// AnyMiddleware is the type-erased middleware surface the manager
// composes chains from.
type AnyMiddleware interface {
	Definition
	handlerAny(ctx *MiddlewareCtx, deps Deps, cfg any, next MiddlewareNext) (any, error)
	appliesTo(def Definition) (bool, bool) // (tasks, resources)
	globalPredicate() func(def Definition) bool
	middlewareDependencies() []DepRef
}

func (m *Middleware[C]) handlerAny(ctx *MiddlewareCtx, deps Deps, cfg any, next MiddlewareNext) (any, error) {
	typedCfg, _ := cfg.(C)
	return m.handler(next, ctx, deps, typedCfg)
}

func (m *Middleware[C]) appliesTo(def Definition) (bool, bool) {
	return m.appliesToTasks, m.appliesToResources
}

func (m *Middleware[C]) globalPredicate() func(def Definition) bool { return m.everywhere }
func (m *Middleware[C]) middlewareDependencies() []DepRef            { return m.middlewareDeps }
