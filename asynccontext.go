package runner

import (
	"context"
	"fmt"
)

// AsyncContextDef is an ambient, scope-based value carrier distinct from
// the Journal (§4.6): the journal is per-invocation and explicit, an
// async context is per-scope and propagates implicitly through whatever
// async code a task calls into. Go's idiomatic ambient-propagation
// mechanism is context.Context itself, so Provide/Use are thin wrappers
// around context.WithValue/Value keyed by the definition's id together
// with its value type T: AsyncContextDefs that share an id but carry
// different types never collide, while two defs with the same id and
// the same T share one slot.
type AsyncContextDef[T any] struct {
	base
	serialize   func(T) (any, error)
	deserialize func(any) (T, error)
}

type asyncContextKey[T any] struct{ id string }

// AsyncContextOption configures an AsyncContextDef at construction time.
type AsyncContextOption[T any] func(*AsyncContextDef[T])

// WithSerializer attaches serialize/deserialize hooks, used by
// out-of-process collaborators (e.g. a tunnel) that need to carry the
// ambient value across a wire boundary; the kernel itself never calls
// these.
func WithSerializer[T any](serialize func(T) (any, error), deserialize func(any) (T, error)) AsyncContextOption[T] {
	return func(a *AsyncContextDef[T]) {
		a.serialize = serialize
		a.deserialize = deserialize
	}
}

// NewAsyncContext registers a new ambient async-context channel under id.
func NewAsyncContext[T any](id string, opts ...AsyncContextOption[T]) *AsyncContextDef[T] {
	a := &AsyncContextDef[T]{base: newBase(id, nil, nil)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AsyncContextDef[T]) Kind() Kind { return KindAsyncContext }

func (a *AsyncContextDef[T]) key() asyncContextKey[T] {
	return asyncContextKey[T]{id: a.id}
}

// Provide executes fn within a context carrying value, retrievable by Use
// anywhere fn (or anything fn calls, as long as the context is threaded
// through) is reached.
func (a *AsyncContextDef[T]) Provide(ctx context.Context, value T, fn func(context.Context) error) error {
	return fn(context.WithValue(ctx, a.key(), value))
}

// Use returns the value provided by the nearest enclosing Provide call on
// this context chain.
func (a *AsyncContextDef[T]) Use(ctx context.Context) (T, bool) {
	v, ok := ctx.Value(a.key()).(T)
	return v, ok
}

// Require returns a task middleware factory that fails fast when invoked
// outside a Provide scope for this async context, instead of letting the
// body observe a zero value silently.
func (a *AsyncContextDef[T]) Require() *Middleware[struct{}] {
	return NewTaskMiddleware[struct{}](a.id+".require",
		func(next MiddlewareNext, mctx *MiddlewareCtx, deps Deps, _ struct{}) (any, error) {
			if _, ok := a.Use(mctx.Context()); !ok {
				return nil, fmt.Errorf("runner: async context %q required but not provided", a.id)
			}
			return next(mctx.Input())
		},
	)
}
