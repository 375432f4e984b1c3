package runner

import "sync"

// middlewareManager computes and composes the middleware chain for a
// task invocation or resource init (§4.5): global (everywhere) chain,
// local declared chain, and per-middleware interceptors registered
// before lock.
type middlewareManager struct {
	store *Store

	mu                 sync.Mutex
	middlewareInterceptors map[string][]func(next MiddlewareNext, input any) (any, error)
}

func newMiddlewareManager(store *Store) *middlewareManager {
	return &middlewareManager{store: store, middlewareInterceptors: map[string][]func(next MiddlewareNext, input any) (any, error){}}
}

// RegisterMiddlewareInterceptor wraps every future invocation that
// passes through middlewareID, valid only before lock.
func (m *middlewareManager) RegisterMiddlewareInterceptor(middlewareID string, interceptor func(next MiddlewareNext, input any) (any, error)) error {
	if m.store.Locked() {
		return &ValidationError{Boundary: "middlewareInterceptor", DefID: middlewareID, Cause: errLocked}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.middlewareInterceptors[middlewareID] = append(m.middlewareInterceptors[middlewareID], interceptor)
	return nil
}

// chainForTask returns the ordered middleware list a task invocation
// must pass through: global middleware (in id order) whose predicate
// matches and which is not one of T's direct dependencies, then T's
// local middleware in declaration order (§4.5 steps 1-2). Transitive
// dependencies are not checked.
func (m *middlewareManager) chainForTask(task AnyTask) []MiddlewareRef {
	var chain []MiddlewareRef

	taskDepIDs := map[string]bool{}
	for _, d := range task.taskDeps() {
		taskDepIDs[d.Target.ID()] = true
	}

	for _, mw := range m.allMiddleware() {
		appliesTasks, _ := mw.appliesTo(task)
		predicate := mw.globalPredicate()
		if !appliesTasks || predicate == nil || !predicate(task) {
			continue
		}
		if taskDepIDs[mw.ID()] {
			continue
		}
		chain = append(chain, MiddlewareRef{Middleware: mw, Config: nil})
	}

	chain = append(chain, task.taskMiddlewareRefs()...)
	return chain
}

// allMiddleware returns every registered middleware definition
// regardless of which of the two middleware Kind values it reports.
func (m *middlewareManager) allMiddleware() []AnyMiddleware {
	var out []AnyMiddleware
	for _, def := range m.store.AllDefinitions(KindMiddlewareTask) {
		if mw, ok := def.(AnyMiddleware); ok {
			out = append(out, mw)
		}
	}
	for _, def := range m.store.AllDefinitions(KindMiddlewareResource) {
		if mw, ok := def.(AnyMiddleware); ok {
			out = append(out, mw)
		}
	}
	return out
}

// chainForResource is the resource-init analogue of chainForTask.
func (m *middlewareManager) chainForResource(res AnyResource) []MiddlewareRef {
	var chain []MiddlewareRef

	resDepIDs := map[string]bool{}
	for _, d := range res.resourceDeps() {
		resDepIDs[d.Target.ID()] = true
	}

	for _, mw := range m.allMiddleware() {
		_, appliesResources := mw.appliesTo(res)
		predicate := mw.globalPredicate()
		if !appliesResources || predicate == nil || !predicate(res) {
			continue
		}
		if resDepIDs[mw.ID()] {
			continue
		}
		chain = append(chain, MiddlewareRef{Middleware: mw, Config: nil})
	}

	chain = append(chain, res.resourceMiddlewareRefs()...)
	return chain
}

// compose builds the final MiddlewareNext by wrapping terminal in every
// chain entry's handler (outermost first), each handler deps-resolved
// and invoked with ctx. A middleware's interceptors wrap around that one
// middleware's handler, so they run before it (first registered
// outermost) and can skip it by not calling next.
func (m *middlewareManager) compose(chain []MiddlewareRef, ctx *MiddlewareCtx, depsFor func(ref MiddlewareRef) Deps, terminal MiddlewareNext) MiddlewareNext {
	next := terminal
	for i := len(chain) - 1; i >= 0; i-- {
		ref := chain[i]
		innerNext := next
		mw := ref.Middleware
		cfg := ref.Config

		handlerNext := func(input any) (any, error) {
			return mw.handlerAny(ctx, depsFor(ref), cfg, innerNext)
		}

		m.mu.Lock()
		interceptors := append([]func(next MiddlewareNext, input any) (any, error){}, m.middlewareInterceptors[mw.ID()]...)
		m.mu.Unlock()

		wrapped := handlerNext
		for j := len(interceptors) - 1; j >= 0; j-- {
			interceptor := interceptors[j]
			current := wrapped
			wrapped = func(input any) (any, error) {
				return interceptor(current, input)
			}
		}

		next = wrapped
	}
	return next
}
