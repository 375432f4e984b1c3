package runner

import (
	"context"
	"fmt"
	"runtime/debug"
)

// RunTask executes the task registered under id (§4.7 runTask
// contract). input is validated, passed through the composed middleware
// onion (interceptors run innermost, wrapping the handler body itself, so
// a middleware that short-circuits prevents them from running), and the
// result validated again before returning.
func (rt *Runtime) RunTask(ctx context.Context, id string, input any) (any, error) {
	def, ok := rt.store.Lookup(id)
	if !ok {
		return nil, &UnknownTaskError{ID: id}
	}
	task, ok := def.(AnyTask)
	if !ok {
		return nil, &UnknownTaskError{ID: id}
	}
	return rt.RunTaskByDef(ctx, task, input, nil)
}

// RunTaskByDef is RunTask taking an already-resolved task reference, the
// path dependency-injected task callers use (§depsresolve.go
// bindTaskCaller) and that callers holding a typed *Task[In, Out]
// reference can call directly.
func (rt *Runtime) RunTaskByDef(ctx context.Context, task AnyTask, input any, journal *Journal) (any, error) {
	if task.isPhantom() {
		owner, ok := rt.tunnelOwner[task.ID()]
		if !ok {
			return nil, nil
		}
		rec, ok := rt.store.ResourceRecordOf(owner)
		if !ok {
			return nil, &UnknownTaskError{ID: task.ID()}
		}
		runner, ok := rec.Value.(TunnelRunner)
		if !ok {
			return nil, fmt.Errorf("runner: tunnel %q does not implement TunnelRunner", owner)
		}
		return runner.RunTunneledTask(ctx, task.ID(), input)
	}

	ownJournal := journal == nil
	if ownJournal {
		journal = newJournal()
		defer journal.release()
	}
	if !HasKey(journal, InvocationIDKey) {
		_ = SetKey(journal, InvocationIDKey, NewInvocationID(), false)
	}
	invocationID, _ := GetKey(journal, InvocationIDKey)
	rt.logger.Debug("task.invoke", map[string]any{"id": task.ID(), "invocationID": invocationID})

	parsedInput, err := task.parseInput(input)
	if err != nil {
		return nil, &ValidationError{Boundary: "input", DefID: task.ID(), Cause: err}
	}

	deps := rt.resolveDeps(task.taskDeps())

	mwCtx := &MiddlewareCtx{ctx: withJournal(ctx, journal), targetID: task.ID(), kind: KindTask, input: parsedInput}

	terminal := func(in any) (any, error) {
		return rt.invokeTaskBody(mwCtx.ctx, task, in, deps)
	}
	for _, interceptor := range rt.store.interceptorsFor(task.ID()) {
		current := terminal
		terminal = func(in any) (any, error) { return interceptor(current, in) }
	}

	chain := rt.middleware.chainForTask(task)
	composed := rt.middleware.compose(chain, mwCtx, func(ref MiddlewareRef) Deps {
		return rt.resolveDeps(ref.Middleware.middlewareDependencies())
	}, terminal)

	result, err := composed(parsedInput)
	if err != nil {
		return nil, err
	}

	parsedResult, err := task.parseResult(result)
	if err != nil {
		return nil, &ValidationError{Boundary: "result", DefID: task.ID(), Cause: err}
	}
	return parsedResult, nil
}

// invokeTaskBody runs the task's own handler with panic recovery,
// mirroring the teacher's executeFlow: the body runs on its own
// goroutine so a context cancellation observed concurrently does not
// leave the caller blocked on a runaway handler.
func (rt *Runtime) invokeTaskBody(ctx context.Context, task AnyTask, input any, deps Deps) (result any, err error) {
	type outcome struct {
		value any
		err   error
		panic any
		stack []byte
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{panic: r, stack: debug.Stack()}
			}
		}()
		value, err := task.invokeAny(ctx, input, deps)
		done <- outcome{value: value, err: err}
	}()

	select {
	case o := <-done:
		if o.panic != nil {
			return nil, fmt.Errorf("runner: panic in task %q: %v\n%s", task.ID(), o.panic, o.stack)
		}
		return o.value, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// journalCtxKey is the context key used to expose the current
// invocation's Journal to code that only has a context.Context handle
// (e.g. a middleware that reads a well-known cancellation key).
type journalCtxKey struct{}

func withJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalCtxKey{}, j)
}

// JournalFromContext recovers the current invocation's Journal, if any.
func JournalFromContext(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalCtxKey{}).(*Journal)
	return j, ok
}
