package runner

import "context"

// resolveDeps builds the Deps bag injected into a task/resource/hook
// body from its declared DepRef list (§4.3.3.b): a resource dependency
// resolves to the already-initialized value, a task dependency resolves
// to a bound caller function, an event to a bound emitter function, a
// hook to itself (definition, mostly useful for introspection), an
// error to its ErrorDef (already callable via Throw), an async context
// to itself (already callable via Use/Provide). Optional dependencies
// absent from the graph resolve to nil rather than failing.
func (rt *Runtime) resolveDeps(refs []DepRef) Deps {
	deps := make(Deps, len(refs))
	for _, ref := range refs {
		if ref.Target == nil {
			deps[ref.Name] = nil
			continue
		}
		def, ok := rt.store.Lookup(ref.Target.ID())
		if !ok {
			deps[ref.Name] = nil
			continue
		}

		switch d := def.(type) {
		case AnyResource:
			rec, ok := rt.store.ResourceRecordOf(d.ID())
			if !ok {
				deps[ref.Name] = nil
				continue
			}
			deps[ref.Name] = rec.Value
		case AnyTask:
			deps[ref.Name] = rt.bindTaskCaller(d)
		case AnyEvent:
			deps[ref.Name] = rt.bindEmitter(d, ref.Target.ID())
		default:
			deps[ref.Name] = def
		}
	}
	return deps
}

// bindTaskCaller returns the function value injected for a task
// dependency: a closure over this Runtime that calls RunTask. The
// caller's journal, if any, is forwarded so a nested call logs under the
// same invocation id rather than minting a fresh one.
func (rt *Runtime) bindTaskCaller(task AnyTask) func(ctx context.Context, input any) (any, error) {
	return func(ctx context.Context, input any) (any, error) {
		journal, _ := JournalFromContext(ctx)
		return rt.RunTaskByDef(ctx, task, input, journal)
	}
}

// bindEmitter returns the function value injected for an event
// dependency: a closure that emits through this Runtime.
func (rt *Runtime) bindEmitter(evt AnyEvent, sourceID string) func(ctx context.Context, data any) error {
	return func(ctx context.Context, data any) error {
		_, err := rt.EmitEventByDef(ctx, evt, data, sourceID)
		return err
	}
}
