package runner

import "context"

// instrumentResourceID is excluded from its own tree rendering and from
// dependency-cycle concerns since it carries no resourceDeps.
const instrumentResourceID = "runner.debugInstrumentation"

// buildDebugResource constructs the debug instrumentation resource
// described in §12.2, or nil when debugging is off. It is adapted from
// the teacher's extensions/graph_debug.go and extensions/logging.go: it
// is paired with the wildcard hook built by instrumentationHook, which
// logs one record per emitted event through the runtime logger. Both
// are tagged system so they never appear in the rendered tree.
func buildDebugResource(cfg *runConfig) (AnyResource, DebugFlags) {
	if cfg.debugLevel == DebugOff {
		return nil, DebugFlags{}
	}

	flags := resolveDebugFlags(cfg)

	return NewResource[DebugFlags, *debugInstrumentation](
		instrumentResourceID,
		func(ctx context.Context, flags DebugFlags, deps Deps, _ any) (*debugInstrumentation, error) {
			return &debugInstrumentation{flags: flags}, nil
		},
		WithDefaultConfig[DebugFlags, *debugInstrumentation](flags),
		WithResourceTags[DebugFlags, *debugInstrumentation](SystemTag.With(struct{}{})),
	)
}

// debugInstrumentation is the resource value, carrying the same flags
// the hook below receives directly; it exists only so a resource dependency on the instrumentation
// id (rare, but matches how the teacher exposes extension state) gets a
// typed handle.
type debugInstrumentation struct {
	flags DebugFlags
}

// resolveDebugFlags derives the effective flag set from a debug level,
// unless the caller supplied an explicit flag set via WithDebugFlags.
func resolveDebugFlags(cfg *runConfig) DebugFlags {
	flags := DebugFlags{Lifecycle: true}
	if cfg.debugLevel == DebugVerbose {
		flags.Inputs = true
		flags.Outputs = true
	}
	if cfg.debugFlags != nil {
		flags = *cfg.debugFlags
	}
	return flags
}

// instrumentationHook returns the wildcard hook, registered by Run when
// debugging is on, that logs an "event.emitted" debug record for every
// event reaching wildcard hooks, with the emission's source id under
// "event" and, when Inputs or Outputs is set, the payload under "data".
// It does not consult the Lifecycle flag and logs no resource-init or
// task-run records.
func instrumentationHook(flags DebugFlags, logger *Logger) *Hook[any] {
	return OnAll("runner.debugInstrumentation.hook", func(ctx *EventCtx[any], deps Deps) error {
		fields := map[string]any{"event": ctx.Source()}
		if flags.Inputs || flags.Outputs {
			fields["data"] = ctx.Data
		}
		logger.Debug("event.emitted", fields)
		return nil
	}, WithHookTags(SystemTag.With(struct{}{})))
}
