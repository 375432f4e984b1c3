// Package extensions provides optional cross-cutting runner components
// that are not part of the kernel itself: a logging task middleware and
// an unhandled-error handler that attaches a rendered dependency tree,
// both adapted from the teacher's extensions package.
package extensions

import (
	"time"

	runner "github.com/bluelibs/runner-go"
)

// LoggingMiddleware logs every task invocation's start, duration and
// outcome through logger. Adapted from the teacher's
// LoggingExtension.Wrap, translated from the old Extension.Wrap hook
// into a global runner.Middleware (§4.5).
func LoggingMiddleware(logger *runner.Logger) *runner.Middleware[struct{}] {
	return runner.NewTaskMiddleware[struct{}](
		"extensions.logging",
		func(next runner.MiddlewareNext, ctx *runner.MiddlewareCtx, deps runner.Deps, cfg struct{}) (any, error) {
			start := time.Now()
			logger.Debug("task.starting", map[string]any{"id": ctx.TargetID()})

			result, err := next(ctx.Input())

			fields := map[string]any{
				"id":       ctx.TargetID(),
				"duration": time.Since(start).String(),
			}
			if err != nil {
				fields["error"] = err.Error()
				logger.Error("task.failed", fields)
			} else {
				logger.Debug("task.completed", fields)
			}
			return result, err
		},
		runner.Everywhere[struct{}](nil),
	)
}
