package extensions

import (
	"log/slog"

	runner "github.com/bluelibs/runner-go"
)

// GraphDebugHandler returns a callback suitable for
// runner.WithOnUnhandledError that logs the failing source/kind
// alongside rt's rendered resource dependency tree (§12.2), adapted
// from the teacher's GraphDebugExtension which logged the reactive
// graph whenever a resolution or flow error occurred. rt must already
// be booted (its tree only has content once resources have recorded
// their init order).
func GraphDebugHandler(rt *runner.Runtime, logger *slog.Logger) func(runner.UnhandledErrorInfo) {
	return func(info runner.UnhandledErrorInfo) {
		logger.Error("unhandled runner error",
			"kind", string(info.Kind),
			"source", info.Source,
			"error", info.Error,
			"graph", rt.ResourceTree(),
		)
	}
}
