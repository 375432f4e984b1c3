package runner

import "github.com/rs/zerolog"

// Mode is the declared environment, consumed only by instrumentation
// (§4.8 `mode`).
type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
	ModeTest Mode = "test"
)

// DebugLevel selects the granularity of the built-in debug
// instrumentation resource (§4.8 `debug`, §12.2).
type DebugLevel string

const (
	DebugOff     DebugLevel = "off"
	DebugNormal  DebugLevel = "normal"
	DebugVerbose DebugLevel = "verbose"
)

// DebugFlags is the detailed alternative to DebugLevel, letting a caller
// pick exactly which instrumentation signals to enable.
type DebugFlags struct {
	Lifecycle bool
	Inputs    bool
	Outputs   bool
	Graph     bool
}

// UnhandledErrorKind classifies where an error observed by
// onUnhandledError originated (§4.8, §12.4 adds "run").
type UnhandledErrorKind string

const (
	KindProcess      UnhandledErrorKind = "process"
	KindTaskError    UnhandledErrorKind = "task"
	KindMiddleware   UnhandledErrorKind = "middleware"
	KindResourceInit UnhandledErrorKind = "resourceInit"
	KindHookError    UnhandledErrorKind = "hook"
	KindRun          UnhandledErrorKind = "run"
)

// UnhandledErrorInfo is passed to the onUnhandledError callback.
type UnhandledErrorInfo struct {
	Error  error
	Kind   UnhandledErrorKind
	Source string
}

// runConfig is the resolved option set built by applying every
// RunOption passed to Run (§4.8 run options), the generalized
// counterpart of the teacher's ScopeOption-built *Scope fields.
type runConfig struct {
	debugLevel    DebugLevel
	debugFlags    *DebugFlags
	printThreshold *zerolog.Level
	printStrategy  PrintStrategy
	bufferLogs     bool
	errorBoundary  bool
	shutdownHooks  bool
	onUnhandled    func(UnhandledErrorInfo)
	dryRun         bool
	eventCycleDetection bool
	mode           Mode
}

func defaultRunConfig() *runConfig {
	return &runConfig{
		debugLevel:          DebugOff,
		printStrategy:       PrintJSON,
		eventCycleDetection: true,
		mode:                ModeDev,
	}
}

// RunOption configures Run.
type RunOption func(*runConfig)

func WithDebug(level DebugLevel) RunOption { return func(c *runConfig) { c.debugLevel = level } }

func WithDebugFlags(flags DebugFlags) RunOption {
	return func(c *runConfig) {
		c.debugLevel = DebugVerbose
		c.debugFlags = &flags
	}
}

func WithLogPrintThreshold(level zerolog.Level) RunOption {
	return func(c *runConfig) { c.printThreshold = &level }
}

func WithLogPrintStrategy(strategy PrintStrategy) RunOption {
	return func(c *runConfig) { c.printStrategy = strategy }
}

func WithBufferLogs(v bool) RunOption { return func(c *runConfig) { c.bufferLogs = v } }

func WithErrorBoundary(v bool) RunOption { return func(c *runConfig) { c.errorBoundary = v } }

func WithShutdownHooks(v bool) RunOption { return func(c *runConfig) { c.shutdownHooks = v } }

func WithOnUnhandledError(fn func(UnhandledErrorInfo)) RunOption {
	return func(c *runConfig) { c.onUnhandled = fn }
}

func WithDryRun(v bool) RunOption { return func(c *runConfig) { c.dryRun = v } }

func WithRuntimeEventCycleDetection(v bool) RunOption {
	return func(c *runConfig) { c.eventCycleDetection = v }
}

func WithMode(mode Mode) RunOption { return func(c *runConfig) { c.mode = mode } }
