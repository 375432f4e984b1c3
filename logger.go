package runner

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// PrintStrategy selects how the logger renders to its writer (§10.1).
type PrintStrategy string

const (
	PrintPretty     PrintStrategy = "pretty"
	PrintPlain      PrintStrategy = "plain"
	PrintJSON       PrintStrategy = "json"
	PrintJSONPretty PrintStrategy = "json-pretty"
)

// LogOptions configures the Logger built by NewLogger.
type LogOptions struct {
	PrintThreshold *zerolog.Level
	PrintStrategy  PrintStrategy
	BufferLogs     bool
	Writer         io.Writer
}

// Logger wraps a zerolog.Logger with the buffering-until-ready behavior
// §4.3 step 5 and §10.1 require: while buffering, every record is queued
// in memory; Flush replays them to the real writer in order.
type Logger struct {
	base zerolog.Logger

	mu        sync.Mutex
	buffering bool
	queued    []func(zerolog.Logger)
}

// NewLogger constructs the kernel's logger resource value.
func NewLogger(opts LogOptions) *Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	switch opts.PrintStrategy {
	case PrintPretty:
		writer = zerolog.ConsoleWriter{Out: writer, NoColor: false}
	case PrintPlain:
		writer = zerolog.ConsoleWriter{Out: writer, NoColor: true}
	case PrintJSONPretty:
		// zerolog has no indenting JSON writer; json-pretty uses the same
		// non-colored ConsoleWriter as plain and renders identically to it.
		// No indented JSON is produced.
		writer = zerolog.ConsoleWriter{Out: writer, NoColor: true}
	case PrintJSON, "":
		// raw JSON, zerolog's native format.
	}

	level := zerolog.InfoLevel
	if opts.PrintThreshold != nil {
		level = *opts.PrintThreshold
	} else {
		level = zerolog.Disabled
	}

	base := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	return &Logger{base: base, buffering: opts.BufferLogs}
}

// With returns a child logger carrying extra structured fields (e.g.
// {component: "task", id: "..."}). The kernel itself does not call it:
// neither the Invoker nor the Lifecycle Orchestrator creates child
// loggers.
func (l *Logger) With(fields map[string]any) *Logger {
	ctx := l.base.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	child := &Logger{base: ctx.Logger(), buffering: l.buffering}
	return child
}

func (l *Logger) record(fn func(zerolog.Logger)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buffering {
		l.queued = append(l.queued, fn)
		return
	}
	fn(l.base)
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	l.record(func(z zerolog.Logger) { emit(z.Debug(), msg, fields) })
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.record(func(z zerolog.Logger) { emit(z.Info(), msg, fields) })
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.record(func(z zerolog.Logger) { emit(z.Warn(), msg, fields) })
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.record(func(z zerolog.Logger) { emit(z.Error(), msg, fields) })
}

func emit(event *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Flush replays every buffered record to the real writer in queued
// order and stops buffering further records. Run calls it after boot
// and immediately before the `ready` event is emitted (§4.3 step 5).
func (l *Logger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, fn := range l.queued {
		fn(l.base)
	}
	l.queued = nil
	l.buffering = false
}
