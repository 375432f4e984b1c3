package runner

import (
	"fmt"
	"runtime/debug"

	"github.com/bluelibs/runner-go/pkg/schema"
)

// ErrorDef is a user-declared typed application error: a named shape with
// an optional data schema, HTTP code and remediation text. It is a
// first-class definition (it must be registered like any task/resource)
// so other definitions can declare it as a dependency and receive the
// bound helper via Deps.
type ErrorDef[D any] struct {
	base
	dataSchema  schema.Typed[D]
	httpCode    int
	formatter   func(D) string
	remediation string
}

// ErrorOption configures an ErrorDef at construction time.
type ErrorOption[D any] func(*ErrorDef[D])

// WithErrorSchema attaches a validator for the error's data payload.
func WithErrorSchema[D any](s schema.Typed[D]) ErrorOption[D] {
	return func(e *ErrorDef[D]) { e.dataSchema = s }
}

// WithHTTPCode records the HTTP status code a transport layer should use
// for this error; the kernel itself never performs transport.
func WithHTTPCode[D any](code int) ErrorOption[D] {
	return func(e *ErrorDef[D]) { e.httpCode = code }
}

// WithFormatter overrides how the error renders as a message string.
func WithFormatter[D any](fn func(D) string) ErrorOption[D] {
	return func(e *ErrorDef[D]) { e.formatter = fn }
}

// WithRemediation attaches operator-facing remediation text.
func WithRemediation[D any](text string) ErrorOption[D] {
	return func(e *ErrorDef[D]) { e.remediation = text }
}

// NewError registers a new typed application error under id.
func NewError[D any](id string, opts ...ErrorOption[D]) *ErrorDef[D] {
	e := &ErrorDef[D]{base: newBase(id, nil, nil)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ErrorDef[D]) Kind() Kind { return KindError }

// HTTPCode returns the configured HTTP status code, or 0 if unset.
func (e *ErrorDef[D]) HTTPCode() int { return e.httpCode }

// Remediation returns the configured remediation text, if any.
func (e *ErrorDef[D]) Remediation() string { return e.remediation }

// RunnerError is the instantiated form of a typed application error,
// produced by ErrorDef.Throw and recognized by ErrorDef.Is / IsRunnerError.
type RunnerError struct {
	DefID       string
	Data        any
	HTTPCode    int
	Remediation string
	Message     string
	Stack       []byte
}

func (e *RunnerError) Error() string { return e.Message }

// Throw validates data against the declared schema (if any) and returns
// a RunnerError carrying this definition's id, the HTTP code and
// remediation text, and a formatted message.
func (e *ErrorDef[D]) Throw(data D) error {
	if e.dataSchema != nil {
		if _, err := e.dataSchema.Parse(data); err != nil {
			return &ValidationError{Boundary: "error data", DefID: e.id, Cause: err}
		}
	}

	msg := fmt.Sprintf("%v", data)
	if e.formatter != nil {
		msg = e.formatter(data)
	}

	return &RunnerError{
		DefID:       e.id,
		Data:        data,
		HTTPCode:    e.httpCode,
		Remediation: e.remediation,
		Message:     msg,
		Stack:       debug.Stack(),
	}
}

// Is reports whether err was produced by this ErrorDef's Throw.
func (e *ErrorDef[D]) Is(err error) bool {
	re, ok := err.(*RunnerError)
	return ok && re.DefID == e.id
}

// IsRunnerError is the generic "is-a-runner-error" guard, independent of
// which ErrorDef produced it.
func IsRunnerError(err error) bool {
	_, ok := err.(*RunnerError)
	return ok
}
