package runner

import (
	"context"

	"github.com/bluelibs/runner-go/pkg/schema"
)

// TaskHandler is a task's body: given the validated input and its
// injected dependencies, produce a result or fail.
type TaskHandler[In any, Out any] func(ctx context.Context, input In, deps Deps) (Out, error)

// AnyTask is the type-erased view the Invoker dispatches runTask through.
type AnyTask interface {
	Definition
	taskDeps() []DepRef
	taskMiddlewareRefs() []MiddlewareRef
	isPhantom() bool
	invokeAny(ctx context.Context, input any, deps Deps) (any, error)
	parseInput(value any) (any, error)
	parseResult(value any) (any, error)
}

// Task is a named, dependency-injected, asynchronous unit of work - the
// kernel's equivalent of the teacher's Executor/Flow, generalized from a
// lazily-memoized value to a repeatable invocation (§Task).
type Task[In any, Out any] struct {
	base
	deps           []DepRef
	middlewareRefs []MiddlewareRef
	handler        TaskHandler[In, Out]
	inputSchema    schema.Typed[In]
	resultSchema   schema.Typed[Out]
	phantom        bool
}

// TaskOption configures a Task at construction time.
type TaskOption[In any, Out any] func(*Task[In, Out])

// WithTaskDeps declares the dependencies injected into the task handler.
func WithTaskDeps[In any, Out any](deps ...DepRef) TaskOption[In, Out] {
	return func(t *Task[In, Out]) { t.deps = append(t.deps, deps...) }
}

// WithTaskMiddleware attaches local middleware, run innermost-to-the-
// handler in declaration order relative to other local middleware (see
// Middleware Manager for full precedence across global/local/tag chains).
func WithTaskMiddleware[In any, Out any](refs ...MiddlewareRef) TaskOption[In, Out] {
	return func(t *Task[In, Out]) { t.middlewareRefs = append(t.middlewareRefs, refs...) }
}

// WithTaskSchemas attaches input/result validators.
func WithTaskSchemas[In any, Out any](input schema.Typed[In], result schema.Typed[Out]) TaskOption[In, Out] {
	return func(t *Task[In, Out]) {
		t.inputSchema = input
		t.resultSchema = result
	}
}

// WithTaskTags appends tag instances to the task's declared tag list.
func WithTaskTags[In any, Out any](tags ...TagRef) TaskOption[In, Out] {
	return func(t *Task[In, Out]) { t.tags = append(t.tags, tags...) }
}

// WithTaskMeta sets an opaque metadata entry on the task.
func WithTaskMeta[In any, Out any](key string, value any) TaskOption[In, Out] {
	return func(t *Task[In, Out]) { t.meta[key] = value }
}

// Phantom marks a task with no local handler: its invocation is always
// delegated to whichever tunnel resource has claimed it (§Task phantom
// tasks, §Tunnel). Invoking a phantom task with no owning tunnel returns
// a nil result and a nil error.
func Phantom[In any, Out any]() TaskOption[In, Out] {
	return func(t *Task[In, Out]) { t.phantom = true }
}

// NewTask registers a new task under id.
func NewTask[In any, Out any](id string, handler TaskHandler[In, Out], opts ...TaskOption[In, Out]) *Task[In, Out] {
	t := &Task[In, Out]{base: newBase(id, nil, nil), handler: handler}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Task[In, Out]) Kind() Kind                           { return KindTask }
func (t *Task[In, Out]) taskDeps() []DepRef                   { return t.deps }
func (t *Task[In, Out]) taskMiddlewareRefs() []MiddlewareRef { return t.middlewareRefs }
func (t *Task[In, Out]) isPhantom() bool                      { return t.phantom }

func (t *Task[In, Out]) invokeAny(ctx context.Context, input any, deps Deps) (any, error) {
	if t.phantom {
		return nil, &UnknownTaskError{ID: t.id}
	}
	typedInput, _ := input.(In)
	return t.handler(ctx, typedInput, deps)
}

func (t *Task[In, Out]) parseInput(value any) (any, error) {
	if t.inputSchema == nil {
		return value, nil
	}
	return t.inputSchema.Parse(value)
}

func (t *Task[In, Out]) parseResult(value any) (any, error) {
	if t.resultSchema == nil {
		return value, nil
	}
	return t.resultSchema.Parse(value)
}
