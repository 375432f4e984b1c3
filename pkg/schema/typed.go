package schema

// Typed is the validator contract the kernel consumes for input/result/
// config/payload schemas: "a validator with a parse method" (spec data
// model, Task/Resource/Event). The kernel never implements a serializer
// itself - callers supply any Typed[T] they like, including the
// reflect-based Schema wrappers below or a hand-written closure via FuncSchema.
type Typed[T any] interface {
	Parse(value any) (T, error)
}

// typedAdapter lifts an untyped, reflection-based Schema into a Typed[T]
// so the two validation styles (structural Schema, typed Typed[T]) can be
// used interchangeably by definition constructors.
type typedAdapter[T any] struct {
	inner Schema
}

// Of wraps an untyped Schema as a Typed[T]. The caller is responsible for
// T matching what the Schema actually validates; a mismatch surfaces as a
// validation error at parse time rather than a compile error, the same
// tradeoff the spec accepts for runtime contract checking in general.
func Of[T any](s Schema) Typed[T] {
	return &typedAdapter[T]{inner: s}
}

func (a *typedAdapter[T]) Parse(value any) (T, error) {
	var zero T
	result, err := a.inner.Validate(value)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, &ValidationError{Message: "validated value does not match target type"}
	}
	return typed, nil
}

// FuncSchema adapts a plain Go function into a Typed[T], for callers who
// would rather write `func(v any) (T, error)` than assemble a Schema
// tree.
type FuncSchema[T any] func(value any) (T, error)

func (f FuncSchema[T]) Parse(value any) (T, error) { return f(value) }

// Any is a Typed[T] that accepts every value unchanged via a plain type
// assertion, used where a definition declares no real schema but the
// constructor still wants a uniform Typed[T] to call.
func Any[T any]() Typed[T] {
	return FuncSchema[T](func(value any) (T, error) {
		typed, ok := value.(T)
		if !ok {
			return typed, &ValidationError{Message: "value does not match expected type"}
		}
		return typed, nil
	})
}
