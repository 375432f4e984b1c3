package runner

import "fmt"

// DepRef is a declared dependency: a name the owning task/resource/hook
// uses to look up the resolved value in its injected Deps map, the
// definition it refers to, and whether an unresolved reference is
// tolerated (absence becomes nil rather than a validation error).
type DepRef struct {
	Name     string
	Target   Definition
	Optional bool
}

// Dep declares a required dependency under the given injection name.
func Dep(name string, target Definition) DepRef {
	return DepRef{Name: name, Target: target}
}

// OptionalDep declares a dependency that may be absent from the
// registered graph without failing validation; the injected value is
// nil when unresolved.
func OptionalDep(name string, target Definition) DepRef {
	return DepRef{Name: name, Target: target, Optional: true}
}

// Deps is the injected-dependency bag a task/resource/hook body receives,
// keyed by the declared dependency name. Values are whatever the
// dependency kind resolves to (see resolveDeps in depsresolve.go): a
// task caller func, a resource value, an event emitter
// func, a hook descriptor, an error helper, or an async-context handle.
type Deps map[string]any

// DepValue retrieves and type-asserts a named dependency. ok is false both
// when the name is absent and when the stored value is not a T (for an
// optional dependency that was left unresolved, the stored value is nil
// and this correctly reports !ok for any non-pointer/interface T).
func DepValue[T any](deps Deps, name string) (T, bool) {
	v, present := deps[name]
	if !present {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// MustDepValue retrieves a named dependency or panics. Intended for
// required dependencies inside task/resource bodies, where an absent or
// mistyped entry indicates a registration bug the validator should have
// already caught.
func MustDepValue[T any](deps Deps, name string) T {
	v, ok := DepValue[T](deps, name)
	if !ok {
		panic(fmt.Sprintf("runner: dependency %q missing or wrong type", name))
	}
	return v
}
