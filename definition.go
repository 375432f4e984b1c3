// Package runner implements the kernel of a declarative application
// runtime: tasks, resources, events, hooks, middleware and tags are wired
// into a dependency graph, booted in order, and exposed through a small
// invocation surface.
package runner

import (
	"fmt"

	"github.com/bluelibs/runner-go/pkg/meta"
)

// Kind discriminates the polymorphic definition variants that share one id
// space in the registered graph.
type Kind string

const (
	KindTask               Kind = "task"
	KindResource           Kind = "resource"
	KindEvent              Kind = "event"
	KindHook               Kind = "hook"
	KindMiddlewareTask     Kind = "middleware.task"
	KindMiddlewareResource Kind = "middleware.resource"
	KindTag                Kind = "tag"
	KindError              Kind = "error"
	KindAsyncContext       Kind = "asynccontext"
)

// Definition is the common surface every registered building block
// implements: a stable id, the kind discriminant, declared tag instances
// and opaque metadata. The registry (Store) dispatches on Kind rather than
// relying on type inheritance.
type Definition interface {
	ID() string
	Kind() Kind
	Tags() []TagRef
	Meta() map[string]any
}

// base carries the fields shared by every definition variant.
type base struct {
	id   string
	tags []TagRef
	meta map[string]any
}

func newBase(id string, tags []TagRef, meta map[string]any) base {
	if meta == nil {
		meta = map[string]any{}
	}
	return base{id: id, tags: tags, meta: meta}
}

func (b *base) ID() string          { return b.id }
func (b *base) Tags() []TagRef      { return b.tags }
func (b *base) Meta() map[string]any { return b.meta }

// TagRef binds a registered tag to a config value, produced by Tag.With.
// It is itself stored on the owning definition's Tags() list in
// declaration order, duplicates preserved, per the data model's ordered
// tag list invariant.
type TagRef struct {
	Tag    AnyTag
	Config any
}

func (t TagRef) String() string {
	if t.Tag == nil {
		return "<nil tag>"
	}
	return fmt.Sprintf("%s(%v)", t.Tag.ID(), t.Config)
}

// MetaValue reads a typed metadata entry off a definition, converting
// where possible (see pkg/meta.Get).
func MetaValue[T any](def Definition, key string) (T, error) {
	return meta.Get[T](def.Meta(), key)
}

// SetMeta writes an opaque metadata entry onto a definition after
// construction (e.g. from a middleware or extension wiring step).
func SetMeta(def Definition, key string, value any) {
	meta.Set(def.Meta(), key, value)
}

// hasTag reports whether tags contains an instance of the given tag id.
func hasTag(tags []TagRef, tagID string) (TagRef, bool) {
	for _, t := range tags {
		if t.Tag != nil && t.Tag.ID() == tagID {
			return t, true
		}
	}
	return TagRef{}, false
}
