package runner

import "reflect"

// AnyTag is the type-erased view of a Tag used wherever a tag must be
// stored or compared without its type parameters (TagRef.Tag, the byTag
// index, registry lookups). Every Tag is itself a Definition and must be
// registered like any other building block.
type AnyTag = Definition

// Tag is a queryable marker that can be attached to any definition. It
// carries three type parameters: the config shape accepted by With, and
// the input/output contracts it imposes on whatever it is attached to.
// Contracts can be introspected but are not enforced: the Validator
// does not compare them with the definition's types, and the Go type
// system does not either, because With returns a type-erased TagRef.
type Tag[Config any, In any, Out any] struct {
	base
}

// NewTag registers a new tag identifier. Tags carry no dependencies of
// their own but do carry tags/meta like any other definition.
func NewTag[Config any, In any, Out any](id string, opts ...DefOption) *Tag[Config, In, Out] {
	cfg := applyDefOptions(opts)
	return &Tag[Config, In, Out]{base: newBase(id, cfg.tags, cfg.meta)}
}

func (t *Tag[Config, In, Out]) Kind() Kind { return KindTag }

// With produces a TagRef bound to a specific config value, ready to be
// placed in a definition's declared tags list.
func (t *Tag[Config, In, Out]) With(cfg Config) TagRef {
	return TagRef{Tag: t, Config: cfg}
}

// Exists reports whether def carries an instance of this tag.
func (t *Tag[Config, In, Out]) Exists(def Definition) bool {
	_, ok := hasTag(def.Tags(), t.id)
	return ok
}

// Extract returns the config bound to this tag on def, if present.
func (t *Tag[Config, In, Out]) Extract(def Definition) (Config, bool) {
	return t.ExtractFromTags(def.Tags())
}

// ExtractFromTags is Extract over a raw tag list, for callers that only
// have a []TagRef (e.g. while still assembling a definition).
func (t *Tag[Config, In, Out]) ExtractFromTags(tags []TagRef) (Config, bool) {
	ref, ok := hasTag(tags, t.id)
	if !ok {
		var zero Config
		return zero, false
	}
	cfg, ok := ref.Config.(Config)
	if !ok {
		var zero Config
		return zero, false
	}
	return cfg, true
}

// hasInputContract/hasOutputContract report whether the In/Out type
// parameters carry a real contract (as opposed to the `any` placeholder
// used when a tag declares no contract on that side).
func (t *Tag[Config, In, Out]) hasInputContract() bool {
	return reflect.TypeOf((*In)(nil)).Elem() != reflect.TypeOf((*any)(nil)).Elem()
}

func (t *Tag[Config, In, Out]) hasOutputContract() bool {
	return reflect.TypeOf((*Out)(nil)).Elem() != reflect.TypeOf((*any)(nil)).Elem()
}

func (t *Tag[Config, In, Out]) inputContractType() reflect.Type {
	return reflect.TypeOf((*In)(nil)).Elem()
}

func (t *Tag[Config, In, Out]) outputContractType() reflect.Type {
	return reflect.TypeOf((*Out)(nil)).Elem()
}

// DefOption configures the shared base fields (tags, meta) of any
// definition constructor. Concrete definition constructors (NewTask,
// NewResource, ...) accept their own option types that embed these.
type DefOption func(*defOptions)

type defOptions struct {
	tags []TagRef
	meta map[string]any
}

func applyDefOptions(opts []DefOption) defOptions {
	cfg := defOptions{meta: map[string]any{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTags appends tag instances to a definition's declared tag list, in
// order, duplicates preserved.
func WithTags(tags ...TagRef) DefOption {
	return func(c *defOptions) {
		c.tags = append(c.tags, tags...)
	}
}

// WithMeta sets an opaque metadata entry on a definition.
func WithMeta(key string, value any) DefOption {
	return func(c *defOptions) {
		if c.meta == nil {
			c.meta = map[string]any{}
		}
		c.meta[key] = value
	}
}
