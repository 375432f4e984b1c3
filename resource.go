package runner

import (
	"context"

	"github.com/bluelibs/runner-go/pkg/schema"
)

// ResourceInitFunc initializes a resource's value once, given its
// validated config, injected dependencies, and the resource's private
// context (nil unless a ResourceContextFactory was attached).
type ResourceInitFunc[C any, V any] func(ctx context.Context, cfg C, deps Deps, privateCtx any) (V, error)

// ResourceDisposeFunc tears a resource's value down. Dispose runs in the
// exact reverse of the order Init completed in (§Lifecycle Orchestrator),
// independent of declared-dependency order. It receives the same config,
// dependencies and private context Init saw, so e.g. a handle opened with
// an injected logger can be closed with it too.
type ResourceDisposeFunc[C any, V any] func(ctx context.Context, value V, cfg C, deps Deps, privateCtx any) error

// ResourceContextFactory produces a resource's privateCtx once, after its
// dependencies resolve and before Init runs (§4.3.3.c). Threaded
// unchanged into both Init and Dispose.
type ResourceContextFactory func() any

// AnyResource is the type-erased view the Store/Lifecycle/Validator work
// with.
type AnyResource interface {
	Definition
	resourceDeps() []DepRef
	resourceMiddlewareRefs() []MiddlewareRef
	overrideTargets() []string
	newPrivateCtx() any
	initAny(ctx context.Context, cfg any, deps Deps, privateCtx any) (any, error)
	disposeAny(ctx context.Context, value any, cfg any, deps Deps, privateCtx any) error
	parseConfig(value any) (any, error)
	defaultConfig() any
}

// Resource is a singleton with an init/dispose lifecycle (§Resource):
// config resolved once at boot, value memoized for the life of the
// runtime, disposed in exact reverse init-completion order.
type Resource[C any, V any] struct {
	base
	deps           []DepRef
	middlewareRefs []MiddlewareRef
	init           ResourceInitFunc[C, V]
	dispose        ResourceDisposeFunc[C, V]
	contextFactory ResourceContextFactory
	configSchema   schema.Typed[C]
	overrides      []string
	defaultCfg     C
}

// ResourceOption configures a Resource at construction time.
type ResourceOption[C any, V any] func(*Resource[C, V])

// WithResourceDeps declares the dependencies injected into Init/Dispose.
func WithResourceDeps[C any, V any](deps ...DepRef) ResourceOption[C, V] {
	return func(r *Resource[C, V]) { r.deps = append(r.deps, deps...) }
}

// WithResourceMiddleware attaches local middleware wrapping this
// resource's Init.
func WithResourceMiddleware[C any, V any](refs ...MiddlewareRef) ResourceOption[C, V] {
	return func(r *Resource[C, V]) { r.middlewareRefs = append(r.middlewareRefs, refs...) }
}

// WithResourceConfigSchema attaches a config validator.
func WithResourceConfigSchema[C any, V any](s schema.Typed[C]) ResourceOption[C, V] {
	return func(r *Resource[C, V]) { r.configSchema = s }
}

// WithDispose attaches a teardown function, run during Lifecycle
// Orchestrator's dispose pass.
func WithDispose[C any, V any](fn ResourceDisposeFunc[C, V]) ResourceOption[C, V] {
	return func(r *Resource[C, V]) { r.dispose = fn }
}

// WithResourceContext attaches a per-instance context factory. The
// factory is invoked once, after dependency resolution and before Init,
// and its value is threaded into both Init and Dispose (§4.3.3.c).
func WithResourceContext[C any, V any](factory ResourceContextFactory) ResourceOption[C, V] {
	return func(r *Resource[C, V]) { r.contextFactory = factory }
}

// WithDefaultConfig sets the config value used when the resource is
// registered without an explicit config (e.g. as a bare dependency
// target rather than through an owning composition root).
func WithDefaultConfig[C any, V any](cfg C) ResourceOption[C, V] {
	return func(r *Resource[C, V]) { r.defaultCfg = cfg }
}

// WithOverrides declares that this resource's registration replaces the
// named ids wherever they would otherwise have been used (override
// resolution in buildStore, §Store/Registry): closest-to-root wins, and
// among overrides at the same depth the last one registered wins.
func WithOverrides[C any, V any](ids ...string) ResourceOption[C, V] {
	return func(r *Resource[C, V]) { r.overrides = append(r.overrides, ids...) }
}

// WithResourceTags appends tag instances to the resource's declared tag
// list (e.g. the tunnel tag, see tunnel.go).
func WithResourceTags[C any, V any](tags ...TagRef) ResourceOption[C, V] {
	return func(r *Resource[C, V]) { r.tags = append(r.tags, tags...) }
}

// NewResource registers a new resource under id.
func NewResource[C any, V any](id string, init ResourceInitFunc[C, V], opts ...ResourceOption[C, V]) *Resource[C, V] {
	r := &Resource[C, V]{base: newBase(id, nil, nil), init: init}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resource[C, V]) Kind() Kind                               { return KindResource }
func (r *Resource[C, V]) resourceDeps() []DepRef                  { return r.deps }
func (r *Resource[C, V]) resourceMiddlewareRefs() []MiddlewareRef { return r.middlewareRefs }
func (r *Resource[C, V]) overrideTargets() []string                { return r.overrides }
func (r *Resource[C, V]) defaultConfig() any                        { return r.defaultCfg }

func (r *Resource[C, V]) newPrivateCtx() any {
	if r.contextFactory == nil {
		return nil
	}
	return r.contextFactory()
}

func (r *Resource[C, V]) initAny(ctx context.Context, cfg any, deps Deps, privateCtx any) (any, error) {
	typedCfg, _ := cfg.(C)
	return r.init(ctx, typedCfg, deps, privateCtx)
}

func (r *Resource[C, V]) disposeAny(ctx context.Context, value any, cfg any, deps Deps, privateCtx any) error {
	if r.dispose == nil {
		return nil
	}
	typedValue, _ := value.(V)
	typedCfg, _ := cfg.(C)
	return r.dispose(ctx, typedValue, typedCfg, deps, privateCtx)
}

func (r *Resource[C, V]) parseConfig(value any) (any, error) {
	if r.configSchema == nil {
		return value, nil
	}
	return r.configSchema.Parse(value)
}
