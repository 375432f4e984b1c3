package runner

import (
	"errors"
	"sort"
)

// errLocked is the cause wrapped into a ValidationError when a caller
// attempts a post-lock mutation (§5 Lock discipline).
var errLocked = errors.New("store is locked")

// resourceNode is how the Store records a registered resource prior to
// Lifecycle init: the definition plus the config it was registered with
// (the argument to the root resource, or a child resource's own default/
// static config).
type resourceNode struct {
	resource AnyResource
	config   any
	depth    int
	order    int // registration order at its depth, for override tie-break
}

// ResourceRecord is the post-init record the Store keeps for every
// booted resource: {id, value, config, privateCtx, disposer} from §Store
// data model.
type ResourceRecord struct {
	ID         string
	Value      any
	Config     any
	PrivateCtx any
}

// Store is the registry (§4.1): definitions collected from the root
// resource's registration closure, resolved overrides, a byTag index,
// and the bookkeeping the later components (Validator, Lifecycle,
// Middleware Manager, Invoker) read from.
type Store struct {
	definitions map[string]Definition
	byTag       map[string][]string

	resourceNodes []*resourceNode // traversal order, pre-override
	overrideOf    map[string]*resourceNode

	resources map[string]*ResourceRecord
	initOrder []string // recorded in exact init-completion order

	taskInterceptors map[string][]func(next MiddlewareNext, input any) (any, error)
	emitInterceptors []func(next func() error) error
	hookInterceptors []func(hookID string, next func() error) error

	locked bool
}

func newStore() *Store {
	return &Store{
		definitions:      map[string]Definition{},
		byTag:            map[string][]string{},
		overrideOf:       map[string]*resourceNode{},
		resources:        map[string]*ResourceRecord{},
		taskInterceptors: map[string][]func(next MiddlewareNext, input any) (any, error){},
	}
}

// buildStore walks the registration closure reachable from root (§4.1
// Algorithm) and returns a Store ready for validation. The kernel's
// built-ins (Ready, SystemTag, ExcludeFromWildcardTag, TunnelTag) are
// registered first; then root's own deps, and every definition
// transitively reachable through declared dependencies and middleware
// refs, are discovered and registered. Tags attached to a definition and
// a hook's target event are not discovered this way: unless they are
// built-ins, they must themselves be declared as dependencies.
func buildStore(root AnyResource, rootConfig any) (*Store, error) {
	s := newStore()
	for _, builtin := range []Definition{Ready, SystemTag, ExcludeFromWildcardTag, TunnelTag} {
		if err := s.register(builtin); err != nil {
			return nil, err
		}
	}

	type queued struct {
		res    AnyResource
		cfg    any
		depth  int
	}

	depthOrder := map[int]int{}
	visitedRes := map[string]bool{}
	queue := []queued{{res: root, cfg: rootConfig, depth: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if visitedRes[item.res.ID()] {
			continue
		}
		visitedRes[item.res.ID()] = true

		if err := s.register(item.res); err != nil {
			return nil, err
		}

		order := depthOrder[item.depth]
		depthOrder[item.depth] = order + 1
		node := &resourceNode{resource: item.res, config: item.cfg, depth: item.depth, order: order}
		s.resourceNodes = append(s.resourceNodes, node)

		for _, id := range item.res.overrideTargets() {
			existing, has := s.overrideOf[id]
			if !has || node.depth < existing.depth || (node.depth == existing.depth && node.order >= existing.order) {
				s.overrideOf[id] = node
			}
		}

		for _, dep := range item.res.resourceDeps() {
			if err := s.registerReachable(dep.Target); err != nil {
				return nil, err
			}
			if childRes, ok := dep.Target.(AnyResource); ok {
				cfg := childRes.defaultConfig()
				queue = append(queue, queued{res: childRes, cfg: cfg, depth: item.depth + 1})
			}
		}
		for _, ref := range item.res.resourceMiddlewareRefs() {
			if err := s.register(ref.Middleware); err != nil {
				return nil, err
			}
		}
	}

	for id, node := range s.overrideOf {
		if _, known := s.definitions[id]; !known {
			return nil, &OverrideTargetMissingError{ID: id}
		}
		s.definitions[id] = node.resource
	}

	return s, nil
}

// registerReachable registers def and recursively whatever it
// transitively references (task deps/middleware, hook deps, resource
// subtrees already handled by the resource queue above).
func (s *Store) registerReachable(def Definition) error {
	if _, exists := s.definitions[def.ID()]; exists {
		return s.register(def)
	}
	if err := s.register(def); err != nil {
		return err
	}

	switch d := def.(type) {
	case AnyTask:
		for _, dep := range d.taskDeps() {
			if err := s.registerReachable(dep.Target); err != nil {
				return err
			}
		}
		for _, ref := range d.taskMiddlewareRefs() {
			if err := s.register(ref.Middleware); err != nil {
				return err
			}
		}
	case AnyHook:
		for _, dep := range d.deps() {
			if err := s.registerReachable(dep.Target); err != nil {
				return err
			}
		}
	case AnyResource:
		for _, dep := range d.resourceDeps() {
			if err := s.registerReachable(dep.Target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) register(def Definition) error {
	if s.locked {
		return &ValidationError{Boundary: "register", DefID: def.ID(), Cause: errLocked}
	}
	if existing, exists := s.definitions[def.ID()]; exists {
		if existing == def {
			return nil
		}
		return &DuplicateIdError{ID: def.ID()}
	}
	s.definitions[def.ID()] = def
	for _, tag := range def.Tags() {
		if tag.Tag == nil {
			continue
		}
		s.byTag[tag.Tag.ID()] = append(s.byTag[tag.Tag.ID()], def.ID())
	}
	return nil
}

// Lookup returns the registered definition by id.
func (s *Store) Lookup(id string) (Definition, bool) {
	d, ok := s.definitions[id]
	return d, ok
}

// ByTag returns the ids of every definition carrying an instance of
// tagID, in registration order.
func (s *Store) ByTag(tagID string) []string {
	return s.byTag[tagID]
}

// AllResources returns every registered resource definition, in
// registration order.
func (s *Store) AllResources() []AnyResource {
	resources := make([]AnyResource, 0, len(s.resourceNodes))
	for _, node := range s.resourceNodes {
		resources = append(resources, node.resource)
	}
	return resources
}

// AllDefinitions returns every registered definition of kind, id-sorted
// for deterministic iteration in validator/debug output.
func (s *Store) AllDefinitions(kind Kind) []Definition {
	var out []Definition
	for _, d := range s.definitions {
		if d.Kind() == kind {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ResourceRecordOf returns the post-init bookkeeping for a booted
// resource, if any.
func (s *Store) ResourceRecordOf(id string) (*ResourceRecord, bool) {
	r, ok := s.resources[id]
	return r, ok
}

func (s *Store) recordResource(rec *ResourceRecord) {
	s.resources[rec.ID] = rec
	s.initOrder = append(s.initOrder, rec.ID)
}

// InitOrder returns resource ids in exact init-completion order, the
// basis for reverse-order dispose.
func (s *Store) InitOrder() []string {
	out := make([]string, len(s.initOrder))
	copy(out, s.initOrder)
	return out
}

// Lock freezes the store: RegisterTaskInterceptor and any future
// definition registration are rejected afterward (§5 Lock discipline).
func (s *Store) Lock() { s.locked = true }

// Locked reports whether the store has completed boot.
func (s *Store) Locked() bool { return s.locked }

// RegisterTaskInterceptor attaches a per-task interceptor, valid only
// before lock (typically called from a resource's Init).
func (s *Store) RegisterTaskInterceptor(taskID string, interceptor func(next MiddlewareNext, input any) (any, error)) error {
	if s.locked {
		return &ValidationError{Boundary: "taskInterceptor", DefID: taskID, Cause: errLocked}
	}
	s.taskInterceptors[taskID] = append(s.taskInterceptors[taskID], interceptor)
	return nil
}

func (s *Store) interceptorsFor(taskID string) []func(next MiddlewareNext, input any) (any, error) {
	return s.taskInterceptors[taskID]
}
