package runner

import (
	"context"
	"fmt"
	"sync"
)

// buildResourceDAG returns, for each registered resource, the ids of its
// direct resource dependencies (task/event/hook dependencies are
// irrelevant to init ordering, §4.3.1).
func buildResourceDAG(s *Store) map[string][]string {
	dag := map[string][]string{}
	for _, res := range s.AllResources() {
		var edges []string
		for _, dep := range res.resourceDeps() {
			if dep.Target == nil {
				continue
			}
			if def, ok := s.Lookup(dep.Target.ID()); ok {
				if _, isRes := def.(AnyResource); isRes {
					edges = append(edges, dep.Target.ID())
				}
			}
		}
		dag[res.ID()] = edges
	}
	return dag
}

// topoLevels groups resources into reverse-topological levels: level 0
// has no resource dependencies, level N depends only on levels < N.
// Resources within one level have no dependency edge between them and
// may init concurrently (§4.3.2, §5 ordering guarantees).
func topoLevels(s *Store, dag map[string][]string) ([][]string, error) {
	level := map[string]int{}
	var stack []string
	var resolve func(id string, visiting map[string]bool) (int, error)
	resolve = func(id string, visiting map[string]bool) (int, error) {
		if lv, done := level[id]; done {
			return lv, nil
		}
		if visiting[id] {
			start := 0
			for i, p := range stack {
				if p == id {
					start = i
					break
				}
			}
			return 0, &CycleError{Path: append(append([]string{}, stack[start:]...), id)}
		}
		visiting[id] = true
		stack = append(stack, id)
		max := -1
		for _, dep := range dag[id] {
			lv, err := resolve(dep, visiting)
			if err != nil {
				return 0, err
			}
			if lv > max {
				max = lv
			}
		}
		visiting[id] = false
		stack = stack[:len(stack)-1]
		level[id] = max + 1
		return max + 1, nil
	}

	ids := make([]string, 0, len(dag))
	for id := range dag {
		ids = append(ids, id)
	}
	for _, id := range ids {
		if _, err := resolve(id, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	maxLevel := -1
	for _, lv := range level {
		if lv > maxLevel {
			maxLevel = lv
		}
	}
	levels := make([][]string, maxLevel+1)
	for _, res := range s.AllResources() {
		lv := level[res.ID()]
		levels[lv] = append(levels[lv], res.ID())
	}
	return levels, nil
}

// bootResources initializes every registered resource in reverse
// topological order, siblings within a level concurrently (§4.3 Init
// contract). When a resource init fails, the rest of its level still
// runs to completion; the first failure of that level (in level order)
// is then returned and later levels are not started.
func (rt *Runtime) bootResources(ctx context.Context) error {
	dag := buildResourceDAG(rt.store)
	levels, err := topoLevels(rt.store, dag)
	if err != nil {
		return err
	}

	for _, levelIDs := range levels {
		type outcome struct {
			id  string
			err error
		}
		results := make([]outcome, len(levelIDs))
		var wg sync.WaitGroup
		for i, id := range levelIDs {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				results[i] = outcome{id: id, err: rt.initResource(ctx, id)}
			}(i, id)
		}
		wg.Wait()

		for _, r := range results {
			if r.err != nil {
				return fmt.Errorf("initializing resource %q: %w", r.id, r.err)
			}
		}
	}
	return nil
}

func (rt *Runtime) initResource(ctx context.Context, id string) error {
	def, _ := rt.store.Lookup(id)
	res := def.(AnyResource)

	node := rt.nodeFor(id)
	cfg := node.config
	if override, ok := rt.store.overrideOf[id]; ok {
		cfg = override.config
	}

	parsedCfg, err := res.parseConfig(cfg)
	if err != nil {
		return &ValidationError{Boundary: "config", DefID: id, Cause: err}
	}

	deps := rt.resolveDeps(res.resourceDeps())
	privateCtx := res.newPrivateCtx()

	mwCtx := &MiddlewareCtx{ctx: ctx, targetID: id, kind: KindResource, input: parsedCfg}
	chain := rt.middleware.chainForResource(res)
	terminal := func(input any) (any, error) {
		return res.initAny(ctx, input, deps, privateCtx)
	}
	composed := rt.middleware.compose(chain, mwCtx, func(ref MiddlewareRef) Deps {
		return rt.resolveDeps(ref.Middleware.middlewareDependencies())
	}, terminal)

	value, err := composed(parsedCfg)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	rt.store.recordResource(&ResourceRecord{ID: id, Value: value, Config: parsedCfg, PrivateCtx: privateCtx})
	rt.mu.Unlock()

	return nil
}

func (rt *Runtime) nodeFor(id string) *resourceNode {
	for _, n := range rt.store.resourceNodes {
		if n.resource.ID() == id {
			return n
		}
	}
	return &resourceNode{}
}

// disposeResources tears every booted resource down in exact reverse of
// recorded init-completion order (§4.3 Dispose contract), collecting
// every error rather than stopping at the first.
func (rt *Runtime) disposeResources(ctx context.Context) error {
	order := rt.store.InitOrder()
	var causes []error

	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		def, ok := rt.store.Lookup(id)
		if !ok {
			continue
		}
		res, ok := def.(AnyResource)
		if !ok {
			continue
		}
		rec, ok := rt.store.ResourceRecordOf(id)
		if !ok {
			continue
		}
		deps := rt.resolveDeps(res.resourceDeps())
		if err := res.disposeAny(ctx, rec.Value, rec.Config, deps, rec.PrivateCtx); err != nil {
			causes = append(causes, fmt.Errorf("disposing %q: %w", id, err))
		}
	}

	if len(causes) > 0 {
		return &DisposalError{Causes: causes}
	}
	return nil
}
