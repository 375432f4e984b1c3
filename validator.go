package runner

import "fmt"

// validate runs every Graph Validator check (§4.2) against a built
// Store, batching all errors of each category before returning a
// composite ValidationResult.
func validate(s *Store) *ValidationResult {
	result := &ValidationResult{}

	validateReferences(s, result)
	validateResourceCycles(s, result)
	validateMiddlewareAndTagRegistration(s, result)
	validateTagContracts(s, result)
	validateTunnelOwnership(s, result)

	return result
}

// validateReferences checks every declared dependency (task, resource,
// hook, middleware, error/async-context) resolves, tolerating optional
// ones (§4.2.1).
func validateReferences(s *Store, result *ValidationResult) {
	check := func(owner string, deps []DepRef) {
		for _, dep := range deps {
			if dep.Target == nil {
				continue
			}
			if _, ok := s.Lookup(dep.Target.ID()); !ok && !dep.Optional {
				result.Add(&UnknownIdError{ID: dep.Target.ID(), Context: fmt.Sprintf("dependency %q of %q", dep.Name, owner)})
			}
		}
	}

	for _, d := range s.definitions {
		switch def := d.(type) {
		case AnyTask:
			check(def.ID(), def.taskDeps())
		case AnyResource:
			check(def.ID(), def.resourceDeps())
		case AnyHook:
			check(def.ID(), def.deps())
			if def.targetEventID() != wildcardEventID {
				if _, ok := s.Lookup(def.targetEventID()); !ok {
					result.Add(&UnknownIdError{ID: def.targetEventID(), Context: fmt.Sprintf("hook %q target event", def.ID())})
				}
			}
		case AnyMiddleware:
			check(def.ID(), def.middlewareDependencies())
		}
	}
}

// validateResourceCycles runs DFS over the resource->resource edge set
// only (§Data Model invariant 2): task/resource and task/task edges are
// never part of this check.
func validateResourceCycles(s *Store, result *ValidationResult) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var path []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		path = append(path, id)

		def, ok := s.Lookup(id)
		if ok {
			if res, isRes := def.(AnyResource); isRes {
				for _, dep := range res.resourceDeps() {
					if dep.Target == nil {
						continue
					}
					depDef, exists := s.Lookup(dep.Target.ID())
					if !exists {
						continue
					}
					if _, isDepResource := depDef.(AnyResource); !isDepResource {
						continue
					}
					switch color[dep.Target.ID()] {
					case white:
						if visit(dep.Target.ID()) {
							return true
						}
					case gray:
						cycleStart := 0
						for i, p := range path {
							if p == dep.Target.ID() {
								cycleStart = i
								break
							}
						}
						cyclePath := append(append([]string{}, path[cycleStart:]...), dep.Target.ID())
						result.Add(&CycleError{Path: cyclePath})
						return true
					}
				}
			}
		}

		path = path[:len(path)-1]
		color[id] = black
		return false
	}

	for _, res := range s.AllResources() {
		if color[res.ID()] == white {
			visit(res.ID())
		}
	}
}

// validateMiddlewareAndTagRegistration checks every middleware/tag
// reference names something actually present in the registry
// (§4.2.3).
func validateMiddlewareAndTagRegistration(s *Store, result *ValidationResult) {
	checkRefs := func(owner string, refs []MiddlewareRef) {
		for _, ref := range refs {
			if ref.Middleware == nil {
				continue
			}
			if _, ok := s.Lookup(ref.Middleware.ID()); !ok {
				result.Add(&UnknownIdError{ID: ref.Middleware.ID(), Context: fmt.Sprintf("middleware used by %q", owner)})
			}
		}
	}
	checkTags := func(owner string, tags []TagRef) {
		for _, t := range tags {
			if t.Tag == nil {
				continue
			}
			if _, ok := s.Lookup(t.Tag.ID()); !ok {
				result.Add(&UnknownIdError{ID: t.Tag.ID(), Context: fmt.Sprintf("tag used by %q", owner)})
			}
		}
	}

	for _, d := range s.definitions {
		checkTags(d.ID(), d.Tags())
		switch def := d.(type) {
		case AnyTask:
			checkRefs(def.ID(), def.taskMiddlewareRefs())
		case AnyResource:
			checkRefs(def.ID(), def.resourceMiddlewareRefs())
		}
	}
}

// validateTagContracts visits every contract-bearing tag attached to a
// task (§4.2.4) but adds no errors: it compares nothing against the
// task's input/output types. Tag contracts are not enforced by the Go
// compiler either, since TagRef erases the tag's type parameters; they
// are available for introspection only.
func validateTagContracts(s *Store, result *ValidationResult) {
	for _, d := range s.definitions {
		task, ok := d.(AnyTask)
		if !ok {
			continue
		}
		for _, tagRef := range task.Tags() {
			contractTag, ok := tagRef.Tag.(interface {
				hasInputContract() bool
				hasOutputContract() bool
			})
			if !ok {
				continue
			}
			_ = contractTag // structural presence is all the kernel checks at runtime
		}
	}
}

// validateTunnelOwnership ensures each task is claimed by at most one
// tunnel resource (§4.2.5, invariant 3).
func validateTunnelOwnership(s *Store, result *ValidationResult) {
	_, claimants := tunnelClaims(s.AllResources())
	for taskID, tunnelIDs := range claimants {
		if len(tunnelIDs) > 1 {
			result.Add(&TunnelOwnershipConflictError{TaskID: taskID, TunnelIDs: tunnelIDs})
		}
	}
}
