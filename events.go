package runner

import (
	"context"
	"fmt"
	"sort"
)

// FailureMode controls how an Event Manager emission reacts to a hook
// error (§4.4.3).
type FailureMode string

const (
	FailFast  FailureMode = "fail-fast"
	Aggregate FailureMode = "aggregate"
)

// EmitOptions configures a single emitEvent call. Delivery mode
// (sequential vs parallel) is not among them: it is a property of the
// Event itself (§4.4 "Parallel (event flag)"), set via
// WithEventParallel at registration.
type EmitOptions struct {
	FailureMode   FailureMode
	ThrowOnError  bool
	Report        bool
	ReturnPayload bool
}

// defaultEmitOptions matches the spec's stated defaults: fail-fast,
// throw on error, no report, no returned payload.
func defaultEmitOptions() EmitOptions {
	return EmitOptions{FailureMode: FailFast, ThrowOnError: true}
}

// EmitOption mutates EmitOptions.
type EmitOption func(*EmitOptions)

func WithFailureMode(mode FailureMode) EmitOption { return func(o *EmitOptions) { o.FailureMode = mode } }
func WithThrowOnError(v bool) EmitOption          { return func(o *EmitOptions) { o.ThrowOnError = v } }
func WithReport(v bool) EmitOption                { return func(o *EmitOptions) { o.Report = v } }

// WithReturnPayload requests the "emit with returned payload" contract
// (§4.4.6): the manager folds the last non-nil value any hook proposed
// via EventCtx.SetResult into EmissionReport.Result. Rejected with an
// *EventProtocolConflictError on a parallel event (invariant #6).
func WithReturnPayload(v bool) EmitOption { return func(o *EmitOptions) { o.ReturnPayload = v } }

// EmissionReport describes the outcome of one emission (§4.4.5). It is
// returned by every emission, whatever the value of EmitOptions.Report.
type EmissionReport struct {
	EventID         string
	TotalListeners  int
	FailedListeners int
	Errors          []error
	Outcome         string // "ok", "stopped", "failed"
	// Result carries the folded "returned payload" value when the
	// emission was made with WithReturnPayload; nil if no hook proposed
	// one or the option was not requested.
	Result any
}

type hookBinding struct {
	hook  AnyHook
	order int
}

// eventManager holds hook subscriptions and dispatches emissions
// (§4.4). Subscriptions and emission/hook interceptors are frozen once
// the Store locks (§5 Lock discipline).
type eventManager struct {
	store *Store

	subscriptions map[string][]hookBinding
	wildcard      []hookBinding

	emitInterceptors []func(next func() (*EmissionReport, error), eventID string) (*EmissionReport, error)
	hookInterceptors []func(next func() error, hookID string, eventID string) error

	excludeFromWildcard map[string]bool

	chain []string // runtime cycle-detection call chain
}

func newEventManager(store *Store, excludeFromWildcard map[string]bool) *eventManager {
	em := &eventManager{
		store:               store,
		subscriptions:        map[string][]hookBinding{},
		excludeFromWildcard: excludeFromWildcard,
	}
	for _, def := range store.AllDefinitions(KindHook) {
		hook, ok := def.(AnyHook)
		if !ok {
			continue
		}
		binding := hookBinding{hook: hook, order: hook.order()}
		if hook.targetEventID() == wildcardEventID {
			em.wildcard = append(em.wildcard, binding)
		} else {
			em.subscriptions[hook.targetEventID()] = append(em.subscriptions[hook.targetEventID()], binding)
		}
	}
	if em.excludeFromWildcard == nil {
		em.excludeFromWildcard = map[string]bool{}
	}
	for _, def := range store.AllDefinitions(KindEvent) {
		if ExcludeFromWildcardTag.Exists(def) {
			em.excludeFromWildcard[def.ID()] = true
		}
	}
	for id := range em.subscriptions {
		sortBindings(em.subscriptions[id])
	}
	sortBindings(em.wildcard)
	return em
}

func sortBindings(bindings []hookBinding) {
	sort.SliceStable(bindings, func(i, j int) bool { return bindings[i].order < bindings[j].order })
}

// InterceptEmit registers an emission interceptor, outermost = first
// registered.
func (em *eventManager) InterceptEmit(interceptor func(next func() (*EmissionReport, error), eventID string) (*EmissionReport, error)) error {
	if em.store.Locked() {
		return &ValidationError{Boundary: "emitInterceptor", DefID: "*", Cause: errLocked}
	}
	em.emitInterceptors = append(em.emitInterceptors, interceptor)
	return nil
}

// InterceptHook registers a per-hook-invocation interceptor.
func (em *eventManager) InterceptHook(interceptor func(next func() error, hookID string, eventID string) error) error {
	if em.store.Locked() {
		return &ValidationError{Boundary: "hookInterceptor", DefID: "*", Cause: errLocked}
	}
	em.hookInterceptors = append(em.hookInterceptors, interceptor)
	return nil
}

// emit dispatches payload through every hook subscribed to eventID (plus
// the wildcard bucket, unless excluded), honoring sequential/parallel
// delivery, fail-fast/aggregate failure mode, propagation stop and
// runtime cycle detection.
func (em *eventManager) emit(ctx context.Context, evt AnyEvent, data any, source string, opts EmitOptions, resolveHookDeps func(AnyHook) Deps, cycleDetection bool) (*EmissionReport, error) {
	eventID := evt.ID()

	if evt.isParallel() && opts.ReturnPayload {
		return nil, &EventProtocolConflictError{EventID: eventID}
	}

	if cycleDetection {
		for _, id := range em.chain {
			if id == eventID {
				path := append(append([]string{}, em.chain...), eventID)
				return nil, &EventCycleError{Path: path}
			}
		}
		em.chain = append(em.chain, eventID)
		defer func() { em.chain = em.chain[:len(em.chain)-1] }()
	}

	terminal := func() (*EmissionReport, error) {
		return em.dispatch(ctx, evt, data, source, opts, resolveHookDeps)
	}

	run := terminal
	for i := len(em.emitInterceptors) - 1; i >= 0; i-- {
		interceptor := em.emitInterceptors[i]
		current := run
		run = func() (*EmissionReport, error) { return interceptor(current, eventID) }
	}

	report, err := run()
	if err != nil && opts.ThrowOnError {
		return report, err
	}
	if report != nil && report.FailedListeners > 0 && opts.ThrowOnError && opts.FailureMode == Aggregate {
		return report, fmt.Errorf("runner: %d/%d hooks failed for event %q", report.FailedListeners, report.TotalListeners, eventID)
	}
	return report, nil
}

func (em *eventManager) dispatch(ctx context.Context, evt AnyEvent, data any, source string, opts EmitOptions, resolveHookDeps func(AnyHook) Deps) (*EmissionReport, error) {
	eventID := evt.ID()
	payload := evt.newPayloadHolder()
	payload.data = data
	payload.source = source

	bindings := append([]hookBinding{}, em.subscriptions[eventID]...)
	if !em.excludeFromWildcard[eventID] {
		bindings = append(bindings, em.wildcard...)
		sortBindings(bindings)
	}

	report := &EmissionReport{EventID: eventID, TotalListeners: len(bindings), Outcome: "ok"}

	runOne := func(b hookBinding) error {
		invoke := func() error {
			return b.hook.invoke(ctx, payload, resolveHookDeps(b.hook))
		}
		wrapped := invoke
		for i := len(em.hookInterceptors) - 1; i >= 0; i-- {
			interceptor := em.hookInterceptors[i]
			current := wrapped
			wrapped = func() error { return interceptor(current, b.hook.ID(), eventID) }
		}
		return wrapped()
	}

	if evt.isParallel() {
		i := 0
		for i < len(bindings) {
			j := i
			order := bindings[i].order
			for j < len(bindings) && bindings[j].order == order {
				j++
			}
			batch := bindings[i:j]

			type result struct {
				err error
			}
			results := make([]result, len(batch))
			done := make(chan int, len(batch))
			for idx, b := range batch {
				go func(idx int, b hookBinding) {
					results[idx] = result{err: runOne(b)}
					done <- idx
				}(idx, b)
			}
			for range batch {
				<-done
			}
			for _, r := range results {
				if r.err != nil {
					report.FailedListeners++
					report.Errors = append(report.Errors, r.err)
					if opts.FailureMode == FailFast {
						report.Outcome = "failed"
						return report, r.err
					}
				}
			}
			i = j
			if payload.IsPropagationStopped() {
				report.Outcome = "stopped"
				break
			}
		}
		return report, nil
	}

	for _, b := range bindings {
		if payload.IsPropagationStopped() {
			report.Outcome = "stopped"
			break
		}
		if err := runOne(b); err != nil {
			report.FailedListeners++
			report.Errors = append(report.Errors, err)
			if opts.FailureMode == FailFast {
				report.Outcome = "failed"
				if opts.ReturnPayload {
					report.Result = payload.result
				}
				return report, err
			}
		}
	}

	if opts.ReturnPayload {
		report.Result = payload.result
	}
	return report, nil
}
