package runner

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/m1gwings/treedrawer/tree"
)

// Runtime is the object returned to callers after Run resolves (§4.8):
// runTask, emitEvent, getResourceValue, getResourceConfig, logger,
// store, dispose.
type Runtime struct {
	store      *Store
	middleware *middlewareManager
	events     *eventManager
	logger     *Logger
	cfg        *runConfig

	tunnelOwner map[string]string

	mu         sync.Mutex
	disposed   bool
	disposeOnce sync.Once

	signalCh chan os.Signal
}

// Run builds, validates, boots and returns a Runtime from root (§2
// Composition, §4.8). On any boot failure, already-initialized resources
// are disposed before the error is returned.
func Run(ctx context.Context, root AnyResource, rootConfig any, opts ...RunOption) (*Runtime, error) {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	store, err := buildStore(root, rootConfig)
	if err != nil {
		return nil, reportRunError(cfg, KindRun, "", err)
	}

	logger := NewLogger(LogOptions{
		PrintThreshold: cfg.printThreshold,
		PrintStrategy:  cfg.printStrategy,
		BufferLogs:     cfg.bufferLogs,
	})

	if instrumentRes, flags := buildDebugResource(cfg); instrumentRes != nil {
		if err := store.register(instrumentRes); err != nil {
			return nil, reportRunError(cfg, KindRun, "", err)
		}
		store.resourceNodes = append(store.resourceNodes, &resourceNode{resource: instrumentRes, config: instrumentRes.defaultConfig(), depth: 0})

		if err := store.register(instrumentationHook(flags, logger)); err != nil {
			return nil, reportRunError(cfg, KindRun, "", err)
		}
	}

	if result := validate(store); result.HasErrors() {
		return nil, reportRunError(cfg, KindRun, "", result)
	}

	owner, _ := tunnelClaims(store.AllResources())

	rt := &Runtime{
		store:       store,
		logger:      logger,
		cfg:         cfg,
		tunnelOwner: owner,
	}
	rt.middleware = newMiddlewareManager(store)
	rt.events = newEventManager(store, map[string]bool{
		"runner.ready": false,
	})

	if cfg.dryRun {
		store.Lock()
		return rt, nil
	}

	if err := rt.bootResources(ctx); err != nil {
		_ = rt.disposeResources(ctx)
		return nil, reportRunError(cfg, KindRun, "", err)
	}

	store.Lock()

	if cfg.shutdownHooks {
		rt.installShutdownHooks()
	}

	if cfg.debugLevel != DebugOff && resolveDebugFlags(cfg).Graph {
		logger.Debug("resource.graph", map[string]any{"tree": rt.ResourceTree()})
	}

	logger.Flush()

	if _, err := rt.EmitEventByDef(ctx, Ready, ReadyPayload{}, ""); err != nil {
		return rt, reportRunError(cfg, KindRun, "", err)
	}

	return rt, nil
}

func reportRunError(cfg *runConfig, kind UnhandledErrorKind, source string, err error) error {
	if cfg.onUnhandled != nil && cfg.errorBoundary {
		cfg.onUnhandled(UnhandledErrorInfo{Error: err, Kind: kind, Source: source})
	}
	return err
}

// RunTaskWithJournal mirrors RunTask but lets a caller forward an explicit
// journal into a nested call (§4.6 "forwarded explicitly into nested
// task calls").
func (rt *Runtime) RunTaskWithJournal(ctx context.Context, id string, input any, journal *Journal) (any, error) {
	def, ok := rt.store.Lookup(id)
	if !ok {
		return nil, &UnknownTaskError{ID: id}
	}
	task, ok := def.(AnyTask)
	if !ok {
		return nil, &UnknownTaskError{ID: id}
	}
	return rt.RunTaskByDef(ctx, task, input, journal)
}

// EmitEvent dispatches the event registered under id (façade proxy to
// the Event Manager, §4.8).
func (rt *Runtime) EmitEvent(ctx context.Context, id string, data any, opts ...EmitOption) (*EmissionReport, error) {
	def, ok := rt.store.Lookup(id)
	if !ok {
		return nil, &UnknownIdError{ID: id, Context: "emitEvent"}
	}
	evt, ok := def.(AnyEvent)
	if !ok {
		return nil, &UnknownIdError{ID: id, Context: "emitEvent: not an event"}
	}
	return rt.emit(ctx, evt, data, "", opts...)
}

// EmitEventByDef is EmitEvent taking an already-resolved event
// reference and an explicit source id (used internally by bound
// emitter functions, §depsresolve.go).
func (rt *Runtime) EmitEventByDef(ctx context.Context, evt AnyEvent, data any, source string, opts ...EmitOption) (*EmissionReport, error) {
	options := defaultEmitOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return rt.events.emit(ctx, evt, data, source, options, func(h AnyHook) Deps {
		return rt.resolveDeps(h.deps())
	}, rt.cfg.eventCycleDetection)
}

func (rt *Runtime) emit(ctx context.Context, evt AnyEvent, data any, source string, opts ...EmitOption) (*EmissionReport, error) {
	return rt.EmitEventByDef(ctx, evt, data, source, opts...)
}

// GetResourceValue reads the initialized value of the resource
// registered under id. err is *UnknownIdError if the id is not a
// registered resource, or a plain error if it has not been initialized
// (e.g. dryRun).
func (rt *Runtime) GetResourceValue(id string) (any, error) {
	def, ok := rt.store.Lookup(id)
	if !ok {
		return nil, &UnknownIdError{ID: id, Context: "getResourceValue"}
	}
	if _, ok := def.(AnyResource); !ok {
		return nil, &UnknownIdError{ID: id, Context: "getResourceValue: not a resource"}
	}
	rec, ok := rt.store.ResourceRecordOf(id)
	if !ok {
		return nil, fmt.Errorf("runner: resource %q has not been initialized", id)
	}
	return rec.Value, nil
}

// GetResourceConfig reads the resolved config of the resource
// registered under id.
func (rt *Runtime) GetResourceConfig(id string) (any, error) {
	rec, ok := rt.store.ResourceRecordOf(id)
	if !ok {
		return nil, fmt.Errorf("runner: resource %q has not been initialized", id)
	}
	return rec.Config, nil
}

// Logger returns the runtime's structured logger.
func (rt *Runtime) Logger() *Logger { return rt.logger }

// Store returns a read-only projection for introspection (§4.8).
func (rt *Runtime) Store() *Store { return rt.store }

// Dispose triggers the orchestrator's dispose phase; idempotent (§4.8,
// §4.3 Dispose contract).
func (rt *Runtime) Dispose(ctx context.Context) error {
	var err error
	rt.disposeOnce.Do(func() {
		err = rt.disposeResources(ctx)
		rt.mu.Lock()
		rt.disposed = true
		rt.mu.Unlock()
		if rt.signalCh != nil {
			signal.Stop(rt.signalCh)
		}
	})
	return err
}

func (rt *Runtime) installShutdownHooks() {
	rt.signalCh = make(chan os.Signal, 1)
	signal.Notify(rt.signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if _, ok := <-rt.signalCh; ok {
			_ = rt.Dispose(context.Background())
		}
	}()
}

// ResourceTree renders the resource dependency DAG with treedrawer
// (§12.2), skipping anything carrying SystemTag, the way the teacher's
// extensions/graph_debug.go renders its reactive graph. Exported so
// onUnhandledError handlers (extensions.GraphDebugHandler) and debug
// tooling can attach it to error reports.
func (rt *Runtime) ResourceTree() string {
	dag := buildResourceDAG(rt.store)
	roots := rootResources(rt.store, dag)
	if len(roots) == 0 {
		return "(empty)"
	}

	out := ""
	for _, rootID := range roots {
		t := tree.NewTree(tree.NodeString(rootID))
		attachChildren(t, rootID, dag, rt.store, map[string]bool{rootID: true})
		out += t.String() + "\n"
	}
	return out
}

func rootResources(s *Store, dag map[string][]string) []string {
	hasParent := map[string]bool{}
	for _, edges := range dag {
		for _, e := range edges {
			hasParent[e] = true
		}
	}
	var roots []string
	for _, res := range s.AllResources() {
		if SystemTag.Exists(res) {
			continue
		}
		if !hasParent[res.ID()] {
			roots = append(roots, res.ID())
		}
	}
	return roots
}

func attachChildren(node *tree.Tree, id string, dag map[string][]string, s *Store, visited map[string]bool) {
	for _, childID := range dag[id] {
		if visited[childID] {
			continue
		}
		visited[childID] = true
		def, ok := s.Lookup(childID)
		if ok {
			if res, isRes := def.(AnyResource); isRes && SystemTag.Exists(res) {
				continue
			}
		}
		child := node.AddChild(tree.NodeString(childID))
		attachChildren(child, childID, dag, s, visited)
	}
}
