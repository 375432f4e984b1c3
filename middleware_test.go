package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderingMiddleware(id string, trace *[]string) *Middleware[struct{}] {
	return NewTaskMiddleware[struct{}](id,
		func(next MiddlewareNext, ctx *MiddlewareCtx, deps Deps, cfg struct{}) (any, error) {
			*trace = append(*trace, id+":in")
			result, err := next(ctx.Input())
			*trace = append(*trace, id+":out")
			return result, err
		},
	)
}

func TestMiddleware_LocalChainRunsOnionStyle(t *testing.T) {
	var trace []string
	outer := orderingMiddleware("outer", &trace)
	inner := orderingMiddleware("inner", &trace)

	task := NewTask[struct{}, struct{}]("task", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		trace = append(trace, "handler")
		return struct{}{}, nil
	}, WithTaskMiddleware[struct{}, struct{}](outer.With(struct{}{}), inner.With(struct{}{})))

	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("task", task)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "task", struct{}{})
	require.NoError(t, err)

	assert.Equal(t, []string{"outer:in", "inner:in", "handler", "inner:out", "outer:out"}, trace)
}

func TestMiddleware_GlobalAppliesOnlyWhenReachableFromGraph(t *testing.T) {
	var trace []string
	global := NewTaskMiddleware[struct{}]("global",
		func(next MiddlewareNext, ctx *MiddlewareCtx, deps Deps, cfg struct{}) (any, error) {
			trace = append(trace, "global:in")
			result, err := next(ctx.Input())
			trace = append(trace, "global:out")
			return result, err
		},
		Everywhere[struct{}](nil),
	)

	task := NewTask[struct{}, struct{}]("task", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		trace = append(trace, "handler")
		return struct{}{}, nil
	})

	// global is never declared as a dependency anywhere in the graph, so
	// buildStore never discovers it and it cannot wrap anything.
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("task", task)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "task", struct{}{})
	require.NoError(t, err)

	assert.Equal(t, []string{"handler"}, trace, "unreachable global middleware must never run")
	_ = global
}

func TestMiddleware_GlobalWrapsOnceRegisteredViaGraph(t *testing.T) {
	var trace []string
	global := NewTaskMiddleware[struct{}]("global",
		func(next MiddlewareNext, ctx *MiddlewareCtx, deps Deps, cfg struct{}) (any, error) {
			trace = append(trace, "global:in")
			result, err := next(ctx.Input())
			trace = append(trace, "global:out")
			return result, err
		},
		Everywhere[struct{}](nil),
	)

	task := NewTask[struct{}, struct{}]("task", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		trace = append(trace, "handler")
		return struct{}{}, nil
	})

	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("task", task), Dep("global", global)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "task", struct{}{})
	require.NoError(t, err)

	assert.Equal(t, []string{"global:in", "handler", "global:out"}, trace)
}

func TestMiddleware_ConfigPassedThroughWith(t *testing.T) {
	type limitCfg struct{ Max int }
	var observed int

	limiter := NewTaskMiddleware[limitCfg]("limiter",
		func(next MiddlewareNext, ctx *MiddlewareCtx, deps Deps, cfg limitCfg) (any, error) {
			observed = cfg.Max
			return next(ctx.Input())
		},
	)

	task := NewTask[struct{}, struct{}]("task", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		return struct{}{}, nil
	}, WithTaskMiddleware[struct{}, struct{}](limiter.With(limitCfg{Max: 42})))

	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("task", task)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "task", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 42, observed)
}
