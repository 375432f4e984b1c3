package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncContext_ProvideAndUse(t *testing.T) {
	requestID := NewAsyncContext[string]("app.requestID")

	var observed string
	var found bool
	err := requestID.Provide(context.Background(), "req-42", func(ctx context.Context) error {
		observed, found = requestID.Use(ctx)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "req-42", observed)
}

func TestAsyncContext_UseWithoutProvideReturnsFalse(t *testing.T) {
	requestID := NewAsyncContext[string]("app.requestID")
	_, found := requestID.Use(context.Background())
	assert.False(t, found)
}

func TestAsyncContext_DistinctDefsDoNotCollideOnSharedId(t *testing.T) {
	a := NewAsyncContext[string]("shared")
	b := NewAsyncContext[int]("shared")

	ctx := context.Background()
	_ = a.Provide(ctx, "str-value", func(ctx context.Context) error {
		_, ok := b.Use(ctx)
		assert.False(t, ok, "distinct AsyncContextDef instances must not collide despite sharing an id string")
		return nil
	})
}

func TestAsyncContext_RequireFailsFastWithoutProvide(t *testing.T) {
	requestID := NewAsyncContext[string]("app.requestID")
	requireMw := requestID.Require()

	task := NewTask[struct{}, struct{}]("task", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		return struct{}{}, nil
	}, WithTaskMiddleware[struct{}, struct{}](requireMw.With(struct{}{})))

	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("task", task)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "task", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.requestID")
}

func TestAsyncContext_RequireSucceedsWhenProvided(t *testing.T) {
	requestID := NewAsyncContext[string]("app.requestID2")
	requireMw := requestID.Require()

	task := NewTask[struct{}, struct{}]("task", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		return struct{}{}, nil
	}, WithTaskMiddleware[struct{}, struct{}](requireMw.With(struct{}{})))

	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("task", task)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	var runErr error
	err = requestID.Provide(context.Background(), "req-1", func(ctx context.Context) error {
		_, runErr = rt.RunTask(ctx, "task", struct{}{})
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, runErr)
}
