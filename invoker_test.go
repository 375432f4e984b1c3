package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluelibs/runner-go/pkg/schema"
)

func TestRunTask_ReturnsHandlerResult(t *testing.T) {
	double := NewTask[int, int]("double", func(ctx context.Context, in int, deps Deps) (int, error) {
		return in * 2, nil
	})
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("double", double)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	result, err := rt.RunTask(context.Background(), "double", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestRunTask_UnknownIdFails(t *testing.T) {
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
	)
	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "no.such.task", nil)
	require.Error(t, err)
	var unknown *UnknownTaskError
	assert.ErrorAs(t, err, &unknown)
}

func TestRunTask_RecoversPanicAsError(t *testing.T) {
	boom := NewTask[struct{}, struct{}]("boom", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		panic("kaboom")
	})
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("boom", boom)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "boom", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRunTask_ContextCancellationUnblocksCaller(t *testing.T) {
	slow := NewTask[struct{}, struct{}]("slow", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		<-ctx.Done()
		return struct{}{}, nil
	})
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("slow", slow)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = rt.RunTask(ctx, "slow", struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunTask_PhantomWithoutTunnelOwnerReturnsNil(t *testing.T) {
	orphan := NewTask[struct{}, string]("orphan.phantom", nil, Phantom[struct{}, string]())
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("orphan", orphan)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	result, err := rt.RunTask(context.Background(), "orphan.phantom", struct{}{})
	require.NoError(t, err)
	assert.Nil(t, result)
}

type fakeTunnel struct{ calls int }

func (f *fakeTunnel) RunTunneledTask(ctx context.Context, taskID string, input any) (any, error) {
	f.calls++
	return "delegated:" + taskID, nil
}

func TestRunTask_PhantomDelegatesToClaimingTunnel(t *testing.T) {
	claimed := NewTask[string, string]("claimed.task", nil, Phantom[string, string]())
	tunnel := NewResource[struct{}, *fakeTunnel]("tunnel",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (*fakeTunnel, error) { return &fakeTunnel{}, nil },
		WithResourceTags[struct{}, *fakeTunnel](TunnelTag.With(TunnelConfig{Tasks: []AnyTask{claimed}})),
	)
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("claimed", claimed), Dep("tunnel", tunnel)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	result, err := rt.RunTask(context.Background(), "claimed.task", "hi")
	require.NoError(t, err)
	assert.Equal(t, "delegated:claimed.task", result)
}

func TestRunTask_InputSchemaRejectsInvalidInput(t *testing.T) {
	strict := NewTask[string, string]("strict", func(ctx context.Context, in string, deps Deps) (string, error) {
		return in, nil
	}, WithTaskSchemas[string, string](
		schema.Of[string](&schema.StringSchema{MinLength: 3}),
		schema.Any[string](),
	))
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("strict", strict)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "strict", "ab")
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "input", verr.Boundary)
}

func TestRunTaskWithJournal_ReusesInvocationIDAcrossNestedCalls(t *testing.T) {
	var outerID, innerID string

	inner := NewTask[struct{}, struct{}]("inner", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		if j, ok := JournalFromContext(ctx); ok {
			innerID, _ = GetKey(j, InvocationIDKey)
		}
		return struct{}{}, nil
	})
	outer := NewTask[struct{}, struct{}]("outer", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		j, ok := JournalFromContext(ctx)
		require.True(t, ok)
		outerID, _ = GetKey(j, InvocationIDKey)
		runInner := MustDepValue[func(context.Context, any) (any, error)](deps, "inner")
		_, err := runInner(ctx, struct{}{})
		return struct{}{}, err
	}, WithTaskDeps[struct{}, struct{}](Dep("inner", inner)))

	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("outer", outer), Dep("inner", inner)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "outer", struct{}{})
	require.NoError(t, err)

	assert.NotEmpty(t, outerID)
	assert.Equal(t, outerID, innerID, "a nested runTask call sharing the journal must log under the same invocation id")
}

func TestRunTask_PropagatesHandlerError(t *testing.T) {
	failing := errors.New("handler failed")
	task := NewTask[struct{}, struct{}]("failing", func(ctx context.Context, in struct{}, deps Deps) (struct{}, error) {
		return struct{}{}, failing
	})
	root := NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps Deps, _ any) (string, error) { return "root", nil },
		WithResourceDeps[struct{}, string](Dep("failing", task)),
	)

	rt, err := Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	_, err = rt.RunTask(context.Background(), "failing", struct{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, failing)
}
