package extensions_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	runner "github.com/bluelibs/runner-go"
	"github.com/bluelibs/runner-go/extensions"
)

func TestGraphDebugHandler_LogsKindSourceAndTree(t *testing.T) {
	leaf := runner.NewResource[struct{}, string]("leaf",
		func(ctx context.Context, cfg struct{}, deps runner.Deps, _ any) (string, error) { return "leaf", nil },
	)
	root := runner.NewResource[struct{}, string]("root",
		func(ctx context.Context, cfg struct{}, deps runner.Deps, _ any) (string, error) { return "root", nil },
		runner.WithResourceDeps[struct{}, string](runner.Dep("leaf", leaf)),
	)

	rt, err := runner.Run(context.Background(), root, struct{}{})
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	var buf bytes.Buffer
	slogger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := extensions.GraphDebugHandler(rt, slogger)

	handler(runner.UnhandledErrorInfo{
		Kind:   runner.KindTaskError,
		Source: "some.task",
		Error:  assertErr("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, "unhandled runner error")
	assert.Contains(t, out, "some.task")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "leaf")
}
