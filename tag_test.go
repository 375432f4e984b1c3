package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateLimit struct{ PerSecond int }

func TestTag_WithAndExtract(t *testing.T) {
	rateLimitTag := NewTag[rateLimit, any, any]("app.rateLimit")

	limited := NewTask[string, string]("limited", func(ctx context.Context, in string, deps Deps) (string, error) {
		return in, nil
	}, WithTaskTags[string, string](rateLimitTag.With(rateLimit{PerSecond: 5})))

	unlimited := NewTask[string, string]("unlimited", func(ctx context.Context, in string, deps Deps) (string, error) {
		return in, nil
	})

	assert.True(t, rateLimitTag.Exists(limited))
	assert.False(t, rateLimitTag.Exists(unlimited))

	cfg, ok := rateLimitTag.Extract(limited)
	require.True(t, ok)
	assert.Equal(t, 5, cfg.PerSecond)

	_, ok = rateLimitTag.Extract(unlimited)
	assert.False(t, ok)
}

func TestTag_ExtractFromTags(t *testing.T) {
	rateLimitTag := NewTag[rateLimit, any, any]("app.rateLimit")
	tags := []TagRef{rateLimitTag.With(rateLimit{PerSecond: 10})}

	cfg, ok := rateLimitTag.ExtractFromTags(tags)
	require.True(t, ok)
	assert.Equal(t, 10, cfg.PerSecond)
}

func TestTag_DistinctTagsDoNotCollide(t *testing.T) {
	tagA := NewTag[rateLimit, any, any]("app.a")
	tagB := NewTag[rateLimit, any, any]("app.b")

	task := NewTask[string, string]("task", func(ctx context.Context, in string, deps Deps) (string, error) {
		return in, nil
	}, WithTaskTags[string, string](tagA.With(rateLimit{PerSecond: 1})))

	assert.True(t, tagA.Exists(task))
	assert.False(t, tagB.Exists(task))
}

func TestTag_ContractTypeIntrospection(t *testing.T) {
	contractual := NewTag[struct{}, string, int]("app.contractual")
	plain := NewTag[struct{}, any, any]("app.plain")

	assert.True(t, contractual.hasInputContract())
	assert.True(t, contractual.hasOutputContract())
	assert.False(t, plain.hasInputContract())
	assert.False(t, plain.hasOutputContract())
}

func TestMetaValue_SetAndGet(t *testing.T) {
	task := NewTask[string, string]("task", func(ctx context.Context, in string, deps Deps) (string, error) {
		return in, nil
	})
	SetMeta(task, "owner", "platform-team")

	value, err := MetaValue[string](task, "owner")
	require.NoError(t, err)
	assert.Equal(t, "platform-team", value)
}
