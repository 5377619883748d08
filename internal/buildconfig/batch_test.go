package buildconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAll(t *testing.T) {
	roots := []string{newProject(t), newProject(t), newProject(t)}

	requests := make([]Request, 0, len(roots))
	for _, root := range roots {
		requests = append(requests, Request{Raw: indexConfig(), ProjectRoot: root})
	}

	configs, err := NewResolver(nil).ResolveAll(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, configs, len(roots))

	for i, cfg := range configs {
		assert.Equal(t, roots[i], cfg.ProjectRoot)
		assert.Equal(t, []string{"index"}, cfg.PageNames())
	}
}

func TestResolveAll_Error(t *testing.T) {
	good := newProject(t)
	bad := t.TempDir()

	requests := []Request{
		{Name: "good", Raw: indexConfig(), ProjectRoot: good},
		{Name: "bad", Raw: indexConfig(), ProjectRoot: bad},
	}

	_, err := NewResolver(nil).ResolveAll(context.Background(), requests)
	require.ErrorIs(t, err, ErrInvalidPath)
	assert.Contains(t, err.Error(), "bad")
}

func TestResolveAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(nil).ResolveAll(ctx, []Request{{Raw: indexConfig(), ProjectRoot: newProject(t)}})
	require.ErrorIs(t, err, context.Canceled)
}
