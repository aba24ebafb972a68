package container

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_SingletonCachedOnce(t *testing.T) {
	c := New()
	var builds int32
	err := c.Register(context.Background(), "svc", func(ctx context.Context, resolve func(context.Context, string) (any, error)) (any, error) {
		atomic.AddInt32(&builds, 1)
		return "instance", nil
	}, true, true)
	require.NoError(t, err)

	v1, err := c.Resolve(context.Background(), "svc")
	require.NoError(t, err)
	v2, err := c.Resolve(context.Background(), "svc")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.EqualValues(t, 1, builds)
}

func TestResolve_MissingDependency(t *testing.T) {
	c := New()
	_, err := c.Resolve(context.Background(), "nope")
	require.Error(t, err)
	var dep *agenteseerr.DependencyNotFoundError
	require.ErrorAs(t, err, &dep)
}

func TestResolve_Cycle(t *testing.T) {
	c := New()
	_ = c.Register(context.Background(), "a", func(ctx context.Context, resolve func(context.Context, string) (any, error)) (any, error) {
		return resolve(ctx, "b")
	}, true, true)
	_ = c.Register(context.Background(), "b", func(ctx context.Context, resolve func(context.Context, string) (any, error)) (any, error) {
		return resolve(ctx, "a")
	}, true, true)

	_, err := c.Resolve(context.Background(), "a")
	require.Error(t, err)
}

func TestClearCache(t *testing.T) {
	c := New()
	var builds int32
	_ = c.Register(context.Background(), "svc", func(ctx context.Context, resolve func(context.Context, string) (any, error)) (any, error) {
		atomic.AddInt32(&builds, 1)
		return builds, nil
	}, true, true)

	_, _ = c.Resolve(context.Background(), "svc")
	c.ClearCache()
	_, _ = c.Resolve(context.Background(), "svc")

	assert.EqualValues(t, 2, builds)
}
