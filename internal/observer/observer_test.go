package observer

import (
	"context"
	"testing"

	"github.com/agentese/logos/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchetypeRegistry_TransitiveAffordances(t *testing.T) {
	r := NewArchetypeRegistry()
	affs := r.Affordances("admin")
	assert.Contains(t, affs, "promote")
	assert.Contains(t, affs, "budget_inspect")
	assert.Contains(t, affs, "compose")
	assert.Contains(t, affs, "inspect")
}

func TestAffordances_GuestExcludedFromRestrictedAspect(t *testing.T) {
	archRegistry := NewArchetypeRegistry()
	aspects := []registry.Aspect{
		{Name: "manifest", RequiresArchetype: []string{"architect"}},
	}
	guest := Guest()
	got := Affordances(aspects, archRegistry, guest)
	assert.Empty(t, got)
	assert.False(t, HasAffordance(aspects, archRegistry, guest, "manifest"))
}

func TestAffordances_RequiredCapability(t *testing.T) {
	archRegistry := NewArchetypeRegistry()
	aspects := []registry.Aspect{
		{Name: "rollback", RequiredCapability: "admin:rollback"},
	}
	withCap := Observer{Archetype: "guest", Capabilities: map[string]bool{"admin:rollback": true}}
	withoutCap := Guest()

	assert.True(t, HasAffordance(aspects, archRegistry, withCap, "rollback"))
	assert.False(t, HasAffordance(aspects, archRegistry, withoutCap, "rollback"))
}

func TestAffordances_OrderPreserved(t *testing.T) {
	archRegistry := NewArchetypeRegistry()
	aspects := []registry.Aspect{{Name: "c"}, {Name: "a"}, {Name: "b"}}
	got := Affordances(aspects, archRegistry, Guest())
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestComposeAgent_Identity(t *testing.T) {
	noop := Agent(identityAgent{})
	f := AspectAgent{Name: "f", aspect: registry.Aspect{
		Name: "echo",
		Handler: func(ctx context.Context, archetype string, kwargs map[string]any) (any, error) {
			return kwargs, nil
		},
	}}
	archRegistry := NewArchetypeRegistry()
	f.allAspects = []registry.Aspect{f.aspect}
	f.archRegistry = archRegistry

	left := Compose(Identity, f)
	right := Compose(f, noop)

	in := map[string]any{"x": 1}
	out1, err := left.Invoke(context.Background(), Guest(), in)
	require.NoError(t, err)
	out2, err := right.Invoke(context.Background(), Guest(), in)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestRenderForObserver_UnknownArchetypeFallsBackToBasic(t *testing.T) {
	r := RenderForObserver("world", "mystery-archetype", 42)
	_, isBasic := r.(BasicRendering)
	assert.True(t, isBasic)
}
