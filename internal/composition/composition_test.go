package composition

import (
	"context"
	"testing"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoLift(path string, transform func(any) any) Morphism {
	return Lift(path, func(ctx context.Context, obs any, input any) (any, error) {
		return transform(input), nil
	})
}

func TestIdentityLaw(t *testing.T) {
	f := echoLift("world.document.manifest", func(v any) any {
		return map[string]any{"doc": v}
	})
	v := NewVerifier()
	err := v.CheckIdentities(context.Background(), nil, f, "hello")
	require.NoError(t, err)
}

func TestAssociativityLaw(t *testing.T) {
	f := echoLift("a", func(v any) any { return v.(int) + 1 })
	g := echoLift("b", func(v any) any { return v.(int) * 2 })
	h := echoLift("c", func(v any) any { return v.(int) - 3 })

	v := NewVerifier()
	err := v.CheckAssociativity(context.Background(), nil, f, g, h, 10)
	require.NoError(t, err)
}

func TestComposedPath_EnforceOutputRejectsHeterogeneousArray(t *testing.T) {
	docManifest := Stage{Path: "world.document.manifest", Morphism: echoLift("world.document.manifest", func(v any) any {
		return map[string]any{"text": v}
	})}
	summaryRefine := Stage{Path: "concept.summary.refine", Morphism: echoLift("concept.summary.refine", func(v any) any {
		return []string{"a", "b", "c"} // heterogeneous array violates minimal output
	})}
	engram := Stage{Path: "self.memory.engram", Morphism: echoLift("self.memory.engram", func(v any) any {
		return v
	})}

	pipeline := NewComposedPath([]Stage{docManifest, summaryRefine, engram}, true, false)
	_, err := pipeline.Invoke(context.Background(), nil, "a document")
	require.Error(t, err)

	var violation *agenteseerr.CompositionViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, 2, violation.Stage)
}

func TestComposedPath_SucceedsWithoutViolation(t *testing.T) {
	stages := []Stage{
		{Path: "a", Morphism: echoLift("a", func(v any) any { return map[string]any{"x": v} })},
		{Path: "b", Morphism: echoLift("b", func(v any) any { return v })},
	}
	pipeline := NewComposedPath(stages, true, false)
	out, err := pipeline.Invoke(context.Background(), nil, "doc")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": "doc"}, out)
}

func TestIsMinimalOutput(t *testing.T) {
	assert.True(t, IsMinimalOutput(42))
	assert.True(t, IsMinimalOutput(map[string]any{"a": 1}))
	assert.True(t, IsMinimalOutput([]string{"only-one"}))
	assert.False(t, IsMinimalOutput([]string{"a", "b"}))
}
