package path

import (
	"testing"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullPathWithClausesAndAnnotationsRoundTrips(t *testing.T) {
	p, err := ParseDefault("world.garden:manifest?entropy=0.3@law_check=on")
	require.NoError(t, err)

	assert.Equal(t, ContextWorld, p.Context)
	assert.Equal(t, []string{"garden"}, p.Segments)
	assert.Equal(t, "manifest", p.Aspect)
	assert.Equal(t, "0.3", p.Clauses["entropy"])
	assert.Equal(t, "on", p.Annotations["law_check"])
	assert.Equal(t, "world.garden:manifest?entropy=0.3@law_check=on", p.FullPath())
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"world.garden.manifest",
		"self.memory.engram",
		"world.garden.plot.bed:water?entropy=0.5",
		"concept.fruit",
	}
	for _, in := range inputs {
		p, err := ParseDefault(in)
		require.NoError(t, err, in)
		p2, err := ParseDefault(p.FullPath())
		require.NoError(t, err, in)
		assert.Equal(t, p, p2, "round trip mismatch for %s", in)
	}
}

func TestParse_UnknownContext(t *testing.T) {
	_, err := ParseDefault("kingdom.garden.manifest")
	require.Error(t, err)
	var syn *agenteseerr.PathSyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestParse_EmptySegment(t *testing.T) {
	_, err := ParseDefault("world..manifest")
	require.Error(t, err)
}

func TestParse_DuplicateClauseStrictRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	_, err := Parse("world.garden.manifest?entropy=0.1?entropy=0.2", cfg)
	require.Error(t, err)
	var clauseErr *agenteseerr.ClauseSyntaxError
	require.ErrorAs(t, err, &clauseErr)
}

func TestParse_DuplicateClauseLenientLastWins(t *testing.T) {
	p, err := ParseDefault("world.garden.manifest?entropy=0.1?entropy=0.2")
	require.NoError(t, err)
	assert.Equal(t, "0.2", p.Clauses["entropy"])
}

func TestParse_EntropyValidation(t *testing.T) {
	_, err := ParseDefault("world.garden.manifest?entropy=-1")
	require.Error(t, err)

	_, err = ParseDefault("world.garden.manifest?entropy=not-a-number")
	require.Error(t, err)
}

func TestParse_BaseNodeHandlePaths(t *testing.T) {
	p, err := ParseDefault("world.garden.plot:water?entropy=0.1")
	require.NoError(t, err)
	assert.Equal(t, "world.garden", p.NodePath())
	assert.Equal(t, "world.garden.plot", p.BasePath())
	assert.Equal(t, "world.garden.plot", p.Handle())
}

func TestParseSignifier_Continue(t *testing.T) {
	sig, ok := ParseSignifier("some output\n⟿[bloom,season=summer]")
	require.True(t, ok)
	assert.Equal(t, InducerContinue, sig.Inducer)
	assert.Equal(t, "bloom", sig.Target)
	assert.Equal(t, "summer", sig.Payload["season"])
	assert.Equal(t, "⟿[bloom,season=summer]", sig.Emit())
}

func TestParseSignifier_Halt(t *testing.T) {
	sig, ok := ParseSignifier("output\n⟂[bloom:frost risk]")
	require.True(t, ok)
	assert.Equal(t, InducerHalt, sig.Inducer)
	assert.Equal(t, "bloom", sig.Target)
	assert.Equal(t, "frost risk", sig.Payload["reason"])
}

func TestParseSignifier_None(t *testing.T) {
	_, ok := ParseSignifier("plain output, no marker")
	assert.False(t, ok)
}
