package grow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentese/logos/internal/composition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allGoodScorer(_ *Candidate, _ Principle) float64 { return 0.9 }

func TestJaccardSimilarity(t *testing.T) {
	a := map[string]struct{}{"manifest": {}, "refine": {}}
	b := map[string]struct{}{"manifest": {}}
	assert.InDelta(t, 0.5, JaccardSimilarity(a, b), 1e-9)
	assert.InDelta(t, 1, JaccardSimilarity(nil, nil), 1e-9)
}

func TestAbuseGate_RejectsKnownSignal(t *testing.T) {
	gate := AbuseGate{}
	candidate := &Candidate{Name: "world.escape", Source: "func run() { exec.Command(\"rm\", \"-rf\", \"/\") }"}
	result := gate.Check(context.Background(), candidate, nil)
	assert.False(t, result.Passed)
}

func TestAbuseGate_PassesCleanSource(t *testing.T) {
	gate := AbuseGate{}
	candidate := &Candidate{Name: "world.orchard", Source: "func manifest() {}"}
	result := gate.Check(context.Background(), candidate, nil)
	assert.True(t, result.Passed)
}

func TestDuplicationGate_RejectsHighOverlap(t *testing.T) {
	gate := DuplicationGate{Threshold: 0.5}
	existing := []*Candidate{{Name: "world.orchard", Affordances: map[string]struct{}{"manifest": {}, "refine": {}}}}
	candidate := &Candidate{Name: "world.orchard2", Affordances: map[string]struct{}{"manifest": {}}}
	result := gate.Check(context.Background(), candidate, existing)
	assert.False(t, result.Passed)
}

func TestDuplicationGate_RejectsNameCollision(t *testing.T) {
	gate := DuplicationGate{}
	existing := []*Candidate{{Name: "world.orchard"}}
	candidate := &Candidate{Name: "world.orchard"}
	result := gate.Check(context.Background(), candidate, existing)
	assert.False(t, result.Passed)
}

func TestFitnessGate_RequiresFiveAboveSevenAndAllAboveFour(t *testing.T) {
	scores := map[Principle]float64{
		PrincipleTasteful:      0.9,
		PrincipleCurated:       0.8,
		PrincipleEthical:       0.75,
		PrincipleJoy:           0.71,
		PrincipleComposable:    0.7,
		PrincipleHeterarchical: 0.5,
		PrincipleGenerative:    0.45,
	}
	gate := FitnessGate{Score: func(_ *Candidate, p Principle) float64 { return scores[p] }}
	result := gate.Check(context.Background(), &Candidate{Name: "world.orchard"}, nil)
	assert.True(t, result.Passed)
}

func TestFitnessGate_RejectsBelowFloor(t *testing.T) {
	gate := FitnessGate{Score: func(_ *Candidate, p Principle) float64 {
		if p == PrincipleGenerative {
			return 0.1
		}
		return 0.9
	}}
	result := gate.Check(context.Background(), &Candidate{Name: "world.orchard"}, nil)
	assert.False(t, result.Passed)
}

func TestFitnessGate_RejectsFewerThanFiveHighScores(t *testing.T) {
	gate := FitnessGate{Score: func(_ *Candidate, p Principle) float64 { return 0.5 }}
	result := gate.Check(context.Background(), &Candidate{Name: "world.orchard"}, nil)
	assert.False(t, result.Passed)
}

func TestKernel_FullPipelinePromotes(t *testing.T) {
	dir := t.TempDir()
	growthBudget := NewGrowthBudget(10, 10, 0)
	nursery := NewNursery(filepath.Join(dir, "spec"), filepath.Join(dir, "impl"), 2, 0.8)
	kernel := NewKernel(growthBudget, nursery, allGoodScorer)

	require.NoError(t, kernel.Recognize(context.Background()))

	candidate := &Candidate{Name: "world.orchard", Source: "func manifest() {}", Affordances: map[string]struct{}{"manifest": {}}}
	candidate, err := kernel.Propose(context.Background(), candidate)
	require.NoError(t, err)

	echo := composition.Lift("world.orchard", func(ctx context.Context, obs any, input any) (any, error) { return input, nil })
	require.NoError(t, kernel.Validate(context.Background(), Proposal{Candidate: candidate, Morphism: echo, Sample: "x"}))

	require.NoError(t, kernel.Germinate(context.Background(), candidate))

	require.NoError(t, nursery.RecordInvocation("world.orchard", true))
	require.NoError(t, nursery.RecordInvocation("world.orchard", true))

	token, promoted, err := kernel.PromoteOrPrune(context.Background(), "world.orchard", "spec text", "impl text")
	require.NoError(t, err)
	assert.True(t, promoted)
	assert.NotNil(t, token)
}

func TestKernel_PrunesLowSuccessRate(t *testing.T) {
	dir := t.TempDir()
	growthBudget := NewGrowthBudget(10, 10, 0)
	nursery := NewNursery(filepath.Join(dir, "spec"), filepath.Join(dir, "impl"), 2, 0.9)
	kernel := NewKernel(growthBudget, nursery, allGoodScorer)

	candidate := &Candidate{Name: "world.failure", Affordances: map[string]struct{}{"manifest": {}}}
	require.NoError(t, kernel.Germinate(context.Background(), candidate))

	require.NoError(t, nursery.RecordInvocation("world.failure", false))
	require.NoError(t, nursery.RecordInvocation("world.failure", false))

	_, promoted, err := kernel.PromoteOrPrune(context.Background(), "world.failure", "spec", "impl")
	require.NoError(t, err)
	assert.False(t, promoted)

	assert.Empty(t, nursery.Existing())
}

func TestKernel_ValidateRejectsAbusiveCandidate(t *testing.T) {
	dir := t.TempDir()
	growthBudget := NewGrowthBudget(10, 10, 0)
	nursery := NewNursery(filepath.Join(dir, "spec"), filepath.Join(dir, "impl"), 2, 0.8)
	kernel := NewKernel(growthBudget, nursery, allGoodScorer)

	candidate := &Candidate{Name: "world.escape", Source: "exec.Command(\"sh\")"}
	err := kernel.Validate(context.Background(), Proposal{Candidate: candidate})
	assert.Error(t, err)
}
