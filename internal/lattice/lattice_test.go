package lattice

import (
	"context"
	"testing"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDefine(t *testing.T, l *Lattice, handle string, parents []string, affordances, constraints map[string]struct{}) *Concept {
	t.Helper()
	result, err := l.Define(context.Background(), handle, parents, nil, affordances, constraints)
	require.NoError(t, err)
	return result.Concept
}

func setOf(items ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, i := range items {
		s[i] = struct{}{}
	}
	return s
}

func TestDefine_RootConceptHasDepthZero(t *testing.T) {
	l := New(nil)
	c := mustDefine(t, l, "concept.fruit", nil, setOf("ripen"), setOf("edible"))
	assert.Equal(t, 0, c.Depth)
}

func TestDefine_DepthIsOnePlusMaxParentDepth(t *testing.T) {
	l := New(nil)
	mustDefine(t, l, "concept.fruit", nil, setOf("ripen"), setOf("edible"))
	child := mustDefine(t, l, "concept.fig", []string{"concept.fruit"}, setOf("ripen"), setOf("edible"))
	assert.Equal(t, 1, child.Depth)
}

func TestDefine_RejectsMissingParent(t *testing.T) {
	l := New(nil)
	_, err := l.Define(context.Background(), "concept.fig", []string{"concept.ghost"}, nil, setOf("ripen"), setOf("edible"))
	require.Error(t, err)
	var lineageErr *agenteseerr.LineageError
	assert.ErrorAs(t, err, &lineageErr)
}

func TestDefine_RejectsEmptyAffordanceIntersection(t *testing.T) {
	l := New(nil)
	mustDefine(t, l, "concept.fruit", nil, setOf("ripen"), setOf("edible"))
	mustDefine(t, l, "concept.mineral", nil, setOf("crystallize"), setOf("edible"))
	_, err := l.Define(context.Background(), "concept.hybrid", []string{"concept.fruit", "concept.mineral"}, nil, nil, nil)
	require.Error(t, err)
	var latticeErr *agenteseerr.LatticeError
	assert.ErrorAs(t, err, &latticeErr)
}

func TestDefine_RejectsEmptyConstraintIntersection(t *testing.T) {
	l := New(nil)
	mustDefine(t, l, "concept.fruit", nil, setOf("ripen"), setOf("edible"))
	mustDefine(t, l, "concept.tool", nil, setOf("ripen"), setOf("inert"))
	_, err := l.Define(context.Background(), "concept.hybrid", []string{"concept.fruit", "concept.tool"}, nil, nil, nil)
	require.Error(t, err)
}

// TestLattice_RedefiningParentIntoCycleIsRejected defines concept.fig
// extending concept.fruit, then later redefines concept.fruit to extend
// concept.fig, which must be rejected with the cycle path.
func TestLattice_RedefiningParentIntoCycleIsRejected(t *testing.T) {
	l := New(nil)
	mustDefine(t, l, "concept.fruit", nil, setOf("ripen"), setOf("edible"))
	mustDefine(t, l, "concept.fig", []string{"concept.fruit"}, setOf("ripen"), setOf("edible"))

	_, err := l.Define(context.Background(), "concept.fruit", []string{"concept.fig"}, nil, setOf("ripen"), setOf("edible"))
	require.Error(t, err)

	var latticeErr *agenteseerr.LatticeError
	require.ErrorAs(t, err, &latticeErr)
	assert.Equal(t, []string{"concept.fruit", "concept.fig", "concept.fruit"}, latticeErr.CyclePath)
}
