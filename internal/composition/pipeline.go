package composition

import (
	"context"

	"github.com/agentese/logos/internal/agenteseerr"
)

// Stage names a single morphism within a ComposedPath, for error reporting
// (CompositionViolationError.Stage is 1-indexed).
type Stage struct {
	Path      string
	Morphism  Morphism
}

// ComposedPath is the resolver-facing pipeline value produced by
// `compose(p1, p2, …)`. Unlike the raw Morphism algebra, it knows its
// own stage boundaries so it can enforce the Minimal Output Principle
// between stages and attribute violations to a stage index.
type ComposedPath struct {
	Stages        []Stage
	EnforceOutput bool
	EmitLawCheck  bool
	Verifier      *Verifier
}

// NewComposedPath builds a pipeline from an ordered stage list.
func NewComposedPath(stages []Stage, enforceOutput, emitLawCheck bool) *ComposedPath {
	return &ComposedPath{
		Stages:        stages,
		EnforceOutput: enforceOutput,
		EmitLawCheck:  emitLawCheck,
		Verifier:      NewVerifier(),
	}
}

// Invoke pipes initial through every stage in order. Between stages, if
// EnforceOutput is set, the intermediate result must satisfy
// IsMinimalOutput or the pipeline fails with CompositionViolationError
// naming the offending stage. If EmitLawCheck is set, identity checks run
// against the first stage's morphism and, when there are at least three
// stages, associativity runs against the first three stages' morphisms,
// all before the real pipeline executes (a lightweight on-path
// self-check, not a re-run of the full pipeline under law semantics).
func (c *ComposedPath) Invoke(ctx context.Context, obs any, initial any) (any, error) {
	if len(c.Stages) == 0 {
		return initial, nil
	}

	if c.EmitLawCheck {
		if err := c.Verifier.CheckIdentities(ctx, obs, c.Stages[0].Morphism, initial); err != nil {
			return nil, err
		}
		if len(c.Stages) >= 3 {
			f, g, h := c.Stages[0].Morphism, c.Stages[1].Morphism, c.Stages[2].Morphism
			if err := c.Verifier.CheckAssociativity(ctx, obs, f, g, h, initial); err != nil {
				return nil, err
			}
		}
	}

	current := initial
	for i, stage := range c.Stages {
		result, err := stage.Morphism.Apply(ctx, obs, current)
		if err != nil {
			return nil, err
		}
		if c.EnforceOutput && !IsMinimalOutput(result) {
			return nil, agenteseerr.NewCompositionViolationError(i+1, "non_minimal_output")
		}
		current = result
	}
	return current, nil
}

// AsMorphism flattens the pipeline into a single Morphism value (used when
// a ComposedPath itself needs to participate in an outer composition).
func (c *ComposedPath) AsMorphism() Morphism {
	m := Id
	for _, s := range c.Stages {
		m = Compose(m, s.Morphism)
	}
	return m
}

// Identity returns the identity morphism; Id >> p == p == p >> Id by
// construction.
func Identity() Morphism { return Id }
