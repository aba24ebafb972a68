package grow

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentese/logos/internal/composition"
)

// GateResult is a single validation gate's verdict.
type GateResult struct {
	Gate   string
	Passed bool
	Reason string
}

// Gate is one of the four ordered validation stages.
type Gate interface {
	Name() string
	Check(ctx context.Context, candidate *Candidate, existing []*Candidate) GateResult
}

// CategoryLawsGate verifies that left and right identity hold for the
// candidate's proposed morphism, using the composition package's Verifier
// against a representative input. Associativity is not checked: the gate
// holds a single morphism and composes it only with Id.
type CategoryLawsGate struct {
	Morphism composition.Morphism
	Sample   any
}

func (g CategoryLawsGate) Name() string { return "category_laws" }

func (g CategoryLawsGate) Check(ctx context.Context, candidate *Candidate, _ []*Candidate) GateResult {
	if g.Morphism == nil {
		return GateResult{Gate: g.Name(), Passed: false, Reason: "no morphism supplied to verify"}
	}
	v := composition.NewVerifier()
	if err := v.CheckIdentities(ctx, nil, g.Morphism, g.Sample); err != nil {
		return GateResult{Gate: g.Name(), Passed: false, Reason: err.Error()}
	}
	return GateResult{Gate: g.Name(), Passed: true}
}

// abuseSignals are substrings whose presence in a candidate's source flags
// it for the abuse gate: manipulation, exfiltration, escalation, resource
// risk.
var abuseSignals = []string{
	"os.Exit", "exec.Command", "syscall.Exec",
	"os.Getenv(\"AWS_", "os.Getenv(\"AGENTESE_", // credential exfiltration via env
	"archetype = \"admin\"", // self-escalation
}

// AbuseGate rejects candidates whose source text contains known
// manipulation/exfiltration/escalation/resource-risk signals.
type AbuseGate struct{}

func (AbuseGate) Name() string { return "abuse" }

func (AbuseGate) Check(_ context.Context, candidate *Candidate, _ []*Candidate) GateResult {
	for _, sig := range abuseSignals {
		if strings.Contains(candidate.Source, sig) {
			return GateResult{Gate: "abuse", Passed: false, Reason: fmt.Sprintf("matched abuse signal %q", sig)}
		}
	}
	return GateResult{Gate: "abuse", Passed: true}
}

// DuplicationGate rejects a candidate whose name matches an existing
// candidate's, or whose affordance-set Jaccard similarity against an
// existing candidate is at or above Threshold.
type DuplicationGate struct {
	Threshold float64
}

func (DuplicationGate) Name() string { return "duplication" }

func (d DuplicationGate) Check(_ context.Context, candidate *Candidate, existing []*Candidate) GateResult {
	threshold := d.Threshold
	if threshold == 0 {
		threshold = 0.8
	}
	for _, other := range existing {
		if other.Name == candidate.Name {
			return GateResult{Gate: "duplication", Passed: false, Reason: fmt.Sprintf("name collides with existing candidate %q", other.Name)}
		}
		if sim := JaccardSimilarity(candidate.Affordances, other.Affordances); sim >= threshold {
			return GateResult{Gate: "duplication", Passed: false, Reason: fmt.Sprintf("affordance overlap with %q is %.2f >= %.2f", other.Name, sim, threshold)}
		}
	}
	return GateResult{Gate: "duplication", Passed: true}
}

// Principle names one of the seven fitness dimensions.
type Principle string

const (
	PrincipleTasteful     Principle = "tasteful"
	PrincipleCurated      Principle = "curated"
	PrincipleEthical      Principle = "ethical"
	PrincipleJoy          Principle = "joy"
	PrincipleComposable   Principle = "composable"
	PrincipleHeterarchical Principle = "heterarchical"
	PrincipleGenerative   Principle = "generative"
)

// AllPrinciples lists the seven fitness dimensions in a stable order.
var AllPrinciples = []Principle{
	PrincipleTasteful, PrincipleCurated, PrincipleEthical, PrincipleJoy,
	PrincipleComposable, PrincipleHeterarchical, PrincipleGenerative,
}

// Scorer produces a 0..1 fitness score for one principle against a
// candidate. Real deployments back this with an LLM-judged rubric or a
// curator model; tests supply deterministic stubs.
type Scorer func(candidate *Candidate, principle Principle) float64

// FitnessGate requires at least 5 of the 7 principles to score >= 0.7, and
// all 7 to score >= 0.4.
type FitnessGate struct {
	Score Scorer
}

func (FitnessGate) Name() string { return "fitness" }

func (f FitnessGate) Check(_ context.Context, candidate *Candidate, _ []*Candidate) GateResult {
	highCount := 0
	for _, p := range AllPrinciples {
		score := f.Score(candidate, p)
		if score < 0.4 {
			return GateResult{Gate: "fitness", Passed: false, Reason: fmt.Sprintf("%s scored %.2f, below the 0.4 floor", p, score)}
		}
		if score >= 0.7 {
			highCount++
		}
	}
	if highCount < 5 {
		return GateResult{Gate: "fitness", Passed: false, Reason: fmt.Sprintf("only %d/7 principles scored >= 0.7, need at least 5", highCount)}
	}
	return GateResult{Gate: "fitness", Passed: true}
}
