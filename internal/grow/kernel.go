package grow

import (
	"context"
	"fmt"

	"github.com/agentese/logos/internal/composition"
	"github.com/agentese/logos/internal/specgraph"
)

// Proposal is what Propose hands to Validate: a named candidate plus
// whatever morphism/sample the category-laws gate should exercise.
type Proposal struct {
	Candidate *Candidate
	Morphism  composition.Morphism
	Sample    any
}

// Kernel runs the recognize -> propose -> validate -> germinate ->
// promote/prune pipeline, charging each step against a GrowthBudget.
type Kernel struct {
	Budget   *GrowthBudget
	Nursery  *Nursery
	Gates    []Gate
	Score    Scorer
	Duplication DuplicationGate
}

// NewKernel wires the abuse, duplication, and fitness gates in order;
// Validate prepends the category-laws gate when a proposal carries a
// morphism.
func NewKernel(growthBudget *GrowthBudget, nursery *Nursery, score Scorer) *Kernel {
	dup := DuplicationGate{Threshold: 0.8}
	return &Kernel{
		Budget:      growthBudget,
		Nursery:     nursery,
		Score:       score,
		Duplication: dup,
		Gates: []Gate{
			AbuseGate{},
			dup,
			FitnessGate{Score: score},
		},
	}
}

// Recognize charges the recognize cost; it is the kernel's acknowledgment
// that a growth opportunity exists, with no side effects of its own.
func (k *Kernel) Recognize(ctx context.Context) error {
	_, err := k.Budget.Charge(OpRecognize)
	return err
}

// Propose charges the propose cost and returns the candidate unchanged;
// real deployments would synthesize the candidate's source here (e.g. via
// a JIT compile step), which is why Propose takes and returns a *Candidate
// rather than constructing one itself.
func (k *Kernel) Propose(ctx context.Context, candidate *Candidate) (*Candidate, error) {
	if _, err := k.Budget.Charge(OpPropose); err != nil {
		return nil, err
	}
	return candidate, nil
}

// Validate charges the validate cost and runs every gate in order,
// including the category-laws gate if proposal.Morphism is set. The first
// failing gate's reason is returned as an error; validation runs through
// duplication using the candidates already admitted into the nursery.
func (k *Kernel) Validate(ctx context.Context, proposal Proposal) error {
	if _, err := k.Budget.Charge(OpValidate); err != nil {
		return err
	}

	gates := k.Gates
	if proposal.Morphism != nil {
		gates = append([]Gate{CategoryLawsGate{Morphism: proposal.Morphism, Sample: proposal.Sample}}, gates...)
	}

	existing := k.Nursery.Existing()
	for _, gate := range gates {
		result := gate.Check(ctx, proposal.Candidate, existing)
		if !result.Passed {
			return fmt.Errorf("grow: %s gate rejected %q: %s", result.Gate, proposal.Candidate.Name, result.Reason)
		}
	}
	return nil
}

// Germinate charges the germinate cost and admits the candidate into the
// nursery for usage/success tracking.
func (k *Kernel) Germinate(ctx context.Context, candidate *Candidate) error {
	if _, err := k.Budget.Charge(OpGerminate); err != nil {
		return err
	}
	k.Nursery.Admit(candidate)
	return nil
}

// PromoteOrPrune charges the promote or prune cost depending on outcome,
// delegating the decision itself to the Nursery. The rollback token is
// non-nil only when promoted is true.
func (k *Kernel) PromoteOrPrune(ctx context.Context, name, specText, implText string) (token *specgraph.RollbackToken, promoted bool, err error) {
	t, promoted, err := k.Nursery.PromoteOrPrune(name, specText, implText)
	if err != nil {
		return nil, false, err
	}
	if promoted {
		if _, chargeErr := k.Budget.Charge(OpPromote); chargeErr != nil {
			return nil, false, chargeErr
		}
		return t, true, nil
	}
	if _, chargeErr := k.Budget.Charge(OpPrune); chargeErr != nil {
		return nil, false, chargeErr
	}
	return nil, false, nil
}
