// Package grow implements AGENTESE's Self.Grow Kernel: the
// recognize -> propose -> validate -> germinate -> promote/prune pipeline
// that lets a system extend its own lattice under a metered budget and a
// four-gate validation pipeline.
package grow

import (
	"github.com/agentese/logos/internal/budget"
)

// Operation names one step of the growth pipeline, each charged at its own
// rate against the GrowthBudget.
type Operation string

const (
	OpRecognize Operation = "recognize"
	OpPropose   Operation = "propose"
	OpValidate  Operation = "validate"
	OpGerminate Operation = "germinate"
	OpPromote   Operation = "promote"
	OpPrune     Operation = "prune"
)

// defaultOperationCosts mirrors the relative expense of each stage: pruning
// is cheap (reclaims resources), promotion is the most expensive because it
// touches the filesystem.
var defaultOperationCosts = map[Operation]float64{
	OpRecognize: 0.01,
	OpPropose:   0.05,
	OpValidate:  0.1,
	OpGerminate: 0.2,
	OpPromote:   0.5,
	OpPrune:     0.01,
}

// GrowthBudget is an entropy-variant budget with per-operation costs.
type GrowthBudget struct {
	entropy *budget.EntropyBudget
	costs   map[Operation]float64
}

// NewGrowthBudget constructs a budget seeded at initial, capped at max,
// regenerating at refillRate units/s, using the default per-operation cost
// table.
func NewGrowthBudget(initial, max, refillRate float64) *GrowthBudget {
	return &GrowthBudget{
		entropy: budget.NewEntropyBudget(initial, max, refillRate, nil),
		costs:   defaultOperationCosts,
	}
}

// Charge spends the cost declared for op, returning the remaining balance
// or a BudgetExhaustedError.
func (g *GrowthBudget) Charge(op Operation) (float64, error) {
	return g.entropy.Spend("self.grow", string(op), g.costs[op])
}

// Refund returns the cost declared for op to the budget, capped at its max.
func (g *GrowthBudget) Refund(op Operation) {
	g.entropy.Refund(g.costs[op])
}

// Balance returns the current balance.
func (g *GrowthBudget) Balance() float64 { return g.entropy.Balance() }
