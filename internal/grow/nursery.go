package grow

import (
	"fmt"
	"sync"

	"github.com/agentese/logos/internal/specgraph"
)

// Nursery retains germinating candidates, tracking usage/success toward
// promotion.
type Nursery struct {
	mu             sync.Mutex
	candidates     map[string]*Candidate
	usageThreshold int
	successSigma   float64
	promoter       *specgraph.Promoter
}

// NewNursery constructs a Nursery requiring usageThreshold invocations at
// or above successThreshold success rate before PromoteOrPrune will
// promote, delegating actual file writes to a specgraph Promoter.
func NewNursery(specRoot, implRoot string, usageThreshold int, successThreshold float64) *Nursery {
	return &Nursery{
		candidates:     make(map[string]*Candidate),
		usageThreshold: usageThreshold,
		successSigma:   successThreshold,
		promoter:       specgraph.NewPromoter(specRoot, implRoot, usageThreshold, successThreshold),
	}
}

// Admit adds a candidate that has passed all four validation gates.
func (n *Nursery) Admit(c *Candidate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.candidates[c.Name] = c
}

// Existing returns every admitted candidate, used by the duplication gate
// to compare a new proposal against what's already germinating.
func (n *Nursery) Existing() []*Candidate {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Candidate, 0, len(n.candidates))
	for _, c := range n.candidates {
		out = append(out, c)
	}
	return out
}

// RecordInvocation tallies usage/success for a germinating candidate and
// mirrors it into the underlying promoter's own tracking.
func (n *Nursery) RecordInvocation(name string, succeeded bool) error {
	n.mu.Lock()
	c, ok := n.candidates[name]
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("grow: %q is not in the nursery", name)
	}
	c.Usage++
	if succeeded {
		c.Successes++
	}
	n.promoter.RecordInvocation(name, succeeded)
	return nil
}

// PromoteOrPrune either promotes a candidate that has crossed the
// usage/success threshold (writing spec+impl and returning a rollback
// token) or prunes it from the nursery once it has reached the usage
// threshold below the success rate (promoted=false, no token, no error).
// A candidate that meets neither condition stays in the nursery and an
// error is returned.
func (n *Nursery) PromoteOrPrune(name, specText, implText string) (token *specgraph.RollbackToken, promoted bool, err error) {
	n.mu.Lock()
	c, ok := n.candidates[name]
	n.mu.Unlock()
	if !ok {
		return nil, false, fmt.Errorf("grow: %q is not in the nursery", name)
	}

	if n.promoter.Eligible(name) {
		token, err := n.promoter.Promote(name, specText, implText)
		if err != nil {
			return nil, false, err
		}
		n.mu.Lock()
		delete(n.candidates, name)
		n.mu.Unlock()
		return token, true, nil
	}

	if c.Usage >= n.usageThreshold && c.SuccessRate() < n.successSigma {
		n.mu.Lock()
		delete(n.candidates, name)
		n.mu.Unlock()
		return nil, false, nil
	}

	return nil, false, fmt.Errorf("grow: %q has not yet crossed the promotion or prune threshold", name)
}
