package budget

import (
	"fmt"
	"sort"
	"sync"
)

// SinkingFund is the reserve accumulated from the 1% settlement tax.
// It grants emergency loans up to the current reserve.
type SinkingFund struct {
	mu      sync.Mutex
	reserve float64
}

// NewSinkingFund returns an empty fund.
func NewSinkingFund() *SinkingFund {
	return &SinkingFund{}
}

// Contribute adds tax revenue to the reserve.
func (f *SinkingFund) Contribute(amount float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserve += amount
}

// Reserve returns the current reserve balance.
func (f *SinkingFund) Reserve() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reserve
}

// EmergencyLoan grants up to `amount` (capped at the reserve) to account,
// placing the account into debt mode until repaid.
func (f *SinkingFund) EmergencyLoan(account *Account, amount float64) (float64, error) {
	f.mu.Lock()
	if f.reserve <= 0 {
		f.mu.Unlock()
		return 0, fmt.Errorf("sinking fund: reserve exhausted")
	}
	granted := amount
	if granted > f.reserve {
		granted = f.reserve
	}
	f.reserve -= granted
	f.mu.Unlock()

	account.Credit(granted)
	account.EnterDebtMode()
	return granted, nil
}

// ── Vickrey Auction ───────────────────────────────────────────

// Bid is one agent's bid for a shared resource.
type Bid struct {
	AgentID string
	Amount  float64
}

// AuctionResult names the winner and the price they actually pay
// (the runner-up's bid, per Vickrey second-price rules).
type AuctionResult struct {
	Winner string
	Price  float64
}

// RunVickreyAuction sorts bids descending (ties broken by lexicographically
// smallest agent id) and awards the resource to the top bidder at the
// second-highest price.
func RunVickreyAuction(bids []Bid) (AuctionResult, bool) {
	if len(bids) == 0 {
		return AuctionResult{}, false
	}
	sorted := append([]Bid(nil), bids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		return sorted[i].AgentID < sorted[j].AgentID
	})
	if len(sorted) == 1 {
		return AuctionResult{Winner: sorted[0].AgentID, Price: sorted[0].Amount}, true
	}
	return AuctionResult{Winner: sorted[0].AgentID, Price: sorted[1].Amount}, true
}
