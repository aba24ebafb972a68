package budget

import (
	"sync"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/google/uuid"
)

// SinkingFundTaxRate is the fraction of every settled transaction taxed
// into the Sinking Fund reserve.
const SinkingFundTaxRate = 0.01

// Lease is a held authorization against an Account's balance, returned by
// Authorize and consumed by exactly one of Settle or Void.
type Lease struct {
	ID        string
	AccountID string
	Amount    float64
}

// Account is a leaky-bucket token account: `{balance, refill_rate, max}`
// with hydraulic refill at Refresh(now).
type Account struct {
	mu         sync.Mutex
	id         string
	balance    float64
	refillRate float64
	max        float64
	debtMode   bool
}

// NewAccount constructs an account with the given id and starting balance.
func NewAccount(id string, balance, refillRate, max float64) *Account {
	return &Account{id: id, balance: balance, refillRate: refillRate, max: max}
}

func (a *Account) ID() string { return a.id }

// Refresh applies refillRate * elapsedSeconds to the balance, capped at max.
func (a *Account) Refresh(elapsedSeconds float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance += elapsedSeconds * a.refillRate
	if a.balance > a.max {
		a.balance = a.max
	}
}

// Balance returns the current balance.
func (a *Account) Balance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// InDebtMode reports whether the account is under an outstanding emergency loan.
func (a *Account) InDebtMode() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.debtMode
}

// Authorize atomically checks-and-holds `estimate` from the account,
// returning a Lease. The held amount is deducted from the balance here;
// Settle returns the part the actual cost did not use and Void returns all
// of it, so the caller's own work runs between Authorize and Settle/Void.
func (a *Account) Authorize(estimate float64) (*Lease, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance < estimate {
		return nil, agenteseerr.NewBudgetExhaustedError("", "", estimate, a.balance)
	}
	a.balance -= estimate
	return &Lease{ID: uuid.NewString(), AccountID: a.id, Amount: estimate}, nil
}

// SettleResult reports what happened during settlement.
type SettleResult struct {
	Actual       float64
	Refunded     float64
	Tax          float64
}

// Settle deducts the actual cost from the held lease, returns any excess to
// the balance, and taxes 1% of the actual cost into fund.
func (a *Account) Settle(lease *Lease, actual float64, fund *SinkingFund) SettleResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	if actual > lease.Amount {
		actual = lease.Amount // never charge beyond the authorized lease
	}
	excess := lease.Amount - actual
	tax := actual * SinkingFundTaxRate
	net := actual - tax

	a.balance += excess // return unused authorization
	_ = net              // net is the amount that "stays spent"; balance already reflects the hold

	if fund != nil {
		fund.Contribute(tax)
	}

	return SettleResult{Actual: actual, Refunded: excess, Tax: tax}
}

// Void returns the entire lease amount to the balance, used on exception
// or cancellation where no work was actually settled.
func (a *Account) Void(lease *Lease) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance += lease.Amount
	if a.balance > a.max {
		a.balance = a.max
	}
}

// EnterDebtMode marks the account as carrying an emergency loan.
func (a *Account) EnterDebtMode() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.debtMode = true
}

// Repay clears debt mode once the loan is repaid in full.
func (a *Account) Repay() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.debtMode = false
}

// Credit adds funds directly to the account (used by SinkingFund.EmergencyLoan).
func (a *Account) Credit(amount float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance += amount
	if a.balance > a.max {
		a.balance = a.max
	}
}
