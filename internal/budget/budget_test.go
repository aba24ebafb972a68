package budget

import (
	"testing"
	"time"

	"github.com/agentese/logos/internal/agenteseerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEntropyBudget_ExhaustsThenRecoversOnRefill drives a budget of
// {initial: 1.0, refill: 0.1} past exhaustion with two 0.6 spends, then
// checks it recovers after waiting long enough for refill.
func TestEntropyBudget_ExhaustsThenRecoversOnRefill(t *testing.T) {
	clock := time.Now()
	now := func() time.Time { return clock }

	b := NewEntropyBudget(1.0, 1.0, 0.1, now)

	_, err := b.Spend("self.entropy.pool", "spend", 0.6)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, b.Balance(), 1e-9)

	_, err = b.Spend("self.entropy.pool", "spend", 0.6)
	require.Error(t, err)
	var exhausted *agenteseerr.BudgetExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 0.6, exhausted.Requested)

	clock = clock.Add(2 * time.Second) // +0.2 regenerated
	bal, err := b.Spend("self.entropy.pool", "spend", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, bal, 1e-9)
}

func TestEntropyBudget_RefundCapsAtMax(t *testing.T) {
	b := NewEntropyBudget(0.9, 1.0, 0, nil)
	b.Refund(0.5)
	assert.InDelta(t, 1.0, b.Balance(), 1e-9)
}

func TestAccount_AuthorizeSettleVoid(t *testing.T) {
	a := NewAccount("acct-1", 10, 0, 10)
	fund := NewSinkingFund()

	lease, err := a.Authorize(4)
	require.NoError(t, err)
	assert.InDelta(t, 6, a.Balance(), 1e-9)

	result := a.Settle(lease, 2, fund)
	assert.InDelta(t, 2, result.Actual, 1e-9)
	assert.InDelta(t, 2, result.Refunded, 1e-9)
	assert.InDelta(t, 0.02, result.Tax, 1e-9)
	assert.InDelta(t, 8, a.Balance(), 1e-9) // 6 + 2 refunded
	assert.InDelta(t, 0.02, fund.Reserve(), 1e-9)

	lease2, err := a.Authorize(3)
	require.NoError(t, err)
	a.Void(lease2)
	assert.InDelta(t, 8, a.Balance(), 1e-9)
}

func TestAccount_AuthorizeInsufficientBalance(t *testing.T) {
	a := NewAccount("acct-2", 1, 0, 10)
	_, err := a.Authorize(5)
	require.Error(t, err)
}

func TestSinkingFund_EmergencyLoan(t *testing.T) {
	fund := NewSinkingFund()
	fund.Contribute(5)

	a := NewAccount("acct-3", 0, 0, 100)
	granted, err := fund.EmergencyLoan(a, 3)
	require.NoError(t, err)
	assert.InDelta(t, 3, granted, 1e-9)
	assert.True(t, a.InDebtMode())
	assert.InDelta(t, 3, a.Balance(), 1e-9)
	assert.InDelta(t, 2, fund.Reserve(), 1e-9)

	a.Repay()
	assert.False(t, a.InDebtMode())
}

func TestSinkingFund_EmergencyLoanCapsAtReserve(t *testing.T) {
	fund := NewSinkingFund()
	fund.Contribute(1)
	a := NewAccount("acct-4", 0, 0, 100)
	granted, err := fund.EmergencyLoan(a, 10)
	require.NoError(t, err)
	assert.InDelta(t, 1, granted, 1e-9)
}

func TestSinkingFund_EmergencyLoanExhaustedReserve(t *testing.T) {
	fund := NewSinkingFund()
	a := NewAccount("acct-5", 0, 0, 100)
	_, err := fund.EmergencyLoan(a, 1)
	require.Error(t, err)
}

func TestRunVickreyAuction_SecondPriceWins(t *testing.T) {
	bids := []Bid{
		{AgentID: "b", Amount: 10},
		{AgentID: "a", Amount: 15},
		{AgentID: "c", Amount: 7},
	}
	result, ok := RunVickreyAuction(bids)
	require.True(t, ok)
	assert.Equal(t, "a", result.Winner)
	assert.InDelta(t, 10, result.Price, 1e-9)
}

func TestRunVickreyAuction_TieBrokenLexicographically(t *testing.T) {
	bids := []Bid{
		{AgentID: "zebra", Amount: 5},
		{AgentID: "alpha", Amount: 5},
	}
	result, ok := RunVickreyAuction(bids)
	require.True(t, ok)
	assert.Equal(t, "alpha", result.Winner)
	assert.InDelta(t, 5, result.Price, 1e-9)
}

func TestRunVickreyAuction_SingleBidder(t *testing.T) {
	result, ok := RunVickreyAuction([]Bid{{AgentID: "only", Amount: 9}})
	require.True(t, ok)
	assert.Equal(t, "only", result.Winner)
	assert.InDelta(t, 9, result.Price, 1e-9)
}

func TestRunVickreyAuction_Empty(t *testing.T) {
	_, ok := RunVickreyAuction(nil)
	assert.False(t, ok)
}

func TestImpact_Tiers(t *testing.T) {
	assert.InDelta(t, 10, Impact(TierSyntactic), 1e-9)
	assert.InDelta(t, 100, Impact(TierFunctional), 1e-9)
	assert.InDelta(t, 1000, Impact(TierDeployment), 1e-9)
}

func TestImpact_Modifiers(t *testing.T) {
	score := Impact(TierFunctional, Modifier{Name: "ethical", Multiplier: 1.2}, Modifier{Name: "sin_security", Multiplier: 0.33})
	assert.InDelta(t, 100*1.2*0.33, score, 1e-9)
}

func TestModifierByName(t *testing.T) {
	m, ok := ModifierByName("virtue_readability")
	require.True(t, ok)
	assert.InDelta(t, 1.3, m, 1e-9)

	_, ok = ModifierByName("nonexistent")
	assert.False(t, ok)
}

func TestClassifyRatio(t *testing.T) {
	assert.Equal(t, BandBankruptcyWarning, ClassifyRatio(0.2))
	assert.Equal(t, BandBreakEven, ClassifyRatio(0.75))
	assert.Equal(t, BandProfitable, ClassifyRatio(1.5))
	assert.Equal(t, BandHighYield, ClassifyRatio(3))
}

func TestRoCAndRoVI(t *testing.T) {
	assert.InDelta(t, 2, RoC(100, 50), 1e-9)
	assert.InDelta(t, 0, RoC(100, 0), 1e-9)
	assert.InDelta(t, 4, RoVI(200, 50), 1e-9)
}

func TestComplexityOracle_RepetitiveDataScoresHigh(t *testing.T) {
	o := NewComplexityOracle()
	repetitive := make([]byte, 200)
	score := o.Estimate(repetitive, nil)
	assert.Greater(t, score, 0.5)
}

func TestComplexityOracle_ValidatorBonusCapped(t *testing.T) {
	o := NewComplexityOracle()
	payload := []byte("irregular payload with some structure 12345")
	always := func([]byte) bool { return true }
	score := o.Estimate(payload, []func([]byte) bool{always, always, always, always, always, always, always, always, always, always})
	base := o.Estimate(payload, nil)
	assert.InDelta(t, base+2.0, score, 1e-9)
}

func TestComplexityOracle_Empty(t *testing.T) {
	o := NewComplexityOracle()
	assert.Equal(t, 0.0, o.Estimate(nil, nil))
}

func TestMetabolicEngine_FeverFiresOnceOnCrossing(t *testing.T) {
	engine := NewMetabolicEngine(1.0, 0.5, 10)
	var events []FeverEvent
	engine.OnFever(func(e FeverEvent) { events = append(events, e) })

	for i := 0; i < 9; i++ {
		engine.Tithe(1)
	}
	assert.Empty(t, events)

	engine.Tithe(6) // each Tithe(1) nets +0.5 after cooling: 4.5 + 6 crosses 10
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Count)

	state := engine.State()
	assert.Equal(t, uint64(15), state.TokensIngested)
}

func TestMetabolicEngine_CoolsWhenUnderThreshold(t *testing.T) {
	engine := NewMetabolicEngine(0.1, 0.05, 100)
	engine.Tithe(1)
	first := engine.State().Temperature
	engine.Tithe(0)
	second := engine.State().Temperature
	assert.Less(t, second, first)
}
