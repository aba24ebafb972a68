package budget

// ImpactTier names the three valuation tiers: a change that only touches
// syntax is worth less than one that changes behavior, which is worth
// less than one that reaches deployment.
type ImpactTier string

const (
	TierSyntactic  ImpactTier = "syntactic"
	TierFunctional ImpactTier = "functional"
	TierDeployment ImpactTier = "deployment"
)

// baseImpact is the tier's base point value before sin-tax/virtue-subsidy
// modifiers are applied.
var baseImpact = map[ImpactTier]float64{
	TierSyntactic:  10,
	TierFunctional: 100,
	TierDeployment: 1000,
}

// Modifier is a named multiplicative adjustment to an Impact score. Sins
// (e.g. "sin_security") push the multiplier below 1; virtues (e.g.
// "virtue_readability") push it above 1.
type Modifier struct {
	Name       string
	Multiplier float64
}

// commonModifiers is the standard sin-tax/virtue-subsidy table.
var commonModifiers = map[string]float64{
	"ethical":             1.2,
	"sin_security":        0.33,
	"sin_duplication":     0.5,
	"virtue_readability":  1.3,
	"virtue_testability":  1.25,
}

// ModifierByName looks up a named modifier's multiplier from the common
// table, returning (1.0, false) for unknown names so callers can decide
// whether to reject or silently no-op an unrecognized tag.
func ModifierByName(name string) (float64, bool) {
	m, ok := commonModifiers[name]
	if !ok {
		return 1.0, false
	}
	return m, true
}

// Impact computes a tier's point value under a set of named modifiers,
// applied multiplicatively in the order given.
func Impact(tier ImpactTier, modifiers ...Modifier) float64 {
	score := baseImpact[tier]
	for _, m := range modifiers {
		score *= m.Multiplier
	}
	return score
}

// RatioBand names the four RoC/RoVI thresholds.
type RatioBand string

const (
	BandBankruptcyWarning RatioBand = "bankruptcy_warning"
	BandBreakEven         RatioBand = "break_even"
	BandProfitable        RatioBand = "profitable"
	BandHighYield         RatioBand = "high_yield"
)

// ClassifyRatio buckets a Return on Complexity / Return on Value Invested
// ratio into one of the four named bands.
func ClassifyRatio(ratio float64) RatioBand {
	switch {
	case ratio < 0.5:
		return BandBankruptcyWarning
	case ratio < 1.0:
		return BandBreakEven
	case ratio < 2.0:
		return BandProfitable
	default:
		return BandHighYield
	}
}

// RoC divides impact by the cost it was produced at, returning 0 when that
// cost is 0. The resolver takes it per observer over ΣImpact/ΣGas for the
// roc band, and per invocation over the estimated result complexity for
// the roc span attribute.
func RoC(impact, complexity float64) float64 {
	if complexity == 0 {
		return 0
	}
	return impact / complexity
}

// RoVI is impact-per-unit-entropy-invested: the return on the budget spent
// to produce it.
func RoVI(impact, entropySpent float64) float64 {
	if entropySpent == 0 {
		return 0
	}
	return impact / entropySpent
}
