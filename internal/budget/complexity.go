package budget

import (
	"bytes"
	"compress/flate"
)

// ComplexityOracle estimates a Kolmogorov-complexity proxy for arbitrary
// byte payloads using compression ratio, weighted by payload size and
// optionally boosted by independent validators.
type ComplexityOracle struct {
	// ValidatorBonus is added per passing validator, capped at MaxBonus.
	ValidatorBonus float64
	MaxBonus       float64
}

// NewComplexityOracle returns an oracle using the default +0.25-per-validator,
// capped-at-2.0 scheme.
func NewComplexityOracle() *ComplexityOracle {
	return &ComplexityOracle{ValidatorBonus: 0.25, MaxBonus: 2.0}
}

// Estimate scores payload's complexity as (1 - compressed/original), scaled
// by min(1, len(payload)/100) so short payloads can't claim high complexity
// purely from compression overhead, then adds ValidatorBonus for each
// validator that returns true, the total bonus capped at MaxBonus.
func (o *ComplexityOracle) Estimate(payload []byte, validators []func([]byte) bool) float64 {
	if len(payload) == 0 {
		return 0
	}

	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.BestCompression)
	_, _ = w.Write(payload)
	_ = w.Close()

	ratio := 1.0 - float64(buf.Len())/float64(len(payload))
	if ratio < 0 {
		ratio = 0
	}

	sizeWeight := float64(len(payload)) / 100
	if sizeWeight > 1 {
		sizeWeight = 1
	}

	score := ratio * sizeWeight

	bonus := 0.0
	for _, v := range validators {
		if v(payload) {
			bonus += o.ValidatorBonus
		}
	}
	if bonus > o.MaxBonus {
		bonus = o.MaxBonus
	}

	return score + bonus
}
