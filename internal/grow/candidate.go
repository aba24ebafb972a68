package grow

// Candidate is a proposed holon working its way through the growth
// pipeline: a name, the affordance set it would expose, and the source
// text of its proposed implementation.
type Candidate struct {
	Name        string
	Affordances map[string]struct{}
	Source      string

	Usage      int
	Successes  int
}

// SuccessRate returns Successes/Usage, or 0 if never invoked.
func (c *Candidate) SuccessRate() float64 {
	if c.Usage == 0 {
		return 0
	}
	return float64(c.Successes) / float64(c.Usage)
}

// JaccardSimilarity measures affordance-set overlap between two candidates,
// used by the duplication gate.
func JaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection, union := 0, 0
	seen := map[string]bool{}
	for k := range a {
		seen[k] = true
		union++
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	for k := range b {
		if !seen[k] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
