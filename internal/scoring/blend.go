package scoring

// DefaultMLWeight is the semantic signal's share of the blended score when
// a job does not configure its own.
const DefaultMLWeight = 0.6

// EffectiveMLWeight picks the job's ml weight when set, else the
// configured fallback, clamped to [0,1].
func EffectiveMLWeight(job, fallback float64) float64 {
	w := job
	if w <= 0 {
		w = fallback
	}
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// Blend combines the rule-adjusted score with an optional semantic score.
// An absent semantic score returns the rule-adjusted score unchanged; the
// rule-based path is always a self-sufficient fallback. Semantic values
// outside [0,100] are clamped before mixing.
func Blend(ruleAdjusted float64, semantic *float64, mlWeight float64) float64 {
	if semantic == nil {
		return ruleAdjusted
	}
	if mlWeight < 0 {
		mlWeight = 0
	}
	if mlWeight > 1 {
		mlWeight = 1
	}
	return Round2(ruleAdjusted*(1-mlWeight) + Clamp(*semantic)*mlWeight)
}
