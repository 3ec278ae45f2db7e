// Package feedback derives the per-candidate score multiplier from
// accumulated reviewer feedback and applies it to blended scores.
package feedback

import (
	"math"

	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/scoring"
)

// Standard fold parameters. Operators can tune these through config.
const (
	DefaultPositiveStep = 0.05
	DefaultNegativeStep = 0.10
	DefaultCeiling      = 1.5
	DefaultFloor        = 0.5
)

// Params tunes the multiplier fold. Zero fields fall back to the standard
// values.
type Params struct {
	PositiveStep float64 `json:"positive_step"`
	NegativeStep float64 `json:"negative_step"`
	Ceiling      float64 `json:"ceiling"`
	Floor        float64 `json:"floor"`
}

// DefaultParams returns the standard fold parameters.
func DefaultParams() Params {
	return Params{
		PositiveStep: DefaultPositiveStep,
		NegativeStep: DefaultNegativeStep,
		Ceiling:      DefaultCeiling,
		Floor:        DefaultFloor,
	}
}

func (p Params) normalized() Params {
	d := DefaultParams()
	if p.PositiveStep > 0 {
		d.PositiveStep = p.PositiveStep
	}
	if p.NegativeStep > 0 {
		d.NegativeStep = p.NegativeStep
	}
	if p.Ceiling > 0 {
		d.Ceiling = p.Ceiling
	}
	if p.Floor > 0 {
		d.Floor = p.Floor
	}
	return d
}

// Multiplier folds all of a candidate's feedback rows into one score
// multiplier. The fold counts rows rather than replaying them, so any
// permutation of the same set yields the same value: positives accumulate
// and cap at the ceiling, then negatives subtract down to the floor,
// rounded to 2 decimals. Toggle and replace semantics for resubmissions
// live at the store layer; every row passed here counts.
func Multiplier(rows []model.MatchFeedback, p Params) float64 {
	p = p.normalized()

	var pos, neg int
	for _, r := range rows {
		switch r.FeedbackType {
		case model.FeedbackPositive:
			pos++
		case model.FeedbackNegative:
			neg++
		}
	}

	m := math.Min(p.Ceiling, 1.0+p.PositiveStep*float64(pos))
	m -= p.NegativeStep * float64(neg)
	m = math.Max(p.Floor, m)
	return scoring.Round2(m)
}

// Apply scales a blended score by the candidate's multiplier. The result
// is clamped to [0,100] and rounded to 2 decimals; feedback never touches
// the underlying sub-scores.
func Apply(blended, multiplier float64) float64 {
	return scoring.Round2(scoring.Clamp(blended * multiplier))
}
