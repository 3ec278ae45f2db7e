// Package scoring computes deterministic attribute scores for
// candidate-job pairs. Scoring is pure: no I/O, no clock, no randomness;
// identical inputs always produce identical output.
package scoring

import (
	"math"

	"github.com/hiredeck/match-engine/internal/model"
)

// Default category weights, used when a job declares none.
const (
	DefaultSkillWeight      = 0.40
	DefaultExperienceWeight = 0.30
	DefaultEducationWeight  = 0.20
	DefaultLocationWeight   = 0.10
)

// Credit multipliers applied to a required skill's effective weight.
const (
	fullProficiencyCredit   = 1.0
	nearProficiencyCredit   = 0.7
	lowProficiencyCredit    = 0.4
	unmatchedOptionalCredit = 0.2
)

// AttributeScores holds the four sub-scores and their weighted overall,
// each on a 0-100 scale.
type AttributeScores struct {
	Skill      float64 `json:"skill"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
	Location   float64 `json:"location"`
	Overall    float64 `json:"overall"`
}

// DefaultWeights returns the standard category weights.
func DefaultWeights() model.CategoryWeights {
	return model.CategoryWeights{
		Skill:      DefaultSkillWeight,
		Experience: DefaultExperienceWeight,
		Education:  DefaultEducationWeight,
		Location:   DefaultLocationWeight,
	}
}

// EffectiveWeights picks the job's weights when any are set, otherwise the
// fallback, otherwise the standard defaults.
func EffectiveWeights(job, fallback model.CategoryWeights) model.CategoryWeights {
	if !job.IsZero() {
		return job
	}
	if !fallback.IsZero() {
		return fallback
	}
	return DefaultWeights()
}

// Score computes all four sub-scores for a candidate-job pair and combines
// them with the job's weights (falling back to the given defaults).
func Score(candidate *model.CandidateProfile, skills []model.CandidateSkill, job *model.JobProfile, required []model.RequiredSkill, fallback model.CategoryWeights) AttributeScores {
	s := AttributeScores{
		Skill:      SkillScore(skills, required),
		Experience: ExperienceScore(candidate.TotalExperienceYears, job.MinimumExperience, job.PreferredExperience),
		Education:  EducationScore(candidate.EducationLevel, job.RequiredEducation),
		Location:   LocationScore(candidate.City, job.Location, job.LocationType),
	}
	s.Overall = Combine(s, EffectiveWeights(job.Weights, fallback))
	return s
}

// Combine applies category weights to the sub-scores. The weighted sum is
// not normalized by the weight total; it is clamped to [0,100] and rounded
// to 2 decimals.
func Combine(s AttributeScores, w model.CategoryWeights) float64 {
	total := s.Skill*w.Skill + s.Experience*w.Experience + s.Education*w.Education + s.Location*w.Location
	return Round2(Clamp(total))
}

// SkillScore measures how much of the job's weighted skill demand the
// candidate covers. Required skills carry double weight; proficiency
// shortfalls reduce credit (1.0 at or above the required level, 0.7 one
// level short, 0.4 further short); an unmatched optional skill still earns
// a 0.2 credit. No requirements scores 100; a candidate with no skills at
// all scores 0.
func SkillScore(have []model.CandidateSkill, want []model.RequiredSkill) float64 {
	if len(want) == 0 {
		return 100
	}
	if len(have) == 0 {
		return 0
	}

	byID := make(map[string]model.CandidateSkill, len(have))
	for _, cs := range have {
		byID[cs.SkillID] = cs
	}

	var totalWeight, matchedWeight float64
	for _, rs := range want {
		w := rs.EffectiveWeight()
		totalWeight += w
		cs, ok := byID[rs.SkillID]
		if !ok {
			if !rs.Required {
				matchedWeight += unmatchedOptionalCredit * w
			}
			continue
		}
		matchedWeight += proficiencyCredit(cs.Proficiency, rs.MinimumProficiency) * w
	}
	if totalWeight <= 0 {
		return 100
	}
	return Round2(matchedWeight / totalWeight * 100)
}

// proficiencyCredit returns the credit multiplier for a held skill against
// its required minimum. No declared minimum grants full credit.
func proficiencyCredit(have, want model.Proficiency) float64 {
	wantRank := want.Rank()
	if wantRank == 0 {
		return fullProficiencyCredit
	}
	gap := wantRank - have.Rank()
	switch {
	case gap <= 0:
		return fullProficiencyCredit
	case gap == 1:
		return nearProficiencyCredit
	default:
		return lowProficiencyCredit
	}
}

// ExperienceScore rates the candidate's years against the job's minimum
// and preferred years. At or above preferred scores 100; between minimum
// and preferred scales linearly 70-100; between 70% of minimum and minimum
// scales 50-70; below that it is proportional down to 0. A job with no
// minimum scores 100 for anyone.
func ExperienceScore(years, minYears, prefYears float64) float64 {
	if years < 0 {
		years = 0
	}
	if minYears <= 0 {
		return 100
	}
	if prefYears < minYears {
		prefYears = minYears
	}
	nearMin := 0.7 * minYears

	switch {
	case years >= prefYears:
		return 100
	case years >= minYears:
		return Round2(70 + 30*(years-minYears)/(prefYears-minYears))
	case years >= nearMin:
		return Round2(50 + 20*(years-nearMin)/(minYears-nearMin))
	default:
		return Round2(years / nearMin * 50)
	}
}

// EducationScore compares attained education rank against the job's
// requirement. Meeting or exceeding it scores 100, one rank below 75,
// further below 50 - 25*(gap-1) floored at 0. No requirement scores 100.
func EducationScore(have, want model.EducationLevel) float64 {
	wantRank := want.Rank()
	if wantRank == 0 {
		return 100
	}
	gap := wantRank - have.Rank()
	switch {
	case gap <= 0:
		return 100
	case gap == 1:
		return 75
	default:
		return math.Max(0, 50-25*float64(gap-1))
	}
}

// Clamp bounds a score to [0,100].
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
