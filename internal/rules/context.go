// Package rules evaluates ordered, data-driven scoring rules against a
// candidate-job context, producing score adjustments, disqualification
// verdicts, and an audit trail.
package rules

import (
	"strings"

	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/scoring"
)

// FieldKind describes what a context field yields.
type FieldKind int

const (
	KindNumber FieldKind = iota
	KindString
	KindList
)

// contextFields registers every resolvable field name and its kind.
// Validation flags unregistered names; evaluation treats them as missing.
var contextFields = map[string]FieldKind{
	"candidate.total_experience_years": KindNumber,
	"candidate.education_level":        KindString,
	"candidate.education_rank":         KindNumber,
	"candidate.city":                   KindString,
	"candidate.skill_count":            KindNumber,
	"candidate.verified_skill_count":   KindNumber,
	"candidate.skills":                 KindList,
	"job.minimum_experience":           KindNumber,
	"job.preferred_experience":         KindNumber,
	"job.required_education":           KindString,
	"job.location":                     KindString,
	"job.location_type":                KindString,
	"job.ml_weight":                    KindNumber,
	"scores.skill":                     KindNumber,
	"scores.experience":                KindNumber,
	"scores.education":                 KindNumber,
	"scores.location":                  KindNumber,
	"scores.overall":                   KindNumber,
}

// KnownField reports whether rules can resolve the given field name.
func KnownField(name string) bool {
	_, ok := contextFields[name]
	return ok
}

// FieldKindOf returns the registered kind for a field name.
func FieldKindOf(name string) (FieldKind, bool) {
	k, ok := contextFields[name]
	return k, ok
}

// State carries the mutable score values rules adjust during evaluation.
type State struct {
	Categories map[model.ScoreCategory]float64
	Overall    float64
}

// NewState seeds evaluation state from the attribute scorer's output.
func NewState(s scoring.AttributeScores) *State {
	return &State{
		Categories: map[model.ScoreCategory]float64{
			model.CategorySkill:      s.Skill,
			model.CategoryExperience: s.Experience,
			model.CategoryEducation:  s.Education,
			model.CategoryLocation:   s.Location,
		},
		Overall: s.Overall,
	}
}

// Clone copies the state so trial applications leave the original intact.
func (s *State) Clone() *State {
	categories := make(map[model.ScoreCategory]float64, len(s.Categories))
	for k, v := range s.Categories {
		categories[k] = v
	}
	return &State{Categories: categories, Overall: s.Overall}
}

// Context is the flat field space conditions evaluate against: candidate
// attributes, job attributes, and the running scores. Score fields read
// through to the live state, so later rules observe earlier rules'
// adjustments.
type Context struct {
	static map[string]any
	state  *State
}

// NewContext builds the evaluation context for one candidate-job pair.
func NewContext(candidate *model.CandidateProfile, skills []model.CandidateSkill, job *model.JobProfile, state *State) *Context {
	skillIDs := make([]string, 0, len(skills))
	verified := 0
	for _, cs := range skills {
		skillIDs = append(skillIDs, cs.SkillID)
		if cs.Verified {
			verified++
		}
	}

	static := map[string]any{
		"candidate.total_experience_years": candidate.TotalExperienceYears,
		"candidate.education_level":        string(candidate.EducationLevel),
		"candidate.education_rank":         candidate.EducationLevel.Rank(),
		"candidate.city":                   candidate.City,
		"candidate.skill_count":            len(skills),
		"candidate.verified_skill_count":   verified,
		"candidate.skills":                 skillIDs,
		"job.minimum_experience":           job.MinimumExperience,
		"job.preferred_experience":         job.PreferredExperience,
		"job.required_education":           string(job.RequiredEducation),
		"job.location":                     job.Location,
		"job.location_type":                string(job.LocationType),
		"job.ml_weight":                    job.MLWeight,
	}
	return &Context{static: static, state: state}
}

// Lookup resolves a field name. scores.* fields read the running values.
func (c *Context) Lookup(field string) (any, bool) {
	if category, ok := strings.CutPrefix(field, "scores."); ok {
		if category == "overall" {
			return c.state.Overall, true
		}
		sc := model.ScoreCategory(category)
		if !sc.Valid() {
			return nil, false
		}
		v, ok := c.state.Categories[sc]
		return v, ok
	}
	v, ok := c.static[field]
	return v, ok
}
