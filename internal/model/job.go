package model

import "time"

// LocationType describes where a job's work happens.
type LocationType string

const (
	LocationOnsite LocationType = "onsite"
	LocationHybrid LocationType = "hybrid"
	LocationRemote LocationType = "remote"
)

// JobStatus is the lifecycle state of a job posting.
type JobStatus string

const (
	JobStatusOpen   JobStatus = "open"
	JobStatusPaused JobStatus = "paused"
	JobStatusClosed JobStatus = "closed"
)

// CategoryWeights holds the four attribute weights used to combine
// sub-scores into the overall score. Weights are applied as-is, without
// normalizing their sum; the weighted sum is clamped to [0,100] afterward.
type CategoryWeights struct {
	Skill      float64 `json:"skill"`
	Experience float64 `json:"experience"`
	Education  float64 `json:"education"`
	Location   float64 `json:"location"`
}

// IsZero reports whether all four weights are unset.
func (w CategoryWeights) IsZero() bool {
	return w.Skill == 0 && w.Experience == 0 && w.Education == 0 && w.Location == 0
}

// JobProfile is the scoring-relevant view of a job posting.
type JobProfile struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Status              JobStatus       `json:"status"`
	Location            string          `json:"location,omitempty"`
	LocationType        LocationType    `json:"location_type"`
	MinimumExperience   float64         `json:"minimum_experience"`
	PreferredExperience float64         `json:"preferred_experience"`
	RequiredEducation   EducationLevel  `json:"required_education,omitempty"`
	Weights             CategoryWeights `json:"weights"`
	MLWeight            float64         `json:"ml_weight"`   // 0 = use configured default
	TemplateID          string          `json:"template_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// RequiredSkill is one entry in a job's skill requirement list.
type RequiredSkill struct {
	JobID              string      `json:"job_id"`
	SkillID            string      `json:"skill_id"`
	Required           bool        `json:"required"`
	Weight             float64     `json:"weight"` // 0 = default 1.0
	MinimumProficiency Proficiency `json:"minimum_proficiency,omitempty"`
}

// EffectiveWeight returns the skill's declared weight (default 1.0),
// doubled when the skill is required.
func (s RequiredSkill) EffectiveWeight() float64 {
	w := s.Weight
	if w <= 0 {
		w = 1.0
	}
	if s.Required {
		w *= 2
	}
	return w
}
