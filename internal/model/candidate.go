package model

import "time"

// Proficiency is a candidate's level in a skill.
type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "beginner"
	ProficiencyIntermediate Proficiency = "intermediate"
	ProficiencyAdvanced     Proficiency = "advanced"
	ProficiencyExpert       Proficiency = "expert"
)

// proficiencyRank maps proficiency levels to numeric ranks for comparison.
// Higher rank means more proficient.
var proficiencyRank = map[Proficiency]int{
	ProficiencyBeginner:     1,
	ProficiencyIntermediate: 2,
	ProficiencyAdvanced:     3,
	ProficiencyExpert:       4,
}

// Rank returns the numeric rank of the proficiency (beginner=1 through
// expert=4), or 0 for unrecognized values.
func (p Proficiency) Rank() int {
	return proficiencyRank[p]
}

// EducationLevel is a candidate's highest attained education or a job's
// required one.
type EducationLevel string

const (
	EducationHighSchool EducationLevel = "high_school"
	EducationAssociate  EducationLevel = "associate"
	EducationBachelor   EducationLevel = "bachelor"
	EducationMaster     EducationLevel = "master"
	EducationDoctorate  EducationLevel = "doctorate"
)

// educationRank maps education levels to numeric ranks for comparison.
var educationRank = map[EducationLevel]int{
	EducationHighSchool: 1,
	EducationAssociate:  2,
	EducationBachelor:   3,
	EducationMaster:     4,
	EducationDoctorate:  5,
}

// Rank returns the numeric rank of the education level (high_school=1
// through doctorate=5), or 0 for unset or unrecognized values.
func (e EducationLevel) Rank() int {
	return educationRank[e]
}

// Skill is a named skill candidates hold and jobs require.
type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// CandidateProfile is the scoring-relevant view of a candidate. Profiles
// are authored elsewhere; the engine reads them.
type CandidateProfile struct {
	ID                   string         `json:"id"`
	FullName             string         `json:"full_name"`
	Email                string         `json:"email,omitempty"`
	City                 string         `json:"city,omitempty"`
	TotalExperienceYears float64        `json:"total_experience_years"`
	EducationLevel       EducationLevel `json:"education_level,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// CandidateSkill links a candidate to a skill with a proficiency level.
type CandidateSkill struct {
	CandidateID string      `json:"candidate_id"`
	SkillID     string      `json:"skill_id"`
	Proficiency Proficiency `json:"proficiency"`
	Verified    bool        `json:"verified,omitempty"`
}
