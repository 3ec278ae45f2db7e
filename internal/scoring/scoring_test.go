package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hiredeck/match-engine/internal/model"
)

func TestSkillScore(t *testing.T) {
	t.Parallel()

	t.Run("no requirements scores 100", func(t *testing.T) {
		t.Parallel()
		have := []model.CandidateSkill{{SkillID: "go", Proficiency: model.ProficiencyExpert}}
		assert.InDelta(t, 100, SkillScore(have, nil), 0.001)
	})

	t.Run("candidate with no skills scores 0", func(t *testing.T) {
		t.Parallel()
		want := []model.RequiredSkill{{SkillID: "go", Required: true}}
		assert.InDelta(t, 0, SkillScore(nil, want), 0.001)
	})

	t.Run("required and optional mix", func(t *testing.T) {
		t.Parallel()
		// Required A (weight 1, doubled) fully met, optional B lacking
		// earns 0.2 credit: (2.0 + 0.2) / 3.0 = 73.33.
		have := []model.CandidateSkill{{SkillID: "a", Proficiency: model.ProficiencyExpert}}
		want := []model.RequiredSkill{
			{SkillID: "a", Required: true, Weight: 1, MinimumProficiency: model.ProficiencyIntermediate},
			{SkillID: "b", Required: false, Weight: 1},
		}
		assert.InDelta(t, 73.33, SkillScore(have, want), 0.001)
	})

	t.Run("missing required skill earns nothing", func(t *testing.T) {
		t.Parallel()
		have := []model.CandidateSkill{{SkillID: "other", Proficiency: model.ProficiencyExpert}}
		want := []model.RequiredSkill{
			{SkillID: "a", Required: true, Weight: 1},
			{SkillID: "other", Required: true, Weight: 1},
		}
		// Only "other" matches: 2/4 of the weight.
		assert.InDelta(t, 50, SkillScore(have, want), 0.001)
	})

	t.Run("proficiency shortfall credits", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			have model.Proficiency
			want float64
		}{
			{"exceeds", model.ProficiencyExpert, 100},
			{"meets", model.ProficiencyAdvanced, 100},
			{"one below", model.ProficiencyIntermediate, 70},
			{"two below", model.ProficiencyBeginner, 40},
			{"unknown level", model.Proficiency(""), 40},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				have := []model.CandidateSkill{{SkillID: "a", Proficiency: tt.have}}
				want := []model.RequiredSkill{{SkillID: "a", Required: true, MinimumProficiency: model.ProficiencyAdvanced}}
				assert.InDelta(t, tt.want, SkillScore(have, want), 0.001)
			})
		}
	})

	t.Run("no minimum proficiency grants full credit", func(t *testing.T) {
		t.Parallel()
		have := []model.CandidateSkill{{SkillID: "a", Proficiency: model.ProficiencyBeginner}}
		want := []model.RequiredSkill{{SkillID: "a", Required: true}}
		assert.InDelta(t, 100, SkillScore(have, want), 0.001)
	})

	t.Run("unrelated candidate skills ignored", func(t *testing.T) {
		t.Parallel()
		have := []model.CandidateSkill{
			{SkillID: "a", Proficiency: model.ProficiencyExpert},
			{SkillID: "x", Proficiency: model.ProficiencyExpert},
			{SkillID: "y", Proficiency: model.ProficiencyExpert},
		}
		want := []model.RequiredSkill{{SkillID: "a", Required: true}}
		assert.InDelta(t, 100, SkillScore(have, want), 0.001)
	})
}

func TestExperienceScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                 string
		years, minimum, pref float64
		want                 float64
	}{
		{"worked example", 3, 2, 5, 80},
		{"at preferred", 5, 2, 5, 100},
		{"above preferred", 10, 2, 5, 100},
		{"at minimum", 2, 2, 5, 70},
		{"midway minimum to preferred", 3.5, 2, 5, 85},
		{"at 70 percent of minimum", 1.4, 2, 5, 50},
		{"between floor and minimum", 1.7, 2, 5, 60},
		{"below floor proportional", 0.7, 2, 5, 25},
		{"zero years", 0, 2, 5, 0},
		{"no minimum", 0, 0, 0, 100},
		{"preferred below minimum treated as minimum", 4, 4, 2, 100},
		{"negative years treated as zero", -1, 2, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ExperienceScore(tt.years, tt.minimum, tt.pref), 0.001)
		})
	}
}

func TestEducationScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		have model.EducationLevel
		want model.EducationLevel
		exp  float64
	}{
		{"no requirement", model.EducationHighSchool, "", 100},
		{"meets exactly", model.EducationBachelor, model.EducationBachelor, 100},
		{"exceeds", model.EducationDoctorate, model.EducationBachelor, 100},
		{"one below", model.EducationBachelor, model.EducationMaster, 75},
		{"two below", model.EducationAssociate, model.EducationMaster, 25},
		{"three below", model.EducationHighSchool, model.EducationMaster, 0},
		{"four below floored", model.EducationHighSchool, model.EducationDoctorate, 0},
		{"unset candidate level", "", model.EducationHighSchool, 75},
		{"unset candidate vs doctorate", "", model.EducationDoctorate, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.exp, EducationScore(tt.have, tt.want), 0.001)
		})
	}
}

func TestLocationScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		city     string
		location string
		locType  model.LocationType
		want     float64
	}{
		{"remote ignores city", "", "Austin", model.LocationRemote, 100},
		{"remote with matching city", "Austin", "Austin", model.LocationRemote, 100},
		{"missing candidate city", "", "Austin", model.LocationOnsite, 50},
		{"missing job location", "Austin", "  ", model.LocationHybrid, 50},
		{"exact match", "Austin", "Austin", model.LocationOnsite, 100},
		{"case insensitive match", "AUSTIN", "austin", model.LocationOnsite, 100},
		{"diacritics fold", "São Paulo", "Sao Paulo", model.LocationOnsite, 100},
		{"substring containment", "Austin", "Austin, TX", model.LocationOnsite, 90},
		{"hybrid no match", "Dallas", "Austin", model.LocationHybrid, 60},
		{"onsite no match", "Dallas", "Austin", model.LocationOnsite, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, LocationScore(tt.city, tt.location, tt.locType), 0.001)
		})
	}
}

func TestCombine(t *testing.T) {
	t.Parallel()

	s := AttributeScores{Skill: 80, Experience: 60, Education: 100, Location: 50}

	t.Run("default weights", func(t *testing.T) {
		t.Parallel()
		// 80*0.4 + 60*0.3 + 100*0.2 + 50*0.1 = 75.
		assert.InDelta(t, 75, Combine(s, DefaultWeights()), 0.001)
	})

	t.Run("weights are not normalized", func(t *testing.T) {
		t.Parallel()
		// Sum 2.0 doubles everything, then the clamp caps at 100.
		w := model.CategoryWeights{Skill: 0.8, Experience: 0.6, Education: 0.4, Location: 0.2}
		assert.InDelta(t, 100, Combine(s, w), 0.001)
	})

	t.Run("light weights depress", func(t *testing.T) {
		t.Parallel()
		w := model.CategoryWeights{Skill: 0.2, Experience: 0.15, Education: 0.1, Location: 0.05}
		assert.InDelta(t, 37.5, Combine(s, w), 0.001)
	})
}

func TestEffectiveWeights(t *testing.T) {
	t.Parallel()

	job := model.CategoryWeights{Skill: 0.5, Experience: 0.5}
	fallback := model.CategoryWeights{Skill: 0.25, Experience: 0.25, Education: 0.25, Location: 0.25}

	assert.Equal(t, job, EffectiveWeights(job, fallback))
	assert.Equal(t, fallback, EffectiveWeights(model.CategoryWeights{}, fallback))
	assert.Equal(t, DefaultWeights(), EffectiveWeights(model.CategoryWeights{}, model.CategoryWeights{}))
}

func TestScoreDeterminism(t *testing.T) {
	t.Parallel()

	cand := &model.CandidateProfile{
		ID:                   "c1",
		City:                 "Denver",
		TotalExperienceYears: 4,
		EducationLevel:       model.EducationBachelor,
	}
	skills := []model.CandidateSkill{
		{SkillID: "go", Proficiency: model.ProficiencyAdvanced},
		{SkillID: "sql", Proficiency: model.ProficiencyIntermediate},
	}
	job := &model.JobProfile{
		ID:                  "j1",
		Location:            "Denver",
		LocationType:        model.LocationHybrid,
		MinimumExperience:   2,
		PreferredExperience: 6,
		RequiredEducation:   model.EducationBachelor,
	}
	required := []model.RequiredSkill{
		{SkillID: "go", Required: true, Weight: 2, MinimumProficiency: model.ProficiencyAdvanced},
		{SkillID: "sql", Required: true, Weight: 1, MinimumProficiency: model.ProficiencyAdvanced},
		{SkillID: "k8s", Required: false, Weight: 1},
	}

	first := Score(cand, skills, job, required, model.CategoryWeights{})
	second := Score(cand, skills, job, required, model.CategoryWeights{})
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first.Overall, 0.0)
	assert.LessOrEqual(t, first.Overall, 100.0)
}

func TestBlend(t *testing.T) {
	t.Parallel()

	sem := func(v float64) *float64 { return &v }

	t.Run("absent semantic is exact identity", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 77.77, Blend(77.77, nil, 0.6))
	})

	t.Run("default weight mix", func(t *testing.T) {
		t.Parallel()
		// 80*0.4 + 90*0.6 = 86.
		assert.InDelta(t, 86, Blend(80, sem(90), 0.6), 0.001)
	})

	t.Run("weight zero keeps rule score", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 80, Blend(80, sem(90), 0), 0.001)
	})

	t.Run("weight one keeps semantic score", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 90, Blend(80, sem(90), 1), 0.001)
	})

	t.Run("weight clamped above one", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 90, Blend(80, sem(90), 1.7), 0.001)
	})

	t.Run("out of range semantic clamped", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 92, Blend(80, sem(150), 0.6), 0.001)
	})
}

func TestEffectiveMLWeight(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.3, EffectiveMLWeight(0.3, 0.6), 0.001)
	assert.InDelta(t, 0.6, EffectiveMLWeight(0, 0.6), 0.001)
	assert.InDelta(t, 1.0, EffectiveMLWeight(1.4, 0.6), 0.001)
	assert.InDelta(t, 0.6, EffectiveMLWeight(-0.2, 0.6), 0.001)
}

func TestNormalizeCity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sao paulo", NormalizeCity("  São   Paulo "))
	assert.Equal(t, "zurich", NormalizeCity("Zürich"))
	assert.Equal(t, "", NormalizeCity("   "))
	assert.Equal(t, "new york", NormalizeCity("New York"))
}
