package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiredeck/match-engine/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedCandidate(t *testing.T, st *SQLiteStore, id string) {
	t.Helper()
	require.NoError(t, st.UpsertCandidate(context.Background(), &model.CandidateProfile{
		ID:                   id,
		FullName:             "Candidate " + id,
		City:                 "Austin",
		TotalExperienceYears: 5,
		EducationLevel:       model.EducationBachelor,
	}))
}

func seedJob(t *testing.T, st *SQLiteStore, id string) {
	t.Helper()
	require.NoError(t, st.UpsertJob(context.Background(), &model.JobProfile{
		ID:           id,
		Title:        "Job " + id,
		Location:     "Austin",
		LocationType: model.LocationHybrid,
	}))
}

func seedMatch(t *testing.T, st *SQLiteStore, candidateID, jobID string, score float64, qualified bool) *model.MatchResult {
	t.Helper()
	m := &model.MatchResult{
		CandidateID:        candidateID,
		JobID:              jobID,
		OverallScore:       score,
		BlendedScore:       score,
		FeedbackMultiplier: 1,
		PreFilterPassed:    qualified,
	}
	require.NoError(t, st.UpsertMatchResult(context.Background(), m))
	return m
}

// --- Candidates ---

func TestSQLite_Candidate_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := &model.CandidateProfile{
		FullName:             "Dana Smith",
		Email:                "dana@example.com",
		City:                 "Portland",
		TotalExperienceYears: 7.5,
		EducationLevel:       model.EducationMaster,
	}
	require.NoError(t, st.UpsertCandidate(ctx, c))
	require.NotEmpty(t, c.ID, "upsert assigns an id")

	got, err := st.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Smith", got.FullName)
	assert.Equal(t, "Portland", got.City)
	assert.InDelta(t, 7.5, got.TotalExperienceYears, 0.001)
	assert.Equal(t, model.EducationMaster, got.EducationLevel)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, 5*time.Second)

	// Second upsert with the same id updates in place.
	c.City = "Seattle"
	require.NoError(t, st.UpsertCandidate(ctx, c))
	got, err = st.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Seattle", got.City)
}

func TestSQLite_Candidate_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetCandidate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_Candidate_ListFiltersByCity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertCandidate(ctx, &model.CandidateProfile{ID: "c1", FullName: "A", City: "Austin"}))
	require.NoError(t, st.UpsertCandidate(ctx, &model.CandidateProfile{ID: "c2", FullName: "B", City: "Denver"}))
	require.NoError(t, st.UpsertCandidate(ctx, &model.CandidateProfile{ID: "c3", FullName: "C", City: "Austin"}))

	all, err := st.ListCandidates(ctx, CandidateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	austin, err := st.ListCandidates(ctx, CandidateFilter{City: "Austin"})
	require.NoError(t, err)
	require.Len(t, austin, 2)
	for _, c := range austin {
		assert.Equal(t, "Austin", c.City)
	}

	limited, err := st.ListCandidates(ctx, CandidateFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_Candidate_Import(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.ImportCandidates(context.Background(), []model.CandidateProfile{
		{ID: "i1", FullName: "One"},
		{ID: "i2", FullName: "Two"},
		{ID: "i1", FullName: "One Again"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := st.GetCandidate(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "One Again", got.FullName)
}

func TestSQLite_CandidateSkills_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedCandidate(t, st, "c1")
	require.NoError(t, st.UpsertSkill(ctx, model.Skill{ID: "go", Name: "Go"}))
	require.NoError(t, st.UpsertSkill(ctx, model.Skill{ID: "sql", Name: "SQL"}))

	require.NoError(t, st.SetCandidateSkill(ctx, model.CandidateSkill{
		CandidateID: "c1", SkillID: "sql", Proficiency: model.ProficiencyIntermediate,
	}))
	require.NoError(t, st.SetCandidateSkill(ctx, model.CandidateSkill{
		CandidateID: "c1", SkillID: "go", Proficiency: model.ProficiencyAdvanced, Verified: true,
	}))

	skills, err := st.GetCandidateSkills(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "go", skills[0].SkillID)
	assert.Equal(t, model.ProficiencyAdvanced, skills[0].Proficiency)
	assert.True(t, skills[0].Verified)

	// Re-setting the same pair updates instead of duplicating.
	require.NoError(t, st.SetCandidateSkill(ctx, model.CandidateSkill{
		CandidateID: "c1", SkillID: "go", Proficiency: model.ProficiencyExpert,
	}))
	skills, err = st.GetCandidateSkills(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, model.ProficiencyExpert, skills[0].Proficiency)
	assert.False(t, skills[0].Verified)
}

// --- Jobs ---

func TestSQLite_Job_UpsertRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	j := &model.JobProfile{
		Title:               "Backend Engineer",
		Location:            "Austin, TX",
		LocationType:        model.LocationHybrid,
		MinimumExperience:   3,
		PreferredExperience: 7,
		RequiredEducation:   model.EducationBachelor,
		Weights:             model.CategoryWeights{Skill: 0.5, Experience: 0.25, Education: 0.15, Location: 0.1},
		MLWeight:            0.7,
	}
	require.NoError(t, st.UpsertJob(ctx, j))
	require.NotEmpty(t, j.ID)

	got, err := st.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, model.JobStatusOpen, got.Status, "status defaults to open")
	assert.Equal(t, model.LocationHybrid, got.LocationType)
	assert.InDelta(t, 0.5, got.Weights.Skill, 0.001)
	assert.InDelta(t, 0.7, got.MLWeight, 0.001)
	assert.Empty(t, got.TemplateID)
}

func TestSQLite_Job_TemplateReference(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateTemplate(ctx, &model.RuleTemplate{ID: "tpl-1", Name: "Default screens"}))

	j := &model.JobProfile{ID: "j1", Title: "Analyst", TemplateID: "tpl-1"}
	require.NoError(t, st.UpsertJob(ctx, j))

	got, err := st.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", got.TemplateID)
}

func TestSQLite_Job_ListOpen(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertJob(ctx, &model.JobProfile{ID: "j1", Title: "Open one"}))
	require.NoError(t, st.UpsertJob(ctx, &model.JobProfile{ID: "j2", Title: "Closed one", Status: model.JobStatusClosed}))

	open, err := st.ListOpenJobs(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "j1", open[0].ID)
}

func TestSQLite_RequiredSkills_DefaultWeight(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedJob(t, st, "j1")
	require.NoError(t, st.UpsertSkill(ctx, model.Skill{ID: "go", Name: "Go"}))

	require.NoError(t, st.SetRequiredSkill(ctx, model.RequiredSkill{
		JobID: "j1", SkillID: "go", Required: true, Weight: 0, MinimumProficiency: model.ProficiencyAdvanced,
	}))

	skills, err := st.GetRequiredSkills(ctx, "j1")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.InDelta(t, 1.0, skills[0].Weight, 0.001, "zero weight normalizes to 1")
	assert.True(t, skills[0].Required)
	assert.Equal(t, model.ProficiencyAdvanced, skills[0].MinimumProficiency)
}

// --- Scoring rules ---

func testStoreRule(name string) *model.ScoringRule {
	return &model.ScoringRule{
		Name:   name,
		Active: true,
		Conditions: model.ConditionTree{
			Field: "candidate.total_experience_years", Operator: model.OpGreaterOrEqual, Value: float64(5),
		},
		Actions: model.ActionSet{
			{Kind: model.ActionModifyCategory, Category: model.CategoryExperience, Op: model.ModifyAdditive, Value: 10},
		},
	}
}

func TestSQLite_Rule_CreateGetRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedJob(t, st, "j1")
	r := &model.ScoringRule{
		Name:        "senior boost",
		Description: "Bumps experienced candidates",
		JobID:       "j1",
		Active:      true,
		Priority:    10,
		StopOnMatch: true,
		Conditions: model.ConditionTree{
			All: []model.ConditionTree{
				{Field: "candidate.city", Operator: model.OpEqual, Value: "Austin"},
				{Any: []model.ConditionTree{
					{Field: "scores.skill", Operator: model.OpGreater, Value: float64(75)},
					{Field: "candidate.skills", Operator: model.OpContains, Value: "go"},
				}},
			},
		},
		Actions: model.ActionSet{
			{Kind: model.ActionModifyCategory, Category: model.CategorySkill, Op: model.ModifyMultiplicative, Value: 1.1},
			{Kind: model.ActionSetOverall, Value: 90},
		},
	}
	require.NoError(t, st.CreateRule(ctx, r))

	got, err := st.GetRule(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "senior boost", got.Name)
	assert.Equal(t, "j1", got.JobID)
	assert.Empty(t, got.TemplateID)
	assert.True(t, got.StopOnMatch)
	assert.Equal(t, r.Conditions, got.Conditions, "condition tree survives storage unchanged")
	assert.Equal(t, r.Actions, got.Actions)
}

func TestSQLite_Rule_CreateRejectsInvalid(t *testing.T) {
	st := newTestSQLiteStore(t)

	r := testStoreRule("broken")
	r.Actions = model.ActionSet{{Kind: model.ActionSetOverall, Value: 150}}
	err := st.CreateRule(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestSQLite_Rule_UpdateAndDelete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r := testStoreRule("tweak me")
	require.NoError(t, st.CreateRule(ctx, r))

	r.Priority = 5
	r.Name = "tweaked"
	require.NoError(t, st.UpdateRule(ctx, r))

	got, err := st.GetRule(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "tweaked", got.Name)
	assert.Equal(t, 5, got.Priority)

	require.NoError(t, st.DeleteRule(ctx, r.ID))
	_, err = st.GetRule(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, st.DeleteRule(ctx, r.ID), ErrNotFound)
}

func TestSQLite_Rule_ListOrdering(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedJob(t, st, "j1")
	mk := func(name string, priority, order int) {
		r := testStoreRule(name)
		r.JobID = "j1"
		r.Priority = priority
		r.ExecutionOrder = order
		require.NoError(t, st.CreateRule(ctx, r))
	}
	mk("third", 20, 0)
	mk("second", 10, 2)
	mk("first", 10, 1)

	rules, err := st.ListRulesForJob(ctx, "j1", false)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "first", rules[0].Name)
	assert.Equal(t, "second", rules[1].Name)
	assert.Equal(t, "third", rules[2].Name)
}

func TestSQLite_Rule_ActiveFilterAndTemplates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateTemplate(ctx, &model.RuleTemplate{ID: "tpl-1", Name: "Screens"}))
	r1 := testStoreRule("live")
	r1.TemplateID = "tpl-1"
	require.NoError(t, st.CreateRule(ctx, r1))
	r2 := testStoreRule("dormant")
	r2.TemplateID = "tpl-1"
	require.NoError(t, st.CreateRule(ctx, r2))

	require.NoError(t, st.SetRuleActive(ctx, r2.ID, false))

	active, err := st.ListRulesForTemplate(ctx, "tpl-1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "live", active[0].Name)

	all, err := st.ListRulesForTemplate(ctx, "tpl-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	templates, err := st.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Screens", templates[0].Name)
}

func TestSQLite_Template_Duplicate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateTemplate(ctx, &model.RuleTemplate{ID: "tpl-1", Name: "Screens", Description: "standard screens"}))
	r1 := testStoreRule("experience floor")
	r1.TemplateID = "tpl-1"
	r1.Priority = 5
	require.NoError(t, st.CreateRule(ctx, r1))
	r2 := testStoreRule("austin boost")
	r2.TemplateID = "tpl-1"
	r2.Priority = 10
	r2.ExecutionOrder = 2
	require.NoError(t, st.CreateRule(ctx, r2))
	require.NoError(t, st.SetRuleActive(ctx, r2.ID, false))

	dup, err := st.DuplicateTemplate(ctx, "tpl-1", "Screens v2")
	require.NoError(t, err)
	require.NotEqual(t, "tpl-1", dup.ID)
	assert.Equal(t, "Screens v2", dup.Name)
	assert.Equal(t, "standard screens", dup.Description)

	copies, err := st.ListRulesForTemplate(ctx, dup.ID, false)
	require.NoError(t, err)
	require.Len(t, copies, 2, "inactive rules are copied too")
	// Listing is priority-ordered, so the copies line up with the sources.
	assert.Equal(t, "experience floor", copies[0].Name)
	assert.Equal(t, 5, copies[0].Priority)
	assert.True(t, copies[0].Active)
	assert.Equal(t, "austin boost", copies[1].Name)
	assert.Equal(t, 2, copies[1].ExecutionOrder)
	assert.False(t, copies[1].Active)
	for _, c := range copies {
		assert.NotEqual(t, r1.ID, c.ID)
		assert.NotEqual(t, r2.ID, c.ID)
		assert.Empty(t, c.JobID)
	}

	// Source rules are untouched.
	originals, err := st.ListRulesForTemplate(ctx, "tpl-1", false)
	require.NoError(t, err)
	assert.Len(t, originals, 2)

	_, err = st.DuplicateTemplate(ctx, "tpl-missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Match results ---

func TestSQLite_Match_UpsertPreservesReviewState(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedCandidate(t, st, "c1")
	seedJob(t, st, "j1")

	first := seedMatch(t, st, "c1", "j1", 72.5, true)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, model.ReviewPending, first.ReviewStatus)

	require.NoError(t, st.UpdateReviewStatus(ctx, first.ID, model.ReviewShortlisted))
	require.NoError(t, st.UpdateRanks(ctx, "j1"))

	// Re-scoring the same pair writes new scores through a fresh struct.
	second := &model.MatchResult{
		CandidateID:        "c1",
		JobID:              "j1",
		OverallScore:       88.25,
		BlendedScore:       88.25,
		SkillScore:         91,
		FeedbackMultiplier: 1,
		PreFilterPassed:    true,
	}
	require.NoError(t, st.UpsertMatchResult(ctx, second))

	assert.Equal(t, first.ID, second.ID, "pair keeps its row identity")
	assert.Equal(t, model.ReviewShortlisted, second.ReviewStatus, "review status survives a re-score")
	assert.Equal(t, 1, second.Rank, "rank survives a re-score")
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, 2*time.Second)

	got, err := st.GetMatchByPair(ctx, "c1", "j1")
	require.NoError(t, err)
	assert.InDelta(t, 88.25, got.OverallScore, 0.001)
	assert.InDelta(t, 91, got.SkillScore, 0.001)
	assert.Equal(t, model.ReviewShortlisted, got.ReviewStatus)
}

func TestSQLite_Match_SemanticScoreNullable(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedCandidate(t, st, "c1")
	seedCandidate(t, st, "c2")
	seedJob(t, st, "j1")

	seedMatch(t, st, "c1", "j1", 70, true)
	semantic := 0.87
	withSemantic := &model.MatchResult{
		CandidateID: "c2", JobID: "j1", OverallScore: 81, BlendedScore: 81,
		SemanticScore: &semantic, SemanticUsed: true, FeedbackMultiplier: 1, PreFilterPassed: true,
	}
	require.NoError(t, st.UpsertMatchResult(ctx, withSemantic))

	plain, err := st.GetMatchByPair(ctx, "c1", "j1")
	require.NoError(t, err)
	assert.Nil(t, plain.SemanticScore)
	assert.False(t, plain.SemanticUsed)

	got, err := st.GetMatchByPair(ctx, "c2", "j1")
	require.NoError(t, err)
	require.NotNil(t, got.SemanticScore)
	assert.InDelta(t, 0.87, *got.SemanticScore, 0.001)
	assert.True(t, got.SemanticUsed)
}

func TestSQLite_Match_RulesAppliedRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedCandidate(t, st, "c1")
	seedJob(t, st, "j1")

	m := &model.MatchResult{
		CandidateID: "c1", JobID: "j1", OverallScore: 55, BlendedScore: 55,
		FeedbackMultiplier: 1, PreFilterPassed: true,
		RulesApplied: []model.RuleApplication{
			{RuleID: "r1", RuleName: "austin boost", Matched: true},
			{RuleID: "r2", RuleName: "junior screen", Matched: false},
		},
	}
	require.NoError(t, st.UpsertMatchResult(ctx, m))

	got, err := st.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got.RulesApplied, 2)
	assert.Equal(t, "austin boost", got.RulesApplied[0].RuleName)
	assert.True(t, got.RulesApplied[0].Matched)
	assert.False(t, got.RulesApplied[1].Matched)
}

func TestSQLite_Match_ListFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		seedCandidate(t, st, id)
	}
	seedJob(t, st, "j1")

	seedMatch(t, st, "c1", "j1", 90, true)
	seedMatch(t, st, "c2", "j1", 60, true)
	m3 := seedMatch(t, st, "c3", "j1", 40, true)
	seedMatch(t, st, "c4", "j1", 95, false) // disqualified despite the high score

	require.NoError(t, st.UpdateReviewStatus(ctx, m3.ID, model.ReviewRejected))

	all, err := st.ListMatchesForJob(ctx, "j1", MatchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "c1", all[0].CandidateID, "qualified results sort before disqualified")
	assert.Equal(t, "c4", all[3].CandidateID)

	qualified, err := st.ListMatchesForJob(ctx, "j1", MatchFilter{OnlyQualified: true})
	require.NoError(t, err)
	assert.Len(t, qualified, 3)

	strong, err := st.ListMatchesForJob(ctx, "j1", MatchFilter{MinScore: 55, OnlyQualified: true})
	require.NoError(t, err)
	require.Len(t, strong, 2)
	assert.Equal(t, "c1", strong[0].CandidateID)
	assert.Equal(t, "c2", strong[1].CandidateID)

	rejected, err := st.ListMatchesForJob(ctx, "j1", MatchFilter{Status: model.ReviewRejected})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "c3", rejected[0].CandidateID)

	forCandidate, err := st.ListMatchesForCandidate(ctx, "c1", MatchFilter{})
	require.NoError(t, err)
	require.Len(t, forCandidate, 1)
	assert.Equal(t, "j1", forCandidate[0].JobID)
}

func TestSQLite_Match_UpdateRanks(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		seedCandidate(t, st, id)
	}
	seedJob(t, st, "j1")

	seedMatch(t, st, "c1", "j1", 70, true)
	seedMatch(t, st, "c2", "j1", 90, true)
	seedMatch(t, st, "c3", "j1", 50, true)
	seedMatch(t, st, "c4", "j1", 99, false)

	require.NoError(t, st.UpdateRanks(ctx, "j1"))

	byCandidate := map[string]int{}
	matches, err := st.ListMatchesForJob(ctx, "j1", MatchFilter{})
	require.NoError(t, err)
	for _, m := range matches {
		byCandidate[m.CandidateID] = m.Rank
	}
	assert.Equal(t, 1, byCandidate["c2"])
	assert.Equal(t, 2, byCandidate["c1"])
	assert.Equal(t, 3, byCandidate["c3"])
	assert.Equal(t, 0, byCandidate["c4"], "disqualified rows stay unranked")
}

func TestSQLite_Match_UpdateScoreAndStatusNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, st.UpdateReviewStatus(ctx, "missing", model.ReviewReviewed), ErrNotFound)
	assert.ErrorIs(t, st.UpdateMatchScore(ctx, "missing", 1.05, 80), ErrNotFound)

	seedCandidate(t, st, "c1")
	seedJob(t, st, "j1")
	m := seedMatch(t, st, "c1", "j1", 70, true)

	require.NoError(t, st.UpdateMatchScore(ctx, m.ID, 1.15, 80.5))
	got, err := st.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.15, got.FeedbackMultiplier, 0.001)
	assert.InDelta(t, 80.5, got.OverallScore, 0.001)
	assert.InDelta(t, 70, got.BlendedScore, 0.001, "blended score is untouched by feedback refresh")
}

func TestSQLite_Match_Stats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3", "c4", "c5"} {
		seedCandidate(t, st, id)
	}
	seedJob(t, st, "j1")

	m1 := seedMatch(t, st, "c1", "j1", 85, true)
	seedMatch(t, st, "c2", "j1", 65, true)
	seedMatch(t, st, "c3", "j1", 30, true)
	seedMatch(t, st, "c4", "j1", 90, false)
	require.NoError(t, st.UpsertMatchResult(ctx, &model.MatchResult{
		CandidateID: "c5", JobID: "j1", OverallScore: 20, BlendedScore: 20,
		FeedbackMultiplier: 1, DisqualifyReason: "below minimum experience",
	}))

	require.NoError(t, st.UpdateReviewStatus(ctx, m1.ID, model.ReviewShortlisted))
	_, err := st.SubmitFeedback(ctx, &model.MatchFeedback{
		MatchResultID: m1.ID, FeedbackType: model.FeedbackPositive, FeedbackBy: "reviewer-1",
	})
	require.NoError(t, err)

	stats, err := st.MatchStats(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Disqualified)
	assert.InDelta(t, 60, stats.AverageScore, 0.001, "average covers qualified rows only")
	assert.InDelta(t, 85, stats.TopScore, 0.001)
	assert.Equal(t, 1, stats.ByStatus["shortlisted"])
	assert.Equal(t, 4, stats.ByStatus["pending"])
	assert.Equal(t, 1, stats.ByReason["below minimum experience"])
	assert.Len(t, stats.ByReason, 1, "reasonless disqualifications are not bucketed")
	assert.Equal(t, 1, stats.ScoreBuckets["80-100"])
	assert.Equal(t, 1, stats.ScoreBuckets["60-79"])
	assert.Equal(t, 1, stats.ScoreBuckets["20-39"])
	assert.Equal(t, 1, stats.FeedbackTotal)
}

// --- Feedback ---

func TestSQLite_Feedback_ToggleAndReplace(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedCandidate(t, st, "c1")
	seedJob(t, st, "j1")
	m := seedMatch(t, st, "c1", "j1", 70, true)

	fb := &model.MatchFeedback{MatchResultID: m.ID, FeedbackType: model.FeedbackPositive, FeedbackBy: "alex"}
	change, err := st.SubmitFeedback(ctx, fb)
	require.NoError(t, err)
	assert.Equal(t, model.FeedbackAdded, change)

	// Same reviewer, same verdict: the row toggles off.
	change, err = st.SubmitFeedback(ctx, &model.MatchFeedback{
		MatchResultID: m.ID, FeedbackType: model.FeedbackPositive, FeedbackBy: "alex",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FeedbackRemoved, change)

	list, err := st.ListFeedback(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Opposite verdict replaces rather than stacking.
	change, err = st.SubmitFeedback(ctx, &model.MatchFeedback{
		MatchResultID: m.ID, FeedbackType: model.FeedbackPositive, FeedbackBy: "alex",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FeedbackAdded, change)

	change, err = st.SubmitFeedback(ctx, &model.MatchFeedback{
		MatchResultID: m.ID, FeedbackType: model.FeedbackNegative, FeedbackBy: "alex", Notes: "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FeedbackReplaced, change)

	list, err = st.ListFeedback(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.FeedbackNegative, list[0].FeedbackType)
	assert.Equal(t, "changed my mind", list[0].Notes)
}

func TestSQLite_Feedback_PerReviewerRows(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedCandidate(t, st, "c1")
	seedJob(t, st, "j1")
	m := seedMatch(t, st, "c1", "j1", 70, true)

	for _, reviewer := range []string{"alex", "blair", "casey"} {
		_, err := st.SubmitFeedback(ctx, &model.MatchFeedback{
			MatchResultID: m.ID, FeedbackType: model.FeedbackPositive, FeedbackBy: reviewer,
		})
		require.NoError(t, err)
	}

	list, err := st.ListFeedback(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	require.NoError(t, st.DeleteFeedback(ctx, m.ID, "blair"))
	list, err = st.ListFeedback(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.ErrorIs(t, st.DeleteFeedback(ctx, m.ID, "blair"), ErrNotFound)
}

func TestSQLite_Feedback_ListForCandidateSpansJobs(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedCandidate(t, st, "c1")
	seedCandidate(t, st, "c2")
	seedJob(t, st, "j1")
	seedJob(t, st, "j2")
	m1 := seedMatch(t, st, "c1", "j1", 70, true)
	m2 := seedMatch(t, st, "c1", "j2", 60, true)
	other := seedMatch(t, st, "c2", "j1", 50, true)

	for _, fb := range []*model.MatchFeedback{
		{MatchResultID: m1.ID, FeedbackType: model.FeedbackPositive, FeedbackBy: "alex"},
		{MatchResultID: m2.ID, FeedbackType: model.FeedbackNegative, FeedbackBy: "alex"},
		{MatchResultID: other.ID, FeedbackType: model.FeedbackPositive, FeedbackBy: "alex"},
	} {
		_, err := st.SubmitFeedback(ctx, fb)
		require.NoError(t, err)
	}

	rows, err := st.ListFeedbackForCandidate(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, rows, 2, "only c1's rows across both jobs are returned")
	ids := []string{rows[0].MatchResultID, rows[1].MatchResultID}
	assert.ElementsMatch(t, []string{m1.ID, m2.ID}, ids)

	rows, err = st.ListFeedbackForCandidate(ctx, "c-none")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
