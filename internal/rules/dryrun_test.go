package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiredeck/match-engine/internal/model"
)

func TestTestRuleMatched(t *testing.T) {
	t.Parallel()

	ctx, state := newTestEval()
	rule := model.ScoringRule{
		ID: "boost", Name: "verified boost", Active: true,
		Conditions: model.ConditionTree{All: []model.ConditionTree{
			leaf("candidate.verified_skill_count", model.OpGreaterOrEqual, 1.0),
			leaf("scores.skill", model.OpGreater, 60.0),
		}},
		Actions: model.ActionSet{
			{Kind: model.ActionModifyCategory, Category: model.CategorySkill, Op: model.ModifyAdditive, Value: 15},
		},
	}

	report := TestRule(rule, ctx, state)

	assert.True(t, report.Matched)
	assert.Empty(t, report.Error)
	require.Len(t, report.Leaves, 2)
	assert.True(t, report.Leaves[0].Passed)
	assert.True(t, report.Leaves[1].Passed)
	assert.InDelta(t, 70, report.CategoriesBefore[model.CategorySkill], 0.001)
	assert.InDelta(t, 85, report.CategoriesAfter[model.CategorySkill], 0.001)
	require.Len(t, report.Effects, 1)

	// The live state is untouched; only the scratch copy moved.
	assert.InDelta(t, 70, state.Categories[model.CategorySkill], 0.001)
}

func TestTestRuleNotMatched(t *testing.T) {
	t.Parallel()

	ctx, state := newTestEval()
	rule := model.ScoringRule{
		ID: "miss", Name: "too strict",
		Conditions: leaf("candidate.total_experience_years", model.OpGreater, 20.0),
		Actions:    model.ActionSet{{Kind: model.ActionSetOverall, Value: 100}},
	}

	report := TestRule(rule, ctx, state)

	assert.False(t, report.Matched)
	require.Len(t, report.Leaves, 1)
	assert.False(t, report.Leaves[0].Passed)
	assert.InDelta(t, 6, report.Leaves[0].Actual.(float64), 0.001)
	assert.Empty(t, report.Effects)
	assert.InDelta(t, report.OverallBefore, report.OverallAfter, 0.001)
}

func TestTestRuleWouldDisqualify(t *testing.T) {
	t.Parallel()

	ctx, state := newTestEval()
	rule := model.ScoringRule{
		ID: "gate", Name: "hard gate",
		Conditions: leaf("scores.location", model.OpGreater, 0.0),
		Actions: model.ActionSet{
			{Kind: model.ActionDisqualify, Reason: "wrong region"},
			{Kind: model.ActionSetOverall, Value: 99},
		},
	}

	report := TestRule(rule, ctx, state)

	assert.True(t, report.Matched)
	assert.True(t, report.WouldDisqualify)
	assert.Equal(t, "wrong region", report.DisqualifyReason)
	// Actions after disqualify never apply, even in a dry run.
	require.Len(t, report.Effects, 1)
	assert.InDelta(t, 75, report.OverallAfter, 0.001)
}

func TestTestRuleInvalidRule(t *testing.T) {
	t.Parallel()

	ctx, state := newTestEval()
	rule := model.ScoringRule{
		ID: "bad", Name: "invalid action",
		Conditions: leaf("scores.overall", model.OpGreater, 0.0),
		Actions:    model.ActionSet{{Kind: model.ActionSetCategory, Category: "charisma", Value: 50}},
	}

	report := TestRule(rule, ctx, state)

	assert.False(t, report.Matched)
	assert.NotEmpty(t, report.Error)
	assert.Empty(t, report.Leaves)
}
