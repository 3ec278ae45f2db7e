package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionTreeUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "leaf",
			doc:  `{"field":"candidate.total_experience_years","operator":">=","value":3}`,
		},
		{
			name: "leaf with zero value",
			doc:  `{"field":"scores.skill","operator":"=","value":0}`,
		},
		{
			name: "and combinator",
			doc:  `{"and":[{"field":"a","operator":">","value":1},{"field":"b","operator":"<","value":2}]}`,
		},
		{
			name: "nested or inside and",
			doc:  `{"and":[{"or":[{"field":"a","operator":"=","value":"x"},{"field":"a","operator":"=","value":"y"}]},{"field":"b","operator":">=","value":5}]}`,
		},
		{
			name: "in with list value",
			doc:  `{"field":"candidate.city","operator":"in","value":["austin","dallas"]}`,
		},
		{
			name:    "unknown operator",
			doc:     `{"field":"a","operator":"~=","value":1}`,
			wantErr: "unknown operator",
		},
		{
			name:    "missing value key",
			doc:     `{"field":"a","operator":"="}`,
			wantErr: "requires field, operator, and value",
		},
		{
			name:    "missing field key",
			doc:     `{"operator":"=","value":1}`,
			wantErr: "requires field, operator, and value",
		},
		{
			name:    "empty field",
			doc:     `{"field":"  ","operator":"=","value":1}`,
			wantErr: "field is empty",
		},
		{
			name:    "both and and or",
			doc:     `{"and":[{"field":"a","operator":"=","value":1}],"or":[{"field":"b","operator":"=","value":1}]}`,
			wantErr: "mixes and/or",
		},
		{
			name:    "leaf keys mixed with combinator",
			doc:     `{"and":[{"field":"a","operator":"=","value":1}],"field":"b"}`,
			wantErr: "mixes leaf and combinator",
		},
		{
			name:    "empty and children",
			doc:     `{"and":[]}`,
			wantErr: "no children",
		},
		{
			name:    "unknown key",
			doc:     `{"field":"a","operator":"=","value":1,"weight":2}`,
			wantErr: "unknown key",
		},
		{
			name:    "in with scalar value",
			doc:     `{"field":"a","operator":"in","value":3}`,
			wantErr: "requires a list value",
		},
		{
			name:    "invalid child propagates",
			doc:     `{"or":[{"field":"a","operator":"??","value":1}]}`,
			wantErr: "unknown operator",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var tree ConditionTree
			err := json.Unmarshal([]byte(tt.doc), &tree)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, tree.Validate())
		})
	}
}

func TestConditionTreeRoundTrip(t *testing.T) {
	t.Parallel()

	docs := []string{
		`{"field":"scores.overall","operator":">","value":0}`,
		`{"and":[{"field":"a","operator":">=","value":1},{"or":[{"field":"b","operator":"=","value":"x"},{"field":"c","operator":"in","value":["p","q"]}]}]}`,
	}
	for _, doc := range docs {
		var tree ConditionTree
		require.NoError(t, json.Unmarshal([]byte(doc), &tree))
		out, err := json.Marshal(tree)
		require.NoError(t, err)
		assert.JSONEq(t, doc, string(out))
	}
}

func TestActionUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "disqualify",
			doc:  `{"type":"disqualify","reason":"missing work authorization"}`,
		},
		{
			name: "set category score",
			doc:  `{"type":"set_category_score","category":"skill","value":85}`,
		},
		{
			name: "set category score zero",
			doc:  `{"type":"set_category_score","category":"location","value":0}`,
		},
		{
			name: "modify additive",
			doc:  `{"type":"modify_category_score","category":"experience","op":"additive","value":-10}`,
		},
		{
			name: "modify multiplicative",
			doc:  `{"type":"modify_category_score","category":"education","op":"multiplicative","value":1.2}`,
		},
		{
			name: "set overall",
			doc:  `{"type":"set_overall_score","value":95}`,
		},
		{
			name:    "unknown type",
			doc:     `{"type":"boost_score","value":10}`,
			wantErr: "unknown action type",
		},
		{
			name:    "missing type",
			doc:     `{"value":10}`,
			wantErr: "missing type",
		},
		{
			name:    "disqualify without reason",
			doc:     `{"type":"disqualify"}`,
			wantErr: "requires a reason",
		},
		{
			name:    "set category out of range",
			doc:     `{"type":"set_category_score","category":"skill","value":120}`,
			wantErr: "out of range",
		},
		{
			name:    "set overall negative",
			doc:     `{"type":"set_overall_score","value":-5}`,
			wantErr: "out of range",
		},
		{
			name:    "unknown category",
			doc:     `{"type":"set_category_score","category":"charisma","value":50}`,
			wantErr: "unknown score category",
		},
		{
			name:    "unknown modify op",
			doc:     `{"type":"modify_category_score","category":"skill","op":"exponential","value":2}`,
			wantErr: "unknown modify op",
		},
		{
			name:    "unknown key for kind",
			doc:     `{"type":"set_overall_score","value":50,"category":"skill"}`,
			wantErr: "unknown key",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var a Action
			err := json.Unmarshal([]byte(tt.doc), &a)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			out, err := json.Marshal(a)
			require.NoError(t, err)
			assert.JSONEq(t, tt.doc, string(out))
		})
	}
}

func TestActionSetRejectsEmpty(t *testing.T) {
	t.Parallel()

	var s ActionSet
	err := json.Unmarshal([]byte(`[]`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action set is empty")

	require.NoError(t, json.Unmarshal([]byte(`[{"type":"set_overall_score","value":10}]`), &s))
	assert.Len(t, s, 1)
}

func TestScoringRuleValidate(t *testing.T) {
	t.Parallel()

	valid := ScoringRule{
		Name:       "minimum experience gate",
		JobID:      "job-1",
		Conditions: ConditionTree{Field: "candidate.total_experience_years", Operator: OpLess, Value: 2.0},
		Actions:    ActionSet{{Kind: ActionDisqualify, Reason: "below minimum experience"}},
	}
	assert.NoError(t, valid.Validate())

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		r := valid
		r.Name = " "
		assert.ErrorContains(t, r.Validate(), "name is empty")
	})

	t.Run("job and template both set", func(t *testing.T) {
		t.Parallel()
		r := valid
		r.TemplateID = "tmpl-1"
		assert.ErrorContains(t, r.Validate(), "both a job and a template")
	})

	t.Run("empty conditions", func(t *testing.T) {
		t.Parallel()
		r := valid
		r.Conditions = ConditionTree{}
		assert.ErrorContains(t, r.Validate(), "empty condition")
	})

	t.Run("no actions", func(t *testing.T) {
		t.Parallel()
		r := valid
		r.Actions = nil
		assert.ErrorContains(t, r.Validate(), "no actions")
	})

	t.Run("invalid action", func(t *testing.T) {
		t.Parallel()
		r := valid
		r.Actions = ActionSet{{Kind: ActionSetOverall, Value: 150}}
		assert.ErrorContains(t, r.Validate(), "out of range")
	})
}

func TestSortRules(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rules := []ScoringRule{
		{ID: "d", Priority: 2, ExecutionOrder: 1},
		{ID: "b", Priority: 1, ExecutionOrder: 2},
		{ID: "a", Priority: 1, ExecutionOrder: 1},
		{ID: "c", Priority: 1, ExecutionOrder: 3, CreatedAt: base.Add(time.Hour)},
		{ID: "c0", Priority: 1, ExecutionOrder: 3, CreatedAt: base},
	}
	SortRules(rules)

	got := make([]string, len(rules))
	for i, r := range rules {
		got[i] = r.ID
	}
	assert.Equal(t, []string{"a", "b", "c0", "c", "d"}, got)
}
