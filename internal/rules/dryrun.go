package rules

import (
	"github.com/rotisserie/eris"

	"github.com/hiredeck/match-engine/internal/model"
)

// LeafCheck reports one leaf comparison from a single-rule test.
type LeafCheck struct {
	Field    string         `json:"field"`
	Operator model.Operator `json:"operator"`
	Value    any            `json:"value"`
	Actual   any            `json:"actual,omitempty"`
	Passed   bool           `json:"passed"`
}

// TestReport is the outcome of running one rule in isolation against a
// real pair context. Nothing is persisted; score effects come from a
// scratch copy of the state.
type TestReport struct {
	Matched          bool                            `json:"matched"`
	Error            string                          `json:"error,omitempty"`
	Leaves           []LeafCheck                     `json:"leaves,omitempty"`
	WouldDisqualify  bool                            `json:"would_disqualify"`
	DisqualifyReason string                          `json:"disqualify_reason,omitempty"`
	OverallBefore    float64                         `json:"overall_before"`
	OverallAfter     float64                         `json:"overall_after"`
	CategoriesBefore map[model.ScoreCategory]float64 `json:"categories_before"`
	CategoriesAfter  map[model.ScoreCategory]float64 `json:"categories_after"`
	Effects          []model.ActionEffect            `json:"effects,omitempty"`
}

// TestRule evaluates one rule in isolation and reports would-match with
// per-leaf detail plus before/after scores.
func TestRule(rule model.ScoringRule, ctx *Context, state *State) TestReport {
	report := TestReport{
		OverallBefore:    state.Overall,
		OverallAfter:     state.Overall,
		CategoriesBefore: state.Clone().Categories,
		CategoriesAfter:  state.Clone().Categories,
	}

	if err := rule.Conditions.Validate(); err != nil {
		report.Error = err.Error()
		return report
	}
	for i, a := range rule.Actions {
		if err := a.Validate(); err != nil {
			report.Error = eris.Wrapf(err, "action %d", i).Error()
			return report
		}
	}

	report.Leaves = collectLeaves(rule.Conditions, ctx)
	if !evalTree(rule.Conditions, ctx) {
		return report
	}
	report.Matched = true

	scratch := state.Clone()
	var trial Outcome
	for _, action := range rule.Actions {
		effect, halt := applyAction(action, scratch, &trial)
		report.Effects = append(report.Effects, effect)
		if halt {
			break
		}
	}
	report.WouldDisqualify = trial.Disqualified
	report.DisqualifyReason = trial.DisqualifyReason
	report.OverallAfter = scratch.Overall
	report.CategoriesAfter = scratch.Categories
	return report
}

// collectLeaves records each leaf's evaluation for explain output.
func collectLeaves(tree model.ConditionTree, ctx *Context) []LeafCheck {
	if !tree.IsLeaf() {
		children := tree.All
		if len(children) == 0 {
			children = tree.Any
		}
		var out []LeafCheck
		for _, child := range children {
			out = append(out, collectLeaves(child, ctx)...)
		}
		return out
	}
	actual, _ := ctx.Lookup(tree.Field)
	return []LeafCheck{{
		Field:    tree.Field,
		Operator: tree.Operator,
		Value:    tree.Value,
		Actual:   actual,
		Passed:   evalLeaf(tree, ctx),
	}}
}
