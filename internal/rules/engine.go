package rules

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/scoring"
)

// Outcome is the rule stage's verdict for one candidate-job pair.
type Outcome struct {
	TotalRulesEvaluated int                             `json:"total_rules_evaluated"`
	RulesMatched        int                             `json:"rules_matched"`
	PreFilterPassed     bool                            `json:"pre_filter_passed"`
	Disqualified        bool                            `json:"disqualified"`
	DisqualifyReason    string                          `json:"disqualify_reason,omitempty"`
	OriginalScore       float64                         `json:"original_score"`
	FinalScore          float64                         `json:"final_score"`
	CategoryScores      map[model.ScoreCategory]float64 `json:"category_scores"`
	AuditTrail          []model.RuleApplication         `json:"audit_trail"`
}

// Evaluate runs the applicable rules in order against the pair's context,
// mutating the state as matched rules apply their actions. A disqualify
// action halts immediately; a matched stopOnMatch rule halts after its own
// actions; a malformed rule is skipped, counted as not matched, and
// logged. A single bad rule never aborts the pair.
func Evaluate(candidateID, jobID string, ruleList []model.ScoringRule, ctx *Context, state *State) Outcome {
	log := zap.L().With(
		zap.String("candidate_id", candidateID),
		zap.String("job_id", jobID),
	)

	out := Outcome{
		PreFilterPassed: true,
		OriginalScore:   state.Overall,
		FinalScore:      state.Overall,
	}

	active := make([]model.ScoringRule, 0, len(ruleList))
	for _, r := range ruleList {
		if r.Active {
			active = append(active, r)
		}
	}
	model.SortRules(active)

	for _, rule := range active {
		out.TotalRulesEvaluated++

		matched, err := safeEval(rule, ctx)
		if err != nil {
			log.Warn("rules: skipping malformed rule",
				zap.String("rule_id", rule.ID),
				zap.String("rule_name", rule.Name),
				zap.Error(err),
			)
			out.AuditTrail = append(out.AuditTrail, model.RuleApplication{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Error:    err.Error(),
			})
			continue
		}
		if !matched {
			out.AuditTrail = append(out.AuditTrail, model.RuleApplication{
				RuleID:   rule.ID,
				RuleName: rule.Name,
			})
			continue
		}

		out.RulesMatched++
		app := model.RuleApplication{RuleID: rule.ID, RuleName: rule.Name, Matched: true}
		for _, action := range rule.Actions {
			effect, halt := applyAction(action, state, &out)
			app.Effects = append(app.Effects, effect)
			if halt {
				break
			}
		}

		if out.Disqualified || rule.StopOnMatch {
			app.Halted = true
			out.AuditTrail = append(out.AuditTrail, app)
			break
		}
		out.AuditTrail = append(out.AuditTrail, app)
	}

	out.FinalScore = state.Overall
	out.CategoryScores = state.Clone().Categories
	return out
}

// safeEval validates and evaluates one rule's conditions, converting any
// panic from a malformed document into an error for the skip path.
func safeEval(rule model.ScoringRule, ctx *Context) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = eris.Errorf("rules: evaluate rule %s: panic: %v", rule.ID, r)
		}
	}()

	if verr := rule.Conditions.Validate(); verr != nil {
		return false, eris.Wrapf(verr, "rules: rule %s conditions", rule.ID)
	}
	if len(rule.Actions) == 0 {
		return false, eris.Errorf("rules: rule %s has no actions", rule.ID)
	}
	for i, a := range rule.Actions {
		if verr := a.Validate(); verr != nil {
			return false, eris.Wrapf(verr, "rules: rule %s action %d", rule.ID, i)
		}
	}
	return evalTree(rule.Conditions, ctx), nil
}

// applyAction mutates the running state and records the effect. The bool
// result reports a disqualification halt; remaining actions of the rule
// are not applied after it.
func applyAction(a model.Action, state *State, out *Outcome) (model.ActionEffect, bool) {
	effect := model.ActionEffect{Action: a}

	switch a.Kind {
	case model.ActionDisqualify:
		effect.Target = "disqualified"
		out.Disqualified = true
		out.PreFilterPassed = false
		out.DisqualifyReason = a.Reason
		return effect, true

	case model.ActionSetCategory:
		effect.Target = string(a.Category)
		effect.Before = state.Categories[a.Category]
		state.Categories[a.Category] = scoring.Clamp(a.Value)
		effect.After = state.Categories[a.Category]

	case model.ActionModifyCategory:
		effect.Target = string(a.Category)
		before := state.Categories[a.Category]
		effect.Before = before
		v := before
		if a.Op == model.ModifyAdditive {
			v = before + a.Value
		} else {
			v = before * a.Value
		}
		state.Categories[a.Category] = scoring.Clamp(v)
		effect.After = state.Categories[a.Category]

	case model.ActionSetOverall:
		effect.Target = "overall"
		effect.Before = state.Overall
		state.Overall = scoring.Clamp(a.Value)
		effect.After = state.Overall
	}

	return effect, false
}
