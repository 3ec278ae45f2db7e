package rules

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/hiredeck/match-engine/internal/model"
)

// RuleProvider supplies the ordered applicable rules for a job. The match
// engine takes the provider as a parameter, so dry runs substitute a
// static provider without touching stored rules or engine state.
type RuleProvider interface {
	ApplicableRules(ctx context.Context, jobID string) ([]model.ScoringRule, error)
}

// RuleSource is the store surface the store-backed provider reads through.
type RuleSource interface {
	GetJob(ctx context.Context, id string) (*model.JobProfile, error)
	ListRulesForJob(ctx context.Context, jobID string, activeOnly bool) ([]model.ScoringRule, error)
	ListRulesForTemplate(ctx context.Context, templateID string, activeOnly bool) ([]model.ScoringRule, error)
}

// StoreProvider loads a job's own active rules, falling back to its
// template's rules when the job owns none. Exactly one rule set applies
// per job, never both.
type StoreProvider struct {
	src RuleSource
}

// NewStoreProvider creates a provider reading rules from the given source.
func NewStoreProvider(src RuleSource) *StoreProvider {
	return &StoreProvider{src: src}
}

// ApplicableRules implements RuleProvider.
func (p *StoreProvider) ApplicableRules(ctx context.Context, jobID string) ([]model.ScoringRule, error) {
	ruleList, err := p.src.ListRulesForJob(ctx, jobID, true)
	if err != nil {
		return nil, eris.Wrap(err, "rules: load job rules")
	}
	if len(ruleList) > 0 {
		model.SortRules(ruleList)
		return ruleList, nil
	}

	job, err := p.src.GetJob(ctx, jobID)
	if err != nil {
		return nil, eris.Wrap(err, "rules: load job")
	}
	if job.TemplateID == "" {
		return nil, nil
	}

	ruleList, err = p.src.ListRulesForTemplate(ctx, job.TemplateID, true)
	if err != nil {
		return nil, eris.Wrap(err, "rules: load template rules")
	}
	model.SortRules(ruleList)
	return ruleList, nil
}

// StaticProvider serves a fixed in-memory rule list. Dry runs and tests
// use it to inject rules without persisting them.
type StaticProvider struct {
	Rules []model.ScoringRule
}

// ApplicableRules implements RuleProvider.
func (p StaticProvider) ApplicableRules(context.Context, string) ([]model.ScoringRule, error) {
	out := append([]model.ScoringRule(nil), p.Rules...)
	model.SortRules(out)
	return out, nil
}
