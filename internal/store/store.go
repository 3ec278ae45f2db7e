package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/hiredeck/match-engine/internal/model"
)

// ErrNotFound marks lookups of rows that do not exist. Callers test for it
// with errors.Is.
var ErrNotFound = eris.New("store: not found")

// CandidateFilter specifies criteria for listing candidates.
type CandidateFilter struct {
	City   string `json:"city,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// MatchFilter specifies criteria for listing match results.
type MatchFilter struct {
	Status        model.ReviewStatus `json:"status,omitempty"`
	MinScore      float64            `json:"min_score,omitempty"`
	OnlyQualified bool               `json:"only_qualified,omitempty"`
	Limit         int                `json:"limit,omitempty"`
	Offset        int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for the match engine.
type Store interface {
	// Candidates
	UpsertCandidate(ctx context.Context, c *model.CandidateProfile) error
	GetCandidate(ctx context.Context, id string) (*model.CandidateProfile, error)
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]model.CandidateProfile, error)
	ImportCandidates(ctx context.Context, candidates []model.CandidateProfile) (int64, error)
	GetCandidateSkills(ctx context.Context, candidateID string) ([]model.CandidateSkill, error)
	SetCandidateSkill(ctx context.Context, cs model.CandidateSkill) error

	// Jobs
	UpsertJob(ctx context.Context, j *model.JobProfile) error
	GetJob(ctx context.Context, id string) (*model.JobProfile, error)
	ListOpenJobs(ctx context.Context) ([]model.JobProfile, error)
	GetRequiredSkills(ctx context.Context, jobID string) ([]model.RequiredSkill, error)
	SetRequiredSkill(ctx context.Context, rs model.RequiredSkill) error

	// Skills
	UpsertSkill(ctx context.Context, s model.Skill) error

	// Scoring rules
	CreateRule(ctx context.Context, r *model.ScoringRule) error
	UpdateRule(ctx context.Context, r *model.ScoringRule) error
	DeleteRule(ctx context.Context, id string) error
	GetRule(ctx context.Context, id string) (*model.ScoringRule, error)
	ListRulesForJob(ctx context.Context, jobID string, activeOnly bool) ([]model.ScoringRule, error)
	ListRulesForTemplate(ctx context.Context, templateID string, activeOnly bool) ([]model.ScoringRule, error)
	SetRuleActive(ctx context.Context, id string, active bool) error
	CreateTemplate(ctx context.Context, tpl *model.RuleTemplate) error
	ListTemplates(ctx context.Context) ([]model.RuleTemplate, error)
	DuplicateTemplate(ctx context.Context, templateID, newName string) (*model.RuleTemplate, error)

	// Match results
	UpsertMatchResult(ctx context.Context, m *model.MatchResult) error
	GetMatch(ctx context.Context, id string) (*model.MatchResult, error)
	GetMatchByPair(ctx context.Context, candidateID, jobID string) (*model.MatchResult, error)
	ListMatchesForJob(ctx context.Context, jobID string, filter MatchFilter) ([]model.MatchResult, error)
	ListMatchesForCandidate(ctx context.Context, candidateID string, filter MatchFilter) ([]model.MatchResult, error)
	UpdateRanks(ctx context.Context, jobID string) error
	UpdateReviewStatus(ctx context.Context, id string, status model.ReviewStatus) error
	UpdateMatchScore(ctx context.Context, id string, multiplier, overall float64) error
	MatchStats(ctx context.Context, jobID string) (*model.MatchStats, error)

	// Feedback
	SubmitFeedback(ctx context.Context, fb *model.MatchFeedback) (model.FeedbackChange, error)
	DeleteFeedback(ctx context.Context, matchResultID, feedbackBy string) error
	ListFeedback(ctx context.Context, matchResultID string) ([]model.MatchFeedback, error)
	ListFeedbackForCandidate(ctx context.Context, candidateID string) ([]model.MatchFeedback, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
