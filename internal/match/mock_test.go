package match

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/store"
	"github.com/hiredeck/match-engine/pkg/semantic"
)

// --- Store mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertCandidate(ctx context.Context, c *model.CandidateProfile) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) GetCandidate(ctx context.Context, id string) (*model.CandidateProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CandidateProfile), args.Error(1)
}

func (m *mockStore) ListCandidates(ctx context.Context, filter store.CandidateFilter) ([]model.CandidateProfile, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CandidateProfile), args.Error(1)
}

func (m *mockStore) ImportCandidates(ctx context.Context, candidates []model.CandidateProfile) (int64, error) {
	args := m.Called(ctx, candidates)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) GetCandidateSkills(ctx context.Context, candidateID string) ([]model.CandidateSkill, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CandidateSkill), args.Error(1)
}

func (m *mockStore) SetCandidateSkill(ctx context.Context, cs model.CandidateSkill) error {
	return m.Called(ctx, cs).Error(0)
}

func (m *mockStore) UpsertJob(ctx context.Context, j *model.JobProfile) error {
	return m.Called(ctx, j).Error(0)
}

func (m *mockStore) GetJob(ctx context.Context, id string) (*model.JobProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JobProfile), args.Error(1)
}

func (m *mockStore) ListOpenJobs(ctx context.Context) ([]model.JobProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.JobProfile), args.Error(1)
}

func (m *mockStore) GetRequiredSkills(ctx context.Context, jobID string) ([]model.RequiredSkill, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RequiredSkill), args.Error(1)
}

func (m *mockStore) SetRequiredSkill(ctx context.Context, rs model.RequiredSkill) error {
	return m.Called(ctx, rs).Error(0)
}

func (m *mockStore) UpsertSkill(ctx context.Context, s model.Skill) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStore) CreateRule(ctx context.Context, r *model.ScoringRule) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) UpdateRule(ctx context.Context, r *model.ScoringRule) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) DeleteRule(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) GetRule(ctx context.Context, id string) (*model.ScoringRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScoringRule), args.Error(1)
}

func (m *mockStore) ListRulesForJob(ctx context.Context, jobID string, activeOnly bool) ([]model.ScoringRule, error) {
	args := m.Called(ctx, jobID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoringRule), args.Error(1)
}

func (m *mockStore) ListRulesForTemplate(ctx context.Context, templateID string, activeOnly bool) ([]model.ScoringRule, error) {
	args := m.Called(ctx, templateID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScoringRule), args.Error(1)
}

func (m *mockStore) SetRuleActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockStore) CreateTemplate(ctx context.Context, tpl *model.RuleTemplate) error {
	return m.Called(ctx, tpl).Error(0)
}

func (m *mockStore) ListTemplates(ctx context.Context) ([]model.RuleTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RuleTemplate), args.Error(1)
}

func (m *mockStore) DuplicateTemplate(ctx context.Context, templateID, newName string) (*model.RuleTemplate, error) {
	args := m.Called(ctx, templateID, newName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RuleTemplate), args.Error(1)
}

func (m *mockStore) UpsertMatchResult(ctx context.Context, res *model.MatchResult) error {
	return m.Called(ctx, res).Error(0)
}

func (m *mockStore) GetMatch(ctx context.Context, id string) (*model.MatchResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MatchResult), args.Error(1)
}

func (m *mockStore) GetMatchByPair(ctx context.Context, candidateID, jobID string) (*model.MatchResult, error) {
	args := m.Called(ctx, candidateID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MatchResult), args.Error(1)
}

func (m *mockStore) ListMatchesForJob(ctx context.Context, jobID string, filter store.MatchFilter) ([]model.MatchResult, error) {
	args := m.Called(ctx, jobID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MatchResult), args.Error(1)
}

func (m *mockStore) ListMatchesForCandidate(ctx context.Context, candidateID string, filter store.MatchFilter) ([]model.MatchResult, error) {
	args := m.Called(ctx, candidateID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MatchResult), args.Error(1)
}

func (m *mockStore) UpdateRanks(ctx context.Context, jobID string) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *mockStore) UpdateReviewStatus(ctx context.Context, id string, status model.ReviewStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockStore) UpdateMatchScore(ctx context.Context, id string, multiplier, overall float64) error {
	return m.Called(ctx, id, multiplier, overall).Error(0)
}

func (m *mockStore) MatchStats(ctx context.Context, jobID string) (*model.MatchStats, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MatchStats), args.Error(1)
}

func (m *mockStore) SubmitFeedback(ctx context.Context, fb *model.MatchFeedback) (model.FeedbackChange, error) {
	args := m.Called(ctx, fb)
	return args.Get(0).(model.FeedbackChange), args.Error(1)
}

func (m *mockStore) DeleteFeedback(ctx context.Context, matchResultID, feedbackBy string) error {
	return m.Called(ctx, matchResultID, feedbackBy).Error(0)
}

func (m *mockStore) ListFeedback(ctx context.Context, matchResultID string) ([]model.MatchFeedback, error) {
	args := m.Called(ctx, matchResultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MatchFeedback), args.Error(1)
}

func (m *mockStore) ListFeedbackForCandidate(ctx context.Context, candidateID string) ([]model.MatchFeedback, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MatchFeedback), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Semantic client mock ---

type mockSemantic struct {
	mock.Mock
}

func (m *mockSemantic) FindMatches(ctx context.Context, req semantic.MatchRequest) ([]semantic.Match, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]semantic.Match), args.Error(1)
}
