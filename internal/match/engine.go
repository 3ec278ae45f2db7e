// Package match orchestrates the scoring pipeline for candidate-job
// pairs: attribute scoring, rule evaluation, semantic blending, the
// feedback multiplier, and persistence with per-job ranking.
package match

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hiredeck/match-engine/internal/feedback"
	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/resilience"
	"github.com/hiredeck/match-engine/internal/rules"
	"github.com/hiredeck/match-engine/internal/scoring"
	"github.com/hiredeck/match-engine/internal/store"
	"github.com/hiredeck/match-engine/pkg/semantic"
)

const (
	// DefaultConcurrency caps simultaneous pair evaluations in a batch.
	DefaultConcurrency = 8
	// DefaultSemanticTimeout bounds each call to the match service.
	DefaultSemanticTimeout = 5 * time.Second
)

// ErrInvalidTransition is returned when a review status change is not
// allowed from the result's current status.
var ErrInvalidTransition = eris.New("match: invalid review status transition")

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	// Weights are the fallback category weights for jobs without their own.
	Weights model.CategoryWeights

	// MLWeight is the fallback semantic share for jobs without their own.
	MLWeight float64

	// Feedback tunes the reviewer feedback multiplier fold.
	Feedback feedback.Params

	// Concurrency caps simultaneous pair evaluations in a batch.
	Concurrency int

	// SkipDisqualified drops disqualified pairs entirely instead of
	// persisting them with preFilterPassed false.
	SkipDisqualified bool

	// SemanticTimeout bounds each match service call.
	SemanticTimeout time.Duration

	// Retry wraps match result writes.
	Retry resilience.RetryConfig

	// Circuit protects the match service.
	Circuit resilience.CircuitBreakerConfig
}

// Engine runs the scoring pipeline against a Store. The rule provider is
// pluggable so dry runs can evaluate unsaved rules against stored pairs.
type Engine struct {
	store    store.Store
	provider rules.RuleProvider
	semantic semantic.Client
	breaker  *resilience.CircuitBreaker
	cfg      Config
}

// New creates an Engine. A nil provider reads rules from the store; a nil
// semantic client disables blending and every result stays rule-only.
func New(st store.Store, provider rules.RuleProvider, sem semantic.Client, cfg Config) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.SemanticTimeout <= 0 {
		cfg.SemanticTimeout = DefaultSemanticTimeout
	}
	if cfg.MLWeight <= 0 {
		cfg.MLWeight = scoring.DefaultMLWeight
	}
	if provider == nil {
		provider = rules.NewStoreProvider(st)
	}
	return &Engine{
		store:    st,
		provider: provider,
		semantic: sem,
		breaker:  resilience.NewCircuitBreaker(cfg.Circuit),
		cfg:      cfg,
	}
}

// pairInput bundles the preloaded rows needed to score one pair.
type pairInput struct {
	candidate *model.CandidateProfile
	skills    []model.CandidateSkill
	job       *model.JobProfile
	required  []model.RequiredSkill
	rules     []model.ScoringRule
	semantic  *float64
}

// CalculateMatch scores one candidate against one job and upserts the
// result. Ranks are not assigned here; job batches rebuild them.
func (e *Engine) CalculateMatch(ctx context.Context, candidateID, jobID string) (*model.MatchResult, error) {
	in, err := e.loadPair(ctx, candidateID, jobID, e.provider)
	if err != nil {
		return nil, err
	}
	in.semantic = semanticFor(e.semanticScores(ctx, jobID, []string{candidateID}), candidateID)

	res, err := e.scorePair(ctx, in)
	if err != nil {
		return nil, err
	}
	if !res.PreFilterPassed && e.cfg.SkipDisqualified {
		zap.L().Info("match: pair disqualified, not persisted",
			zap.String("candidate_id", candidateID),
			zap.String("job_id", jobID),
			zap.String("reason", res.DisqualifyReason),
		)
		return res, nil
	}
	if err := e.persistPair(ctx, res); err != nil {
		return nil, eris.Wrapf(err, "match: persist %s/%s", candidateID, jobID)
	}
	return res, nil
}

// BatchMatchJob scores candidates against one job: one semantic call for
// the whole set, concurrent per-pair evaluation, then a rank rebuild once
// every pair has settled. candidateIDs narrows the set; empty means every
// stored candidate. Pair failures are counted and logged, never aborting
// the batch; the returned summary is valid even when err is non-nil.
func (e *Engine) BatchMatchJob(ctx context.Context, jobID string, candidateIDs []string) (*model.BatchSummary, error) {
	start := time.Now()
	log := zap.L().With(zap.String("job_id", jobID))

	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, eris.Wrapf(err, "match: load job %s", jobID)
	}
	required, err := e.store.GetRequiredSkills(ctx, jobID)
	if err != nil {
		return nil, eris.Wrapf(err, "match: load required skills for %s", jobID)
	}
	ruleList, err := e.provider.ApplicableRules(ctx, jobID)
	if err != nil {
		return nil, eris.Wrapf(err, "match: load rules for %s", jobID)
	}
	candidates, err := e.loadCandidates(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	semScores := e.semanticScores(ctx, jobID, ids)

	log.Info("match: starting job batch",
		zap.Int("candidates", len(candidates)),
		zap.Int("rules", len(ruleList)),
		zap.Bool("semantic", semScores != nil),
	)

	var written, disqualified, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i := range candidates {
		candidate := &candidates[i]
		g.Go(func() error {
			in := pairInput{
				candidate: candidate,
				job:       job,
				required:  required,
				rules:     ruleList,
				semantic:  semanticFor(semScores, candidate.ID),
			}
			if err := e.matchPair(gctx, in, &written, &disqualified); err != nil {
				failed.Add(1)
				log.Error("match: pair failed",
					zap.String("candidate_id", candidate.ID),
					zap.String("class", resilience.ClassifyError(err)),
					zap.Error(err),
				)
			}
			return nil // pair failures never abort the batch
		})
	}
	_ = g.Wait()

	summary := &model.BatchSummary{
		JobID:        jobID,
		Evaluated:    len(candidates),
		Written:      int(written.Load()),
		Disqualified: int(disqualified.Load()),
		Failed:       int(failed.Load()),
		SemanticUsed: semScores != nil,
		Duration:     time.Since(start).Milliseconds(),
	}

	// A cancelled batch keeps its partial writes; only the rank rebuild
	// is skipped because it needs the full set.
	if err := ctx.Err(); err != nil {
		return summary, eris.Wrap(err, "match: batch cancelled")
	}
	if err := e.store.UpdateRanks(ctx, jobID); err != nil {
		return summary, eris.Wrapf(err, "match: rebuild ranks for %s", jobID)
	}

	log.Info("match: job batch complete",
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("written", summary.Written),
		zap.Int("disqualified", summary.Disqualified),
		zap.Int("failed", summary.Failed),
		zap.Int64("duration_ms", summary.Duration),
	)
	return summary, nil
}

// MatchCandidateAllJobs scores one candidate against every open job with
// the same per-pair isolation as a job batch. Ranks are per-job, so no
// rank rebuild happens here.
func (e *Engine) MatchCandidateAllJobs(ctx context.Context, candidateID string) (*model.BatchSummary, error) {
	start := time.Now()

	candidate, err := e.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrapf(err, "match: load candidate %s", candidateID)
	}
	skills, err := e.store.GetCandidateSkills(ctx, candidateID)
	if err != nil {
		return nil, eris.Wrapf(err, "match: load skills for %s", candidateID)
	}
	jobs, err := e.store.ListOpenJobs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "match: list open jobs")
	}

	log := zap.L().With(zap.String("candidate_id", candidateID))
	log.Info("match: starting candidate batch", zap.Int("jobs", len(jobs)))

	var written, disqualified, failed atomic.Int64
	var semUsed atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			err := e.matchAgainstJob(gctx, candidate, skills, job, &written, &disqualified, &semUsed)
			if err != nil {
				failed.Add(1)
				log.Error("match: pair failed",
					zap.String("job_id", job.ID),
					zap.String("class", resilience.ClassifyError(err)),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := &model.BatchSummary{
		CandidateID:  candidateID,
		Evaluated:    len(jobs),
		Written:      int(written.Load()),
		Disqualified: int(disqualified.Load()),
		Failed:       int(failed.Load()),
		SemanticUsed: semUsed.Load(),
		Duration:     time.Since(start).Milliseconds(),
	}
	if err := ctx.Err(); err != nil {
		return summary, eris.Wrap(err, "match: batch cancelled")
	}

	log.Info("match: candidate batch complete",
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("written", summary.Written),
		zap.Int("disqualified", summary.Disqualified),
		zap.Int("failed", summary.Failed),
		zap.Int64("duration_ms", summary.Duration),
	)
	return summary, nil
}

// EvaluateRules runs only the rule stage for a pair with fresh attribute
// scores, returning the outcome and audit trail without persisting.
func (e *Engine) EvaluateRules(ctx context.Context, candidateID, jobID string) (*rules.Outcome, error) {
	in, err := e.loadPair(ctx, candidateID, jobID, e.provider)
	if err != nil {
		return nil, err
	}
	attr := scoring.Score(in.candidate, in.skills, in.job, in.required, e.cfg.Weights)
	state := rules.NewState(attr)
	rctx := rules.NewContext(in.candidate, in.skills, in.job, state)
	outcome := rules.Evaluate(candidateID, jobID, in.rules, rctx, state)
	return &outcome, nil
}

// DryRun scores a pair through the full pipeline using the supplied rules
// instead of the stored ones. Nothing is persisted; the returned result
// carries the would-be scores and audit trail.
func (e *Engine) DryRun(ctx context.Context, candidateID, jobID string, ruleList []model.ScoringRule) (*model.MatchResult, error) {
	in, err := e.loadPair(ctx, candidateID, jobID, rules.StaticProvider{Rules: ruleList})
	if err != nil {
		return nil, err
	}
	in.semantic = semanticFor(e.semanticScores(ctx, jobID, []string{candidateID}), candidateID)
	return e.scorePair(ctx, in)
}

// TestRule reports how one rule's conditions resolve against a stored
// pair, leaf by leaf, without applying actions or persisting anything.
func (e *Engine) TestRule(ctx context.Context, candidateID, jobID string, rule model.ScoringRule) (*rules.TestReport, error) {
	in, err := e.loadPair(ctx, candidateID, jobID, rules.StaticProvider{})
	if err != nil {
		return nil, err
	}
	attr := scoring.Score(in.candidate, in.skills, in.job, in.required, e.cfg.Weights)
	state := rules.NewState(attr)
	rctx := rules.NewContext(in.candidate, in.skills, in.job, state)
	report := rules.TestRule(rule, rctx, state)
	return &report, nil
}

// RefreshMatchScores recomputes the candidate's feedback multiplier and
// rewrites the overall score of every stored result from its preserved
// blended score. Scoring, rules, and the match service never re-run here.
func (e *Engine) RefreshMatchScores(ctx context.Context, candidateID string) (int, error) {
	fbRows, err := e.store.ListFeedbackForCandidate(ctx, candidateID)
	if err != nil {
		return 0, eris.Wrapf(err, "match: load feedback for candidate %s", candidateID)
	}
	multiplier := feedback.Multiplier(fbRows, e.cfg.Feedback)

	matches, err := e.store.ListMatchesForCandidate(ctx, candidateID, store.MatchFilter{})
	if err != nil {
		return 0, eris.Wrapf(err, "match: list results for %s", candidateID)
	}

	updated := 0
	for _, m := range matches {
		overall := feedback.Apply(m.BlendedScore, multiplier)
		if err := e.store.UpdateMatchScore(ctx, m.ID, multiplier, overall); err != nil {
			return updated, eris.Wrapf(err, "match: update score %s", m.ID)
		}
		updated++
	}
	zap.L().Info("match: refreshed scores",
		zap.String("candidate_id", candidateID),
		zap.Float64("multiplier", multiplier),
		zap.Int("updated", updated),
	)
	return updated, nil
}

// SubmitFeedback records one reviewer's verdict on a match and refreshes
// the candidate's scores. Resubmitting the same type toggles the row off;
// the opposite type replaces it.
func (e *Engine) SubmitFeedback(ctx context.Context, matchResultID, reviewer string, ft model.FeedbackType, notes string) (model.FeedbackChange, error) {
	if !ft.Valid() {
		return "", eris.Errorf("match: invalid feedback type %q", ft)
	}
	if reviewer == "" {
		return "", eris.New("match: feedback reviewer is empty")
	}
	m, err := e.store.GetMatch(ctx, matchResultID)
	if err != nil {
		return "", eris.Wrapf(err, "match: load result %s", matchResultID)
	}

	change, err := e.store.SubmitFeedback(ctx, &model.MatchFeedback{
		MatchResultID: matchResultID,
		FeedbackType:  ft,
		FeedbackBy:    reviewer,
		Notes:         notes,
	})
	if err != nil {
		return "", eris.Wrapf(err, "match: submit feedback on %s", matchResultID)
	}
	if _, err := e.RefreshMatchScores(ctx, m.CandidateID); err != nil {
		return change, err
	}
	return change, nil
}

// RemoveFeedback deletes a reviewer's row and refreshes the candidate's
// scores.
func (e *Engine) RemoveFeedback(ctx context.Context, matchResultID, reviewer string) error {
	m, err := e.store.GetMatch(ctx, matchResultID)
	if err != nil {
		return eris.Wrapf(err, "match: load result %s", matchResultID)
	}
	if err := e.store.DeleteFeedback(ctx, matchResultID, reviewer); err != nil {
		return eris.Wrapf(err, "match: remove feedback on %s", matchResultID)
	}
	_, err = e.RefreshMatchScores(ctx, m.CandidateID)
	return err
}

// UpdateReviewStatus moves a result through the review workflow. Results
// start pending; once reviewed they never return to pending.
func (e *Engine) UpdateReviewStatus(ctx context.Context, matchResultID string, next model.ReviewStatus) error {
	m, err := e.store.GetMatch(ctx, matchResultID)
	if err != nil {
		return eris.Wrapf(err, "match: load result %s", matchResultID)
	}
	if !m.ReviewStatus.CanTransition(next) {
		return eris.Wrapf(ErrInvalidTransition, "%s to %s", m.ReviewStatus, next)
	}
	if err := e.store.UpdateReviewStatus(ctx, matchResultID, next); err != nil {
		return eris.Wrapf(err, "match: update review status %s", matchResultID)
	}
	return nil
}

// scorePair runs attribute scoring, rules, blending, and the feedback
// multiplier for one pair. It reads the candidate's feedback rows but
// writes nothing.
func (e *Engine) scorePair(ctx context.Context, in pairInput) (*model.MatchResult, error) {
	attr := scoring.Score(in.candidate, in.skills, in.job, in.required, e.cfg.Weights)
	state := rules.NewState(attr)
	rctx := rules.NewContext(in.candidate, in.skills, in.job, state)
	outcome := rules.Evaluate(in.candidate.ID, in.job.ID, in.rules, rctx, state)

	res := &model.MatchResult{
		CandidateID:      in.candidate.ID,
		JobID:            in.job.ID,
		SkillScore:       attr.Skill,
		ExperienceScore:  attr.Experience,
		EducationScore:   attr.Education,
		LocationScore:    attr.Location,
		RulesApplied:     outcome.AuditTrail,
		PreFilterPassed:  outcome.PreFilterPassed,
		DisqualifyReason: outcome.DisqualifyReason,
		ReviewStatus:     model.ReviewPending,
	}

	// Disqualified pairs keep their rule-stage score for the audit trail
	// but never blend in the semantic signal.
	blended := outcome.FinalScore
	if !outcome.Disqualified && in.semantic != nil {
		res.SemanticScore = in.semantic
		res.SemanticUsed = true
		blended = scoring.Blend(outcome.FinalScore, in.semantic, scoring.EffectiveMLWeight(in.job.MLWeight, e.cfg.MLWeight))
	}
	res.BlendedScore = blended

	fbRows, err := e.store.ListFeedbackForCandidate(ctx, in.candidate.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "match: load feedback for candidate %s", in.candidate.ID)
	}
	res.FeedbackMultiplier = feedback.Multiplier(fbRows, e.cfg.Feedback)
	res.OverallScore = feedback.Apply(blended, res.FeedbackMultiplier)
	return res, nil
}

// matchPair finishes one pair inside a job batch: loads the candidate's
// skills, scores, and persists per the disqualification policy.
func (e *Engine) matchPair(ctx context.Context, in pairInput, written, disqualified *atomic.Int64) error {
	skills, err := e.store.GetCandidateSkills(ctx, in.candidate.ID)
	if err != nil {
		return eris.Wrapf(err, "match: load skills for %s", in.candidate.ID)
	}
	in.skills = skills

	res, err := e.scorePair(ctx, in)
	if err != nil {
		return err
	}
	if !res.PreFilterPassed {
		disqualified.Add(1)
		if e.cfg.SkipDisqualified {
			return nil
		}
	}
	if err := e.persistPair(ctx, res); err != nil {
		return eris.Wrapf(err, "match: persist %s/%s", in.candidate.ID, in.job.ID)
	}
	written.Add(1)
	return nil
}

// matchAgainstJob finishes one pair inside a candidate batch, with a
// per-job semantic lookup since the match service scores per job.
func (e *Engine) matchAgainstJob(ctx context.Context, candidate *model.CandidateProfile, skills []model.CandidateSkill, job *model.JobProfile, written, disqualified *atomic.Int64, semUsed *atomic.Bool) error {
	required, err := e.store.GetRequiredSkills(ctx, job.ID)
	if err != nil {
		return eris.Wrapf(err, "match: load required skills for %s", job.ID)
	}
	ruleList, err := e.provider.ApplicableRules(ctx, job.ID)
	if err != nil {
		return eris.Wrapf(err, "match: load rules for %s", job.ID)
	}
	sem := semanticFor(e.semanticScores(ctx, job.ID, []string{candidate.ID}), candidate.ID)
	if sem != nil {
		semUsed.Store(true)
	}

	res, err := e.scorePair(ctx, pairInput{
		candidate: candidate,
		skills:    skills,
		job:       job,
		required:  required,
		rules:     ruleList,
		semantic:  sem,
	})
	if err != nil {
		return err
	}
	if !res.PreFilterPassed {
		disqualified.Add(1)
		if e.cfg.SkipDisqualified {
			return nil
		}
	}
	if err := e.persistPair(ctx, res); err != nil {
		return eris.Wrapf(err, "match: persist %s/%s", candidate.ID, job.ID)
	}
	written.Add(1)
	return nil
}

// loadPair fetches everything needed to score one pair, failing fast when
// the candidate or job does not exist.
func (e *Engine) loadPair(ctx context.Context, candidateID, jobID string, provider rules.RuleProvider) (pairInput, error) {
	var in pairInput
	candidate, err := e.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return in, eris.Wrapf(err, "match: load candidate %s", candidateID)
	}
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return in, eris.Wrapf(err, "match: load job %s", jobID)
	}
	skills, err := e.store.GetCandidateSkills(ctx, candidateID)
	if err != nil {
		return in, eris.Wrapf(err, "match: load skills for %s", candidateID)
	}
	required, err := e.store.GetRequiredSkills(ctx, jobID)
	if err != nil {
		return in, eris.Wrapf(err, "match: load required skills for %s", jobID)
	}
	ruleList, err := provider.ApplicableRules(ctx, jobID)
	if err != nil {
		return in, eris.Wrapf(err, "match: load rules for %s", jobID)
	}
	return pairInput{
		candidate: candidate,
		skills:    skills,
		job:       job,
		required:  required,
		rules:     ruleList,
	}, nil
}

// loadCandidates resolves the batch candidate set. A provided id that
// does not exist fails the batch before any scoring starts.
func (e *Engine) loadCandidates(ctx context.Context, ids []string) ([]model.CandidateProfile, error) {
	if len(ids) == 0 {
		candidates, err := e.store.ListCandidates(ctx, store.CandidateFilter{})
		if err != nil {
			return nil, eris.Wrap(err, "match: list candidates")
		}
		return candidates, nil
	}
	candidates := make([]model.CandidateProfile, 0, len(ids))
	for _, id := range ids {
		c, err := e.store.GetCandidate(ctx, id)
		if err != nil {
			return nil, eris.Wrapf(err, "match: load candidate %s", id)
		}
		candidates = append(candidates, *c)
	}
	return candidates, nil
}

// persistPair upserts the result, retrying transient store errors.
func (e *Engine) persistPair(ctx context.Context, res *model.MatchResult) error {
	return resilience.Do(ctx, e.cfg.Retry, func(ctx context.Context) error {
		return e.store.UpsertMatchResult(ctx, res)
	})
}

// semanticScores asks the match service to score one job against the
// given candidates. Any failure, an open breaker included, degrades to
// nil and callers fall back to rule-only blending.
func (e *Engine) semanticScores(ctx context.Context, jobID string, candidateIDs []string) map[string]float64 {
	if e.semantic == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.SemanticTimeout)
	defer cancel()

	matches, err := resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) ([]semantic.Match, error) {
		return e.semantic.FindMatches(ctx, semantic.MatchRequest{JobID: jobID, CandidateIDs: candidateIDs})
	})
	if err != nil {
		zap.L().Warn("match: semantic scores unavailable, blending rule-only",
			zap.String("job_id", jobID),
			zap.Int("candidates", len(candidateIDs)),
			zap.Error(err),
		)
		return nil
	}

	scores := make(map[string]float64, len(matches))
	for _, m := range matches {
		scores[m.CandidateID] = m.CombinedScore
	}
	return scores
}

// semanticFor pulls one candidate's score out of a batch response. A
// missing entry degrades that pair only.
func semanticFor(scores map[string]float64, candidateID string) *float64 {
	if scores == nil {
		return nil
	}
	v, ok := scores[candidateID]
	if !ok {
		return nil
	}
	return &v
}
