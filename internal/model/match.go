package model

import "time"

// ReviewStatus tracks where a match result sits in the review workflow.
type ReviewStatus string

const (
	ReviewPending     ReviewStatus = "pending"
	ReviewReviewed    ReviewStatus = "reviewed"
	ReviewShortlisted ReviewStatus = "shortlisted"
	ReviewRejected    ReviewStatus = "rejected"
)

// reviewStates holds the recognized review statuses.
var reviewStates = map[ReviewStatus]bool{
	ReviewPending:     true,
	ReviewReviewed:    true,
	ReviewShortlisted: true,
	ReviewRejected:    true,
}

// Valid reports whether s is a recognized review status.
func (s ReviewStatus) Valid() bool {
	return reviewStates[s]
}

// CanTransition reports whether a reviewer may move a result from s to
// next. Results start pending and may move to any reviewed state; the
// reviewed states may move between each other; nothing returns to pending.
func (s ReviewStatus) CanTransition(next ReviewStatus) bool {
	if !s.Valid() || !next.Valid() || next == ReviewPending || next == s {
		return false
	}
	return true
}

// FeedbackType is a reviewer's verdict on a match.
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// Valid reports whether t is a recognized feedback type.
func (t FeedbackType) Valid() bool {
	return t == FeedbackPositive || t == FeedbackNegative
}

// FeedbackChange describes the net effect of a feedback submission.
// Resubmitting the same type toggles the row off; submitting the opposite
// type replaces it.
type FeedbackChange string

const (
	FeedbackAdded    FeedbackChange = "added"
	FeedbackReplaced FeedbackChange = "replaced"
	FeedbackRemoved  FeedbackChange = "removed"
)

// MatchFeedback is one reviewer's feedback on one match result. At most
// one row exists per (match result, reviewer).
type MatchFeedback struct {
	ID            string       `json:"id"`
	MatchResultID string       `json:"match_result_id"`
	FeedbackType  FeedbackType `json:"feedback_type"`
	FeedbackBy    string       `json:"feedback_by"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// MatchResult is the scored outcome for one candidate-job pair. One row
// exists per pair; re-scoring upserts scores and audit data but never
// resets the review status.
type MatchResult struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`

	// OverallScore is the published score: blended, then multiplied by the
	// candidate's feedback multiplier and clamped to [0,100].
	OverallScore float64 `json:"overall_score"`
	// BlendedScore is the pre-feedback blend; score refreshes re-apply the
	// multiplier to it without re-running scoring.
	BlendedScore    float64 `json:"blended_score"`
	SkillScore      float64 `json:"skill_score"`
	ExperienceScore float64 `json:"experience_score"`
	EducationScore  float64 `json:"education_score"`
	LocationScore   float64 `json:"location_score"`

	SemanticScore      *float64 `json:"semantic_score,omitempty"`
	SemanticUsed       bool     `json:"semantic_used"`
	FeedbackMultiplier float64  `json:"feedback_multiplier"`

	RulesApplied     []RuleApplication `json:"rules_applied,omitempty"`
	PreFilterPassed  bool              `json:"pre_filter_passed"`
	DisqualifyReason string            `json:"disqualify_reason,omitempty"`

	// Rank is the 1-based position among the job's qualified results,
	// assigned after a job batch completes. 0 means unranked.
	Rank         int          `json:"rank,omitempty"`
	ReviewStatus ReviewStatus `json:"review_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BatchSummary reports the outcome of a batch match operation.
type BatchSummary struct {
	JobID        string `json:"job_id,omitempty"`
	CandidateID  string `json:"candidate_id,omitempty"`
	Evaluated    int    `json:"evaluated"`
	Written      int    `json:"written"`
	Disqualified int    `json:"disqualified"`
	Failed       int    `json:"failed"`
	SemanticUsed bool   `json:"semantic_used"`
	Duration     int64  `json:"duration_ms"`
}

// MatchStats is an aggregate snapshot of a job's match results.
type MatchStats struct {
	JobID         string         `json:"job_id"`
	Total         int            `json:"total"`
	Disqualified  int            `json:"disqualified"`
	ByStatus      map[string]int `json:"by_status"`
	ByReason      map[string]int `json:"by_reason"`
	ScoreBuckets  map[string]int `json:"score_buckets"`
	AverageScore  float64        `json:"average_score"`
	TopScore      float64        `json:"top_score"`
	FeedbackTotal int            `json:"feedback_total"`
}
