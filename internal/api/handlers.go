package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hiredeck/match-engine/internal/export"
	"github.com/hiredeck/match-engine/internal/match"
	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

// respondError maps domain errors onto statuses. Anything unrecognized
// is a 500 with the detail kept in the log rather than the response.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, match.ErrInvalidTransition):
		respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		zap.L().Error("api: request failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		zap.L().Warn("api: health ping failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pairRequest struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
}

func (s *server) calculateMatch(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.CandidateID == "" || req.JobID == "" {
		badRequest(w, "candidate_id and job_id are required")
		return
	}
	res, err := s.engine.CalculateMatch(r.Context(), req.CandidateID, req.JobID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *server) evaluateRules(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.CandidateID == "" || req.JobID == "" {
		badRequest(w, "candidate_id and job_id are required")
		return
	}
	out, err := s.engine.EvaluateRules(r.Context(), req.CandidateID, req.JobID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) dryRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CandidateID string              `json:"candidate_id"`
		JobID       string              `json:"job_id"`
		Rules       []model.ScoringRule `json:"rules"`
	}
	// Rule documents parse strictly; surface the reason to the author.
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.CandidateID == "" || req.JobID == "" {
		badRequest(w, "candidate_id and job_id are required")
		return
	}
	res, err := s.engine.DryRun(r.Context(), req.CandidateID, req.JobID, req.Rules)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *server) batchMatch(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	var req struct {
		CandidateIDs []string `json:"candidate_ids"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
	}
	summary, err := s.engine.BatchMatchJob(r.Context(), jobID, req.CandidateIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *server) matchCandidateAllJobs(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.MatchCandidateAllJobs(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *server) refreshScores(w http.ResponseWriter, r *http.Request) {
	updated, err := s.engine.RefreshMatchScores(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (s *server) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *server) getMatchByPair(w http.ResponseWriter, r *http.Request) {
	candidateID := r.URL.Query().Get("candidate_id")
	jobID := r.URL.Query().Get("job_id")
	if candidateID == "" || jobID == "" {
		badRequest(w, "candidate_id and job_id are required")
		return
	}
	m, err := s.store.GetMatchByPair(r.Context(), candidateID, jobID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *server) listJobMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.ListMatchesForJob(r.Context(), chi.URLParam(r, "jobID"), matchFilterFromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, matches)
}

func (s *server) listCandidateMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.ListMatchesForCandidate(r.Context(), chi.URLParam(r, "candidateID"), matchFilterFromQuery(r.URL.Query()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, matches)
}

func matchFilterFromQuery(q url.Values) store.MatchFilter {
	var f store.MatchFilter
	if v := q.Get("status"); v != "" {
		f.Status = model.ReviewStatus(v)
	}
	if v := q.Get("min_score"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinScore = n
		}
	}
	if q.Get("qualified") == "true" {
		f.OnlyQualified = true
	}
	f.Limit = intQuery(q, "limit")
	f.Offset = intQuery(q, "offset")
	return f
}

func intQuery(q url.Values, key string) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *server) updateReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.ReviewStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		badRequest(w, fmt.Sprintf("unknown review status %q", req.Status))
		return
	}
	if err := s.engine.UpdateReviewStatus(r.Context(), chi.URLParam(r, "matchID"), req.Status); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]model.ReviewStatus{"review_status": req.Status})
}

func (s *server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeedbackType model.FeedbackType `json:"feedback_type"`
		FeedbackBy   string             `json:"feedback_by"`
		Notes        string             `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if !req.FeedbackType.Valid() {
		badRequest(w, fmt.Sprintf("unknown feedback type %q", req.FeedbackType))
		return
	}
	if req.FeedbackBy == "" {
		badRequest(w, "feedback_by is required")
		return
	}
	change, err := s.engine.SubmitFeedback(r.Context(), chi.URLParam(r, "matchID"), req.FeedbackBy, req.FeedbackType, req.Notes)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]model.FeedbackChange{"change": change})
}

func (s *server) removeFeedback(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RemoveFeedback(r.Context(), chi.URLParam(r, "matchID"), chi.URLParam(r, "reviewer")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *server) listFeedback(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListFeedback(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (s *server) jobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.MatchStats(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *server) exportShortlist(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	shortlist, err := export.BuildShortlist(r.Context(), s.store, jobID)
	if err != nil {
		respondError(w, err)
		return
	}
	wb, err := export.Workbook(shortlist)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+"-shortlist.xlsx"))
	if err := wb.Write(w); err != nil {
		zap.L().Error("api: write workbook", zap.Error(err))
	}
}
