package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/store"
)

func (s *server) upsertCandidate(w http.ResponseWriter, r *http.Request) {
	var c model.CandidateProfile
	if err := decodeJSON(r, &c); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if c.FullName == "" {
		badRequest(w, "full_name is required")
		return
	}
	if err := s.store.UpsertCandidate(r.Context(), &c); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *server) importCandidates(w http.ResponseWriter, r *http.Request) {
	var candidates []model.CandidateProfile
	if err := decodeJSON(r, &candidates); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if len(candidates) == 0 {
		badRequest(w, "candidate list is empty")
		return
	}
	n, err := s.store.ImportCandidates(r.Context(), candidates)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"imported": n})
}

func (s *server) getCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCandidate(r.Context(), chi.URLParam(r, "candidateID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *server) listCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.CandidateFilter{
		City:   q.Get("city"),
		Limit:  intQuery(q, "limit"),
		Offset: intQuery(q, "offset"),
	}
	candidates, err := s.store.ListCandidates(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

func (s *server) upsertJob(w http.ResponseWriter, r *http.Request) {
	var j model.JobProfile
	if err := decodeJSON(r, &j); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if j.Title == "" {
		badRequest(w, "title is required")
		return
	}
	if err := s.store.UpsertJob(r.Context(), &j); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, j)
}

func (s *server) getJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, j)
}

func (s *server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListOpenJobs(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}
