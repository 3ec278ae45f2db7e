package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/rules"
)

func (s *server) createRule(w http.ResponseWriter, r *http.Request) {
	var rule model.ScoringRule
	if err := decodeJSON(r, &rule); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := rule.Validate(); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.store.CreateRule(r.Context(), &rule); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

func (s *server) getRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.store.GetRule(r.Context(), chi.URLParam(r, "ruleID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *server) updateRule(w http.ResponseWriter, r *http.Request) {
	var rule model.ScoringRule
	if err := decodeJSON(r, &rule); err != nil {
		badRequest(w, err.Error())
		return
	}
	rule.ID = chi.URLParam(r, "ruleID")
	if err := rule.Validate(); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.store.UpdateRule(r.Context(), &rule); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *server) deleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRule(r.Context(), chi.URLParam(r, "ruleID")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *server) activateRule(w http.ResponseWriter, r *http.Request) {
	s.setRuleActive(w, r, true)
}

func (s *server) deactivateRule(w http.ResponseWriter, r *http.Request) {
	s.setRuleActive(w, r, false)
}

func (s *server) setRuleActive(w http.ResponseWriter, r *http.Request, active bool) {
	if err := s.store.SetRuleActive(r.Context(), chi.URLParam(r, "ruleID"), active); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (s *server) listJobRules(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := s.store.ListRulesForJob(r.Context(), chi.URLParam(r, "jobID"), activeOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *server) validateRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Conditions json.RawMessage `json:"conditions"`
		Actions    json.RawMessage `json:"actions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	findings := rules.ValidateSyntax(req.Conditions, req.Actions)
	respondJSON(w, http.StatusOK, map[string]any{
		"valid":    !rules.HasErrors(findings),
		"findings": findings,
	})
}

func (s *server) testRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CandidateID string            `json:"candidate_id"`
		JobID       string            `json:"job_id"`
		Rule        model.ScoringRule `json:"rule"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.CandidateID == "" || req.JobID == "" {
		badRequest(w, "candidate_id and job_id are required")
		return
	}
	report, err := s.engine.TestRule(r.Context(), req.CandidateID, req.JobID, req.Rule)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl model.RuleTemplate
	if err := decodeJSON(r, &tpl); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if tpl.Name == "" {
		badRequest(w, "name is required")
		return
	}
	if err := s.store.CreateTemplate(r.Context(), &tpl); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tpl)
}

func (s *server) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListTemplates(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

func (s *server) duplicateTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	dup, err := s.store.DuplicateTemplate(r.Context(), chi.URLParam(r, "templateID"), req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dup)
}
