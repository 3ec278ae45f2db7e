// Package api exposes the match engine over HTTP as a JSON API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/rules"
	"github.com/hiredeck/match-engine/internal/store"
)

// Engine is the scoring surface the handlers call. *match.Engine
// satisfies it; tests substitute a mock.
type Engine interface {
	CalculateMatch(ctx context.Context, candidateID, jobID string) (*model.MatchResult, error)
	BatchMatchJob(ctx context.Context, jobID string, candidateIDs []string) (*model.BatchSummary, error)
	MatchCandidateAllJobs(ctx context.Context, candidateID string) (*model.BatchSummary, error)
	EvaluateRules(ctx context.Context, candidateID, jobID string) (*rules.Outcome, error)
	DryRun(ctx context.Context, candidateID, jobID string, ruleList []model.ScoringRule) (*model.MatchResult, error)
	TestRule(ctx context.Context, candidateID, jobID string, rule model.ScoringRule) (*rules.TestReport, error)
	RefreshMatchScores(ctx context.Context, candidateID string) (int, error)
	SubmitFeedback(ctx context.Context, matchResultID, reviewer string, ft model.FeedbackType, notes string) (model.FeedbackChange, error)
	RemoveFeedback(ctx context.Context, matchResultID, reviewer string) error
	UpdateReviewStatus(ctx context.Context, matchResultID string, next model.ReviewStatus) error
}

// Options tunes the handler stack.
type Options struct {
	AllowedOrigins []string
}

type server struct {
	store  store.Store
	engine Engine
}

// New builds the HTTP handler with every engine route mounted.
func New(st store.Store, eng Engine, opts Options) http.Handler {
	s := &server{store: st, engine: eng}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/candidates", func(r chi.Router) {
			r.Post("/", s.upsertCandidate)
			r.Post("/import", s.importCandidates)
			r.Get("/", s.listCandidates)
			r.Get("/{candidateID}", s.getCandidate)
			r.Get("/{candidateID}/matches", s.listCandidateMatches)
			r.Post("/{candidateID}/match", s.matchCandidateAllJobs)
			r.Post("/{candidateID}/refresh", s.refreshScores)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.upsertJob)
			r.Get("/", s.listJobs)
			r.Get("/{jobID}", s.getJob)
			r.Post("/{jobID}/batch", s.batchMatch)
			r.Get("/{jobID}/matches", s.listJobMatches)
			r.Get("/{jobID}/stats", s.jobStats)
			r.Get("/{jobID}/export", s.exportShortlist)
			r.Get("/{jobID}/rules", s.listJobRules)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Post("/calculate", s.calculateMatch)
			r.Post("/evaluate", s.evaluateRules)
			r.Post("/dry-run", s.dryRun)
			r.Get("/by-pair", s.getMatchByPair)
			r.Get("/{matchID}", s.getMatch)
			r.Put("/{matchID}/review", s.updateReview)
			r.Get("/{matchID}/feedback", s.listFeedback)
			r.Post("/{matchID}/feedback", s.submitFeedback)
			r.Delete("/{matchID}/feedback/{reviewer}", s.removeFeedback)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Post("/", s.createRule)
			r.Post("/validate", s.validateRule)
			r.Post("/test", s.testRule)
			r.Get("/{ruleID}", s.getRule)
			r.Put("/{ruleID}", s.updateRule)
			r.Delete("/{ruleID}", s.deleteRule)
			r.Post("/{ruleID}/activate", s.activateRule)
			r.Post("/{ruleID}/deactivate", s.deactivateRule)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Post("/", s.createTemplate)
			r.Get("/", s.listTemplates)
			r.Post("/{templateID}/duplicate", s.duplicateTemplate)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
