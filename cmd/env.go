package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hiredeck/match-engine/internal/feedback"
	"github.com/hiredeck/match-engine/internal/match"
	"github.com/hiredeck/match-engine/internal/model"
	"github.com/hiredeck/match-engine/internal/resilience"
	"github.com/hiredeck/match-engine/internal/store"
	"github.com/hiredeck/match-engine/pkg/semantic"
)

// initStore opens the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: int32(cfg.Store.MaxConns),
			MinConns: int32(cfg.Store.MinConns),
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// newSemanticClient builds the match service client, or nil when no base
// URL is configured. A nil client disables semantic blending.
func newSemanticClient() semantic.Client {
	if cfg.Semantic.BaseURL == "" {
		return nil
	}
	return semantic.NewClient(cfg.Semantic.BaseURL, cfg.Semantic.APIKey,
		semantic.WithRateLimit(cfg.Semantic.RatePerSec))
}

// newEngine assembles the match engine from the loaded config.
func newEngine(st store.Store) *match.Engine {
	sc := cfg.Scoring
	sem := cfg.Semantic
	return match.New(st, nil, newSemanticClient(), match.Config{
		Weights: model.CategoryWeights{
			Skill:      sc.Weights.Skill,
			Experience: sc.Weights.Experience,
			Education:  sc.Weights.Education,
			Location:   sc.Weights.Location,
		},
		MLWeight: sc.MLWeight,
		Feedback: feedback.Params{
			PositiveStep: cfg.Feedback.PositiveStep,
			NegativeStep: cfg.Feedback.NegativeStep,
			Ceiling:      cfg.Feedback.Ceiling,
			Floor:        cfg.Feedback.Floor,
		},
		Concurrency:      cfg.Matching.Concurrency,
		SkipDisqualified: !cfg.Matching.PersistDisqualified,
		SemanticTimeout:  time.Duration(sem.TimeoutSecs) * time.Second,
		Retry: resilience.FromRetryConfig(sem.Retry.MaxAttempts, sem.Retry.InitialBackoffMs,
			sem.Retry.MaxBackoffMs, sem.Retry.Multiplier, sem.Retry.JitterFraction),
		Circuit: resilience.FromCircuitConfig(sem.Circuit.FailureThreshold, sem.Circuit.ResetTimeoutSecs),
	})
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
