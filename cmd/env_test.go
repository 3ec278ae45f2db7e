package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiredeck/match-engine/internal/config"
)

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{Driver: "mongo"},
	}

	st, err := initStore(context.Background())
	assert.Nil(t, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitStore_SQLiteMigrates(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "match.db"),
		},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close()

	// Migration ran on open, so the schema is queryable immediately.
	require.NoError(t, st.Ping(context.Background()))
	_, err = st.ListOpenJobs(context.Background())
	assert.NoError(t, err)
}

func TestNewSemanticClient_Disabled(t *testing.T) {
	cfg = &config.Config{}

	assert.Nil(t, newSemanticClient())
}

func TestNewSemanticClient_Configured(t *testing.T) {
	cfg = &config.Config{
		Semantic: config.SemanticConfig{BaseURL: "http://localhost:9090"},
	}

	assert.NotNil(t, newSemanticClient())
}

func TestNewEngine_FromConfig(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "match.db"),
		},
		Scoring: config.ScoringConfig{
			Weights:  config.WeightsConfig{Skill: 0.40, Experience: 0.30, Education: 0.20, Location: 0.10},
			MLWeight: 0.6,
		},
		Matching: config.MatchingConfig{Concurrency: 4, PersistDisqualified: true},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close()

	assert.NotNil(t, newEngine(st))
}
