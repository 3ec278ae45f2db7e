// Package config loads engine settings from config.yaml and MATCH_*
// environment variables, with environment taking precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds every tunable the engine reads at startup.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
	Feedback FeedbackConfig `yaml:"feedback" mapstructure:"feedback"`
	Semantic SemanticConfig `yaml:"semantic" mapstructure:"semantic"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the database file used by the sqlite driver.
	Path string `yaml:"path" mapstructure:"path"`
	// DatabaseURL is the DSN used by the postgres driver. The plain
	// DATABASE_URL environment variable is honored as a fallback.
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// MaxConns and MinConns size the postgres connection pool.
	MaxConns int `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "console"
}

// ScoringConfig sets the attribute weights and the blend between the
// rule-adjusted score and the semantic score.
type ScoringConfig struct {
	Weights  WeightsConfig `yaml:"weights" mapstructure:"weights"`
	MLWeight float64       `yaml:"ml_weight" mapstructure:"ml_weight"`
}

// WeightsConfig holds the per-category attribute weights. They are used
// as-is; callers who want a true weighted average must make them sum to 1.
type WeightsConfig struct {
	Skill      float64 `yaml:"skill" mapstructure:"skill"`
	Experience float64 `yaml:"experience" mapstructure:"experience"`
	Education  float64 `yaml:"education" mapstructure:"education"`
	Location   float64 `yaml:"location" mapstructure:"location"`
}

// MatchingConfig controls batch execution.
type MatchingConfig struct {
	Concurrency         int  `yaml:"concurrency" mapstructure:"concurrency"`
	PersistDisqualified bool `yaml:"persist_disqualified" mapstructure:"persist_disqualified"`
}

// FeedbackConfig sets the reviewer feedback multiplier parameters.
type FeedbackConfig struct {
	PositiveStep float64 `yaml:"positive_step" mapstructure:"positive_step"`
	NegativeStep float64 `yaml:"negative_step" mapstructure:"negative_step"`
	Ceiling      float64 `yaml:"ceiling" mapstructure:"ceiling"`
	Floor        float64 `yaml:"floor" mapstructure:"floor"`
}

// SemanticConfig configures the semantic matching service client. An
// empty BaseURL disables semantic scoring entirely.
type SemanticConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig tunes retry-with-backoff for semantic calls.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig tunes the circuit breaker guarding the semantic service.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Load reads config.yaml from the working directory if present, applies
// defaults, and overlays MATCH_* environment variables (dots become
// underscores, so scoring.ml_weight is MATCH_SCORING_ML_WEIGHT).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Heroku-style deployments export a bare DATABASE_URL.
	if err := v.BindEnv("store.database_url", "MATCH_STORE_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, eris.Wrap(err, "config: bind database_url")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "match.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("scoring.weights.skill", 0.40)
	v.SetDefault("scoring.weights.experience", 0.30)
	v.SetDefault("scoring.weights.education", 0.20)
	v.SetDefault("scoring.weights.location", 0.10)
	v.SetDefault("scoring.ml_weight", 0.6)

	v.SetDefault("matching.concurrency", 8)
	v.SetDefault("matching.persist_disqualified", true)

	v.SetDefault("feedback.positive_step", 0.05)
	v.SetDefault("feedback.negative_step", 0.10)
	v.SetDefault("feedback.ceiling", 1.5)
	v.SetDefault("feedback.floor", 0.5)

	v.SetDefault("semantic.base_url", "")
	v.SetDefault("semantic.api_key", "")
	v.SetDefault("semantic.timeout_secs", 5)
	v.SetDefault("semantic.rate_per_sec", 0)
	v.SetDefault("semantic.retry.max_attempts", 3)
	v.SetDefault("semantic.retry.initial_backoff_ms", 250)
	v.SetDefault("semantic.retry.max_backoff_ms", 5000)
	v.SetDefault("semantic.retry.multiplier", 2.0)
	v.SetDefault("semantic.retry.jitter_fraction", 0.25)
	v.SetDefault("semantic.circuit.failure_threshold", 5)
	v.SetDefault("semantic.circuit.reset_timeout_secs", 30)
}

// Validate checks the loaded configuration for the given mode. Mode
// "serve" additionally checks the HTTP listener settings; every other
// command passes "cli".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not supported (want sqlite or postgres)", c.Store.Driver))
	}

	if c.Matching.Concurrency < 1 || c.Matching.Concurrency > 64 {
		problems = append(problems, "matching.concurrency must be between 1 and 64")
	}
	if c.Scoring.MLWeight < 0 || c.Scoring.MLWeight > 1 {
		problems = append(problems, "scoring.ml_weight must be between 0 and 1")
	}
	w := c.Scoring.Weights
	if w.Skill < 0 || w.Experience < 0 || w.Education < 0 || w.Location < 0 {
		problems = append(problems, "scoring.weights must not be negative")
	}

	if c.Feedback.PositiveStep <= 0 {
		problems = append(problems, "feedback.positive_step must be positive")
	}
	if c.Feedback.NegativeStep <= 0 {
		problems = append(problems, "feedback.negative_step must be positive")
	}
	if c.Feedback.Ceiling < 1 {
		problems = append(problems, "feedback.ceiling must be at least 1")
	}
	if c.Feedback.Floor <= 0 || c.Feedback.Floor > 1 {
		problems = append(problems, "feedback.floor must be between 0 and 1")
	}

	if c.Semantic.BaseURL != "" && c.Semantic.TimeoutSecs <= 0 {
		problems = append(problems, "semantic.timeout_secs must be positive when a base_url is set")
	}

	if mode == "serve" {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger builds the global zap logger from the log section and
// installs it via zap.ReplaceGlobals.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrapf(err, "config: invalid log level %q", cfg.Level)
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
