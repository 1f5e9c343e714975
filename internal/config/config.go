// Package config provides configuration management for the graph engine.
// It loads settings from environment variables with the INFOPANAMA_ prefix
// and provides sensible defaults for all configuration options.
//
// The matching knobs (similarity threshold, ambiguity margin, merge policy)
// are deliberately configuration rather than constants: they are hand-tuned
// values, not algorithmic contracts, and operators tune them here instead
// of editing resolution code.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// MergePolicy selects how strength/confidence merge when a relation is
// re-observed.
type MergePolicy string

const (
	// MergeLastWrite overwrites strength/confidence/context with the
	// latest observation. This matches the historical behavior consumers
	// depend on.
	MergeLastWrite MergePolicy = "last_write"

	// MergeMax keeps the maximum of the stored and observed values,
	// so many low-confidence repeat observations cannot erode an edge.
	MergeMax MergePolicy = "max"
)

// Config holds all configuration settings for the graph engine.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Matching MatchingConfig
	Security SecurityConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 7070)
	Host string // Server host (default: 127.0.0.1)

	RateLimitPerSec float64 // Sustained request rate per client (default: 25)
	RateLimitBurst  int     // Burst allowance (default: 50)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Engine      string // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string // Directory for the SQLite database file (default: ./data)
	PostgresDSN string // DSN when Engine is postgres
}

// MatchingConfig contains the entity-resolution tunables.
type MatchingConfig struct {
	// SimilarityThreshold is the minimum normalized Levenshtein similarity
	// for two names to be treated as the same entity (default: 0.85).
	SimilarityThreshold float64

	// AmbiguityMargin flags a match for review when a second candidate
	// scores within this distance of the winner (default: 0.02).
	AmbiguityMargin float64

	// ScopeToType restricts the candidate pool to entities of the caller's
	// type instead of comparing across all entities (default: false).
	ScopeToType bool

	// MergePolicy selects how relation strength/confidence merge on
	// re-observation (default: last_write).
	MergePolicy MergePolicy
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // development or production (default: development)
	APIToken     string // Bearer token required in production mode
}

// Load builds a Config from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvInt("INFOPANAMA_PORT", 7070),
			Host:            getEnv("INFOPANAMA_HOST", "127.0.0.1"),
			RateLimitPerSec: getEnvFloat("INFOPANAMA_RATE_LIMIT_PER_SEC", 25),
			RateLimitBurst:  getEnvInt("INFOPANAMA_RATE_LIMIT_BURST", 50),
		},
		Storage: StorageConfig{
			Engine:      getEnv("INFOPANAMA_STORAGE_ENGINE", "sqlite"),
			DataPath:    getEnv("INFOPANAMA_DATA_PATH", "./data"),
			PostgresDSN: getEnv("INFOPANAMA_POSTGRES_DSN", ""),
		},
		Matching: MatchingConfig{
			SimilarityThreshold: getEnvFloat("INFOPANAMA_SIMILARITY_THRESHOLD", 0.85),
			AmbiguityMargin:     getEnvFloat("INFOPANAMA_AMBIGUITY_MARGIN", 0.02),
			ScopeToType:         getEnvBool("INFOPANAMA_SCOPE_TO_TYPE", false),
			MergePolicy:         MergePolicy(getEnv("INFOPANAMA_MERGE_POLICY", string(MergeLastWrite))),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("INFOPANAMA_SECURITY_MODE", "development"),
			APIToken:     getEnv("INFOPANAMA_API_TOKEN", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Matching.SimilarityThreshold <= 0 || c.Matching.SimilarityThreshold > 1 {
		return fmt.Errorf("config: similarity threshold must be in (0,1], got %v", c.Matching.SimilarityThreshold)
	}
	if c.Matching.AmbiguityMargin < 0 || c.Matching.AmbiguityMargin >= 1 {
		return fmt.Errorf("config: ambiguity margin must be in [0,1), got %v", c.Matching.AmbiguityMargin)
	}
	switch c.Matching.MergePolicy {
	case MergeLastWrite, MergeMax:
	default:
		return fmt.Errorf("config: unknown merge policy %q", c.Matching.MergePolicy)
	}
	switch c.Storage.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: INFOPANAMA_POSTGRES_DSN is required when the storage engine is postgres")
	}
	return nil
}

// getEnv retrieves a string environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvFloat retrieves a float environment variable with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getEnvBool retrieves a boolean environment variable with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
