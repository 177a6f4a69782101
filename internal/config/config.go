// Package config holds the SQL Sentry runtime configuration: the single
// Config struct loaded at process start and overridden by the fixed set of
// environment variables in spec.md §6.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all SQL Sentry configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Healing   HealingConfig   `yaml:"healing"`
	Sentry    SentryConfig    `yaml:"sentry"`
	PII       PIIConfig       `yaml:"pii"`
	Paths     PathsConfig     `yaml:"paths"`
	Logging   LoggingConfig   `yaml:"logging"`

	webSearchKey string
}

// LLMConfig configures the primary and reasoning LLM backends used by
// internal/agent's default LLMInterface.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	ReasoningModel string `yaml:"reasoning_model"`
	APIKey         string `yaml:"-"` // never serialized; env-only
	ReasoningKey   string `yaml:"-"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EmbeddingConfig configures internal/embedding's engine factory.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
	GenAIModel     string `yaml:"genai_model"`
	TaskType       string `yaml:"task_type"`
}

// DatabaseConfig points C4/C10 at the business database.
type DatabaseConfig struct {
	URL            string `yaml:"url"`
	Driver         string `yaml:"driver"`
	RowLimit       int    `yaml:"row_limit"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SandboxConfig selects C5's isolation tier.
type SandboxConfig struct {
	// Mode is one of "container", "restricted", "auto".
	Mode             string `yaml:"mode"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MemoryLimitMB    int    `yaml:"memory_limit_mb"`
	ContainerImage   string `yaml:"container_image"`
	ContainerRuntime string `yaml:"container_runtime"` // e.g. "docker", "podman"
}

// HealingConfig bounds C7's generate->critique->correct loop.
type HealingConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// SentryConfig configures C10.
type SentryConfig struct {
	IntervalMinutes  int `yaml:"interval_minutes"`
	RollingWindowDays int `yaml:"rolling_window_days"`
	HistoryCapacity  int `yaml:"history_capacity"`
	SweepTimeoutSeconds int `yaml:"sweep_timeout_seconds"`
}

// PIIConfig toggles C3's optional detectors.
type PIIConfig struct {
	AdvancedDetection bool `yaml:"advanced_detection"`
}

// PathsConfig locates the persisted state directories from spec.md §6.
type PathsConfig struct {
	Workspace       string `yaml:"workspace"`
	SchemaLibrary   string `yaml:"schema_library"`
	GlossaryConfig  string `yaml:"glossary_config"`
	Reports         string `yaml:"reports"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	DebugMode  bool   `yaml:"debug_mode"`
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
}

// DefaultConfig returns the configuration SQL Sentry starts from before env
// overrides and an optional YAML file are applied.
func DefaultConfig() *Config {
	return &Config{
		Name:    "sqlsentry",
		Version: "0.1.0",

		LLM: LLMConfig{
			Provider:       "genai",
			Model:          "gemini-2.0-flash",
			ReasoningModel: "gemini-2.0-pro",
			TimeoutSeconds: 60,
		},

		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "SEMANTIC_SIMILARITY",
		},

		Database: DatabaseConfig{
			Driver:         "sqlite3",
			RowLimit:       1000,
			TimeoutSeconds: 30,
		},

		Sandbox: SandboxConfig{
			Mode:             "auto",
			TimeoutSeconds:   30,
			MemoryLimitMB:    512,
			ContainerImage:   "sqlsentry-analytics:latest",
			ContainerRuntime: "docker",
		},

		Healing: HealingConfig{
			MaxAttempts: 3,
		},

		Sentry: SentryConfig{
			IntervalMinutes:     5,
			RollingWindowDays:   7,
			HistoryCapacity:     100,
			SweepTimeoutSeconds: 60,
		},

		PII: PIIConfig{
			AdvancedDetection: false,
		},

		Paths: PathsConfig{
			Workspace:      ".",
			SchemaLibrary:  "schema_library",
			GlossaryConfig: "glossary.config",
			Reports:        "reports",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file (if it exists) over the defaults, then
// applies environment variable overrides per spec.md §6.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides implements spec.md §6's environment configuration
// table: these are the only names that change behavior.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQLSENTRY_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("SQLSENTRY_LLM_REASONING_KEY"); v != "" {
		cfg.LLM.ReasoningKey = v
	}
	if v := os.Getenv("SQLSENTRY_WEB_SEARCH_KEY"); v != "" {
		cfg.webSearchKey = v
	}
	if v := os.Getenv("SQLSENTRY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SQLSENTRY_SANDBOX_MODE"); v != "" {
		cfg.Sandbox.Mode = v
	}
	if v := os.Getenv("SQLSENTRY_SENTRY_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sentry.IntervalMinutes = n
		}
	}
	if v := os.Getenv("SQLSENTRY_ADVANCED_PII"); v != "" {
		cfg.PII.AdvancedDetection = v == "1" || v == "true"
	}
}

// WebSearchKey returns the configured research-provider API key. Absence
// means C9's research mode degrades to the empty-results shape rather than
// failing, per spec.md §6.
func (c *Config) WebSearchKey() string { return c.webSearchKey }

// Validate enforces the "absence -> fails fast" rule from spec.md §6 for
// the LLM provider keys, which gate the entire pipeline.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config: SQLSENTRY_LLM_API_KEY is required (pipeline cannot run without an LLM provider key)")
	}
	return nil
}

// LLMTimeout returns the configured LLM call timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// webSearchKey is unexported: it never round-trips through YAML (keys live
// in the environment only), mirroring LLM.APIKey's yaml:"-" treatment.
