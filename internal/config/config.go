// Package config holds the coordination core's process-wide configuration
// knobs (§6 Configuration, §9 "replace any process-wide singletons with
// explicit configuration values passed to constructors"). There is no global
// mutable config — callers load a *Config and pass the relevant section to
// each constructor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"codenerd/internal/logging"
)

// Config holds all coordination-core configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	TokenBudget    TokenBudgetConfig    `yaml:"token_budget"`
	Compaction     CompactionConfig     `yaml:"compaction"`
	Tiers          TierBudgetsConfig    `yaml:"tiers"`
	Debate         DebateConfig         `yaml:"debate"`
	RetryPolicy    RetryPolicyConfig    `yaml:"retry_policy"`
	PerfBudget     PerfBudgetConfig     `yaml:"perf_budget"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// TokenBudgetConfig mirrors §3's Token Budget type.
type TokenBudgetConfig struct {
	MaxTokens          int `yaml:"max_tokens"`
	TargetTokens       int `yaml:"target_tokens"`
	MinRetainedEntries int `yaml:"min_retained_entries"`
	SystemReserve      int `yaml:"system_reserve"`
}

// CompactionConfig is the §6 "compaction policy" knob set.
type CompactionConfig struct {
	MaxRetries        int     `yaml:"max_retries"`
	RetryBackoffMs    int     `yaml:"retry_backoff_ms"`
	AutoCompact       bool    `yaml:"auto_compact"`
	ReservedOutputPct float64 `yaml:"reserved_output_pct"` // fraction of target reserved for summary output
}

// TierBudgetDefaults is the per-tier budget referenced in §3/§4.9.
type TierBudgetDefaults struct {
	MaxIterations    int `yaml:"max_iterations"`
	MaxConsultations int `yaml:"max_consultations"`
}

// TierBudgetsConfig maps tier name to its default budget.
type TierBudgetsConfig struct {
	Implementer TierBudgetDefaults `yaml:"implementer"`
	Integrator  TierBudgetDefaults `yaml:"integrator"`
	Adversary   TierBudgetDefaults `yaml:"adversary"`
	Cloud       TierBudgetDefaults `yaml:"cloud"`
}

// DebateConfig is the §6 debate config knob set.
type DebateConfig struct {
	MaxRounds          int     `yaml:"max_rounds"`
	PhaseTimeoutMs     int     `yaml:"phase_timeout_ms"`
	MinConfidence      float64 `yaml:"min_confidence"`
	WallClockTimeoutMs int     `yaml:"wall_clock_timeout_ms"`
}

// RetryPolicyConfig is the §6 retry policy knob set, consumed by
// github.com/cenkalti/backoff/v4 wrapping.
type RetryPolicyConfig struct {
	MaxRetries      int `yaml:"max_retries"`
	InitialBackoffMs int `yaml:"initial_backoff_ms"`
	Multiplier      float64 `yaml:"multiplier"`
	MaxBackoffMs    int `yaml:"max_backoff_ms"`
}

// PerfBudgetConfig is the §6 perf budget default knob set.
type PerfBudgetConfig struct {
	TimeoutMs      int `yaml:"timeout_ms"`
	MaxResults     int `yaml:"max_results"`
	MaxOutputBytes int `yaml:"max_output_bytes"`
	MaxDepth       int `yaml:"max_depth"`
}

// LoggingConfig controls the logging package's behavior.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration, matching §6's documented
// defaults (perf budget timeout_ms=10000, max_results=200,
// max_output_bytes=65536, max_depth=10; access-level separation is enforced
// by the capability package, not config).
func DefaultConfig() *Config {
	return &Config{
		Name:    "codenerd-coordination",
		Version: "1.0.0",

		TokenBudget: TokenBudgetConfig{
			MaxTokens:          128000,
			TargetTokens:       96000,
			MinRetainedEntries: 4,
			SystemReserve:      8000,
		},

		Compaction: CompactionConfig{
			MaxRetries:        3,
			RetryBackoffMs:    500,
			AutoCompact:       true,
			ReservedOutputPct: 0.10,
		},

		Tiers: TierBudgetsConfig{
			Implementer: TierBudgetDefaults{MaxIterations: 5, MaxConsultations: 2},
			Integrator:  TierBudgetDefaults{MaxIterations: 4, MaxConsultations: 2},
			Adversary:   TierBudgetDefaults{MaxIterations: 3, MaxConsultations: 1},
			Cloud:       TierBudgetDefaults{MaxIterations: 2, MaxConsultations: 1},
		},

		Debate: DebateConfig{
			MaxRounds:          5,
			PhaseTimeoutMs:     120000,
			MinConfidence:      0.7,
			WallClockTimeoutMs: 900000,
		},

		RetryPolicy: RetryPolicyConfig{
			MaxRetries:       3,
			InitialBackoffMs: 250,
			Multiplier:       2.0,
			MaxBackoffMs:     10000,
		},

		PerfBudget: PerfBudgetConfig{
			TimeoutMs:      10000,
			MaxResults:     200,
			MaxOutputBytes: 65536,
			MaxDepth:       10,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, and applying environment overrides afterward.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.BootDebug("loading config from: %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		logging.BootError("failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logging.BootError("failed to parse config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	logging.Boot("config loaded: max_tokens=%d max_rounds=%d", cfg.TokenBudget.MaxTokens, cfg.Debate.MaxRounds)
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides for knobs that
// operators commonly need to tune per-deployment without editing YAML.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("COORD_MAX_TOKENS"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			c.TokenBudget.MaxTokens = n
		}
	}
	if v := os.Getenv("COORD_MAX_ROUNDS"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			c.Debate.MaxRounds = n
		}
	}
	if v := os.Getenv("COORD_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
}

func parsePositiveInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive: %s", s)
	}
	return n, nil
}

// Valid reports whether the token budget honors §3's invariant:
// target < max ∧ system_reserve < max.
func (b TokenBudgetConfig) Valid() bool {
	return b.TargetTokens < b.MaxTokens && b.SystemReserve < b.MaxTokens
}

// Available returns max - system_reserve, per §3.
func (b TokenBudgetConfig) Available() int {
	avail := b.MaxTokens - b.SystemReserve
	if avail < 0 {
		return 0
	}
	return avail
}

// PhaseTimeout returns the debate phase timeout as a time.Duration.
func (d DebateConfig) PhaseTimeout() time.Duration {
	return time.Duration(d.PhaseTimeoutMs) * time.Millisecond
}

// WallClockTimeout returns the debate wall-clock timeout as a time.Duration.
func (d DebateConfig) WallClockTimeout() time.Duration {
	return time.Duration(d.WallClockTimeoutMs) * time.Millisecond
}

// BudgetFor returns the default iteration/consultation budget for a tier
// name ("implementer", "integrator", "adversary", "cloud"); unknown names
// fall back to the implementer budget.
func (t TierBudgetsConfig) BudgetFor(tier string) TierBudgetDefaults {
	switch tier {
	case "integrator":
		return t.Integrator
	case "adversary":
		return t.Adversary
	case "cloud":
		return t.Cloud
	default:
		return t.Implementer
	}
}
