package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// Config holds all sawmill configuration. Values come from SAWMILL_*
// environment variables; CLI flags override them after Load.
type Config struct {
	Run        RunConfig
	Output     OutputConfig
	Validation ValidateConfig

	LogLevel string `env:"SAWMILL_LOG_LEVEL" envDefault:"info"`
}

// RunConfig holds normalization-run settings.
type RunConfig struct {
	// RunID labels every event of one invocation. Empty means generate one.
	RunID string `env:"SAWMILL_RUN_ID"`
	// AnchorUnixMS is the run-start wall clock used for timestamp fallback
	// and the after-run plausibility window. Zero means now.
	AnchorUnixMS uint64 `env:"SAWMILL_ANCHOR_UNIX_MS"`
	Workers      int    `env:"SAWMILL_WORKERS"`
	FailFast     bool   `env:"SAWMILL_FAIL_FAST"`
}

// OutputConfig holds artifact and sink settings.
type OutputConfig struct {
	// Dir is the artifact directory for events.jsonl, the schema document
	// and stats.json.
	Dir        string `env:"SAWMILL_OUT_DIR" envDefault:"out"`
	Format     string `env:"SAWMILL_OUTPUT" envDefault:"file"` // "file", "stdout"
	Verbosity  string `env:"SAWMILL_VERBOSITY" envDefault:"standard"`
	WebhookURL string `env:"SAWMILL_WEBHOOK_URL"`
	SQLitePath string `env:"SAWMILL_SQLITE_PATH"`
}

// ValidateConfig holds validator settings.
type ValidateConfig struct {
	Mode string `env:"SAWMILL_VALIDATE_MODE" envDefault:"baseline"`
}

// Load reads configuration from the environment and applies defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Run.Workers <= 0 {
		cfg.Run.Workers = runtime.NumCPU()
	}
	return cfg, nil
}

// Validate checks field values after flags have been applied. All problems
// are reported at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Output.Format {
	case "file", "stdout":
	default:
		errs = append(errs, fmt.Errorf("invalid output format %q (want file or stdout)", c.Output.Format))
	}
	switch c.Output.Verbosity {
	case "minimal", "standard":
	default:
		errs = append(errs, fmt.Errorf("invalid verbosity %q (want minimal or standard)", c.Output.Verbosity))
	}
	switch c.Validation.Mode {
	case "baseline", "strict":
	default:
		errs = append(errs, fmt.Errorf("invalid validate mode %q (want baseline or strict)", c.Validation.Mode))
	}
	if c.Run.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Run.Workers))
	}

	return errors.Join(errs...)
}
