// Package config loads nullannotate's configuration from a YAML file,
// environment variables, and CLI flag overrides (§4.J), following the
// teacher's viper loader pattern.
package config

import "errors"

// Config is the top-level configuration struct. Field tags use
// mapstructure for viper unmarshalling.
type Config struct {
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
	Plan       PlanConfig       `mapstructure:"plan"`
	Run        RunConfig        `mapstructure:"run"`
	Store      StoreConfig      `mapstructure:"store"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
}

// AnalyzerConfig locates the external analyzer and its fixed invocation
// shape (§4.H).
type AnalyzerConfig struct {
	Root            string `mapstructure:"root"`
	ConfigProfile   string `mapstructure:"config_profile"`
	SpecFile        string `mapstructure:"spec_file"`
	PropertyPrefix  string `mapstructure:"property_prefix"`
	Debug           bool   `mapstructure:"debug"`
	HeapSize        string `mapstructure:"heap_size"`
	CPUTime         string `mapstructure:"cpu_time"`
	WallClockPerRun string `mapstructure:"wall_clock_per_run"`
}

// PlanConfig controls the unit-assignment heuristic (§4.C, Open Question 4).
type PlanConfig struct {
	Heuristic string `mapstructure:"heuristic"`
}

// RunConfig controls the fixpoint controller (§4.I) and its observability.
type RunConfig struct {
	MaxGenerations int    `mapstructure:"max_generations"`
	FromFile       int    `mapstructure:"from_file"`
	ArchiveOnExit  bool   `mapstructure:"archive_on_exit"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
}

// StoreConfig selects the annotation database backend (§4.P).
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// CheckpointConfig holds the checkpoint directory setting. No subcommand
// reads it; run keeps its changelog under its work_dir argument.
type CheckpointConfig struct {
	Dir string `mapstructure:"dir"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxGenerations indicates max_generations is not positive.
	ErrInvalidMaxGenerations = errors.New("run.max_generations must be positive")
	// ErrInvalidFromFile indicates from_file is less than the "disabled"
	// sentinel -1 (no rewind requested; see pkg/fixpoint's resume semantics).
	ErrInvalidFromFile = errors.New("run.from_file must be -1 (disabled) or non-negative")
	// ErrInvalidHeuristic indicates plan.heuristic names neither known heuristic.
	ErrInvalidHeuristic = errors.New("plan.heuristic must be one of: min-cycle-edges, most-functions")
	// ErrInvalidStoreBackend indicates store.backend names neither known backend.
	ErrInvalidStoreBackend = errors.New("store.backend must be one of: json, sqlite")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Run.MaxGenerations <= 0 {
		return ErrInvalidMaxGenerations
	}

	if c.Run.FromFile < -1 {
		return ErrInvalidFromFile
	}

	switch c.Plan.Heuristic {
	case "min-cycle-edges", "most-functions":
	default:
		return ErrInvalidHeuristic
	}

	switch c.Store.Backend {
	case "json", "sqlite":
	default:
		return ErrInvalidStoreBackend
	}

	return nil
}
