package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".nullannotate"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for nullannotate settings.
const envPrefix = "NULLANNOTATE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults. If
// configPath is non-empty it is used as the explicit config file path
// (--config); otherwise the config file is searched in CWD and $HOME.
// A missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("analyzer.config_profile", "ldv-deref")
	viperCfg.SetDefault("analyzer.spec_file", "default.spc")
	viperCfg.SetDefault("analyzer.property_prefix", "nullDerefArgAnnotationAlgorithm")
	viperCfg.SetDefault("analyzer.heap_size", "2GiB")
	viperCfg.SetDefault("analyzer.wall_clock_per_run", "10m")

	viperCfg.SetDefault("plan.heuristic", "min-cycle-edges")

	viperCfg.SetDefault("run.max_generations", 10)
	viperCfg.SetDefault("run.from_file", -1)

	viperCfg.SetDefault("store.backend", "json")

	viperCfg.SetDefault("checkpoint.dir", ".nullannotate")
}
