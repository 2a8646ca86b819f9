// Package commands provides CLI command implementations for nullannotate.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/internal/config"
)

// loadConfig reads the --config flag (a root persistent flag every
// subcommand inherits) and loads the resulting configuration, falling back
// to internal/config's CWD/$HOME search when the flag is unset.
func loadConfig(cobraCmd *cobra.Command) (*config.Config, error) {
	configPath, err := cobraCmd.Flags().GetString("config")
	if err != nil {
		configPath = ""
	}

	return config.LoadConfig(configPath)
}

// logLevel derives the log level from the root command's inherited
// --verbose/--quiet persistent flags.
func logLevel(cobraCmd *cobra.Command) slog.Level {
	quiet, _ := cobraCmd.Flags().GetBool("quiet")
	verbose, _ := cobraCmd.Flags().GetBool("verbose")

	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
