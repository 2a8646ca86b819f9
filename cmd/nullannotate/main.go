// Package main provides the entry point for the nullannotate CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/cmd/nullannotate/commands"
	"github.com/prokopk1n/nullannotate/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nullannotate",
		Short: "Whole-project interprocedural null-dereference annotation driver",
		Long: `nullannotate plans, drives, and collects a single-function-at-a-time
null-dereference analyzer across a whole C project.

Commands:
  preplan   Emit a pruned call graph and candidate object files
  plan      Assign functions to analysis units
  run       Drive the analyzer to a fixpoint across generations
  collect   Parse per-function annotation files into a database
  join      Merge two annotation databases
  stats     Report plan/annotation coverage statistics
  aspects   Emit CIL instrumentation aspects
  explore   Browse a collected annotation database interactively`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().String("config", "", "path to .nullannotate.yaml (default: search CWD/$HOME)")

	rootCmd.AddCommand(commands.NewPreplanCommand())
	rootCmd.AddCommand(commands.NewPlanCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewCollectCommand())
	rootCmd.AddCommand(commands.NewJoinCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewAspectsCommand())
	rootCmd.AddCommand(commands.NewExploreCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "nullannotate %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
