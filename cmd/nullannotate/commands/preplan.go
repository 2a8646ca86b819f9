package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/pkg/callgraph"
	"github.com/prokopk1n/nullannotate/pkg/projectmap"
)

// PreplanCommand holds the flags for the preplan command.
type PreplanCommand struct {
	pruneStatics bool
}

// NewPreplanCommand creates and configures the preplan command.
func NewPreplanCommand() *cobra.Command {
	pc := &PreplanCommand{pruneStatics: true}

	cobraCmd := &cobra.Command{
		Use:   "preplan <project_map> <preplan_out>",
		Short: "Emit a pruned call graph and candidate object files",
		Args:  cobra.ExactArgs(2),
		RunE:  pc.Run,
	}

	cobraCmd.Flags().BoolVar(&pc.pruneStatics, "prune-statics", true,
		"drop static functions unreachable from any global function (§9 resolution 2)")

	return cobraCmd
}

// Run executes the preplan command.
func (pc *PreplanCommand) Run(cobraCmd *cobra.Command, args []string) error {
	projectMapPath, preplanOutPath := args[0], args[1]

	pm, err := projectmap.Load(projectMapPath)
	if err != nil {
		return fmt.Errorf("load project map: %w", err)
	}

	graph := callgraph.Build(pm, callgraph.BuildOptions{PruneStatics: pc.pruneStatics})
	pruned := projectmap.FromGraph(pm, graph)

	if err := projectmap.Write(pruned, preplanOutPath); err != nil {
		return fmt.Errorf("write preplan: %w", err)
	}

	slog.Info("preplan written", "functions", graph.NodeCount(), "out", preplanOutPath)

	return nil
}
