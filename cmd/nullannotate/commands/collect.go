package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/collect"
	"github.com/prokopk1n/nullannotate/pkg/projectmap"
	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// CollectCommand holds the flags for the collect command.
type CollectCommand struct {
	projectMapPath string
	storeBackend   string
}

// NewCollectCommand creates and configures the collect command.
func NewCollectCommand() *cobra.Command {
	cc := &CollectCommand{storeBackend: "json"}

	cobraCmd := &cobra.Command{
		Use:   "collect <plan> <annotations_dir> <db_out>",
		Short: "Parse per-function annotation files into a database",
		Args:  cobra.ExactArgs(3),
		RunE:  cc.Run,
	}

	// Not part of the original three-argument CLI shape: resolving a
	// function's source file (§9 resolution 3) requires intersecting
	// against the project map, so collect needs one beyond plan+dir+out.
	cobraCmd.Flags().StringVar(&cc.projectMapPath, "project-map", "", "project map (or preplan output) used to resolve each function's source file")
	cobraCmd.Flags().StringVar(&cc.storeBackend, "store", "json", "output store backend: json or sqlite")

	return cobraCmd
}

// Run executes the collect command.
func (cc *CollectCommand) Run(_ *cobra.Command, args []string) error {
	planPath, annotationsDir, dbOutPath := args[0], args[1], args[2]

	if cc.projectMapPath == "" {
		return fmt.Errorf("--project-map is required")
	}

	plan, err := unitplan.Load(planPath)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	pm, err := projectmap.Load(cc.projectMapPath)
	if err != nil {
		return fmt.Errorf("load project map: %w", err)
	}

	db, err := collect.Collect(plan, pm, annotationsDir)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	store, err := annotation.OpenStore(cc.storeBackend, dbOutPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := annotation.SaveStoreDatabase(store, db); err != nil {
		return fmt.Errorf("save database: %w", err)
	}

	slog.Info("collect complete", "functions", db.Len(), "out", dbOutPath)

	return nil
}
