package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/aspects"
	"github.com/prokopk1n/nullannotate/pkg/projectmap"
)

// AspectsCommand holds the flags for the aspects command.
type AspectsCommand struct {
	storeBackend string
	onlyAspected bool
}

// NewAspectsCommand creates and configures the aspects command.
func NewAspectsCommand() *cobra.Command {
	ac := &AspectsCommand{storeBackend: "json"}

	cobraCmd := &cobra.Command{
		Use:   "aspects <project_map> <annotations> <assert_out> [<assume_out>]",
		Short: "Emit CIL instrumentation aspects",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  ac.Run,
	}

	cobraCmd.Flags().StringVar(&ac.storeBackend, "store", "json", "annotations store backend: json or sqlite")
	cobraCmd.Flags().BoolVar(&ac.onlyAspected, "only-aspected", false, "restrict the driver report to functions that produced an aspect")

	return cobraCmd
}

// Run executes the aspects command.
func (ac *AspectsCommand) Run(_ *cobra.Command, args []string) error {
	projectMapPath, annotationsPath, assertOutPath := args[0], args[1], args[2]

	pm, err := projectmap.Load(projectMapPath)
	if err != nil {
		return fmt.Errorf("load project map: %w", err)
	}

	store, err := annotation.OpenStore(ac.storeBackend, annotationsPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	db, err := annotation.LoadStoreDatabase(store)
	if err != nil {
		return fmt.Errorf("load database: %w", err)
	}

	functions := aspects.Build(pm, db)

	if err := aspects.WriteAspects(functions, assertOutPath, "assert"); err != nil {
		return fmt.Errorf("write assert aspects: %w", err)
	}

	if len(args) == 4 {
		assumeOutPath := args[3]
		if err := aspects.WriteAspects(functions, assumeOutPath, "assume"); err != nil {
			return fmt.Errorf("write assume aspects: %w", err)
		}
	}

	aspects.Report(os.Stdout, functions, ac.onlyAspected)

	return nil
}
