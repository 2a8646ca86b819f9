package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/stats"
	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// StatsCommand holds the flags for the stats command.
type StatsCommand struct {
	chartPath    string
	storeBackend string
}

// NewStatsCommand creates and configures the stats command.
func NewStatsCommand() *cobra.Command {
	sc := &StatsCommand{storeBackend: "json"}

	cobraCmd := &cobra.Command{
		Use:   "stats <plan> <db>",
		Short: "Report plan/annotation coverage statistics",
		Args:  cobra.ExactArgs(2),
		RunE:  sc.Run,
	}

	cobraCmd.Flags().StringVar(&sc.chartPath, "chart", "", "write a functions-per-file bar chart to this HTML path")
	cobraCmd.Flags().StringVar(&sc.storeBackend, "store", "json", "input store backend: json or sqlite")

	return cobraCmd
}

// Run executes the stats command.
func (sc *StatsCommand) Run(_ *cobra.Command, args []string) error {
	planPath, dbPath := args[0], args[1]

	plan, err := unitplan.Load(planPath)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	store, err := annotation.OpenStore(sc.storeBackend, dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	db, err := annotation.LoadStoreDatabase(store)
	if err != nil {
		return fmt.Errorf("load database: %w", err)
	}

	stats.Report(os.Stdout, plan, db)

	largest := stats.LargestUnits(plan, 10)
	fmt.Fprintln(os.Stdout, stats.RenderLargestUnitsTable(largest))

	unanalysed := stats.UnanalysedFiles(plan, stats.ComputeAnnotationStats(db))
	if len(unanalysed) > 0 {
		fmt.Fprintln(os.Stdout, stats.RenderUnanalysedFilesTable(unanalysed))
	}

	if sc.chartPath != "" {
		if err := stats.WriteChart(sc.chartPath, plan); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}

	return nil
}
