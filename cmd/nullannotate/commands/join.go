package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/archive"
)

// JoinCommand holds the flags for the join command.
type JoinCommand struct {
	storeBackend string
}

// NewJoinCommand creates and configures the join command.
func NewJoinCommand() *cobra.Command {
	jc := &JoinCommand{storeBackend: "json"}

	cobraCmd := &cobra.Command{
		Use:   "join <db_a> <db_b> <db_out>",
		Short: "Merge two annotation databases under the join lattice",
		Args:  cobra.ExactArgs(3),
		RunE:  jc.Run,
	}

	cobraCmd.Flags().StringVar(&jc.storeBackend, "store", "json", "output store backend: json or sqlite")

	return cobraCmd
}

// Run executes the join command. Either input may be a bare annotations
// JSON file or an .lz4-suffixed snapshot in the archive.WriteSnapshot
// format (§4.L); both are loaded into an in-memory Database before joining.
func (jc *JoinCommand) Run(_ *cobra.Command, args []string) error {
	dbAPath, dbBPath, dbOutPath := args[0], args[1], args[2]

	a, err := loadDatabaseFile(dbAPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", dbAPath, err)
	}

	b, err := loadDatabaseFile(dbBPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", dbBPath, err)
	}

	merged, tally, mismatches := annotation.Join(a, b)

	for _, m := range mismatches {
		slog.Warn("join mismatch", "function", m.Name, "source_file", m.SourceFile, "diff", m.Diff)
	}

	store, err := annotation.OpenStore(jc.storeBackend, dbOutPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := annotation.SaveStoreDatabase(store, merged); err != nil {
		return fmt.Errorf("save database: %w", err)
	}

	slog.Info("join complete",
		"only_a", tally.OnlyInA,
		"only_b", tally.OnlyInB,
		"a_better", tally.ABetter,
		"b_better", tally.BBetter,
		"cross_improve", tally.CrossImprove,
		"identical", tally.Identical,
		"mismatch", tally.Mismatch,
		"out", dbOutPath)

	return nil
}

// loadDatabaseFile loads an annotation database either directly (bare JSON)
// or, for a path ending in .lz4, by first extracting the snapshot archive
// (§4.L) into a temporary directory.
func loadDatabaseFile(path string) (*annotation.Database, error) {
	if !strings.HasSuffix(path, ".lz4") {
		return annotation.LoadDatabase(path)
	}

	destDir, err := os.MkdirTemp("", "nullannotate-join-*")
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}
	defer os.RemoveAll(destDir)

	annotationsPath, _, err := archive.ReadSnapshot(path, destDir)
	if err != nil {
		return nil, fmt.Errorf("extract snapshot: %w", err)
	}

	return annotation.LoadDatabase(annotationsPath)
}
