package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/explorer"
)

// ExploreCommand holds the flags for the explore command.
type ExploreCommand struct {
	storeBackend string
	cmdsPath     string
	mcp          bool
}

// NewExploreCommand creates and configures the explore command.
func NewExploreCommand() *cobra.Command {
	ec := &ExploreCommand{storeBackend: "json"}

	cobraCmd := &cobra.Command{
		Use:   "explore <db>",
		Short: "Browse a collected annotation database interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  ec.Run,
	}

	cobraCmd.Flags().StringVar(&ec.storeBackend, "store", "json", "input store backend: json or sqlite")
	cobraCmd.Flags().StringVar(&ec.cmdsPath, "cmds", "", "read REPL commands from this file instead of stdin")
	cobraCmd.Flags().BoolVar(&ec.mcp, "mcp", false, "serve the database as an MCP tool over stdio instead of the interactive REPL")

	return cobraCmd
}

// Run executes the explore command.
func (ec *ExploreCommand) Run(cobraCmd *cobra.Command, args []string) error {
	dbPath := args[0]

	store, err := annotation.OpenStore(ec.storeBackend, dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	db, err := annotation.LoadStoreDatabase(store)
	if err != nil {
		return fmt.Errorf("load database: %w", err)
	}

	model := explorer.BuildModel(db)

	if ec.mcp {
		return explorer.RunMCP(cobraCmd.Context(), model)
	}

	if ec.cmdsPath != "" {
		f, err := os.Open(ec.cmdsPath)
		if err != nil {
			return fmt.Errorf("open cmds file: %w", err)
		}
		defer f.Close()

		explorer.NewREPL(model, f, os.Stdout, true).Run()

		return nil
	}

	explorer.NewREPL(model, os.Stdin, os.Stdout, false).Run()

	return nil
}
