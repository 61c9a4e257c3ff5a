package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/taxgraph/am"
	"github.com/teranos/taxgraph/cmd/taxgraph/commands"
	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/logger"
)

var rootCmd = &cobra.Command{
	Use:   "taxgraph",
	Short: "taxgraph - taxonomic checklist graph normalizer",
	Long: `taxgraph - turn an imported taxonomic checklist into a consistent graph.

A checklist is imported into a SQLite import store, normalized (relations
resolved, cycles and chains repaired, synonyms prioritized) and written back.
The result can be exported to Neo4j or as JSON.

Available commands:
  am        - Show and validate configuration
  import    - Seed an import store from a TOML checklist fixture
  normalize - Normalize the checklist in an import store
  export    - Export the normalized graph (neo4j, json)
  db        - Inspect an import store
  version   - Show version information

Examples:
  taxgraph import --fixture gulls.toml --db gulls.db
  taxgraph normalize --db gulls.db -v
  taxgraph normalize --source https://example.org/col.db
  taxgraph export json --db gulls.db > gulls.json
  taxgraph db stats --db gulls.db`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		// config defaults apply only when the flags are absent
		if cfg, err := am.Load(); err == nil {
			if !cmd.Flags().Changed("verbose") {
				verbosity = cfg.Log.Verbosity
			}
			if !cmd.Flags().Changed("json-logs") {
				jsonLogs = cfg.Log.JSON
			}
		}

		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger.Logger.Debugw("logger initialized", "verbosity", logger.LevelName(verbosity))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Print command results as JSON")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON on stderr")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.ImportCmd)
	rootCmd.AddCommand(commands.NormalizeCmd)
	rootCmd.AddCommand(commands.ExportCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
