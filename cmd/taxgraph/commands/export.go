package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/taxgraph/display"
	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/neo4jsync"
)

// ExportCmd groups the graph export targets
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the normalized graph",
	Long: `Export the graph held in an import store.

Examples:
  taxgraph export json --db gulls.db --out gulls.json
  taxgraph export neo4j --db gulls.db --dataset gulls`,
}

var exportJSONCmd = &cobra.Command{
	Use:   "json",
	Short: "Write the graph as JSON (nodes, links, meta)",
	RunE:  runExportJSON,
}

var exportNeo4jCmd = &cobra.Command{
	Use:   "neo4j",
	Short: "Upsert the graph into Neo4j",
	RunE:  runExportNeo4j,
}

func init() {
	addDBFlag(exportJSONCmd)
	exportJSONCmd.Flags().String("out", "", "Output file (default: stdout)")

	addDBFlag(exportNeo4jCmd)
	exportNeo4jCmd.Flags().String("dataset", "", "Dataset name (default: import store file name)")

	ExportCmd.AddCommand(exportJSONCmd)
	ExportCmd.AddCommand(exportNeo4jCmd)
}

func runExportJSON(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, _, _, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	g, _, err := store.Load(ctx)
	if err != nil {
		return err
	}
	snapshot := g.Snapshot()

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return display.OutputJSON(snapshot)
	}
	data, err := display.MarshalJSON(snapshot)
	if err != nil {
		return errors.Wrap(err, "failed to marshal graph")
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", out)
	}
	pterm.Success.Printfln("Wrote %d nodes and %d links to %s", len(snapshot.Nodes), len(snapshot.Links), out)
	return nil
}

func runExportNeo4j(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, cfg, path, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	g, _, err := store.Load(ctx)
	if err != nil {
		return err
	}

	client, err := neo4jsync.New(ctx, cfg.Neo4j, logger.Logger)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	dataset, _ := cmd.Flags().GetString("dataset")
	if dataset == "" {
		dataset = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	stats, err := client.Export(ctx, g, neo4jsync.ExportOptions{
		Dataset:   dataset,
		BatchSize: cfg.Neo4j.BatchSize,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to export %s to neo4j", path)
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(stats)
	}
	pterm.Success.Printfln("Exported %d usages to neo4j dataset %q in %d batches", stats.Nodes, dataset, stats.Batches)
	return nil
}
