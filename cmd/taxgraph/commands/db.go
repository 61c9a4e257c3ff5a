package commands

import (
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/taxgraph/display"
)

// DbCmd represents the db (import store) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect an import store",
	Long: `db: inspect an import store

Examples:
  taxgraph db stats --db gulls.db     # Usage, relation and issue counts
  taxgraph db runs --limit 5          # Recent normalization runs`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show import store statistics",
	RunE:  runDbStats,
}

var dbRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent normalization runs",
	RunE:  runDbRuns,
}

var runsLimitFlag int

func init() {
	addDBFlag(dbStatsCmd)
	addDBFlag(dbRunsCmd)
	dbRunsCmd.Flags().IntVar(&runsLimitFlag, "limit", 10, "Number of runs to show")

	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbRunsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, _, path, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(st)
	}
	return display.PrintStats(os.Stdout, path, st)
}

func runDbRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, _, _, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx, runsLimitFlag)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(runs)
	}
	if len(runs) == 0 {
		pterm.Info.Println("No normalization runs recorded")
		return nil
	}

	data := pterm.TableData{{"Run", "Started", "Status", "Nodes", "Issues", "Took"}}
	for _, r := range runs {
		took := "-"
		if r.FinishedAt != nil {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		data = append(data, []string{
			r.ID, r.StartedAt.Format(time.RFC3339), string(r.Status),
			strconv.Itoa(r.Nodes), strconv.Itoa(r.Issues), took,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
