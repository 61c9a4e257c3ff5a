package commands

import (
	"context"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/taxgraph/am"
	"github.com/teranos/taxgraph/display"
	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/importstore"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/normalize"
)

// NormalizeCmd runs every normalization pass over an import store
var NormalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize the checklist in an import store",
	Long: `Load the import store, resolve relations, reconcile classifications,
repair cycles and chains, prioritize synonyms and enforce rank order.
The normalized graph is written back only when the run succeeds; every
run is journaled in the store.

Examples:
  taxgraph normalize --db gulls.db
  taxgraph normalize --db gulls.db --workers 8 --strict
  taxgraph normalize --source https://example.org/exports/col.db`,
	RunE: runNormalize,
}

func init() {
	addDBFlag(NormalizeCmd)
	NormalizeCmd.Flags().String("source", "", "Fetch the import store from a URL or go-getter address first")
	NormalizeCmd.Flags().Int("workers", -1, "Relation resolver workers (default: normalizer.workers)")
	NormalizeCmd.Flags().String("classification", "", "Classification pass: auto, on or off (default: normalizer.classification_pass)")
	NormalizeCmd.Flags().Bool("strict", false, "Fail the run when verification finds violations")
	NormalizeCmd.Flags().Bool("dry-run", false, "Normalize without writing the graph back")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.ComponentLogger("cli.normalize")

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	applyNormalizeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	path := storePath(cmd, cfg)
	if source, _ := cmd.Flags().GetString("source"); source != "" {
		if path, err = importstore.Fetch(ctx, source, cfg.Source.FetchDir, logger.Logger); err != nil {
			return err
		}
	}

	store, err := importstore.Open(ctx, path, logger.Logger)
	if err != nil {
		return errors.Wrapf(err, "failed to open import store at %s", path)
	}
	defer store.Close()

	runID, err := store.BeginRun(ctx)
	if err != nil {
		return err
	}
	ctx = logger.WithRunID(ctx, runID)

	res, runErr := normalizeStore(ctx, cmd, store, cfg)
	if err := store.FinishRun(ctx, runID, res, runErr); err != nil {
		log.Warnw("failed to journal run", logger.FieldRunID, runID, logger.FieldError, err)
	}

	if display.ShouldOutputJSON(cmd) && res != nil {
		if err := display.OutputJSON(res); err != nil {
			return err
		}
	} else if res != nil {
		if err := display.PrintResult(os.Stdout, res); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		pterm.Info.Println("Dry run: import store left unchanged")
	} else if !display.ShouldOutputJSON(cmd) {
		pterm.Success.Printfln("Normalized %s (run %s)", path, runID)
	}
	return nil
}

// normalizeStore loads, normalizes and (unless --dry-run) saves the store.
func normalizeStore(ctx context.Context, cmd *cobra.Command, store *importstore.Store, cfg *am.Config) (*normalize.Result, error) {
	ctx = logger.WithComponent(ctx, "normalize")

	g, meta, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	classification := cfg.Normalizer.ClassificationEnabled(meta.ClassificationMapped)
	strict, _ := cmd.Flags().GetBool("strict")
	opts := normalize.Options{
		BatchSize:      cfg.Normalizer.BatchSize,
		Workers:        cfg.Normalizer.Workers,
		Classification: &classification,
		Verify:         cfg.Normalizer.Verify || strict,
		Strict:         strict,
	}

	res, err := normalize.New(g, meta, opts, logger.Logger).Run(ctx)
	if err != nil {
		return res, err
	}

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		return res, nil
	}
	if err := store.Save(ctx, g); err != nil {
		return res, errors.Wrap(err, "failed to save normalized graph")
	}
	return res, nil
}

func applyNormalizeFlags(cmd *cobra.Command, cfg *am.Config) {
	if w, _ := cmd.Flags().GetInt("workers"); w >= 0 && cmd.Flags().Changed("workers") {
		cfg.Normalizer.Workers = w
	}
	if c, _ := cmd.Flags().GetString("classification"); c != "" {
		cfg.Normalizer.ClassificationPass = c
	}
}
