package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/taxgraph/display"
	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/fixture"
)

// ImportCmd seeds an import store from a checklist fixture
var ImportCmd = &cobra.Command{
	Use:   "import --fixture <checklist.toml>",
	Short: "Seed an import store from a TOML checklist fixture",
	Long: `Load a checklist described in TOML (insert metadata plus usage records)
into an import store, replacing any previous content.

Examples:
  taxgraph import --fixture testdata/gulls.toml --db gulls.db`,
	RunE: runImport,
}

func init() {
	ImportCmd.Flags().String("fixture", "", "Checklist fixture (TOML)")
	_ = ImportCmd.MarkFlagRequired("fixture")
	addDBFlag(ImportCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fixturePath, _ := cmd.Flags().GetString("fixture")

	g, meta, err := fixture.Load(fixturePath)
	if err != nil {
		return errors.Wrapf(err, "failed to load fixture %s", fixturePath)
	}

	store, _, path, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Import(ctx, g, meta); err != nil {
		return errors.Wrapf(err, "failed to import into %s", path)
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(map[string]interface{}{
			"db":     path,
			"usages": g.Len(),
		})
	}
	pterm.Success.Printfln("Imported %d usages from %s into %s", g.Len(), fixturePath, path)
	return nil
}
