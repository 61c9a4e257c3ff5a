package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/taxgraph/am"
	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/importstore"
	"github.com/teranos/taxgraph/logger"
)

func TestRenderConfig(t *testing.T) {
	cfg := &am.Config{
		Database: am.DatabaseConfig{Path: "gulls.db"},
		Neo4j:    am.Neo4jConfig{URI: "neo4j://localhost:7687", Password: "secret"},
	}

	for _, format := range []string{"toml", "yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			out, err := renderConfig(cfg, format)
			require.NoError(t, err)
			assert.Contains(t, out, "gulls.db")
			if format != "toml" {
				assert.NotContains(t, out, "secret")
			}
		})
	}

	_, err := renderConfig(cfg, "xml")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestStorePath(t *testing.T) {
	cmd := &cobra.Command{Use: "stats"}
	addDBFlag(cmd)

	assert.Equal(t, "configured.db", storePath(cmd, &am.Config{Database: am.DatabaseConfig{Path: "configured.db"}}))
	assert.Equal(t, "taxgraph.db", storePath(cmd, &am.Config{}))

	require.NoError(t, cmd.Flags().Set("db", "flag.db"))
	assert.Equal(t, "flag.db", storePath(cmd, &am.Config{Database: am.DatabaseConfig{Path: "configured.db"}}))
}

func TestImportThenNormalize(t *testing.T) {
	am.Reset()
	t.Cleanup(am.Reset)
	fixturePath, err := filepath.Abs("../../../fixture/testdata/gulls.toml")
	require.NoError(t, err)
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "gulls.db")

	root := &cobra.Command{Use: "taxgraph"}
	root.PersistentFlags().Bool("json", false, "")
	root.AddCommand(ImportCmd, NormalizeCmd)

	root.SetArgs([]string{"import", "--fixture", fixturePath, "--db", dbPath, "--json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	root.SetArgs([]string{"normalize", "--db", dbPath, "--workers", "1", "--json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	store, err := importstore.Open(context.Background(), dbPath, logger.Logger)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Runs(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, importstore.RunSucceeded, runs[0].Status)

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Positive(t, st.Relations["PARENT_OF"])
}
