package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/teranos/taxgraph/am"
	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/importstore"
	"github.com/teranos/taxgraph/logger"
)

// addDBFlag registers --db on cmd.
func addDBFlag(cmd *cobra.Command) {
	cmd.Flags().String("db", "", "Import store path (default: database.path from config)")
}

// storePath resolves --db against the configured database path.
func storePath(cmd *cobra.Command, cfg *am.Config) string {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path
	}
	return "taxgraph.db"
}

// openStore loads config and opens the import store named by --db.
func openStore(ctx context.Context, cmd *cobra.Command) (*importstore.Store, *am.Config, string, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, nil, "", errors.Wrap(err, "failed to load configuration")
	}
	path := storePath(cmd, cfg)
	store, err := importstore.Open(ctx, path, logger.Logger)
	if err != nil {
		return nil, nil, "", errors.Wrapf(err, "failed to open import store at %s", path)
	}
	return store, cfg, path, nil
}
