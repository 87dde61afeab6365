// cmd/libctl/root.go
package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/config"
	"shelfmark/internal/store"
)

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Operator tooling for the Shelfmark library services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "config.toml", "path to the configuration file")

	root.AddCommand(
		newRemindCommand(&configFile),
		newBorrowsCommand(&configFile),
		newAuditCommand(&configFile),
		newFixtureCommand(&configFile),
		newResetCommand(&configFile),
	)
	return root
}

// openStore loads configuration and connects to the database for a
// command invocation.
func openStore(ctx context.Context, configFile string) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}
