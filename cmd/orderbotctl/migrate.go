package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orderbot/internal/config"
	"orderbot/internal/store"
)

var migrateSeed bool

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog schema in the configured database",
		Long: `Create the catalog schema in the configured database.

The database is read from the same configuration as the webhook
(DATABASE_DRIVER, DATABASE_DSN, CONFIG_FILE, .env).

Examples:
  DATABASE_DSN=file:dev.db orderbotctl migrate --seed
  CONFIG_FILE=config.yaml orderbotctl migrate`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}
	cmd.Flags().BoolVar(&migrateSeed, "seed", false, "load the demo catalog after migrating")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, store.Options{
		QueryTimeout: cfg.Database.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	printSuccess("schema ready (%s)", cfg.Database.Driver)

	if migrateSeed {
		if err := db.Seed(ctx); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
		printSuccess("demo catalog loaded")
	}
	return nil
}
