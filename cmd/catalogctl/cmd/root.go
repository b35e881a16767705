package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/01moynul/itemcatalog-golang/internal/config"
	"github.com/01moynul/itemcatalog-golang/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Maintenance commands for the item catalog",
	Long: `catalogctl prepares and maintains the catalog database.

It reads the same .env, config.yaml and CATALOG_* variables as the server.

Examples:
  catalogctl migrate
  catalogctl seed
  catalogctl add-user --username admin@example.com --password 's3cret-pass'`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, addUserCmd)
}

// openDatabase loads the configuration, connects and brings the schema up
// to date.
func openDatabase() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if _, err := database.Migrate(db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
