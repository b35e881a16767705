package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/01moynul/itemcatalog-golang/internal/config"
	"github.com/01moynul/itemcatalog-golang/internal/database"
	"github.com/01moynul/itemcatalog-golang/internal/models"
	"github.com/01moynul/itemcatalog-golang/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Apply pending schema migrations, or with --down revert the most
recent ones.`,
	RunE: runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample categories and items",
	Long: `Load the sample catalog. Categories that already exist are skipped,
so running the command twice adds nothing.`,
	RunE: runSeed,
}

var addUserCmd = &cobra.Command{
	Use:   "add-user",
	Short: "Create a local account",
	RunE:  runAddUser,
}

var migrateDown int

var (
	addUserName     string
	addUserPassword string
)

func init() {
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "number of migrations to revert")
	addUserCmd.Flags().StringVar(&addUserName, "username", "", "email address of the account")
	addUserCmd.Flags().StringVar(&addUserPassword, "password", "", "password, at least 8 characters without spaces")
	_ = addUserCmd.MarkFlagRequired("username")
	_ = addUserCmd.MarkFlagRequired("password")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateDown > 0 {
		if err := database.Rollback(db, cfg.Database.Driver, migrateDown); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reverted %d migration(s).\n", migrateDown)
		return nil
	}

	applied, err := database.Migrate(db, cfg.Database.Driver)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", applied)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	categories, items, err := store.New(db).Seed(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d categories and %d items.\n", categories, items)
	return nil
}

func runAddUser(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(addUserName)
	if !strings.Contains(username, "@") {
		return fmt.Errorf("username must be an email address, got %q", username)
	}
	if len(addUserPassword) < 8 || strings.ContainsAny(addUserPassword, " \t\n") {
		return errors.New("password must contain at least 8 symbols but no spaces")
	}

	var password models.Password
	if err := password.Set(addUserPassword); err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := store.New(db).CreateUser(cmd.Context(), username, password.Hash)
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("user %q already exists", strings.ToLower(username))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %q (id %d).\n", user.Username, user.ID)
	return nil
}
