package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationFS embed.FS

// Migrate applies every pending embedded migration for the driver and
// returns how many were applied.
func Migrate(db *sql.DB, driver string) (int, error) {
	m, release, err := newMigrator(db, driver)
	if err != nil {
		return 0, err
	}
	defer release()

	before, err := schemaVersion(m)
	if err != nil {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	after, err := schemaVersion(m)
	if err != nil {
		return 0, err
	}
	if after > before {
		slog.Info("Applied migrations", "driver", driver, "from", before, "to", after)
	}
	return int(after - before), nil
}

// Rollback reverts the last steps migrations.
func Rollback(db *sql.DB, driver string, steps int) error {
	m, release, err := newMigrator(db, driver)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return nil
}

// newMigrator builds a migrate instance on the existing pool. The release
// func returns any dedicated connection without closing db.
func newMigrator(db *sql.DB, driver string) (*migrate.Migrate, func(), error) {
	if driver == "" {
		driver = "sqlite"
	}

	source, err := iofs.New(migrationFS, "migrations/"+driver)
	if err != nil {
		return nil, nil, fmt.Errorf("no migrations for driver %q: %w", driver, err)
	}

	var (
		target  migratedb.Driver
		release = func() {}
	)
	switch driver {
	case "sqlite":
		target, err = sqlite.WithInstance(db, &sqlite.Config{})
	case "mysql":
		ctx := context.Background()
		conn, cerr := db.Conn(ctx)
		if cerr != nil {
			return nil, nil, cerr
		}
		release = func() { conn.Close() }
		target, err = mysql.WithConnection(ctx, conn, &mysql.Config{})
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, release, nil
}

// schemaVersion returns the applied migration version, 0 for a fresh
// database.
func schemaVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty, fix it and force the version", v)
	}
	return v, nil
}
