package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// OpenDB opens and configures a connection pool for the given driver.
// Supported drivers are "sqlite" (the default) and "mysql".
func OpenDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "", "sqlite":
		return OpenDBWithDSN("sqlite", sqliteDSN(dsn))
	case "mysql":
		return OpenDBWithDSN("mysql", mysqlDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// OpenDBWithDSN creates a connection pool using any provided DSN string and
// verifies it with a ping.
func OpenDBWithDSN(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// A single writer keeps sqlite from returning SQLITE_BUSY under load.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		slog.Error("Error connecting to database", "driver", driver, "error", err)
		return nil, err
	}

	slog.Info("Database connection pool established", "driver", driver)
	return db, nil
}

// sqliteDSN turns on foreign keys (needed for cascading deletes) and a busy
// timeout unless the caller already set pragmas.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "item_catalog.db"
	}
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func mysqlDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "parseTime=true"
}
