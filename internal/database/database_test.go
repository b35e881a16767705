package database

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/itemcatalog-golang/internal/models"
)

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "catalog.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("catalog.db"))
	assert.Equal(t, "catalog.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("catalog.db?mode=rwc"))
	assert.Equal(t, "x.db?_pragma=journal_mode(WAL)", sqliteDSN("x.db?_pragma=journal_mode(WAL)"))
	assert.Contains(t, sqliteDSN(""), "item_catalog.db?")
}

func TestMysqlDSN(t *testing.T) {
	assert.Equal(t, "u:p@tcp(db:3306)/catalog?parseTime=true", mysqlDSN("u:p@tcp(db:3306)/catalog"))
	assert.Equal(t, "u:p@/c?charset=utf8mb4&parseTime=true", mysqlDSN("u:p@/c?charset=utf8mb4"))
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, err := OpenDB("postgres", "whatever")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrate_SqliteIsIdempotent(t *testing.T) {
	db, err := OpenDB("sqlite", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	n, err := Migrate(db, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = Migrate(db, "sqlite")
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, table := range []string{"categories", "items", "users"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrate_ForeignKeysCascade(t *testing.T) {
	db, err := OpenDB("sqlite", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = Migrate(db, "sqlite")
	require.NoError(t, err)

	res, err := db.Exec(`INSERT INTO categories (name) VALUES ('Cameras')`)
	require.NoError(t, err)
	catID, _ := res.LastInsertId()
	_, err = db.Exec(`INSERT INTO items (name, price, stock, category_id) VALUES ('Lens', '$10.00', 1, ?)`, catID)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO items (name, price, stock, category_id) VALUES ('Orphan', '$1.00', 1, 9999)`)
	assert.Error(t, err, "foreign keys must be enforced")

	_, err = db.Exec(`INSERT INTO items (name, price, stock, category_id) VALUES ('Negative', '$1.00', -1, ?)`, catID)
	assert.Error(t, err, "stock must not be negative")

	_, err = db.Exec(`DELETE FROM categories WHERE id = ?`, catID)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count))
	assert.Zero(t, count)
}

func TestRollback_RevertsAndReapplies(t *testing.T) {
	db, err := OpenDB("sqlite", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = Migrate(db, "sqlite")
	require.NoError(t, err)

	require.NoError(t, Rollback(db, "sqlite", 2))
	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'users'`).Scan(&name)
	assert.Error(t, err, "users table is dropped")

	n, err := Migrate(db, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, db.Ping(), "migrations leave the pool open")
}

func TestMigrate_UnknownDriver(t *testing.T) {
	db, err := OpenDB("sqlite", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = Migrate(db, "oracle")
	assert.Error(t, err)
}

func TestMigrations_PriceColumnFitsNormalizedPrices(t *testing.T) {
	want := fmt.Sprintf("price VARCHAR(%d)", models.PriceMaxLen)
	for _, driver := range []string{"sqlite", "mysql"} {
		body, err := fs.ReadFile(migrationFS, "migrations/"+driver+"/002_create_items.up.sql")
		require.NoError(t, err, driver)
		assert.True(t, strings.Contains(string(body), want), "%s: %s", driver, want)

		_, err = fs.Stat(migrationFS, "migrations/"+driver+"/002_create_items.down.sql")
		assert.NoError(t, err, driver)
	}
}
