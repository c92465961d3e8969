package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/drivers/db/sqlite"
	"github.com/burugo/geothing/drivers/schema"
	"github.com/burugo/geothing/internal/migration"
)

// TestItem is a simple struct for adapter tests.
type TestItem struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func setupSQLiteAdapterTest(t *testing.T) geothing.DBAdapter {
	t.Helper()
	adapter, err := sqlite.NewSQLiteAdapter(filepath.Join(t.TempDir(), "adapter.db"))
	require.NoError(t, err, "Failed to create SQLite adapter")
	t.Cleanup(func() { _ = adapter.Close() })

	_, err = adapter.Exec(context.Background(), `CREATE TABLE test_items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
	require.NoError(t, err, "Failed to create test_items table")
	return adapter
}

func TestSQLiteDialector(t *testing.T) {
	d := sqlite.SQLiteDialector{}
	assert.Equal(t, "sqlite", d.Name())
	assert.Equal(t, `"points"`, d.Quote("points"))
	assert.Equal(t, `AsGeoJSON("points"."geometry")`, d.AsGeoJSON(`"points"."geometry"`))
	assert.Equal(t, "GeomFromText(?, 4326)", d.GeomFromText("?", 4326))
	assert.False(t, d.SupportsReturning())
}

func TestSQLiteAdapterCRUD(t *testing.T) {
	adapter := setupSQLiteAdapterTest(t)
	ctx := context.Background()
	assert.Equal(t, "sqlite", adapter.DialectName())
	assert.NotNil(t, adapter.DB())

	result, err := adapter.Exec(ctx, "INSERT INTO test_items (name) VALUES (?)", "first")
	require.NoError(t, err)
	id, err := result.LastInsertId()
	require.NoError(t, err)

	var item TestItem
	require.NoError(t, adapter.Get(ctx, &item, "SELECT id, name FROM test_items WHERE id = ?", id))
	assert.Equal(t, "first", item.Name)

	err = adapter.Get(ctx, &item, "SELECT id, name FROM test_items WHERE id = ?", id+1)
	assert.ErrorIs(t, err, geothing.ErrNotFound)

	_, err = adapter.Exec(ctx, "INSERT INTO test_items (name) VALUES (?)", "second")
	require.NoError(t, err)

	var items []TestItem
	require.NoError(t, adapter.Select(ctx, &items, "SELECT id, name FROM test_items ORDER BY id"))
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[1].Name)

	rows, err := adapter.QueryRows(ctx, "SELECT id, name FROM test_items WHERE name IN (?, ?) ORDER BY id", "first", "second")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, id, rows[0]["id"])

	_, err = adapter.Exec(ctx, "INSERT INTO missing_table (name) VALUES (?)", "x")
	assert.Error(t, err)
}

func TestSQLiteAdapterTransaction(t *testing.T) {
	adapter := setupSQLiteAdapterTest(t)
	ctx := context.Background()

	tx, err := adapter.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO test_items (name) VALUES (?)", "rolled back")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	tx, err = adapter.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO test_items (name) VALUES (?)", "committed")
	require.NoError(t, err)
	var inTx TestItem
	require.NoError(t, tx.Get(ctx, &inTx, "SELECT id, name FROM test_items WHERE name = ?", "committed"))
	require.NoError(t, tx.Commit())

	var items []TestItem
	require.NoError(t, adapter.Select(ctx, &items, "SELECT id, name FROM test_items"))
	require.Len(t, items, 1)
	assert.Equal(t, "committed", items[0].Name)
}

func TestSQLiteAdapterClose(t *testing.T) {
	adapter, err := sqlite.NewSQLiteAdapter(filepath.Join(t.TempDir(), "close.db"))
	require.NoError(t, err)
	require.NoError(t, adapter.Close())
	assert.Error(t, adapter.Close(), "closing twice fails")
}

func TestSQLiteOpenWithConfig(t *testing.T) {
	adapter, err := sqlite.Open(context.Background(), geothing.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "config.db"),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	defer adapter.Close()
	assert.Equal(t, 1, adapter.DB().Stats().MaxOpenConnections)
}

func TestSQLiteIntrospector(t *testing.T) {
	adapter, err := sqlite.NewSQLiteAdapter(filepath.Join(t.TempDir(), "introspect.db"))
	require.NoError(t, err)
	defer adapter.Close()
	ctx := context.Background()

	m, err := migration.NewBootstrapMigrator(adapter)
	require.NoError(t, err)
	_, err = m.Migrate(ctx)
	require.NoError(t, err)

	in := &sqlite.SQLiteIntrospector{DB: adapter.DB()}
	info, err := in.GetTableInfo(ctx, "points")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "id", info.PrimaryKey)
	col, ok := info.Column("geometry")
	require.True(t, ok)
	assert.True(t, schema.IsSpatialType(col.DataType))

	info, err = in.GetTableInfo(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, info)

	reg := geothing.NewRegistry()
	tweet, err := reg.Define("Tweet", geothing.ModelOptions{GeoJSON: "location"})
	require.NoError(t, err)
	problems, err := schema.CheckModel(ctx, in, tweet)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
