package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/drivers/schema"
)

func TestProvideConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geothing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: mysql\n  dsn: user@/db\n"), 0o644))

	cfg, err := provideConfig(Settings{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "user@/db", cfg.Database.DSN)

	cfg, err = provideConfig(Settings{ConfigFile: path, Driver: "sqlite", DSN: "file.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file.db", cfg.Database.DSN)

	_, err = provideConfig(Settings{})
	assert.Error(t, err, "a DSN is required")
}

func TestProvideRegistryDefaults(t *testing.T) {
	reg, err := provideRegistry(&geothing.Config{})
	require.NoError(t, err)

	point := reg.MustModel("Point")
	col, ok := point.Geometry().Column()
	assert.True(t, ok)
	assert.Equal(t, "geometry", col)

	tweet := reg.MustModel("Tweet")
	col, _ = tweet.Geometry().Column()
	assert.Equal(t, "location", col)

	assert.Equal(t, "addresses", reg.MustModel("Address").TableName())
	assert.Equal(t, []string{"points"}, reg.MustModel("Path").RelationNames())
}

func TestProvideDBAdapterUnsupported(t *testing.T) {
	_, _, err := provideDBAdapter(context.Background(), &geothing.Config{Database: geothing.DatabaseConfig{Driver: "oracle", DSN: "x"}})
	assert.ErrorIs(t, err, geothing.ErrUnsupportedDialect)
}

func TestInitializeApplication(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")

	app, cleanup, err := initializeApplication(ctx, Settings{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "sqlite", app.DB.DialectName())
	assert.Same(t, app.DB, app.ORM.DB())

	m, err := newMigrator(app.DB, "")
	require.NoError(t, err)
	n, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, class := range app.ORM.Registry().Models() {
		problems, err := schema.CheckModel(ctx, app.Schema, class)
		require.NoError(t, err)
		assert.Empty(t, problems, class.Name())
	}

	path, err := app.ORM.Forge("Path", nil)
	require.NoError(t, err)
	require.NoError(t, app.ORM.Save(ctx, path))
	id, ok := path.ID()
	assert.True(t, ok)
	assert.Positive(t, id)
}

func TestParseID(t *testing.T) {
	assert.Equal(t, int64(12), parseID("12"))
	assert.Equal(t, "abc", parseID("abc"))
}
