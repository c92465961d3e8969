package geothing_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/drivers/db/sqlite"
	"github.com/burugo/geothing/internal/migration"
)

// testDriverName is a go-sqlite3 driver with AsGeoJSON and GeomFromText SQL
// functions, so the geometry round trip runs without mod_spatialite.
// Geometries are stored as WKT text.
const testDriverName = "sqlite3_geothing_test"

var registerTestDriver sync.Once

func asGeoJSON(text string) (string, error) {
	g, err := wkt.Unmarshal(text)
	if err != nil {
		return "", err
	}
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func geomFromText(text string, srid int64) (string, error) {
	if _, err := wkt.Unmarshal(text); err != nil {
		return "", err
	}
	return text, nil
}

// setupTestDB opens a file-based SQLite database under t.TempDir() with the
// bundled schema applied.
func setupTestDB(tb testing.TB) geothing.DBAdapter {
	tb.Helper()
	registerTestDriver.Do(func() {
		sql.Register(testDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc("AsGeoJSON", asGeoJSON, true); err != nil {
					return err
				}
				return conn.RegisterFunc("GeomFromText", geomFromText, true)
			},
		})
	})

	db, err := sqlite.NewSQLiteAdapter(filepath.Join(tb.TempDir(), "geothing_test.db"), sqlite.WithDriverName(testDriverName))
	require.NoError(tb, err, "Failed to create SQLite adapter")
	tb.Cleanup(func() {
		if err := db.Close(); err != nil {
			tb.Logf("Error closing test DB adapter: %v", err)
		}
	})

	m, err := migration.NewBootstrapMigrator(db)
	require.NoError(tb, err)
	_, err = m.Migrate(context.Background())
	require.NoError(tb, err, "Failed to apply bootstrap schema")
	return db
}

// defineTestModels registers the models of the bundled schema.
func defineTestModels(tb testing.TB, reg *geothing.Registry) {
	tb.Helper()
	_, err := reg.Define("Point", geothing.ModelOptions{
		GeoJSON: true,
		Relations: map[string]geothing.RelationFunc{
			"addresses": func(r *geothing.Record) (*geothing.Relation, error) { return r.HasMany("Address") },
			"address":   func(r *geothing.Record) (*geothing.Relation, error) { return r.HasOne("Address") },
			"paths":     func(r *geothing.Record) (*geothing.Relation, error) { return r.BelongsToMany("Path") },
		},
	})
	require.NoError(tb, err)
	_, err = reg.Define("Tweet", geothing.ModelOptions{GeoJSON: "location"})
	require.NoError(tb, err)
	_, err = reg.Define("Address", geothing.ModelOptions{
		Relations: map[string]geothing.RelationFunc{
			"point": func(r *geothing.Record) (*geothing.Relation, error) { return r.BelongsTo("Point") },
		},
	})
	require.NoError(tb, err)
	_, err = reg.Define("Path", geothing.ModelOptions{
		Relations: map[string]geothing.RelationFunc{
			"points": func(r *geothing.Record) (*geothing.Relation, error) { return r.BelongsToMany("Point") },
		},
	})
	require.NoError(tb, err)
}

// setupTestORM returns an ORM with the GeoJSON plugin over a fresh database.
// Extra options are applied after WithGeoJSON.
func setupTestORM(tb testing.TB, opts ...geothing.Option) (*geothing.ORM, geothing.DBAdapter) {
	tb.Helper()
	db := setupTestDB(tb)
	reg := geothing.NewRegistry()
	defineTestModels(tb, reg)
	orm, err := geothing.New(db, reg, append([]geothing.Option{geothing.WithGeoJSON()}, opts...)...)
	require.NoError(tb, err)
	return orm, db
}

// insertPoint stores a point with raw SQL and returns its id.
func insertPoint(tb testing.TB, db geothing.DBAdapter, p orb.Point) int64 {
	tb.Helper()
	res, err := db.Exec(context.Background(), "INSERT INTO points (geometry) VALUES (GeomFromText(?, 4326))", wkt.MarshalString(p))
	require.NoError(tb, err)
	id, err := res.LastInsertId()
	require.NoError(tb, err)
	return id
}

func insertRow(tb testing.TB, db geothing.DBAdapter, query string, args ...interface{}) int64 {
	tb.Helper()
	res, err := db.Exec(context.Background(), query, args...)
	require.NoError(tb, err)
	id, err := res.LastInsertId()
	require.NoError(tb, err)
	return id
}

// geometryOf returns the parsed geometry held in attribute col.
func geometryOf(tb testing.TB, rec *geothing.Record, col string) orb.Geometry {
	tb.Helper()
	require.NotNil(tb, rec)
	g, ok := rec.Get(col).(*geojson.Geometry)
	require.True(tb, ok, "%s should be a *geojson.Geometry, got %T", col, rec.Get(col))
	return g.Geometry()
}

// textOf renders a text column value, which drivers return as string or []byte.
func textOf(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}
