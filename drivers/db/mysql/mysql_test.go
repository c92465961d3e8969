package mysql_test

import (
	"context"
	"os"
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/geothing/drivers/db/mysql"
)

func TestMySQLDialector(t *testing.T) {
	d := mysql.MySQLDialector{}
	assert.Equal(t, "mysql", d.Name())
	assert.Equal(t, "`points`", d.Quote("points"))
	assert.Equal(t, "ST_AsGeoJSON(`points`.`geometry`)", d.AsGeoJSON("`points`.`geometry`"))
	assert.Equal(t, "ST_GeomFromText(?, 4326, 'axis-order=long-lat')", d.GeomFromText("?", 4326))
	assert.False(t, d.SupportsReturning())
}

func TestParseDSN(t *testing.T) {
	dsn, err := mysql.ParseDSN("user:secret@tcp(localhost:3306)/geothing")
	require.NoError(t, err)

	cfg, err := driver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.MultiStatements)
	assert.True(t, cfg.ClientFoundRows)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "geothing", cfg.DBName)
	assert.Equal(t, "localhost:3306", cfg.Addr)

	_, err = mysql.ParseDSN("not a dsn")
	assert.Error(t, err)
}

// TestMySQLAdapter runs against the server named by GEOTHING_MYSQL_DSN.
func TestMySQLAdapter(t *testing.T) {
	dsn := os.Getenv("GEOTHING_MYSQL_DSN")
	if dsn == "" {
		t.Skip("GEOTHING_MYSQL_DSN not set")
	}
	adapter, err := mysql.NewMySQLAdapter(dsn)
	require.NoError(t, err)
	defer adapter.Close()

	rows, err := adapter.QueryRows(context.Background(),
		"SELECT ST_AsGeoJSON(ST_GeomFromText(?, 4326, 'axis-order=long-lat')) AS geometry", "POINT(24 42)")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"type":"Point","coordinates":[24,42]}`, string(rows[0]["geometry"].([]byte)))
}
