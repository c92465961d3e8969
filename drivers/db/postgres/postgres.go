package postgres

import (
	"context"
	"fmt"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/internal/drivers/db/sqlxdb"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresDialector implements geothing.Dialector for PostGIS.
type PostgresDialector struct{}

var _ geothing.Dialector = PostgresDialector{}

func (PostgresDialector) Name() string { return "postgres" }

func (PostgresDialector) Quote(identifier string) string {
	return `"` + identifier + `"`
}

func (PostgresDialector) AsGeoJSON(column string) string {
	return "ST_AsGeoJSON(" + column + ")"
}

func (PostgresDialector) GeomFromText(placeholder string, srid int) string {
	return fmt.Sprintf("ST_GeomFromText(%s, %d)", placeholder, srid)
}

func (PostgresDialector) SupportsReturning() bool { return true }

// NewPostgreSQLAdapter connects to a PostGIS database with the default pool settings.
func NewPostgreSQLAdapter(dsn string) (geothing.DBAdapter, error) {
	return Open(context.Background(), geothing.DatabaseConfig{Driver: "postgres", DSN: dsn})
}

// Open connects using cfg.
func Open(ctx context.Context, cfg geothing.DatabaseConfig) (geothing.DBAdapter, error) {
	adapter, err := sqlxdb.Open(ctx, "postgres", cfg.DSN, cfg, PostgresDialector{})
	if err != nil {
		return nil, err
	}
	return adapter, nil
}
