package mysql

import (
	"context"
	"fmt"

	driver "github.com/go-sql-driver/mysql"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/internal/drivers/db/sqlxdb"
)

// MySQLDialector implements geothing.Dialector for MySQL 8 spatial types.
type MySQLDialector struct{}

var _ geothing.Dialector = MySQLDialector{}

func (MySQLDialector) Name() string { return "mysql" }

func (MySQLDialector) Quote(identifier string) string {
	return "`" + identifier + "`"
}

func (MySQLDialector) AsGeoJSON(column string) string {
	return "ST_AsGeoJSON(" + column + ")"
}

// GeomFromText pins the axis order: MySQL reads SRID 4326 WKT as lat/lon by default.
func (MySQLDialector) GeomFromText(placeholder string, srid int) string {
	return fmt.Sprintf("ST_GeomFromText(%s, %d, 'axis-order=long-lat')", placeholder, srid)
}

func (MySQLDialector) SupportsReturning() bool { return false }

// NewMySQLAdapter connects to a MySQL database with the default pool settings.
func NewMySQLAdapter(dsn string) (geothing.DBAdapter, error) {
	return Open(context.Background(), geothing.DatabaseConfig{Driver: "mysql", DSN: dsn})
}

// Open connects using cfg. The DSN is normalized with ParseDSN.
func Open(ctx context.Context, cfg geothing.DatabaseConfig) (geothing.DBAdapter, error) {
	dsn, err := ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	adapter, err := sqlxdb.Open(ctx, "mysql", dsn, cfg, MySQLDialector{})
	if err != nil {
		return nil, err
	}
	return adapter, nil
}

// ParseDSN enables the connection flags the ORM relies on: multi statements
// for migration files, found-rows so updates of unchanged rows still count,
// and parseTime.
func ParseDSN(dsn string) (string, error) {
	c, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	c.MultiStatements = true
	c.ClientFoundRows = true
	c.ParseTime = true
	return c.FormatDSN(), nil
}
