// interfaces.go
// Core interfaces for geothing: DBAdapter, Tx, Dialector.
// These are public and intended for use by users and driver developers.

package geothing

import (
	"context"
	"database/sql"
)

// DBAdapter defines the interface for database drivers.
type DBAdapter interface {
	// QueryRows runs query and returns every row as a column -> value map.
	QueryRows(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
	Close() error
	DB() *sql.DB
	Dialect() Dialector
	DialectName() string
}

// Tx defines the interface for transaction operations.
type Tx interface {
	QueryRows(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Commit() error
	Rollback() error
}

// Dialector describes a SQL dialect: identifier quoting and the spatial
// functions of its geometry extension.
type Dialector interface {
	Name() string                   // "postgres", "mysql", "sqlite"
	Quote(identifier string) string // Quote a SQL identifier (table/column name)
	// AsGeoJSON renders column as GeoJSON text.
	AsGeoJSON(column string) string
	// GeomFromText builds a geometry from the WKT bound to placeholder.
	GeomFromText(placeholder string, srid int) string
	// SupportsReturning reports whether INSERT ... RETURNING is available.
	SupportsReturning() bool
}
