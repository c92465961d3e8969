package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/internal/drivers/db/sqlxdb"
)

// SpatiaLiteDriverName is the database/sql driver that loads mod_spatialite
// into every connection.
const SpatiaLiteDriverName = "sqlite3_spatialite"

var registerSpatiaLite sync.Once

// SQLiteDialector implements geothing.Dialector for SpatiaLite.
type SQLiteDialector struct{}

var _ geothing.Dialector = SQLiteDialector{}

func (SQLiteDialector) Name() string { return "sqlite" }

func (SQLiteDialector) Quote(identifier string) string {
	return `"` + identifier + `"`
}

func (SQLiteDialector) AsGeoJSON(column string) string {
	return "AsGeoJSON(" + column + ")"
}

func (SQLiteDialector) GeomFromText(placeholder string, srid int) string {
	return fmt.Sprintf("GeomFromText(%s, %d)", placeholder, srid)
}

func (SQLiteDialector) SupportsReturning() bool { return false }

// Option configures NewSQLiteAdapter.
type Option func(*options)

type options struct {
	driverName string
	spatiaLite bool
	cfg        geothing.DatabaseConfig
}

// WithDriverName uses a database/sql driver registered under name, for example
// one whose ConnectHook adds SQL functions.
func WithDriverName(name string) Option {
	return func(o *options) { o.driverName = name }
}

// WithSpatiaLite loads the mod_spatialite extension into every connection.
func WithSpatiaLite() Option {
	return func(o *options) { o.spatiaLite = true }
}

// WithPool applies the pool settings of cfg.
func WithPool(cfg geothing.DatabaseConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// NewSQLiteAdapter creates a new SQLite database adapter.
func NewSQLiteAdapter(dsn string, opts ...Option) (geothing.DBAdapter, error) {
	return open(context.Background(), dsn, opts)
}

// Open connects using cfg.
func Open(ctx context.Context, cfg geothing.DatabaseConfig) (geothing.DBAdapter, error) {
	opts := []Option{WithPool(cfg)}
	if cfg.SpatiaLite {
		opts = append(opts, WithSpatiaLite())
	}
	return open(ctx, cfg.DSN, opts)
}

func open(ctx context.Context, dsn string, opts []Option) (geothing.DBAdapter, error) {
	o := options{driverName: "sqlite3"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.spatiaLite {
		registerSpatiaLite.Do(func() {
			sql.Register(SpatiaLiteDriverName, &sqlite3.SQLiteDriver{
				Extensions: []string{"mod_spatialite"},
			})
		})
		o.driverName = SpatiaLiteDriverName
	}
	if o.driverName != "sqlite3" {
		sqlx.BindDriver(o.driverName, sqlx.QUESTION)
	}

	adapter, err := sqlxdb.Open(ctx, o.driverName, dsn, o.cfg, SQLiteDialector{})
	if err != nil {
		return nil, err
	}
	return adapter, nil
}
