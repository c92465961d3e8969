// Package sqlxdb is the DBAdapter shared by the database drivers. Drivers
// supply the connection and dialect; queries are rebound to the driver's
// placeholder style by sqlx.
package sqlxdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/common"
)

// Pool settings applied when a DatabaseConfig leaves them at zero.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
)

// Adapter implements geothing.DBAdapter over a *sqlx.DB.
type Adapter struct {
	db      *sqlx.DB
	dialect geothing.Dialector
	closeMx sync.Mutex
	closed  bool
}

// Tx implements geothing.Tx over a *sqlx.Tx.
type Tx struct {
	tx      *sqlx.Tx
	dialect string
}

// Compile-time checks to ensure interfaces are implemented.
var (
	_ geothing.DBAdapter = (*Adapter)(nil)
	_ geothing.Tx        = (*Tx)(nil)
)

// Open connects with driverName, applies the pool settings and pings the database.
func Open(ctx context.Context, driverName, dsn string, cfg geothing.DatabaseConfig, dialect geothing.Dialector) (*Adapter, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", dialect.Name(), err)
	}
	Configure(db.DB, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect.Name(), err)
	}

	log.Info().Str("dialect", dialect.Name()).Str("driver", driverName).Msg("Database adapter initialized")
	return New(db, dialect), nil
}

// New wraps an open connection.
func New(db *sqlx.DB, dialect geothing.Dialector) *Adapter {
	return &Adapter{db: db, dialect: dialect}
}

// Configure applies the pool settings of cfg, falling back to the defaults.
func Configure(db *sql.DB, cfg geothing.DatabaseConfig) {
	maxOpen, maxIdle, lifetime := cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleConns
	}
	if lifetime <= 0 {
		lifetime = DefaultConnMaxLifetime
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)
}

// --- DBAdapter Methods ---

func (a *Adapter) Dialect() geothing.Dialector { return a.dialect }
func (a *Adapter) DialectName() string { return a.dialect.Name() }
func (a *Adapter) DB() *sql.DB { return a.db.DB }

// Close closes the connection pool. Closing twice returns common.ErrAdapterClosed.
func (a *Adapter) Close() error {
	a.closeMx.Lock()
	defer a.closeMx.Unlock()
	if a.closed {
		return common.ErrAdapterClosed
	}
	a.closed = true
	if err := a.db.Close(); err != nil {
		log.Error().Err(err).Str("dialect", a.dialect.Name()).Msg("Error closing database adapter")
		return fmt.Errorf("error closing %s connection: %w", a.dialect.Name(), err)
	}
	log.Debug().Str("dialect", a.dialect.Name()).Msg("Database adapter closed")
	return nil
}

func (a *Adapter) QueryRows(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	return queryRows(ctx, a.db, a.dialect.Name(), query, args)
}

// Get scans a single row into dest. It returns common.ErrNotFound when there is none.
func (a *Adapter) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return get(ctx, a.db, a.dialect.Name(), dest, query, args)
}

func (a *Adapter) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return selectRows(ctx, a.db, a.dialect.Name(), dest, query, args)
}

func (a *Adapter) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return exec(ctx, a.db, a.dialect.Name(), query, args)
}

func (a *Adapter) BeginTx(ctx context.Context, opts *sql.TxOptions) (geothing.Tx, error) {
	tx, err := a.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s begin transaction: %w", a.dialect.Name(), err)
	}
	log.Debug().Str("dialect", a.dialect.Name()).Msg("DB Transaction started")
	return &Tx{tx: tx, dialect: a.dialect.Name()}, nil
}

// --- Tx Methods ---

func (t *Tx) QueryRows(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	return queryRows(ctx, t.tx, t.dialect, query, args)
}

func (t *Tx) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return get(ctx, t.tx, t.dialect, dest, query, args)
}

func (t *Tx) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return selectRows(ctx, t.tx, t.dialect, dest, query, args)
}

func (t *Tx) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return exec(ctx, t.tx, t.dialect, query, args)
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%s commit: %w", t.dialect, err)
	}
	log.Debug().Str("dialect", t.dialect).Msg("DB Transaction committed")
	return nil
}

func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("%s rollback: %w", t.dialect, err)
	}
	log.Debug().Str("dialect", t.dialect).Msg("DB Transaction rolled back")
	return nil
}

// --- shared helpers ---

// queryer is the part of *sqlx.DB and *sqlx.Tx the helpers use.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func queryRows(ctx context.Context, q queryer, dialect, query string, args []interface{}) ([]map[string]interface{}, error) {
	query = q.Rebind(query)
	start := time.Now()
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		logQuery(dialect, "DB Query Error", query, args, start, err)
		return nil, fmt.Errorf("%s query error: %w", dialect, err)
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			logQuery(dialect, "DB Query Scan Error", query, args, start, err)
			return nil, fmt.Errorf("%s scan error: %w", dialect, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		logQuery(dialect, "DB Query Rows Error", query, args, start, err)
		return nil, fmt.Errorf("%s rows error: %w", dialect, err)
	}
	log.Debug().Str("dialect", dialect).Str("sql", query).Interface("args", args).
		Int("rows", len(out)).Dur("duration", time.Since(start)).Msg("DB Query")
	return out, nil
}

func get(ctx context.Context, q queryer, dialect string, dest interface{}, query string, args []interface{}) error {
	query = q.Rebind(query)
	start := time.Now()
	if err := q.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logQuery(dialect, "DB Get (No Rows)", query, args, start, nil)
			return common.ErrNotFound
		}
		logQuery(dialect, "DB Get Error", query, args, start, err)
		return fmt.Errorf("%s get error: %w", dialect, err)
	}
	logQuery(dialect, "DB Get", query, args, start, nil)
	return nil
}

func selectRows(ctx context.Context, q queryer, dialect string, dest interface{}, query string, args []interface{}) error {
	query = q.Rebind(query)
	start := time.Now()
	if err := q.SelectContext(ctx, dest, query, args...); err != nil {
		logQuery(dialect, "DB Select Error", query, args, start, err)
		return fmt.Errorf("%s select error: %w", dialect, err)
	}
	logQuery(dialect, "DB Select", query, args, start, nil)
	return nil
}

func exec(ctx context.Context, q queryer, dialect, query string, args []interface{}) (sql.Result, error) {
	query = q.Rebind(query)
	start := time.Now()
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		logQuery(dialect, "DB Exec Error", query, args, start, err)
		return nil, fmt.Errorf("%s exec error: %w", dialect, err)
	}
	logQuery(dialect, "DB Exec", query, args, start, nil)
	return result, nil
}

func logQuery(dialect, msg, query string, args []interface{}, start time.Time, err error) {
	event := log.Debug()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.Str("dialect", dialect).Str("sql", query).Interface("args", args).
		Dur("duration", time.Since(start)).Msg(msg)
}
