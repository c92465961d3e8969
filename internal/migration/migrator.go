package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/common"
)

const migrationsTableName = "schema_migrations"

//go:embed bootstrap
var bootstrapFS embed.FS

var migrationsTableSQL = map[string]string{
	"postgres": `CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    description VARCHAR(255) NOT NULL,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	"mysql": `CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    description VARCHAR(255) NOT NULL,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	"sqlite": `CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
}

type execer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Migrator applies versioned SQL scripts and tracks them in schema_migrations.
type Migrator struct {
	db   geothing.DBAdapter
	fsys fs.FS
	dir  string
}

// NewMigrator reads scripts from dir of fsys.
func NewMigrator(db geothing.DBAdapter, fsys fs.FS, dir string) *Migrator {
	return &Migrator{db: db, fsys: fsys, dir: dir}
}

// NewDirMigrator reads scripts from a directory on disk.
func NewDirMigrator(db geothing.DBAdapter, dir string) *Migrator {
	return NewMigrator(db, os.DirFS(dir), ".")
}

// NewBootstrapMigrator uses the embedded schema for db's dialect: the PostGIS
// extension where needed plus the points, tweets, addresses, paths and
// paths_points tables.
func NewBootstrapMigrator(db geothing.DBAdapter) (*Migrator, error) {
	dir := path.Join("bootstrap", db.DialectName())
	if _, err := fs.Stat(bootstrapFS, dir); err != nil {
		return nil, fmt.Errorf("%w: no bootstrap schema for %q", common.ErrUnsupportedDialect, db.DialectName())
	}
	return NewMigrator(db, bootstrapFS, dir), nil
}

// ensureMigrationsTable creates schema_migrations if it doesn't exist.
func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	stmt, ok := migrationsTableSQL[m.db.DialectName()]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrUnsupportedDialect, m.db.DialectName())
	}
	if _, err := m.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create %s table: %w", migrationsTableName, err)
	}
	return nil
}

// Applied returns the applied versions in ascending order.
func (m *Migrator) Applied(ctx context.Context) ([]int64, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}
	var versions []int64
	query := fmt.Sprintf("SELECT version FROM %s ORDER BY version", migrationsTableName)
	if err := m.db.Select(ctx, &versions, query); err != nil {
		return nil, fmt.Errorf("failed to query applied versions: %w", err)
	}
	return versions, nil
}

// Migrate applies every pending "up" script in version order inside one
// transaction. It returns the number of scripts applied.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	files, err := DiscoverMigrations(m.fsys, m.dir)
	if err != nil {
		return 0, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return 0, err
	}
	done := make(map[int64]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	var pending []MigrationFile
	for _, f := range files {
		if f.Direction == "up" && !done[f.Version] {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		log.Info().Str("dir", m.dir).Msg("No pending migrations")
		return 0, nil
	}

	err = m.inTx(ctx, func(tx geothing.Tx) error {
		for _, mig := range pending {
			if err := m.execFile(ctx, tx, mig); err != nil {
				return err
			}
			insert := fmt.Sprintf("INSERT INTO %s (version, description) VALUES (?, ?)", migrationsTableName)
			if _, err := tx.Exec(ctx, insert, mig.Version, mig.Name); err != nil {
				return fmt.Errorf("failed to record applied version %d: %w", mig.Version, err)
			}
			log.Info().Int64("version", mig.Version).Str("name", mig.Name).Msg("Applied migration")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// Rollback reverts the latest applied version with its "down" script.
// It returns the reverted version, or 0 when nothing was applied.
func (m *Migrator) Rollback(ctx context.Context) (int64, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return 0, err
	}
	if len(applied) == 0 {
		log.Info().Msg("No migrations to roll back")
		return 0, nil
	}
	latest := applied[len(applied)-1]

	files, err := DiscoverMigrations(m.fsys, m.dir)
	if err != nil {
		return 0, err
	}
	var down *MigrationFile
	for i := range files {
		if files[i].Version == latest && files[i].Direction == "down" {
			down = &files[i]
			break
		}
	}
	if down == nil {
		return 0, fmt.Errorf("no down migration for version %d in %s", latest, m.dir)
	}

	err = m.inTx(ctx, func(tx geothing.Tx) error {
		if err := m.execFile(ctx, tx, *down); err != nil {
			return err
		}
		del := fmt.Sprintf("DELETE FROM %s WHERE version = ?", migrationsTableName)
		if _, err := tx.Exec(ctx, del, latest); err != nil {
			return fmt.Errorf("failed to remove version %d: %w", latest, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int64("version", latest).Str("name", down.Name).Msg("Rolled back migration")
	return latest, nil
}

func (m *Migrator) execFile(ctx context.Context, db execer, mig MigrationFile) error {
	script, err := fs.ReadFile(m.fsys, mig.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", mig.FilePath, err)
	}
	if _, err := db.Exec(ctx, string(script)); err != nil {
		return fmt.Errorf("failed to execute migration %d (%s %s): %w", mig.Version, mig.Name, mig.Direction, err)
	}
	return nil
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx geothing.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("migration failed: %w; additionally, rollback failed: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}
	return nil
}
