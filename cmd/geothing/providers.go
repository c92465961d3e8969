package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/drivers/db/mysql"
	"github.com/burugo/geothing/drivers/db/postgres"
	"github.com/burugo/geothing/drivers/db/sqlite"
	"github.com/burugo/geothing/drivers/schema"
)

// Settings are the command line inputs the application is built from.
type Settings struct {
	ConfigFile string
	Driver     string
	DSN        string
}

// Application holds the dependencies wire injects.
type Application struct {
	Config *geothing.Config
	DB     geothing.DBAdapter
	ORM    *geothing.ORM
	Schema schema.Introspector
}

// --- Providers ---

// provideConfig loads the configuration file, if any, and applies the overrides.
func provideConfig(s Settings) (*geothing.Config, error) {
	cfg := &geothing.Config{}
	if s.ConfigFile != "" {
		loaded, err := geothing.LoadConfig(s.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if s.Driver != "" {
		cfg.Database.Driver = s.Driver
	}
	if s.DSN != "" {
		cfg.Database.DSN = s.DSN
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("no database DSN configured: use --dsn, GEOTHING_DSN or the config file")
	}
	return cfg, nil
}

// provideDBAdapter opens the configured database. The cleanup closes it.
func provideDBAdapter(ctx context.Context, cfg *geothing.Config) (geothing.DBAdapter, func(), error) {
	var (
		db  geothing.DBAdapter
		err error
	)
	switch strings.ToLower(cfg.Database.Driver) {
	case "postgres", "postgresql", "postgis":
		db, err = postgres.Open(ctx, cfg.Database)
	case "mysql":
		db, err = mysql.Open(ctx, cfg.Database)
	case "sqlite", "sqlite3", "spatialite":
		if strings.EqualFold(cfg.Database.Driver, "spatialite") {
			cfg.Database.SpatiaLite = true
		}
		db, err = sqlite.Open(ctx, cfg.Database)
	default:
		return nil, nil, fmt.Errorf("%w: %q", geothing.ErrUnsupportedDialect, cfg.Database.Driver)
	}
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing DB adapter")
		}
	}
	return db, cleanup, nil
}

// provideRegistry defines the configured models, or the default geometry
// models when the configuration declares none.
func provideRegistry(cfg *geothing.Config) (*geothing.Registry, error) {
	if len(cfg.Models) > 0 {
		return cfg.Registry()
	}
	reg := geothing.NewRegistry()
	if err := defineDefaultModels(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// provideORM creates the ORM with the GeoJSON plugin installed.
func provideORM(db geothing.DBAdapter, reg *geothing.Registry) (*geothing.ORM, error) {
	return geothing.New(db, reg, geothing.WithGeoJSON())
}

// provideIntrospector returns the schema reader for the adapter's dialect.
func provideIntrospector(db geothing.DBAdapter) (schema.Introspector, error) {
	switch db.DialectName() {
	case "postgres":
		return &postgres.PostgreSQLIntrospector{DB: db.DB()}, nil
	case "mysql":
		return &mysql.MySQLIntrospector{DB: db.DB()}, nil
	case "sqlite":
		return &sqlite.SQLiteIntrospector{DB: db.DB()}, nil
	}
	return nil, fmt.Errorf("%w: no introspector for %q", geothing.ErrUnsupportedDialect, db.DialectName())
}
