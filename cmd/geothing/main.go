package main

import (
	"context"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/burugo/geothing/internal/logger"
)

// Options are the global command line options.
type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"GEOTHING_CONFIG" description:"Path to configuration file"`
	Driver     string `long:"driver"           env:"GEOTHING_DRIVER" description:"Database driver (postgres, mysql, sqlite); overrides the configuration file"`
	DSN        string `long:"dsn"              env:"GEOTHING_DSN"    description:"Database connection string; overrides the configuration file"`
}

var opts Options

func (o Options) settings() Settings {
	return Settings{ConfigFile: o.ConfigFile, Driver: o.Driver, DSN: o.DSN}
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		opts.Logger.Setup()
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	mustAddCommand(parser, "migrate", "Apply pending migrations",
		"Applies the bundled geometry schema, or the scripts of --dir, that are not applied yet.", &migrateCommand{})
	mustAddCommand(parser, "rollback", "Revert the latest migration",
		"Reverts the most recently applied migration with its down script.", &rollbackCommand{})
	mustAddCommand(parser, "models", "List model classes",
		"Lists the configured model classes with their tables and geometry attributes.", &modelsCommand{})
	mustAddCommand(parser, "check", "Check tables against models",
		"Verifies that every model's table exists with its primary key and a spatial geometry column.", &checkCommand{})
	mustAddCommand(parser, "show", "Print a record as JSON",
		"Fetches a record by primary key, optionally with related records, and prints it with GeoJSON geometry.", &showCommand{})
	mustAddCommand(parser, "put", "Insert a record",
		"Inserts a record whose geometry is given as GeoJSON and prints the stored record.", &putCommand{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func mustAddCommand(parser *flags.Parser, name, short, long string, data interface{}) {
	if _, err := parser.AddCommand(name, short, long, data); err != nil {
		log.Fatal().Err(err).Str("command", name).Msg("Failed to register command")
	}
}

// withApplication builds the application for one command run and releases it afterwards.
func withApplication(fn func(ctx context.Context, app *Application) error) error {
	ctx := context.Background()
	app, cleanup, err := initializeApplication(ctx, opts.settings())
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, app)
}
