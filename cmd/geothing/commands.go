package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/burugo/geothing"
	"github.com/burugo/geothing/drivers/schema"
	"github.com/burugo/geothing/internal/migration"
)

type migrateCommand struct {
	Dir string `long:"dir" description:"Directory of <version>_<name>.<up|down>.sql scripts instead of the bundled schema"`
}

func (c *migrateCommand) Execute([]string) error {
	return withApplication(func(ctx context.Context, app *Application) error {
		m, err := newMigrator(app.DB, c.Dir)
		if err != nil {
			return err
		}
		n, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("applied", n).Msg("Migrations complete")
		return nil
	})
}

type rollbackCommand struct {
	Dir string `long:"dir" description:"Directory of <version>_<name>.<up|down>.sql scripts instead of the bundled schema"`
}

func (c *rollbackCommand) Execute([]string) error {
	return withApplication(func(ctx context.Context, app *Application) error {
		m, err := newMigrator(app.DB, c.Dir)
		if err != nil {
			return err
		}
		version, err := m.Rollback(ctx)
		if err != nil {
			return err
		}
		log.Info().Int64("version", version).Msg("Rollback complete")
		return nil
	})
}

func newMigrator(db geothing.DBAdapter, dir string) (*migration.Migrator, error) {
	if dir != "" {
		return migration.NewDirMigrator(db, dir), nil
	}
	return migration.NewBootstrapMigrator(db)
}

type modelsCommand struct{}

func (c *modelsCommand) Execute([]string) error {
	return withApplication(func(_ context.Context, app *Application) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tTABLE\tGEOMETRY\tRELATIONS")
		for _, class := range app.ORM.Registry().Models() {
			geometry, ok := class.Geometry().Column()
			if !ok {
				geometry = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", class.Name(), class.TableName(), geometry, class.RelationNames())
		}
		return w.Flush()
	})
}

type checkCommand struct{}

func (c *checkCommand) Execute([]string) error {
	return withApplication(func(ctx context.Context, app *Application) error {
		var problems []schema.Problem
		for _, class := range app.ORM.Registry().Models() {
			found, err := schema.CheckModel(ctx, app.Schema, class)
			if err != nil {
				return err
			}
			problems = append(problems, found...)
		}
		for _, p := range problems {
			fmt.Println(p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d schema problem(s) found", len(problems))
		}
		log.Info().Int("models", len(app.ORM.Registry().Models())).Msg("Schema matches model definitions")
		return nil
	})
}

type showCommand struct {
	With []string `short:"w" long:"with" description:"Relation to eager load (repeatable, nested with a.b)"`

	Args struct {
		Model string `positional-arg-name:"model" required:"yes"`
		ID    string `positional-arg-name:"id" required:"yes"`
	} `positional-args:"yes"`
}

func (c *showCommand) Execute([]string) error {
	return withApplication(func(ctx context.Context, app *Application) error {
		class, err := app.ORM.Model(c.Args.Model)
		if err != nil {
			return err
		}
		rec, err := app.ORM.Find(ctx, class, parseID(c.Args.ID), geothing.WithRelated(c.With...))
		if err != nil {
			return err
		}
		return printJSON(rec)
	})
}

type putCommand struct {
	Geometry string            `short:"g" long:"geometry" description:"GeoJSON geometry, e.g. {\"type\":\"Point\",\"coordinates\":[24,42]}"`
	Set      map[string]string `short:"s" long:"set" description:"Additional attribute as column:value (repeatable)"`

	Args struct {
		Model string `positional-arg-name:"model" required:"yes"`
	} `positional-args:"yes"`
}

func (c *putCommand) Execute([]string) error {
	return withApplication(func(ctx context.Context, app *Application) error {
		class, err := app.ORM.Model(c.Args.Model)
		if err != nil {
			return err
		}
		attrs := geothing.Attributes{}
		for k, v := range c.Set {
			attrs[k] = parseID(v)
		}
		if c.Geometry != "" {
			col, ok := class.Geometry().Column()
			if !ok {
				return fmt.Errorf("model %s has no geometry attribute", class.Name())
			}
			g, err := geojson.UnmarshalGeometry([]byte(c.Geometry))
			if err != nil {
				return fmt.Errorf("invalid --geometry: %w", err)
			}
			attrs[col] = g
		}

		rec := app.ORM.NewRecord(class, attrs)
		if err := app.ORM.Save(ctx, rec); err != nil {
			return err
		}
		return printJSON(rec)
	})
}

// parseID keeps integer input numeric so it compares equal to integer keys.
func parseID(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
