package main

import (
	"github.com/burugo/geothing"
)

// defineDefaultModels registers the models matching the bundled schema.
func defineDefaultModels(reg *geothing.Registry) error {
	models := []struct {
		name string
		opts geothing.ModelOptions
	}{
		{"Point", geothing.ModelOptions{
			GeoJSON: true,
			Relations: map[string]geothing.RelationFunc{
				"addresses": func(r *geothing.Record) (*geothing.Relation, error) { return r.HasMany("Address") },
				"paths":     func(r *geothing.Record) (*geothing.Relation, error) { return r.BelongsToMany("Path") },
			},
		}},
		{"Tweet", geothing.ModelOptions{GeoJSON: "location"}},
		{"Address", geothing.ModelOptions{
			Relations: map[string]geothing.RelationFunc{
				"point": func(r *geothing.Record) (*geothing.Relation, error) { return r.BelongsTo("Point") },
			},
		}},
		{"Path", geothing.ModelOptions{
			Relations: map[string]geothing.RelationFunc{
				"points": func(r *geothing.Record) (*geothing.Relation, error) { return r.BelongsToMany("Point") },
			},
		}},
	}
	for _, m := range models {
		if _, err := reg.Define(m.name, m.opts); err != nil {
			return err
		}
	}
	return nil
}
