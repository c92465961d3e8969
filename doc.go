// Package geothing is a small map-based ORM whose lifecycle steps (query
// initialization, row parsing, attribute formatting and relation building) are
// exposed as a Hooks chain, together with the GeoJSON plugin that teaches that
// chain to move geometry columns between the database's native encoding and
// GeoJSON.
//
// A model class declares its geometry attribute with the GeoJSON option:
//
//	reg := geothing.NewRegistry()
//	reg.Define("Point", geothing.ModelOptions{GeoJSON: true})
//	reg.Define("Tweet", geothing.ModelOptions{GeoJSON: "location"})
//
//	orm, err := geothing.New(db, reg, geothing.WithGeoJSON())
//
// Every fetch of such a model, direct or through a relation, selects the
// rendered GeoJSON form of the column and decodes it into a *geojson.Geometry.
// Every save converts the attribute to WKT and stores it with SRID 4326.
package geothing
