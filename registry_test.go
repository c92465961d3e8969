package geothing

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefine(t *testing.T) {
	reg := NewRegistry()

	class, err := reg.Define("StreetAddress", ModelOptions{})
	require.NoError(t, err)
	assert.Equal(t, "StreetAddress", class.Name())
	assert.Equal(t, "street_addresses", class.TableName())
	assert.Equal(t, "id", class.PrimaryKey())
	assert.Equal(t, GeometryNone, class.Geometry().Kind())

	class, err = reg.Define(" Tweet ", ModelOptions{TableName: "tweet_log", PrimaryKey: "tweet_id", GeoJSON: "location"})
	require.NoError(t, err)
	assert.Equal(t, "Tweet", class.Name())
	assert.Equal(t, "tweet_log", class.TableName())
	assert.Equal(t, "tweet_id", class.PrimaryKey())
	col, ok := class.Geometry().Column()
	assert.True(t, ok)
	assert.Equal(t, "location", col)

	_, err = reg.Define("Tweet", ModelOptions{})
	assert.ErrorIs(t, err, ErrDuplicateModel)

	_, err = reg.Define("  ", ModelOptions{})
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = reg.Define("Place", ModelOptions{Columns: []string{"name"}})
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = reg.Define("Broken", ModelOptions{Relations: map[string]RelationFunc{"points": nil}})
	assert.ErrorIs(t, err, ErrInvalidRelation)

	names := []string{}
	for _, c := range reg.Models() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"StreetAddress", "Tweet"}, names)
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	point, err := reg.Define("Point", ModelOptions{GeoJSON: true})
	require.NoError(t, err)

	got, err := reg.Resolve("Point")
	require.NoError(t, err)
	assert.Same(t, point, got)

	got, err = reg.Resolve(point)
	require.NoError(t, err)
	assert.Same(t, point, got)

	_, err = reg.Resolve("Missing")
	assert.ErrorIs(t, err, ErrUnknownModel)
	_, err = reg.Resolve(42)
	assert.ErrorIs(t, err, ErrInvalidRelation)
	_, err = reg.Resolve((*ModelClass)(nil))
	assert.ErrorIs(t, err, ErrInvalidRelation)

	assert.Panics(t, func() { reg.MustModel("Missing") })
}

func TestModelRelationNames(t *testing.T) {
	fn := func(r *Record) (*Relation, error) { return r.HasMany("Address") }
	reg := NewRegistry()
	class, err := reg.Define("Point", ModelOptions{Relations: map[string]RelationFunc{"paths": fn, "addresses": fn}})
	require.NoError(t, err)

	assert.Equal(t, []string{"addresses", "paths"}, class.RelationNames())
	_, ok := class.Relation("addresses")
	assert.True(t, ok)
	_, ok = class.Relation("tweets")
	assert.False(t, ok)
}

func TestRecordAttributes(t *testing.T) {
	orm, _ := newStubORM(t, true, WithGeoJSON())
	rec, err := orm.Forge("Point", Attributes{"name": "origin"})
	require.NoError(t, err)

	assert.True(t, rec.IsNew())
	_, ok := rec.ID()
	assert.False(t, ok)

	rec.Set("id", int64(4)).Set("extra", nil)
	assert.False(t, rec.IsNew())
	id, ok := rec.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)
	assert.True(t, rec.Has("extra"))
	rec.Unset("extra")
	assert.False(t, rec.Has("extra"))

	attrs := rec.Attributes()
	attrs["name"] = "changed"
	assert.Equal(t, "origin", rec.Get("name"), "Attributes returns a copy")

	_, err = orm.Forge("Missing", nil)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRecordMarshalJSON(t *testing.T) {
	orm, _ := newStubORM(t, true, WithGeoJSON())
	point, err := orm.Forge("Point", Attributes{"id": int64(1), "geometry": geojson.NewGeometry(orb.Point{24, 42})})
	require.NoError(t, err)
	address, err := orm.Forge("Address", Attributes{"id": int64(2), "point_id": int64(1)})
	require.NoError(t, err)
	path, err := orm.Forge("Path", Attributes{"id": int64(3)})
	require.NoError(t, err)

	point.pivot = Attributes{"path_id": int64(3)}
	address.setRelated("point", []*Record{point}, true)
	path.setRelated("points", nil, false)

	data, err := json.Marshal(address)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 2,
		"point_id": 1,
		"point": {"id": 1, "geometry": {"type": "Point", "coordinates": [24, 42]}, "_pivot_path_id": 3}
	}`, string(data))

	data, err = json.Marshal(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 3, "points": []}`, string(data))

	address.setRelated("point", nil, true)
	data, err = json.Marshal(address)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 2, "point_id": 1, "point": null}`, string(data))
}
