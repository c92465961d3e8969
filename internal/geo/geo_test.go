package geo

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/geothing/common"
)

func TestToWKT(t *testing.T) {
	point := orb.Point{24, 42}
	inputs := []interface{}{
		geojson.NewGeometry(point),
		*geojson.NewGeometry(point),
		geojson.NewFeature(point),
		point,
		`{"type":"Point","coordinates":[24,42]}`,
		[]byte(`{"type":"Point","coordinates":[24,42]}`),
		json.RawMessage(`{"type":"Point","coordinates":[24,42]}`),
		map[string]interface{}{"type": "Point", "coordinates": []interface{}{24, 42}},
	}
	for _, in := range inputs {
		text, err := ToWKT(in)
		require.NoError(t, err, "%T", in)
		assert.Equal(t, "POINT(24 42)", text, "%T", in)
	}

	line := orb.LineString{{0, 0}, {1, 1}}
	text, err := ToWKT(geojson.NewGeometry(line))
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING(0 0,1 1)", text)
}

func TestToWKTInvalid(t *testing.T) {
	for _, in := range []interface{}{42, "not json", "", (*geojson.Geometry)(nil)} {
		_, err := ToWKT(in)
		require.Error(t, err, "%#v", in)
		assert.True(t, errors.Is(err, common.ErrInvalidGeometry), "%#v: %v", in, err)
	}
}

func TestDecode(t *testing.T) {
	g, decoded, err := Decode(`{"type":"Point","coordinates":[24,42]}`)
	require.NoError(t, err)
	assert.True(t, decoded)
	assert.Equal(t, "Point", g.Type)
	assert.Equal(t, orb.Point{24, 42}, g.Geometry())

	g, decoded, err = Decode([]byte(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`))
	require.NoError(t, err)
	assert.True(t, decoded)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}}, g.Geometry())
}

func TestDecodeSkips(t *testing.T) {
	already := geojson.NewGeometry(orb.Point{1, 2})
	for _, in := range []interface{}{nil, "", []byte{}, already} {
		_, decoded, err := Decode(in)
		require.NoError(t, err)
		assert.False(t, decoded, "%#v", in)
	}

	g, _, _ := Decode(already)
	assert.Same(t, already, g)
}

func TestDecodeMalformed(t *testing.T) {
	_, _, err := Decode(`{"type":"Point","coordinates":[24,`)
	require.Error(t, err)

	var syntaxErr *json.SyntaxError
	_, _, err = Decode("{not json")
	assert.True(t, errors.As(err, &syntaxErr), "expected a JSON syntax error, got %v", err)

	_, _, err = Decode(42)
	assert.True(t, errors.Is(err, common.ErrInvalidGeometry))
}
