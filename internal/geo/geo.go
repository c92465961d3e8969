// Package geo converts between the GeoJSON values held by records and the
// well-known text handed to the database's geometry constructor.
package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/burugo/geothing/common"
)

// SRID is the spatial reference every geometry is stored with (WGS84 lon/lat).
const SRID = 4326

// ToWKT serializes a GeoJSON-compatible value to well-known text.
func ToWKT(v interface{}) (string, error) {
	g, err := toOrb(v)
	if err != nil {
		return "", err
	}
	return wkt.MarshalString(g), nil
}

// Decode parses the GeoJSON text rendered by the database. decoded is false when
// v was empty or already a parsed geometry, in which case the caller leaves it alone.
func Decode(v interface{}) (g *geojson.Geometry, decoded bool, err error) {
	switch t := v.(type) {
	case nil:
		return nil, false, nil
	case *geojson.Geometry:
		return t, false, nil
	case string:
		if t == "" {
			return nil, false, nil
		}
		g, err = geojson.UnmarshalGeometry([]byte(t))
	case []byte:
		if len(t) == 0 {
			return nil, false, nil
		}
		g, err = geojson.UnmarshalGeometry(t)
	case json.RawMessage:
		if len(t) == 0 {
			return nil, false, nil
		}
		g, err = geojson.UnmarshalGeometry(t)
	default:
		return nil, false, fmt.Errorf("%w: cannot decode %T as GeoJSON", common.ErrInvalidGeometry, v)
	}
	if err != nil {
		return nil, false, err
	}
	return g, true, nil
}

func toOrb(v interface{}) (orb.Geometry, error) {
	var g orb.Geometry
	switch t := v.(type) {
	case *geojson.Geometry:
		if t != nil {
			g = t.Geometry()
		}
	case geojson.Geometry:
		g = t.Geometry()
	case *geojson.Feature:
		if t != nil {
			g = t.Geometry
		}
	case orb.Geometry:
		g = t
	case json.RawMessage:
		return unmarshal(t)
	case []byte:
		return unmarshal(t)
	case string:
		return unmarshal([]byte(t))
	case map[string]interface{}:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidGeometry, err)
		}
		return unmarshal(data)
	default:
		return nil, fmt.Errorf("%w: unsupported value of type %T", common.ErrInvalidGeometry, v)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: empty geometry", common.ErrInvalidGeometry)
	}
	return g, nil
}

func unmarshal(data []byte) (orb.Geometry, error) {
	parsed, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidGeometry, err)
	}
	return toOrb(parsed)
}
