package geothing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveGeometry(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		kind   GeometryKind
		column string
	}{
		{"unset", nil, GeometryNone, ""},
		{"false", false, GeometryNone, ""},
		{"true", true, GeometryDefaultColumn, "geometry"},
		{"named", "location", GeometryNamedColumn, "location"},
		{"named geometry", "geometry", GeometryNamedColumn, "geometry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ResolveGeometry(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, spec.Kind())
			col, ok := spec.Column()
			assert.Equal(t, tt.column != "", ok)
			assert.Equal(t, tt.column, col)
		})
	}
}

func TestResolveGeometryInvalid(t *testing.T) {
	for _, value := range []interface{}{66, 1.5, "", []string{"geometry"}, map[string]interface{}{}} {
		_, err := ResolveGeometry(value)
		require.Error(t, err, "%#v", value)
		assert.ErrorIs(t, err, ErrInvalidGeometryConfig)

		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "geojson", cfgErr.Property)
		assert.Equal(t, value, cfgErr.Value)
	}
}

func TestConfigErrorMessage(t *testing.T) {
	_, err := ResolveGeometry(66)
	require.Error(t, err)
	assert.Equal(t, `model "geojson" property must be a string or boolean, got 66 (int)`, err.Error())

	_, err = ResolveGeometry("")
	assert.Equal(t, `model "geojson" property must be a string or boolean, got "" (string)`, err.Error())
}

func TestDefineRejectsInvalidGeoJSON(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Define("Point", ModelOptions{GeoJSON: 66})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidGeometryConfig)
	assert.Contains(t, err.Error(), "66")
	assert.Contains(t, err.Error(), "int")

	_, err = reg.Model("Point")
	assert.ErrorIs(t, err, ErrUnknownModel, "a rejected model is not registered")
}

func TestGeometryKindString(t *testing.T) {
	assert.Equal(t, "none", GeometryNone.String())
	assert.Equal(t, "default", GeometryDefaultColumn.String())
	assert.Equal(t, "named", GeometryNamedColumn.String())
}
