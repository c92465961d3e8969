package geothing

// DefaultGeometryColumn is the attribute used when a model declares GeoJSON: true.
const DefaultGeometryColumn = "geometry"

// GeometryKind tags the variants of GeometrySpec.
type GeometryKind int

const (
	// GeometryNone: the model has no geometry attribute.
	GeometryNone GeometryKind = iota
	// GeometryDefaultColumn: the geometry lives in DefaultGeometryColumn.
	GeometryDefaultColumn
	// GeometryNamedColumn: the geometry lives in an explicitly named attribute.
	GeometryNamedColumn
)

func (k GeometryKind) String() string {
	switch k {
	case GeometryDefaultColumn:
		return "default"
	case GeometryNamedColumn:
		return "named"
	default:
		return "none"
	}
}

// GeometrySpec is the resolved form of a model's GeoJSON option.
type GeometrySpec struct {
	kind   GeometryKind
	column string
}

// NamedGeometry returns the spec for an explicitly named geometry attribute.
func NamedGeometry(column string) GeometrySpec {
	return GeometrySpec{kind: GeometryNamedColumn, column: column}
}

// Kind returns the variant tag.
func (s GeometrySpec) Kind() GeometryKind { return s.kind }

// Column returns the geometry attribute name, and false when there is none.
func (s GeometrySpec) Column() (string, bool) {
	switch s.kind {
	case GeometryDefaultColumn:
		return DefaultGeometryColumn, true
	case GeometryNamedColumn:
		return s.column, true
	}
	return "", false
}

// ResolveGeometry maps a model's GeoJSON option to a GeometrySpec.
// nil and false mean no geometry, true means DefaultGeometryColumn and a
// non-empty string names the attribute. Any other value is a *ConfigError.
func ResolveGeometry(value interface{}) (GeometrySpec, error) {
	switch v := value.(type) {
	case nil:
		return GeometrySpec{}, nil
	case bool:
		if v {
			return GeometrySpec{kind: GeometryDefaultColumn}, nil
		}
		return GeometrySpec{}, nil
	case string:
		if v != "" {
			return NamedGeometry(v), nil
		}
	}
	return GeometrySpec{}, &ConfigError{Property: "geojson", Value: value}
}
