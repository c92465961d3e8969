package common

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("geothing: requested record not found")

// Additional package-level errors
var (
	// ErrInvalidGeometryConfig marks a model whose "geojson" property is neither unset,
	// a boolean nor a non-empty string.
	ErrInvalidGeometryConfig = errors.New("geothing: invalid geojson configuration")
	// ErrInvalidGeometry is returned when a geometry attribute cannot be converted
	// to or from GeoJSON.
	ErrInvalidGeometry    = errors.New("geothing: invalid geometry value")
	ErrUnknownModel       = errors.New("geothing: unknown model")
	ErrDuplicateModel     = errors.New("geothing: model already defined")
	ErrInvalidModel       = errors.New("geothing: invalid model definition")
	ErrUnknownRelation    = errors.New("geothing: unknown relation")
	ErrInvalidRelation    = errors.New("geothing: invalid relation")
	ErrModelNotSet        = errors.New("geothing: record is not bound to a model")
	ErrNoPrimaryKey       = errors.New("geothing: record has no primary key value")
	ErrUnsupportedDialect = errors.New("geothing: unsupported dialect")
	ErrDatabaseNotSet     = errors.New("geothing: database adapter not set")
	ErrAdapterClosed      = errors.New("geothing: adapter is closed")
)
