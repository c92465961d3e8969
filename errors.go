package geothing

import (
	"encoding/json"
	"fmt"

	"github.com/burugo/geothing/common"
)

// Package-level errors, re-exported from common so callers need a single import.
var (
	ErrNotFound              = common.ErrNotFound
	ErrInvalidGeometryConfig = common.ErrInvalidGeometryConfig
	ErrInvalidGeometry       = common.ErrInvalidGeometry
	ErrUnknownModel          = common.ErrUnknownModel
	ErrDuplicateModel        = common.ErrDuplicateModel
	ErrInvalidModel          = common.ErrInvalidModel
	ErrUnknownRelation       = common.ErrUnknownRelation
	ErrInvalidRelation       = common.ErrInvalidRelation
	ErrModelNotSet           = common.ErrModelNotSet
	ErrNoPrimaryKey          = common.ErrNoPrimaryKey
	ErrUnsupportedDialect    = common.ErrUnsupportedDialect
	ErrDatabaseNotSet        = common.ErrDatabaseNotSet
)

// ConfigError reports a model property holding a value outside its domain.
type ConfigError struct {
	Property string
	Value    interface{}
}

func (e *ConfigError) Error() string {
	rendered, err := json.Marshal(e.Value)
	if err != nil {
		rendered = []byte(fmt.Sprintf("%v", e.Value))
	}
	return fmt.Sprintf("model %q property must be a string or boolean, got %s (%T)", e.Property, rendered, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidGeometryConfig.
func (e *ConfigError) Unwrap() error {
	return common.ErrInvalidGeometryConfig
}
