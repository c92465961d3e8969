// Package schema reads table definitions back from the database so model
// declarations can be checked against the tables they map to.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/burugo/geothing"
)

// TableInfo holds the actual schema info introspected from the database.
type TableInfo struct {
	Name       string       // Table name
	Columns    []ColumnInfo // All columns
	PrimaryKey string       // Primary key column name (if any)
}

// ColumnInfo holds metadata for a single column in a table.
type ColumnInfo struct {
	Name       string // Column name
	DataType   string // Database type (e.g., INTEGER, geometry, point)
	IsNullable bool   // Whether the column is nullable
	IsPrimary  bool   // Whether this column is the primary key
}

// Introspector defines the interface for database schema introspection.
type Introspector interface {
	// GetTableInfo introspects the given table. It returns nil, nil when the
	// table does not exist.
	GetTableInfo(ctx context.Context, tableName string) (*TableInfo, error)
}

// Column returns the named column.
func (t *TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

var spatialTypes = []string{
	"geometry", "geography", "point", "linestring", "polygon",
	"multipoint", "multilinestring", "multipolygon", "geometrycollection",
}

// IsSpatialType reports whether a declared column type holds geometries.
func IsSpatialType(dataType string) bool {
	t := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexAny(t, "( "); i >= 0 {
		t = t[:i]
	}
	for _, s := range spatialTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Problem is a mismatch between a model class and its table.
type Problem struct {
	Model   string
	Table   string
	Column  string
	Message string
}

func (p Problem) String() string {
	if p.Column == "" {
		return fmt.Sprintf("%s (%s): %s", p.Model, p.Table, p.Message)
	}
	return fmt.Sprintf("%s (%s.%s): %s", p.Model, p.Table, p.Column, p.Message)
}

// CheckModel compares class with its table: the table must exist and hold the
// primary key, every listed column and the geometry attribute as a spatial column.
func CheckModel(ctx context.Context, in Introspector, class *geothing.ModelClass) ([]Problem, error) {
	info, err := in.GetTableInfo(ctx, class.TableName())
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", class.TableName(), err)
	}
	problem := func(column, format string, args ...interface{}) Problem {
		return Problem{Model: class.Name(), Table: class.TableName(), Column: column, Message: fmt.Sprintf(format, args...)}
	}
	if info == nil {
		return []Problem{problem("", "table does not exist")}, nil
	}

	var problems []Problem
	required := append([]string{class.PrimaryKey()}, class.Columns()...)
	seen := make(map[string]bool, len(required))
	for _, col := range required {
		if seen[col] {
			continue
		}
		seen[col] = true
		if _, ok := info.Column(col); !ok {
			problems = append(problems, problem(col, "column does not exist"))
		}
	}

	if col, ok := class.Geometry().Column(); ok {
		c, found := info.Column(col)
		switch {
		case !found:
			if !seen[col] {
				problems = append(problems, problem(col, "geometry column does not exist"))
			}
		case !IsSpatialType(c.DataType):
			problems = append(problems, problem(col, "geometry column has non-spatial type %q", c.DataType))
		}
	}
	return problems, nil
}
