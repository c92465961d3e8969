package geothing

import (
	"fmt"

	"github.com/burugo/geothing/internal/geo"
	"github.com/burugo/geothing/internal/sqlbuilder"
)

// GeoJSON is the Plugin that moves geometry attributes between the database's
// native encoding and GeoJSON. For a class with a geometry attribute it
//   - selects the attribute rendered as GeoJSON on every fetch, relations included,
//   - decodes that text into a *geojson.Geometry after each row is read,
//   - writes the attribute back as WKT through the dialect's GeomFromText with SRID 4326.
//
// Classes without a geometry attribute pass through untouched.
func GeoJSON(next Hooks, d Dialector) Hooks {
	return &geoJSONHooks{next: next, dialect: d}
}

type geoJSONHooks struct {
	next    Hooks
	dialect Dialector
}

func (h *geoJSONHooks) Initialize(class *ModelClass, q *Query) error {
	if err := h.next.Initialize(class, q); err != nil {
		return err
	}
	h.augment(class, q)
	return nil
}

func (h *geoJSONHooks) Parse(class *ModelClass, row Attributes) (Attributes, error) {
	attrs, err := h.next.Parse(class, row)
	if err != nil {
		return nil, err
	}
	col, ok := class.geometry.Column()
	if !ok {
		return attrs, nil
	}
	g, decoded, err := geo.Decode(attrs[col])
	if err != nil {
		return nil, fmt.Errorf("parse %s.%s: %w", class.name, col, err)
	}
	if decoded {
		attrs[col] = g
	}
	return attrs, nil
}

func (h *geoJSONHooks) Format(class *ModelClass, attrs Attributes) (Attributes, error) {
	formatted, err := h.next.Format(class, attrs)
	if err != nil {
		return nil, err
	}
	col, ok := class.geometry.Column()
	if !ok {
		return formatted, nil
	}
	switch v := formatted[col].(type) {
	case nil, sqlbuilder.Expr, *sqlbuilder.Expr:
		return formatted, nil
	default:
		text, err := geo.ToWKT(v)
		if err != nil {
			return nil, fmt.Errorf("format %s.%s: %w", class.name, col, err)
		}
		formatted[col] = sqlbuilder.Raw(h.dialect.GeomFromText("?", geo.SRID), text)
	}
	return formatted, nil
}

func (h *geoJSONHooks) Relate(rel *Relation) (*Relation, error) {
	rel, err := h.next.Relate(rel)
	if err != nil {
		return nil, err
	}
	h.augment(rel.target, rel.query)
	return rel, nil
}

// augment selects every native column of class plus its geometry rendered as
// GeoJSON under the attribute name. The rendered column comes last so it
// replaces the native one when the row is mapped.
func (h *geoJSONHooks) augment(class *ModelClass, q *Query) {
	col, ok := class.geometry.Column()
	if !ok {
		return
	}
	if class.hasColumnList() {
		q.unselect(q.Column(class.table, col))
		for _, c := range class.columns {
			if c != col {
				q.Select(q.Column(class.table, c))
			}
		}
	} else {
		q.Select(h.dialect.Quote(class.table) + ".*")
	}
	q.Select(h.dialect.AsGeoJSON(q.Column(class.table, col)) + " AS " + h.dialect.Quote(col))
}
