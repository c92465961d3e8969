package geothing

import (
	"encoding/json"
	"sort"

	"github.com/burugo/geothing/internal/utils"
)

// Attributes maps column names to values.
type Attributes map[string]interface{}

// Clone returns a shallow copy of a.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// RelationFunc builds a named relation for a record, typically by calling one
// of rec.BelongsTo, rec.HasOne, rec.HasMany or rec.BelongsToMany.
type RelationFunc func(rec *Record) (*Relation, error)

// ModelOptions declares a model class.
type ModelOptions struct {
	TableName  string   // Defaults to the snake_case plural of the model name
	PrimaryKey string   // Defaults to "id"
	Columns    []string // Optional explicit column list; empty selects "table".*
	// GeoJSON declares the geometry attribute: nil/false for none, true for
	// "geometry", or the attribute name.
	GeoJSON   interface{}
	Relations map[string]RelationFunc
}

// ModelClass is an immutable, registered model definition.
type ModelClass struct {
	name      string
	table     string
	pk        string
	columns   []string
	geometry  GeometrySpec
	relations map[string]RelationFunc
}

// Name returns the registered model name.
func (c *ModelClass) Name() string { return c.name }

func (c *ModelClass) TableName() string { return c.table }
func (c *ModelClass) PrimaryKey() string { return c.pk }
func (c *ModelClass) Geometry() GeometrySpec { return c.geometry }
func (c *ModelClass) Columns() []string { return append([]string(nil), c.columns...) }
func (c *ModelClass) String() string { return c.name }
func (c *ModelClass) hasColumnList() bool { return len(c.columns) > 0 }

func (c *ModelClass) isGeometry(col string) bool {
	name, ok := c.geometry.Column()
	return ok && name == col
}

// Relation returns the named relation definition.
func (c *ModelClass) Relation(name string) (RelationFunc, bool) {
	fn, ok := c.relations[name]
	return fn, ok
}

// RelationNames returns the declared relation names, sorted.
func (c *ModelClass) RelationNames() []string {
	names := make([]string, 0, len(c.relations))
	for name := range c.relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- Record ---

type relatedSet struct {
	records []*Record
	single  bool
}

// Record is a model instance: its attributes plus any eager-loaded relations.
type Record struct {
	orm     *ORM
	class   *ModelClass
	attrs   Attributes
	related map[string]relatedSet
	pivot   Attributes
}

// Class returns the record's model class.
func (r *Record) Class() *ModelClass { return r.class }

// Get returns the attribute value, or nil.
func (r *Record) Get(key string) interface{} { return r.attrs[key] }

// Set assigns an attribute and returns r for chaining.
func (r *Record) Set(key string, value interface{}) *Record {
	if r.attrs == nil {
		r.attrs = Attributes{}
	}
	r.attrs[key] = value
	return r
}

// Has reports whether the attribute is present, even if nil.
func (r *Record) Has(key string) bool {
	_, ok := r.attrs[key]
	return ok
}

// Unset removes an attribute.
func (r *Record) Unset(key string) *Record {
	delete(r.attrs, key)
	return r
}

// Attributes returns a copy of the record's attributes.
func (r *Record) Attributes() Attributes { return r.attrs.Clone() }

// ID returns the primary key as int64, and false when it is unset or not numeric.
func (r *Record) ID() (int64, bool) {
	if r.class == nil {
		return 0, false
	}
	return utils.ToInt64(r.attrs[r.class.pk])
}

// IsNew reports whether the record has no primary key value yet.
func (r *Record) IsNew() bool {
	if r.class == nil {
		return true
	}
	return r.attrs[r.class.pk] == nil
}

// Related returns the records eager-loaded under name.
func (r *Record) Related(name string) []*Record {
	return r.related[name].records
}

// RelatedOne returns the single record eager-loaded under name, or nil.
func (r *Record) RelatedOne(name string) *Record {
	records := r.related[name].records
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

// Pivot returns the join table columns of a record loaded through a
// belongsToMany relation.
func (r *Record) Pivot() Attributes { return r.pivot.Clone() }

func (r *Record) setRelated(name string, records []*Record, single bool) {
	if r.related == nil {
		r.related = make(map[string]relatedSet)
	}
	if single && len(records) > 1 {
		records = records[:1]
	}
	r.related[name] = relatedSet{records: records, single: single}
}

// MarshalJSON renders attributes, pivot columns (prefixed "_pivot_") and
// eager-loaded relations. Parsed geometries render as GeoJSON.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.attrs)+len(r.pivot)+len(r.related))
	for k, v := range r.attrs {
		out[k] = v
	}
	for k, v := range r.pivot {
		out[pivotPrefix+k] = v
	}
	for name, set := range r.related {
		if set.single {
			if len(set.records) == 0 {
				out[name] = nil
			} else {
				out[name] = set.records[0]
			}
			continue
		}
		records := set.records
		if records == nil {
			records = []*Record{}
		}
		out[name] = records
	}
	return json.Marshal(out)
}
