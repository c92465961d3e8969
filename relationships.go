package geothing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/burugo/geothing/internal/utils"
)

// --- Relationship Definitions ---

// RelationKind names the supported relationship types.
type RelationKind string

const (
	RelationBelongsTo     RelationKind = "belongsTo"
	RelationHasOne        RelationKind = "hasOne"
	RelationHasMany       RelationKind = "hasMany"
	RelationBelongsToMany RelationKind = "belongsToMany"
)

// ParseRelationKind accepts the kind names used in configuration files.
func ParseRelationKind(s string) (RelationKind, error) {
	switch RelationKind(s) {
	case RelationBelongsTo, RelationHasOne, RelationHasMany, RelationBelongsToMany:
		return RelationKind(s), nil
	}
	return "", fmt.Errorf("%w: unsupported relation type %q", ErrInvalidRelation, s)
}

// RelationOption overrides the conventional keys of a relation.
type RelationOption func(*relationKeys)

type relationKeys struct {
	foreignKey string
	otherKey   string
	joinTable  string
}

// ForeignKey sets the foreign key column. For belongsTo it lives on the owner,
// for hasOne/hasMany on the target, for belongsToMany on the join table and
// references the owner.
func ForeignKey(column string) RelationOption {
	return func(k *relationKeys) { k.foreignKey = column }
}

// OtherKey sets the second key column. For belongsTo it is the target column the
// foreign key references, for hasOne/hasMany the owner column, for
// belongsToMany the join table column referencing the target.
func OtherKey(column string) RelationOption {
	return func(k *relationKeys) { k.otherKey = column }
}

// JoinTable sets the join table of a belongsToMany relation.
func JoinTable(table string) RelationOption {
	return func(k *relationKeys) { k.joinTable = table }
}

// Relation is a relationship from an owner record to records of a target class.
// Its query selects target rows; key constraints are added when it is fetched.
type Relation struct {
	kind       RelationKind
	owner      *ModelClass
	target     *ModelClass
	foreignKey string
	otherKey   string
	joinTable  string

	parent *Record
	orm    *ORM
	query  *Query
}

// Kind returns the relationship type.
func (rel *Relation) Kind() RelationKind { return rel.kind }
func (rel *Relation) Owner() *ModelClass { return rel.owner }
func (rel *Relation) Target() *ModelClass { return rel.target }
func (rel *Relation) ForeignKey() string { return rel.foreignKey }
func (rel *Relation) OtherKey() string { return rel.otherKey }
func (rel *Relation) JoinTable() string { return rel.joinTable }

// Builder returns the relation's query as built so far.
func (rel *Relation) Builder() *Query { return rel.query }

func (rel *Relation) single() bool { return rel.kind == RelationBelongsTo || rel.kind == RelationHasOne }

// Query lets fn refine the relation's query (extra conditions, ordering) and
// returns rel for chaining.
func (rel *Relation) Query(fn func(q *Query)) *Relation {
	if fn != nil {
		fn(rel.query)
	}
	return rel
}

// BelongsTo relates r to the target record referenced by r's foreign key,
// by default "<singular target table>_<target pk>".
func (r *Record) BelongsTo(target interface{}, opts ...RelationOption) (*Relation, error) {
	return r.relate(RelationBelongsTo, target, opts)
}

// HasOne relates r to the single target record whose foreign key,
// by default "<singular owner table>_<owner pk>", references r.
func (r *Record) HasOne(target interface{}, opts ...RelationOption) (*Relation, error) {
	return r.relate(RelationHasOne, target, opts)
}

// HasMany relates r to every target record whose foreign key references r.
func (r *Record) HasMany(target interface{}, opts ...RelationOption) (*Relation, error) {
	return r.relate(RelationHasMany, target, opts)
}

// BelongsToMany relates r to target records through a join table, by default
// the two table names sorted and joined with "_".
func (r *Record) BelongsToMany(target interface{}, opts ...RelationOption) (*Relation, error) {
	return r.relate(RelationBelongsToMany, target, opts)
}

// Relation builds the relation declared on r's class under name.
func (r *Record) Relation(name string) (*Relation, error) {
	if r.class == nil {
		return nil, ErrModelNotSet
	}
	fn, ok := r.class.Relation(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, r.class.name, name)
	}
	return fn(r)
}

// Load eager loads the named relations onto r.
func (r *Record) Load(ctx context.Context, names ...string) error {
	if r.orm == nil || r.class == nil {
		return ErrModelNotSet
	}
	return r.orm.eagerLoad(ctx, r.class, []*Record{r}, names)
}

func (r *Record) relate(kind RelationKind, target interface{}, opts []RelationOption) (*Relation, error) {
	if r.orm == nil || r.class == nil {
		return nil, ErrModelNotSet
	}
	targetClass, err := r.orm.registry.Resolve(target)
	if err != nil {
		return nil, err
	}
	var keys relationKeys
	for _, opt := range opts {
		opt(&keys)
	}

	owner := r.class
	rel := &Relation{
		kind:       kind,
		owner:      owner,
		target:     targetClass,
		foreignKey: keys.foreignKey,
		otherKey:   keys.otherKey,
		parent:     r,
		orm:        r.orm,
		query:      r.orm.newQuery(targetClass),
	}

	switch kind {
	case RelationBelongsTo:
		rel.foreignKey = orDefault(rel.foreignKey, defaultKey(targetClass))
		rel.otherKey = orDefault(rel.otherKey, targetClass.pk)
	case RelationHasOne, RelationHasMany:
		rel.foreignKey = orDefault(rel.foreignKey, defaultKey(owner))
		rel.otherKey = orDefault(rel.otherKey, owner.pk)
	case RelationBelongsToMany:
		rel.foreignKey = orDefault(rel.foreignKey, defaultKey(owner))
		rel.otherKey = orDefault(rel.otherKey, defaultKey(targetClass))
		rel.joinTable = keys.joinTable
		if rel.joinTable == "" {
			tables := []string{owner.table, targetClass.table}
			sort.Strings(tables)
			rel.joinTable = strings.Join(tables, "_")
		}
		q := rel.query
		if !targetClass.hasColumnList() {
			q.Select(q.Quote(targetClass.table) + ".*")
		}
		q.Join(fmt.Sprintf("INNER JOIN %s ON %s = %s",
			q.Quote(rel.joinTable),
			q.Column(rel.joinTable, rel.otherKey),
			q.Column(targetClass.table, targetClass.pk)))
		q.Select(
			q.Column(rel.joinTable, rel.foreignKey)+" AS "+q.Quote(pivotPrefix+rel.foreignKey),
			q.Column(rel.joinTable, rel.otherKey)+" AS "+q.Quote(pivotPrefix+rel.otherKey),
		)
	default:
		return nil, fmt.Errorf("%w: unsupported relation type %q", ErrInvalidRelation, kind)
	}

	return r.orm.hooks.Relate(rel)
}

// --- Relationship Loading ---

// Fetch loads the related records of the relation's owner record.
func (rel *Relation) Fetch(ctx context.Context, opts ...FetchOption) ([]*Record, error) {
	if rel.parent == nil {
		return nil, ErrModelNotSet
	}
	groups, err := rel.load(ctx, []*Record{rel.parent})
	if err != nil {
		return nil, err
	}
	records := groups[rel.ownerKey(rel.parent)]
	if records == nil {
		records = []*Record{}
	}
	if err := rel.orm.eagerLoad(ctx, rel.target, records, newFetchConfig(opts).withRelated); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchOne returns the first related record, or ErrNotFound.
func (rel *Relation) FetchOne(ctx context.Context, opts ...FetchOption) (*Record, error) {
	records, err := rel.Fetch(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s related to %s", ErrNotFound, rel.target.name, rel.owner.name)
	}
	return records[0], nil
}

// load fetches the related records of every owner with a single IN query and
// groups them by owner key.
func (rel *Relation) load(ctx context.Context, owners []*Record) (map[string][]*Record, error) {
	groups := make(map[string][]*Record)

	seen := make(map[string]bool)
	var keys []interface{}
	for _, owner := range owners {
		v := owner.Get(rel.ownerColumn())
		if v == nil {
			continue
		}
		k := utils.KeyString(v)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, utils.NormalizeDriverValue(v))
		}
	}
	if len(keys) == 0 {
		return groups, nil
	}

	q := rel.query.Clone()
	if err := rel.orm.hooks.Initialize(rel.target, q); err != nil {
		return nil, fmt.Errorf("initialize %s query: %w", rel.target.name, err)
	}
	q.WhereIn(rel.constraintColumn(q), keys)

	records, err := rel.orm.run(ctx, rel.target, q)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		k := rel.relatedKey(rec)
		groups[k] = append(groups[k], rec)
	}
	return groups, nil
}

// ownerColumn is the owner attribute holding the key the relation matches on.
func (rel *Relation) ownerColumn() string {
	switch rel.kind {
	case RelationBelongsTo:
		return rel.foreignKey
	case RelationHasOne, RelationHasMany:
		return rel.otherKey
	default:
		return rel.owner.pk
	}
}

func (rel *Relation) ownerKey(owner *Record) string {
	return utils.KeyString(owner.Get(rel.ownerColumn()))
}

func (rel *Relation) constraintColumn(q *Query) string {
	switch rel.kind {
	case RelationBelongsTo:
		return q.Column(rel.target.table, rel.otherKey)
	case RelationHasOne, RelationHasMany:
		return q.Column(rel.target.table, rel.foreignKey)
	default:
		return q.Column(rel.joinTable, rel.foreignKey)
	}
}

func (rel *Relation) relatedKey(rec *Record) string {
	switch rel.kind {
	case RelationBelongsTo:
		return utils.KeyString(rec.Get(rel.otherKey))
	case RelationHasOne, RelationHasMany:
		return utils.KeyString(rec.Get(rel.foreignKey))
	default:
		return utils.KeyString(rec.pivot[rel.foreignKey])
	}
}

// defaultKey is the conventional foreign key referencing class: "point_id" for points.
func defaultKey(class *ModelClass) string {
	return utils.Singular(class.table) + "_" + class.pk
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
