package geothing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/burugo/geothing/internal/sqlbuilder"
	"github.com/burugo/geothing/internal/utils"
)

const pivotPrefix = "_pivot_"

// FetchOption configures Find, Fetch and Relation.Fetch.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	withRelated []string
}

// WithRelated eager loads the named relations. "a.b" loads b on every record loaded through a.
func WithRelated(names ...string) FetchOption {
	return func(c *fetchConfig) {
		c.withRelated = append(c.withRelated, names...)
	}
}

func newFetchConfig(opts []FetchOption) fetchConfig {
	var cfg fetchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// --- Read ---

// Find fetches the record of class whose primary key is id.
// It returns ErrNotFound when there is none.
func (o *ORM) Find(ctx context.Context, class *ModelClass, id interface{}, opts ...FetchOption) (*Record, error) {
	q, err := o.Query(class)
	if err != nil {
		return nil, err
	}
	q.Where(q.Column(class.table, class.pk)+" = ?", id).Limit(1)

	records, err := o.run(ctx, class, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %v", ErrNotFound, class.name, id)
	}
	if err := o.eagerLoad(ctx, class, records, newFetchConfig(opts).withRelated); err != nil {
		return nil, err
	}
	return records[0], nil
}

// Fetch reloads rec using its current scalar attributes as the filter, the way
// a record forged with only an id is filled in. The geometry attribute is not
// used as a filter.
func (o *ORM) Fetch(ctx context.Context, rec *Record, opts ...FetchOption) error {
	if rec == nil || rec.class == nil {
		return ErrModelNotSet
	}
	class := rec.class
	q, err := o.Query(class)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(rec.attrs))
	for k, v := range rec.attrs {
		if class.isGeometry(k) || !isScalar(v) {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s record has no attributes to fetch by", ErrNoPrimaryKey, class.name)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Where(q.Column(class.table, k)+" = ?", rec.attrs[k])
	}
	q.Limit(1)

	records, err := o.run(ctx, class, q)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, class.name)
	}
	rec.orm = o
	rec.attrs = records[0].attrs
	return o.eagerLoad(ctx, class, []*Record{rec}, newFetchConfig(opts).withRelated)
}

// FetchAll fetches every record of class matching params.
func (o *ORM) FetchAll(ctx context.Context, class *ModelClass, params QueryParams) ([]*Record, error) {
	q, err := o.Query(class)
	if err != nil {
		return nil, err
	}
	q.Where(params.Where, params.Args...).
		OrderBy(params.Order).
		Limit(params.Limit).
		Offset(params.Offset)

	records, err := o.run(ctx, class, q)
	if err != nil {
		return nil, err
	}
	if err := o.eagerLoad(ctx, class, records, params.WithRelated); err != nil {
		return nil, err
	}
	return records, nil
}

// run executes q and turns every row into a record of class through the Parse
// hooks. Columns aliased with the pivot prefix go to the record's pivot.
func (o *ORM) run(ctx context.Context, class *ModelClass, q *Query) ([]*Record, error) {
	query, args := q.Build()
	start := time.Now()
	rows, err := o.db.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", class.name, err)
	}
	log.Debug().Str("model", class.name).Int("rows", len(rows)).Dur("duration", time.Since(start)).Msg("Fetched")

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		var pivot Attributes
		for k, v := range row {
			if strings.HasPrefix(k, pivotPrefix) {
				if pivot == nil {
					pivot = Attributes{}
				}
				pivot[strings.TrimPrefix(k, pivotPrefix)] = utils.NormalizeDriverValue(v)
				delete(row, k)
			}
		}
		attrs, err := o.hooks.Parse(class, Attributes(row))
		if err != nil {
			return nil, err
		}
		rec := &Record{orm: o, class: class, attrs: attrs, pivot: pivot}
		if err := o.triggerEvent(ctx, EventTypeAfterFetch, rec, nil); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// eagerLoad loads the named relations onto records with one query per relation.
func (o *ORM) eagerLoad(ctx context.Context, class *ModelClass, records []*Record, names []string) error {
	if len(records) == 0 || len(names) == 0 {
		return nil
	}

	nested := make(map[string][]string)
	var order []string
	for _, name := range names {
		head, rest, _ := strings.Cut(name, ".")
		if _, seen := nested[head]; !seen {
			order = append(order, head)
			nested[head] = nil
		}
		if rest != "" {
			nested[head] = append(nested[head], rest)
		}
	}

	for _, name := range order {
		fn, ok := class.Relation(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, class.name, name)
		}
		rel, err := fn(records[0])
		if err != nil {
			return fmt.Errorf("relation %s.%s: %w", class.name, name, err)
		}
		groups, err := rel.load(ctx, records)
		if err != nil {
			return fmt.Errorf("eager load %s.%s: %w", class.name, name, err)
		}

		var loaded []*Record
		for _, owner := range records {
			related := groups[rel.ownerKey(owner)]
			owner.setRelated(name, related, rel.single())
			loaded = append(loaded, related...)
		}
		if err := o.eagerLoad(ctx, rel.target, loaded, nested[name]); err != nil {
			return err
		}
	}
	return nil
}

// --- Write ---

// Save inserts rec when it has no primary key value and updates it otherwise.
func (o *ORM) Save(ctx context.Context, rec *Record) error {
	if rec == nil || rec.class == nil {
		return ErrModelNotSet
	}
	if rec.IsNew() {
		return o.Insert(ctx, rec)
	}
	return o.Update(ctx, rec)
}

// Insert writes rec as a new row and stores the generated primary key on it.
func (o *ORM) Insert(ctx context.Context, rec *Record) error {
	if rec == nil || rec.class == nil {
		return ErrModelNotSet
	}
	rec.orm = o
	class := rec.class
	if err := o.triggerEvent(ctx, EventTypeBeforeSave, rec, nil); err != nil {
		return err
	}
	if err := o.triggerEvent(ctx, EventTypeBeforeCreate, rec, nil); err != nil {
		return err
	}

	values, err := o.hooks.Format(class, rec.attrs)
	if err != nil {
		return err
	}
	if v, ok := values[class.pk]; ok && v == nil {
		delete(values, class.pk)
	}

	b := sqlbuilder.New(o.dialect)
	generated := rec.attrs[class.pk] == nil
	if generated && o.dialect.SupportsReturning() {
		query, args := b.Insert(class.table, values, class.pk)
		rows, err := o.db.QueryRows(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert %s: %w", class.name, err)
		}
		if len(rows) > 0 {
			rec.Set(class.pk, utils.NormalizeDriverValue(rows[0][class.pk]))
		}
	} else {
		query, args := b.Insert(class.table, values, "")
		result, err := o.db.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert %s: %w", class.name, err)
		}
		if generated {
			id, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("insert %s: reading generated key: %w", class.name, err)
			}
			rec.Set(class.pk, id)
		}
	}

	if err := o.triggerEvent(ctx, EventTypeAfterCreate, rec, nil); err != nil {
		return err
	}
	return o.triggerEvent(ctx, EventTypeAfterSave, rec, map[string]interface{}{"created": true})
}

// Update writes rec's attributes to its existing row.
// It returns ErrNotFound when no row has rec's primary key.
func (o *ORM) Update(ctx context.Context, rec *Record) error {
	if rec == nil || rec.class == nil {
		return ErrModelNotSet
	}
	if rec.IsNew() {
		return fmt.Errorf("%w: cannot update %s", ErrNoPrimaryKey, rec.class.name)
	}
	rec.orm = o
	class := rec.class
	if err := o.triggerEvent(ctx, EventTypeBeforeSave, rec, nil); err != nil {
		return err
	}

	values, err := o.hooks.Format(class, rec.attrs)
	if err != nil {
		return err
	}
	delete(values, class.pk)

	if len(values) > 0 {
		b := sqlbuilder.New(o.dialect)
		where := sqlbuilder.Raw(b.Column("", class.pk)+" = ?", rec.attrs[class.pk])
		query, args := b.Update(class.table, values, where)
		result, err := o.db.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update %s: %w", class.name, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s %v", ErrNotFound, class.name, rec.attrs[class.pk])
		}
	}

	return o.triggerEvent(ctx, EventTypeAfterSave, rec, map[string]interface{}{"created": false})
}

// Destroy deletes rec's row.
func (o *ORM) Destroy(ctx context.Context, rec *Record) error {
	if rec == nil || rec.class == nil {
		return ErrModelNotSet
	}
	if rec.IsNew() {
		return fmt.Errorf("%w: cannot destroy %s", ErrNoPrimaryKey, rec.class.name)
	}
	class := rec.class
	if err := o.triggerEvent(ctx, EventTypeBeforeDelete, rec, nil); err != nil {
		return err
	}

	b := sqlbuilder.New(o.dialect)
	query, args := b.Delete(class.table, sqlbuilder.Raw(b.Column("", class.pk)+" = ?", rec.attrs[class.pk]))
	result, err := o.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("destroy %s: %w", class.name, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %v", ErrNotFound, class.name, rec.attrs[class.pk])
	}

	return o.triggerEvent(ctx, EventTypeAfterDelete, rec, nil)
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case nil:
		return false
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, time.Time:
		return true
	default:
		return false
	}
}
