package geothing

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ORM binds a registry of model classes to a database and a Hooks chain.
// It is safe for concurrent use once built.
type ORM struct {
	db       DBAdapter
	registry *Registry
	dialect  Dialector
	hooks    Hooks
	plugins  []Plugin

	listenerMu sync.RWMutex
	listeners  map[EventType][]EventListener
}

// Option configures an ORM.
type Option func(*ORM)

// WithPlugin installs p around the hooks installed before it.
func WithPlugin(p Plugin) Option {
	return func(o *ORM) {
		if p != nil {
			o.plugins = append(o.plugins, p)
		}
	}
}

// WithGeoJSON installs the GeoJSON plugin.
func WithGeoJSON() Option {
	return WithPlugin(GeoJSON)
}

// New creates an ORM over db. A nil registry starts empty.
func New(db DBAdapter, reg *Registry, opts ...Option) (*ORM, error) {
	if db == nil {
		return nil, ErrDatabaseNotSet
	}
	if reg == nil {
		reg = NewRegistry()
	}
	o := &ORM{
		db:        db,
		registry:  reg,
		dialect:   db.Dialect(),
		listeners: make(map[EventType][]EventListener),
	}
	if o.dialect == nil {
		return nil, fmt.Errorf("%w: adapter %q has no dialect", ErrUnsupportedDialect, db.DialectName())
	}
	for _, opt := range opts {
		opt(o)
	}

	hooks := NewBaseHooks()
	for _, p := range o.plugins {
		hooks = p(hooks, o.dialect)
	}
	o.hooks = hooks

	log.Debug().Str("dialect", o.dialect.Name()).Int("plugins", len(o.plugins)).Msg("ORM initialized")
	return o, nil
}

// DB returns the underlying adapter.
func (o *ORM) DB() DBAdapter { return o.db }

// Registry returns the model registry.
func (o *ORM) Registry() *Registry { return o.registry }

// Dialect returns the adapter's dialect.
func (o *ORM) Dialect() Dialector { return o.dialect }

// Hooks returns the installed hooks chain.
func (o *ORM) Hooks() Hooks { return o.hooks }

// Model returns the class registered under name.
func (o *ORM) Model(name string) (*ModelClass, error) { return o.registry.Model(name) }

// Forge creates an unsaved record of the named model.
func (o *ORM) Forge(name string, attrs Attributes) (*Record, error) {
	class, err := o.registry.Model(name)
	if err != nil {
		return nil, err
	}
	return o.NewRecord(class, attrs), nil
}

// NewRecord creates an unsaved record of class holding a copy of attrs.
func (o *ORM) NewRecord(class *ModelClass, attrs Attributes) *Record {
	return &Record{orm: o, class: class, attrs: attrs.Clone()}
}

// newQuery starts the fetch query for class, listing its explicit columns when it has any.
func (o *ORM) newQuery(class *ModelClass) *Query {
	q := NewQuery(o.dialect, class.table)
	for _, col := range class.columns {
		q.Select(q.Column(class.table, col))
	}
	return q
}

// Query returns the fetch query for class after the Initialize hooks have run.
func (o *ORM) Query(class *ModelClass) (*Query, error) {
	q := o.newQuery(class)
	if err := o.hooks.Initialize(class, q); err != nil {
		return nil, fmt.Errorf("initialize %s query: %w", class.name, err)
	}
	return q, nil
}
