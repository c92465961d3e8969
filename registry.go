package geothing

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/burugo/geothing/internal/utils"
)

// Registry holds the model classes known to an ORM, keyed by name.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*ModelClass
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*ModelClass)}
}

// Define validates opts and registers a model class under name. The GeoJSON
// option is resolved here, so an invalid value fails immediately.
func (r *Registry) Define(name string, opts ModelOptions) (*ModelClass, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty model name", ErrInvalidModel)
	}

	geometry, err := ResolveGeometry(opts.GeoJSON)
	if err != nil {
		return nil, fmt.Errorf("define model %q: %w", name, err)
	}

	class := &ModelClass{
		name:      name,
		table:     opts.TableName,
		pk:        opts.PrimaryKey,
		geometry:  geometry,
		relations: make(map[string]RelationFunc, len(opts.Relations)),
	}
	if class.table == "" {
		class.table = utils.Plural(utils.ToSnakeCase(name))
	}
	if class.pk == "" {
		class.pk = "id"
	}
	if len(opts.Columns) > 0 {
		class.columns = append([]string(nil), opts.Columns...)
		if !contains(class.columns, class.pk) {
			return nil, fmt.Errorf("%w: model %q columns do not include primary key %q", ErrInvalidModel, name, class.pk)
		}
	}
	for relName, fn := range opts.Relations {
		if fn == nil {
			return nil, fmt.Errorf("%w: model %q relation %q has no definition", ErrInvalidRelation, name, relName)
		}
		class.relations[relName] = fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, name)
	}
	r.models[name] = class

	col, _ := geometry.Column()
	log.Debug().Str("model", name).Str("table", class.table).Str("geometry", col).Msg("Model defined")
	return class, nil
}

// Model returns the class registered under name.
func (r *Registry) Model(name string) (*ModelClass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	class, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return class, nil
}

// MustModel is like Model but panics when name is unknown.
func (r *Registry) MustModel(name string) *ModelClass {
	class, err := r.Model(name)
	if err != nil {
		panic(err)
	}
	return class
}

// Models returns every registered class sorted by name.
func (r *Registry) Models() []*ModelClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ModelClass, 0, len(r.models))
	for _, class := range r.models {
		out = append(out, class)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Resolve accepts a *ModelClass or a registered model name.
func (r *Registry) Resolve(target interface{}) (*ModelClass, error) {
	switch t := target.(type) {
	case *ModelClass:
		if t == nil {
			return nil, fmt.Errorf("%w: nil model class", ErrInvalidRelation)
		}
		return t, nil
	case string:
		return r.Model(t)
	default:
		return nil, fmt.Errorf("%w: target must be a model name or *ModelClass, got %T", ErrInvalidRelation, target)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
