package geothing

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of a geothing deployment.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Models   []ModelConfig  `yaml:"models"`
}

// DatabaseConfig selects and tunes the database connection.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // postgres, mysql or sqlite
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	// SpatiaLite loads mod_spatialite into every SQLite connection.
	SpatiaLite bool `yaml:"spatialite"`
}

// ModelConfig declares a model class.
type ModelConfig struct {
	Name       string           `yaml:"name"`
	Table      string           `yaml:"table"`
	PrimaryKey string           `yaml:"primary_key"`
	Columns    []string         `yaml:"columns"`
	GeoJSON    interface{}      `yaml:"geojson"`
	Relations  []RelationConfig `yaml:"relations"`
}

// RelationConfig declares a named relation of a model.
type RelationConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"` // belongsTo, hasOne, hasMany, belongsToMany
	Target     string `yaml:"target"`
	ForeignKey string `yaml:"foreign_key"`
	OtherKey   string `yaml:"other_key"`
	JoinTable  string `yaml:"join_table"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Registry defines every configured model in a new Registry. A model whose
// geojson value is not a boolean or a non-empty string fails with a *ConfigError.
func (c *Config) Registry() (*Registry, error) {
	reg := NewRegistry()
	if err := c.Define(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Define registers every configured model in reg.
func (c *Config) Define(reg *Registry) error {
	for _, m := range c.Models {
		relations := make(map[string]RelationFunc, len(m.Relations))
		for _, rc := range m.Relations {
			fn, err := rc.relationFunc()
			if err != nil {
				return fmt.Errorf("model %q: %w", m.Name, err)
			}
			relations[rc.Name] = fn
		}
		_, err := reg.Define(m.Name, ModelOptions{
			TableName:  m.Table,
			PrimaryKey: m.PrimaryKey,
			Columns:    m.Columns,
			GeoJSON:    m.GeoJSON,
			Relations:  relations,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (rc RelationConfig) relationFunc() (RelationFunc, error) {
	if rc.Name == "" || rc.Target == "" {
		return nil, fmt.Errorf("%w: relation needs a name and a target", ErrInvalidRelation)
	}
	kind, err := ParseRelationKind(rc.Type)
	if err != nil {
		return nil, fmt.Errorf("relation %q: %w", rc.Name, err)
	}

	var opts []RelationOption
	if rc.ForeignKey != "" {
		opts = append(opts, ForeignKey(rc.ForeignKey))
	}
	if rc.OtherKey != "" {
		opts = append(opts, OtherKey(rc.OtherKey))
	}
	if rc.JoinTable != "" {
		opts = append(opts, JoinTable(rc.JoinTable))
	}
	target := rc.Target
	return func(rec *Record) (*Relation, error) {
		return rec.relate(kind, target, opts)
	}, nil
}
