package gen

import (
	"errors"
	"strings"

	"github.com/syssam/apigen/dialect"
)

// Option configures a generation run.
type Option func(*Config) error

// WithBundle sets the Symfony bundle name.
// Entities are placed in the <bundle>\Entity namespace.
func WithBundle(bundle string) Option {
	return func(c *Config) error {
		bundle = strings.Trim(bundle, `\`)
		if bundle == "" {
			return NewConfigError("Bundle", nil, "bundle cannot be empty")
		}
		c.Bundle = bundle
		return nil
	}
}

// WithEntitySuffix sets the suffix that marks schema objects as entities,
// for example "Entity" for "UserEntity".
func WithEntitySuffix(suffix string) Option {
	return func(c *Config) error {
		c.EntitySuffix = suffix
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithDialect sets the SQL dialect used for DDL planning.
// Supported dialects: "mysql", "postgres", "sqlite".
func WithDialect(name string) Option {
	return func(c *Config) error {
		if !dialect.Valid(name) {
			return NewConfigError("Dialect", name, "unsupported dialect; use mysql, postgres, or sqlite")
		}
		c.Dialect = name
		return nil
	}
}

// WithFeatures enables specific features.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		for _, f := range features {
			if !c.HasFeature(f.Name) {
				c.Features = append(c.Features, f)
			}
		}
		return nil
	}
}

// WithFeatureNames enables features by name, as given on the command line.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			f, err := FeatureByName(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			if !c.HasFeature(f.Name) {
				c.Features = append(c.Features, f)
			}
		}
		return nil
	}
}

// WithStrict makes resolver warnings fatal.
func WithStrict(strict bool) Option {
	return func(c *Config) error {
		c.Strict = strict
		return nil
	}
}

// WithWorkers sets the number of outputs written in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithPluralTables uses plural table names.
func WithPluralTables(plural bool) Option {
	return func(c *Config) error {
		c.PluralTables = plural
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config from the defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
