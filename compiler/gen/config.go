package gen

import (
	"runtime"

	"github.com/syssam/apigen/dialect"
)

const (
	// defaultBundle is the PHP bundle the entities are emitted into.
	defaultBundle = "AppBundle"
	// defaultTarget is the output directory of the writer.
	defaultTarget = "./generated"
)

// Config holds the global configuration of a generation run.
type Config struct {
	// Bundle is the Symfony bundle name used to derive entity
	// namespaces and repository classes. For example, "AppBundle".
	Bundle string
	// EntitySuffix selects the schema objects that describe entities.
	// Only objects whose name ends with the suffix are entities, and the
	// suffix is trimmed from the entity name. Empty selects every object.
	EntitySuffix string
	// Target is the output directory.
	Target string
	// Dialect is the SQL dialect used for DDL planning.
	Dialect string
	// Features defines a list of additional features to enable.
	Features []Feature
	// Strict turns resolver warnings into errors.
	Strict bool
	// Workers limits the number of outputs written in parallel.
	Workers int
	// PluralTables uses plural table names ("users" instead of "user").
	PluralTables bool
}

// OutputConfig groups the settings that control where and how
// outputs are written.
type OutputConfig struct {
	Target  string
	Bundle  string
	Workers int
}

// Output returns the output settings of the config.
func (c *Config) Output() OutputConfig {
	return OutputConfig{
		Target:  c.Target,
		Bundle:  c.Bundle,
		Workers: c.Workers,
	}
}

// DefaultConfig returns the config used when no option overrides it.
func DefaultConfig() *Config {
	c := &Config{
		Bundle:  defaultBundle,
		Target:  defaultTarget,
		Dialect: dialect.MySQL,
		Workers: runtime.GOMAXPROCS(0),
	}
	for _, f := range AllFeatures {
		if f.Default {
			c.Features = append(c.Features, f)
		}
	}
	return c
}

// FeatureEnabled reports if the given feature name is enabled.
// It returns an error if the feature is unknown.
func (c *Config) FeatureEnabled(name string) (bool, error) {
	if _, err := FeatureByName(name); err != nil {
		return false, err
	}
	return c.HasFeature(name), nil
}

// HasFeature reports if the feature is enabled, without validating its name.
func (c *Config) HasFeature(name string) bool {
	for _, f := range c.Features {
		if f.Name == name {
			return true
		}
	}
	return false
}

// IsStrict reports if resolver warnings are fatal.
func (c *Config) IsStrict() bool {
	return c.Strict || c.HasFeature(FeatureStrict.Name)
}

// workers returns the writer parallelism.
func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
