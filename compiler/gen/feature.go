package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// FeatureYAML writes the resolved model as YAML next to model.json.
	FeatureYAML = Feature{
		Name:        "yaml",
		Stage:       Stable,
		Default:     false,
		Description: "Writes the resolved model as model.yaml in addition to model.json",
		cleanup: func(c *Config) error {
			return remove(c.Target, ModelYAMLFile)
		},
	}

	// FeatureSnapshot stores a binary snapshot of the resolved model. The watch
	// command compares it with the previous run to report changed relations.
	FeatureSnapshot = Feature{
		Name:        "snapshot",
		Stage:       Beta,
		Default:     false,
		Description: "Stores a msgpack snapshot of the resolved model for diffing between runs",
		cleanup: func(c *Config) error {
			return remove(c.Target, SnapshotFile)
		},
	}

	// FeatureDDL writes the planned CREATE TABLE statements of the
	// configured dialect as schema.sql.
	FeatureDDL = Feature{
		Name:        "ddl",
		Stage:       Alpha,
		Default:     false,
		Description: "Writes the relational schema of the resolved model as schema.sql",
		cleanup: func(c *Config) error {
			return remove(c.Target, SchemaSQLFile)
		},
	}

	// FeatureStrict turns resolver warnings, such as a type that
	// references the same entity from two fields, into errors.
	FeatureStrict = Feature{
		Name:        "strict",
		Stage:       Stable,
		Default:     false,
		Description: "Fails the run on resolver warnings",
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureYAML,
		FeatureSnapshot,
		FeatureDDL,
		FeatureStrict,
	}
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development.
	Experimental

	// Alpha features are usable, but their output format may change.
	Alpha

	// Beta features are documented and no breaking-changes are expected.
	Beta

	// Stable features are Beta features that were used for a while.
	Stable
)

// String returns the stage name.
func (s FeatureStage) String() string {
	switch s {
	case Experimental:
		return "experimental"
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	case Stable:
		return "stable"
	default:
		return "unknown"
	}
}

// A Feature of the generator.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup used to cleanup all changes when a feature-flag is removed.
	// e.g. delete files from previous runs.
	cleanup func(*Config) error
}

// FeatureByName returns the feature registered with the given name.
func FeatureByName(name string) (Feature, error) {
	for _, f := range AllFeatures {
		if f.Name == name {
			return f, nil
		}
	}
	names := make([]string, len(AllFeatures))
	for i, f := range AllFeatures {
		names[i] = f.Name
	}
	return Feature{}, NewConfigError("Features", name, fmt.Sprintf("unknown feature; use one of %s", strings.Join(names, ", ")))
}

// cleanupFeatures removes the outputs of features that are disabled in c.
func cleanupFeatures(c *Config) error {
	for _, f := range AllFeatures {
		if f.cleanup == nil || c.HasFeature(f.Name) {
			continue
		}
		if err := f.cleanup(c); err != nil {
			return fmt.Errorf("cleanup feature %q: %w", f.Name, err)
		}
	}
	return nil
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}
