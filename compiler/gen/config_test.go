package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputConfig(t *testing.T) {
	t.Run("returns grouped output settings", func(t *testing.T) {
		c := &Config{
			Target:  "./out",
			Bundle:  "ShopBundle",
			Workers: 2,
		}

		output := c.Output()

		assert.Equal(t, "./out", output.Target)
		assert.Equal(t, "ShopBundle", output.Bundle)
		assert.Equal(t, 2, output.Workers)
	})

	t.Run("handles empty config", func(t *testing.T) {
		c := &Config{}

		output := c.Output()

		assert.Empty(t, output.Target)
		assert.Empty(t, output.Bundle)
		assert.Zero(t, output.Workers)
	})
}

func TestConfigFeatureEnabled(t *testing.T) {
	t.Run("returns true for enabled feature", func(t *testing.T) {
		c := &Config{
			Features: []Feature{FeatureYAML, FeatureDDL},
		}

		enabled, err := c.FeatureEnabled("yaml")

		assert.NoError(t, err)
		assert.True(t, enabled)
	})

	t.Run("returns false for disabled feature", func(t *testing.T) {
		c := &Config{
			Features: []Feature{FeatureYAML},
		}

		enabled, err := c.FeatureEnabled("snapshot")

		assert.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("returns error for unknown feature", func(t *testing.T) {
		c := &Config{}

		_, err := c.FeatureEnabled("nonexistent")

		assert.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestConfigIsStrict(t *testing.T) {
	assert.False(t, (&Config{}).IsStrict())
	assert.True(t, (&Config{Strict: true}).IsStrict())
	assert.True(t, (&Config{Features: []Feature{FeatureStrict}}).IsStrict())
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, defaultBundle, c.Bundle)
	assert.Equal(t, defaultTarget, c.Target)
	assert.Equal(t, "mysql", c.Dialect)
	assert.Positive(t, c.Workers)
	assert.Empty(t, c.Features)
}

func TestConfigFeatureEnabled_AllFeatures(t *testing.T) {
	for _, f := range AllFeatures {
		t.Run(f.Name, func(t *testing.T) {
			c := &Config{Features: []Feature{f}}

			enabled, err := c.FeatureEnabled(f.Name)

			assert.NoError(t, err)
			assert.True(t, enabled)
			assert.NotEqual(t, "unknown", f.Stage.String())
		})
	}
}

func TestCleanupFeatures(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{ModelJSONFile, ModelYAMLFile, SnapshotFile, SchemaSQLFile} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	c := &Config{Target: dir, Features: []Feature{FeatureDDL}}

	require.NoError(t, cleanupFeatures(c))

	assert.FileExists(t, filepath.Join(dir, ModelJSONFile))
	assert.FileExists(t, filepath.Join(dir, SchemaSQLFile))
	assert.NoFileExists(t, filepath.Join(dir, ModelYAMLFile))
	assert.NoFileExists(t, filepath.Join(dir, SnapshotFile))
}

func TestRemove(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		assert.NoError(t, remove(t.TempDir(), "nothing.json"))
	})

	t.Run("removes empty dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), nil, 0o644))

		require.NoError(t, remove(dir, "model.yaml"))
		assert.NoDirExists(t, dir)
	})
}
