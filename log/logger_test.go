package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithLevel(DebugLevel))

	l.Debug().Str("type", "Post").Msg("relation resolved")
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "debug", m["level"])
	assert.Equal(t, "relation resolved", m["message"])
	assert.Equal(t, "Post", m["type"])

	buf.Reset()
	l.SetLevel(WarnLevel)
	l.Info().Msg("dropped")
	assert.Empty(t, buf.String())
	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLogger_Child(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithOutput(&buf)).Child("run", "abc", "dangling")
	l.Info().Msg("start")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "abc", m["run"])
	assert.NotContains(t, m, "dangling")
}

func TestLogger_Nop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Msg("nothing")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"", InfoLevel},
		{"debug", DebugLevel},
		{"WARN", WarnLevel},
		{"error", ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLogger_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apigen.log")
	var buf bytes.Buffer
	l := New(WithOutput(&buf), WithFile(DefaultRotate(path)))
	l.Info().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, buf.String(), "to file")
}
