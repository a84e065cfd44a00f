package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Hara602/straceAnalyzer/internal/aggregate"
	"github.com/Hara602/straceAnalyzer/internal/output"
	"github.com/Hara602/straceAnalyzer/internal/parser"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	s, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, output.FormatTable, s.Format)
	assert.Equal(t, aggregate.RollUpParent, s.Engine.RollUp)
	assert.Equal(t, aggregate.AgeFromFirstEvent, s.Engine.Age)
	assert.Equal(t, parser.TimestampAuto, s.Engine.Timestamps)
	assert.Equal(t, "/", s.Engine.Boundary)
	assert.Equal(t, 1, s.Engine.Workers)
	assert.Empty(t, s.Engine.InitialCwd)
	assert.False(t, s.Debug)
}

func TestOverrides(t *testing.T) {
	v := newViper()
	v.Set(KeyRollUp, "ancestors")
	v.Set(KeyAgePolicy, "run-start")
	v.Set(KeyTimestamps, "relative")
	v.Set(KeyBoundary, "/home")
	v.Set(KeyWorkers, 8)
	v.Set(KeyFormat, output.FormatOneline)
	v.Set(KeyVerbose, true)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, aggregate.RollUpAncestors, s.Engine.RollUp)
	assert.Equal(t, aggregate.AgeFromRunStart, s.Engine.Age)
	assert.Equal(t, parser.TimestampRelative, s.Engine.Timestamps)
	assert.Equal(t, "/home", s.Engine.Boundary)
	assert.Equal(t, 8, s.Engine.Workers)
	assert.Equal(t, output.FormatOneline, s.Format)
	assert.True(t, s.Verbose)
}

func TestInvalidSettings(t *testing.T) {
	for key, value := range map[string]any{
		KeyAgePolicy:  "tomorrow",
		KeyRollUp:     "sideways",
		KeyTimestamps: "often",
		KeyWorkers:    0,
		KeyBoundary:   "relative/dir",
		KeyCwd:        "here",
		KeyFormat:     "xml",
	} {
		v := newViper()
		v.Set(key, value)
		_, err := Load(v)
		assert.Error(t, err, key)
	}
}

func TestReadFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "analyzer.yaml")
	require.NoError(t, os.WriteFile(name, []byte("rollup: ancestors\nworkers: 3\nformat: prometheus\n"), 0o644))

	v := newViper()
	require.NoError(t, ReadFile(v, name))
	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, aggregate.RollUpAncestors, s.Engine.RollUp)
	assert.Equal(t, 3, s.Engine.Workers)
	assert.Equal(t, output.FormatPrometheus, s.Format)
}

func TestReadFileErrors(t *testing.T) {
	v := newViper()
	assert.Error(t, ReadFile(v, filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("workers: [\n"), 0o644))
	assert.Error(t, ReadFile(newViper(), bad))
}

func TestEnvironment(t *testing.T) {
	t.Setenv("STRACE_ANALYZER_AGE_POLICY", "run-start")
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	v := newViper()
	require.NoError(t, ReadFile(v, ""))
	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, aggregate.AgeFromRunStart, s.Engine.Age)
}
