package follower

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func touch(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte("close(3) = 0\n"), 0o644))
}

func TestPrimaryIsScheduledOnce(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "cmd.strace.100")
	touch(t, primary)

	f := New(primary, zaptest.NewLogger(t))
	assert.Equal(t, 100, f.Primary().PID)
	assert.True(t, f.Primary().Primary)

	level := f.NextLevel()
	require.Len(t, level, 1)
	assert.Equal(t, primary, level[0].Path)
	assert.Empty(t, f.NextLevel())

	assert.False(t, f.Schedule(Job{Path: primary}))
	ok, err := f.Discover(1, 100)
	assert.NoError(t, err)
	assert.False(t, ok, "a clone returning the primary's own pid schedules nothing")
	assert.Equal(t, 1, f.Scheduled())
}

func TestDiscoverChildren(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "cmd.strace.100")
	touch(t, primary)
	touch(t, filepath.Join(dir, "cmd.strace.101"))
	touch(t, filepath.Join(dir, "cmd.strace.102"))

	f := New(primary, zaptest.NewLogger(t))
	f.NextLevel()

	ok, err := f.Discover(100, 102)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.Discover(100, 101)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.Discover(100, 101)
	require.NoError(t, err)
	assert.False(t, ok)

	level := f.NextLevel()
	require.Len(t, level, 2)
	assert.Equal(t, 102, level[0].PID, "discovery order is kept")
	assert.Equal(t, 101, level[1].PID)
	assert.Equal(t, 100, level[1].Parent)
	assert.Equal(t, filepath.Join(dir, "cmd.strace.101"), level[1].Path)
	assert.Equal(t, 3, f.Scheduled())
}

func TestDiscoverMissingChild(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "cmd.strace.100")
	touch(t, primary)

	f := New(primary, zaptest.NewLogger(t))
	ok, err := f.Discover(100, 555)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, model.ErrMissingChildTrace))

	// reported once per pid
	ok, err = f.Discover(100, 555)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestPrimaryWithoutPID(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "cmd.strace")
	touch(t, primary)
	touch(t, filepath.Join(dir, "cmd.strace.7"))

	f := New(primary, nil)
	assert.Zero(t, f.Primary().PID)
	f.NextLevel()

	ok, err := f.Discover(0, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	f.Known(8)
	ok, err = f.Discover(0, 8)
	assert.NoError(t, err)
	assert.False(t, ok)
}
