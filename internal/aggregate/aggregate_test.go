package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(p string, class model.Classification, size int64) model.AccessRecord {
	return model.AccessRecord{Path: p, Class: class, Size: size, HasSize: size > 0}
}

func at(r model.AccessRecord, ts time.Duration) model.AccessRecord {
	r.Timestamp, r.HasTimestamp = ts, true
	return r
}

func find(t *testing.T, stats []model.DirectoryStats, dir string) model.DirectoryStats {
	t.Helper()
	for _, d := range stats {
		if d.Path == dir {
			return d
		}
	}
	require.Failf(t, "directory missing", "%s not in %v", dir, stats)
	return model.DirectoryStats{}
}

func TestParentRollUp(t *testing.T) {
	a := New(Options{})
	a.Add(rec("/tmp/a", model.Created, 0))
	a.Add(rec("/tmp/a", model.Modified, 10))
	a.Add(rec("/tmp/a", model.Accessed, 4))
	a.Add(rec("/tmp/b", model.Accessed, 7))
	a.Add(rec("/tmp/sub/c", model.Deleted, 0))

	stats := a.Stats(0)
	require.Len(t, stats, 2)

	tmp := find(t, stats, "/tmp")
	assert.Equal(t, int64(11), tmp.AccessedBytes)
	assert.Equal(t, int64(10), tmp.ModifiedBytes)
	assert.Equal(t, int64(17), tmp.TotalBytes, "max per file, summed")
	assert.Equal(t, 2, tmp.Files)
	assert.Equal(t, 1, tmp.Created)
	assert.False(t, tmp.HasTimestamps)
	assert.Zero(t, tmp.Age)

	sub := find(t, stats, "/tmp/sub")
	assert.Equal(t, 1, sub.Deleted)
	assert.Zero(t, sub.TotalBytes)
}

func TestAncestorRollUp(t *testing.T) {
	a := New(Options{RollUp: RollUpAncestors})
	a.Add(rec("/a/b/c/file", model.Modified, 5))
	a.Add(rec("/a/x", model.Accessed, 3))

	stats := a.Stats(0)
	var dirs []string
	for _, d := range stats {
		dirs = append(dirs, d.Path)
	}
	assert.Equal(t, []string{"/", "/a", "/a/b", "/a/b/c"}, dirs)
	assert.Equal(t, int64(8), find(t, stats, "/").TotalBytes)
	assert.Equal(t, 2, find(t, stats, "/a").Files)
	assert.Equal(t, int64(5), find(t, stats, "/a/b").TotalBytes)
}

func TestAncestorBoundary(t *testing.T) {
	a := New(Options{RollUp: RollUpAncestors, Boundary: "/a/"})
	a.Add(rec("/a/b/c/file", model.Modified, 5))
	a.Add(rec("/elsewhere/deep/f", model.Accessed, 1))

	var dirs []string
	for _, d := range a.Stats(0) {
		dirs = append(dirs, d.Path)
	}
	assert.Equal(t, []string{"/a", "/a/b", "/a/b/c", "/elsewhere/deep"}, dirs)
}

func TestDirectoryRecordsOnlyTouchTheirOwnTimestamps(t *testing.T) {
	a := New(Options{})
	a.Add(at(model.AccessRecord{Path: "/srv/data", IsDir: true, Class: model.Accessed}, time.Second))

	stats := a.Stats(0)
	require.Len(t, stats, 1)
	d := stats[0]
	assert.Equal(t, "/srv/data", d.Path)
	assert.Zero(t, d.Files)
	assert.True(t, d.HasTimestamps)
}

func TestAgeFirstEvent(t *testing.T) {
	a := New(Options{})
	a.Add(at(rec("/tmp/a", model.Accessed, 1), 10*time.Second))
	a.Add(at(rec("/tmp/b", model.Modified, 1), 25*time.Second))
	a.Add(at(rec("/var/x", model.Accessed, 1), 20*time.Second))

	stats := a.Stats(5 * time.Second)
	assert.Equal(t, 15*time.Second, find(t, stats, "/tmp").Age)
	assert.Zero(t, find(t, stats, "/var").Age)
	assert.Equal(t, 10*time.Second, find(t, stats, "/tmp").First)
	assert.Equal(t, 25*time.Second, find(t, stats, "/tmp").Last)
}

func TestAgeRunStart(t *testing.T) {
	a := New(Options{Age: AgeFromRunStart})
	a.Add(at(rec("/tmp/a", model.Accessed, 1), 10*time.Second))
	a.Add(at(rec("/tmp/b", model.Modified, 1), 25*time.Second))
	a.Add(rec("/untimed/c", model.Modified, 1))

	stats := a.Stats(5 * time.Second)
	assert.Equal(t, 20*time.Second, find(t, stats, "/tmp").Age)
	assert.Zero(t, find(t, stats, "/untimed").Age)
}

func TestSizeInvariants(t *testing.T) {
	a := New(Options{RollUp: RollUpAncestors})
	for i := 0; i < 50; i++ {
		p := fmt.Sprintf("/r/d%d/f%d", i%4, i%7)
		if i%3 == 0 {
			a.Add(rec(p, model.Modified, int64(i)))
		} else {
			a.Add(rec(p, model.Accessed, int64(2*i)))
		}
	}
	stats := a.Stats(0)
	require.NotEmpty(t, stats)
	for i, d := range stats {
		assert.LessOrEqual(t, d.AccessedBytes, d.TotalBytes, d.Path)
		assert.LessOrEqual(t, d.ModifiedBytes, d.TotalBytes, d.Path)
		assert.LessOrEqual(t, d.TotalBytes, d.AccessedBytes+d.ModifiedBytes, d.Path)
		if i > 0 {
			assert.Less(t, stats[i-1].Path, d.Path)
		}
	}
}

func TestAddIgnoresEmptyPath(t *testing.T) {
	a := New(Options{})
	a.Add(model.AccessRecord{Class: model.Accessed, Size: 3, HasSize: true})
	assert.Empty(t, a.Stats(0))
}

func TestParseOptions(t *testing.T) {
	r, err := ParseRollUp("Ancestors")
	require.NoError(t, err)
	assert.Equal(t, RollUpAncestors, r)
	_, err = ParseRollUp("sideways")
	assert.Error(t, err)

	p, err := ParseAgePolicy("run-start")
	require.NoError(t, err)
	assert.Equal(t, AgeFromRunStart, p)
	assert.Equal(t, "run-start", p.String())
	_, err = ParseAgePolicy("yesterday")
	assert.Error(t, err)
}
