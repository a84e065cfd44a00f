// Package aggregate folds AccessRecords into per-directory statistics.
//
// Sizes are tracked per file first: accessed bytes are the sum of reads,
// modified bytes the sum of writes, and the file's total is the larger of the
// two, the most the trace proves the file holds. A directory sums its files,
// so accessed and modified never exceed total.
package aggregate

import (
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Hara602/straceAnalyzer/internal/model"
)

type fileStats struct {
	isDir    bool
	accessed int64
	modified int64
	created  bool
	deleted  bool

	first, last time.Duration
	hasTS       bool
}

// Aggregator accumulates records. Adding is additive only, so Stats may be
// called on a partial run.
type Aggregator struct {
	mu    sync.Mutex
	opts  Options
	files map[string]*fileStats
}

// New creates an aggregator.
func New(opts Options) *Aggregator {
	if opts.Boundary == "" {
		opts.Boundary = "/"
	}
	opts.Boundary = path.Clean(opts.Boundary)
	return &Aggregator{opts: opts, files: make(map[string]*fileStats)}
}

// Add folds one record in.
func (a *Aggregator) Add(rec model.AccessRecord) {
	if rec.Path == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	f, ok := a.files[rec.Path]
	if !ok {
		f = &fileStats{}
		a.files[rec.Path] = f
	}
	f.isDir = f.isDir || rec.IsDir
	if rec.HasSize && rec.Size > 0 {
		switch rec.Class {
		case model.Accessed:
			f.accessed += rec.Size
		case model.Modified, model.Created:
			f.modified += rec.Size
		}
	}
	switch rec.Class {
	case model.Created:
		f.created = true
	case model.Deleted:
		f.deleted = true
	}
	if rec.HasTimestamp {
		if !f.hasTS || rec.Timestamp < f.first {
			f.first = rec.Timestamp
		}
		if !f.hasTS || rec.Timestamp > f.last {
			f.last = rec.Timestamp
		}
		f.hasTS = true
	}
}

// Stats builds the directory roll-ups, sorted by path. runStart is the
// earliest event timestamp of the run; it is only used by AgeFromRunStart.
func (a *Aggregator) Stats(runStart time.Duration) []model.DirectoryStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	dirs := make(map[string]*model.DirectoryStats)
	for p, f := range a.files {
		for _, key := range a.keys(p, f.isDir) {
			d, ok := dirs[key]
			if !ok {
				d = &model.DirectoryStats{Path: key}
				dirs[key] = d
			}
			if !f.isDir {
				d.Files++
				d.AccessedBytes += f.accessed
				d.ModifiedBytes += f.modified
				d.TotalBytes += max(f.accessed, f.modified)
				if f.created {
					d.Created++
				}
				if f.deleted {
					d.Deleted++
				}
			}
			if f.hasTS {
				if !d.HasTimestamps || f.first < d.First {
					d.First = f.first
				}
				if !d.HasTimestamps || f.last > d.Last {
					d.Last = f.last
				}
				d.HasTimestamps = true
			}
		}
	}

	out := make([]model.DirectoryStats, 0, len(dirs))
	for _, d := range dirs {
		d.Age = a.age(d, runStart)
		out = append(out, *d)
	}
	slices.SortFunc(out, func(x, y model.DirectoryStats) int { return strings.Compare(x.Path, y.Path) })
	return out
}

func (a *Aggregator) age(d *model.DirectoryStats, runStart time.Duration) time.Duration {
	if !d.HasTimestamps {
		return 0
	}
	base := d.First
	if a.opts.Age == AgeFromRunStart && runStart <= d.First {
		base = runStart
	}
	return d.Last - base
}

// keys lists the directories a path is attributed to. A directory record
// belongs to the directory itself.
func (a *Aggregator) keys(p string, isDir bool) []string {
	dir := p
	if !isDir {
		dir = path.Dir(p)
	}
	keys := []string{dir}
	if a.opts.RollUp != RollUpAncestors || !within(dir, a.opts.Boundary) {
		return keys
	}
	for dir != a.opts.Boundary && dir != "/" {
		dir = path.Dir(dir)
		keys = append(keys, dir)
	}
	return keys
}

func within(dir, boundary string) bool {
	if boundary == "/" {
		return strings.HasPrefix(dir, "/")
	}
	return dir == boundary || strings.HasPrefix(dir, boundary+"/")
}
