// Package follower finds the per-process trace files strace -ff writes for
// cloned children and hands them out breadth-first.
package follower

import (
	"fmt"
	"path/filepath"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/Hara602/straceAnalyzer/internal/sysutil"
	"go.uber.org/zap"
)

// Job is one trace file to ingest.
type Job struct {
	Path    string
	PID     int // 0 when the primary name carries no pid
	Parent  int
	Primary bool
}

// Follower schedules each trace file at most once. It is driven from the
// analyzer's single merge step and is not safe for concurrent use.
type Follower struct {
	log      *zap.Logger
	prefix   string
	primary  Job
	ingested map[string]bool // absolute file path
	pids     map[int]bool
	queue    []Job
}

// New schedules the primary trace and derives the naming of its children.
func New(primary string, log *zap.Logger) *Follower {
	if log == nil {
		log = zap.NewNop()
	}
	prefix, pid := sysutil.SplitTraceName(primary)
	f := &Follower{
		log:      log,
		prefix:   prefix,
		ingested: make(map[string]bool),
		pids:     make(map[int]bool),
	}
	f.primary = Job{Path: primary, PID: pid, Primary: true}
	f.Schedule(f.primary)
	return f
}

// Primary returns the job of the primary trace.
func (f *Follower) Primary() Job { return f.primary }

// Schedule queues a job unless its file was already scheduled.
func (f *Follower) Schedule(job Job) bool {
	key := job.Path
	if abs, err := filepath.Abs(job.Path); err == nil {
		key = abs
	}
	if f.ingested[key] {
		f.log.Debug("trace already scheduled", zap.String("file", job.Path))
		return false
	}
	f.ingested[key] = true
	if job.PID != 0 {
		f.pids[job.PID] = true
	}
	f.queue = append(f.queue, job)
	return true
}

// Discover locates the trace of a child cloned by parent. Discovering a pid
// twice is a no-op. A missing file is reported as ErrMissingChildTrace.
func (f *Follower) Discover(parent, pid int) (bool, error) {
	if f.pids[pid] {
		return false, nil
	}
	f.pids[pid] = true

	name := sysutil.TraceFileFor(f.prefix, pid)
	if err := sysutil.CheckRegularFile(name); err != nil {
		f.log.Warn("child trace not found",
			zap.Int("pid", pid),
			zap.Int("parent", parent),
			zap.String("file", name),
			zap.Error(err))
		return false, fmt.Errorf("pid %d: %w", pid, model.ErrMissingChildTrace)
	}
	return f.Schedule(Job{Path: name, PID: pid, Parent: parent}), nil
}

// Known marks pid as accounted for without a file of its own, e.g. a
// process whose lines are interleaved in its parent's trace.
func (f *Follower) Known(pid int) { f.pids[pid] = true }

// NextLevel returns every job queued so far, in discovery order, and clears
// the queue. Jobs discovered while ingesting a level form the next one.
func (f *Follower) NextLevel() []Job {
	level := f.queue
	f.queue = nil
	return level
}

// Scheduled returns the number of distinct files scheduled.
func (f *Follower) Scheduled() int { return len(f.ingested) }
