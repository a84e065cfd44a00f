// Package classify turns applied syscall events into AccessRecords.
package classify

import (
	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/Hara602/straceAnalyzer/internal/process"
	"github.com/Hara602/straceAnalyzer/internal/syscalls"
)

// Classifier keeps the run's view of which paths exist. It is not safe for
// concurrent use; the analyzer feeds it from a single merge step.
type Classifier struct {
	seen map[string]bool
	seq  uint64
}

// New creates a classifier with an empty view.
func New() *Classifier {
	return &Classifier{seen: make(map[string]bool)}
}

// Classify returns the records for one event. Failed calls and unresolved
// paths produce nothing.
func (c *Classifier) Classify(ev *model.TraceEvent, eff process.Effect) []model.AccessRecord {
	if ev.Return.Failed() || len(eff.Paths) == 0 {
		return nil
	}
	spec, ok := syscalls.Lookup(ev.Syscall)
	if !ok {
		return nil
	}

	switch spec.Family {
	case syscalls.FamilyOpen:
		p := eff.Paths[0]
		if syscalls.Writes(eff.Flags) && !p.IsDir {
			return c.emit(ev, p, c.writeClass(p), 0, false)
		}
		return c.emit(ev, p, model.Accessed, 0, false)
	case syscalls.FamilyRead:
		return c.emit(ev, eff.Paths[0], model.Accessed, max(ev.Return.Value, 0), true)
	case syscalls.FamilyWrite:
		return c.emit(ev, eff.Paths[0], model.Modified, max(ev.Return.Value, 0), true)
	case syscalls.FamilyUnlink:
		return c.emit(ev, eff.Paths[0], model.Deleted, 0, false)
	case syscalls.FamilyRename:
		if len(eff.Paths) < 2 {
			return nil
		}
		src, dst := eff.Paths[0], eff.Paths[1]
		var out []model.AccessRecord
		if dst.Resolved {
			// decided before the source leaves the view: rename onto itself
			// keeps the file.
			out = c.emit(ev, dst, c.writeClass(dst), 0, false)
		}
		if src.Resolved && src.Path != dst.Path {
			out = append(out, c.emit(ev, src, model.Deleted, 0, false)...)
		}
		return out
	}
	return nil
}

func (c *Classifier) writeClass(p model.ResolvedPath) model.Classification {
	if c.seen[p.Path] {
		return model.Modified
	}
	return model.Created
}

func (c *Classifier) emit(ev *model.TraceEvent, p model.ResolvedPath, class model.Classification, size int64, hasSize bool) []model.AccessRecord {
	if !p.Resolved {
		return nil
	}
	if class == model.Deleted {
		delete(c.seen, p.Path)
	} else {
		c.seen[p.Path] = true
	}
	c.seq++
	return []model.AccessRecord{{
		Path:         p.Path,
		IsDir:        p.IsDir,
		Class:        class,
		PID:          ev.PID,
		Timestamp:    ev.Timestamp,
		HasTimestamp: ev.HasTimestamp,
		Seq:          c.seq,
		Size:         size,
		HasSize:      hasSize,
	}}
}
