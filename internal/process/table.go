package process

import (
	"maps"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/Hara602/straceAnalyzer/internal/parser"
	"github.com/Hara602/straceAnalyzer/internal/syscalls"
)

// Table holds one Context per observed pid for the whole run. Contexts are
// never removed: fd numbers get reused, processes do not come back.
//
// Lock order is parent context, then table, then child context. A Context is
// only mutated by the worker ingesting that pid's trace, except when a clone
// seeds it.
type Table struct {
	mu      sync.RWMutex
	procs   map[int]*Context
	parents map[int]int // child pid -> parent pid
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		procs:   make(map[int]*Context),
		parents: make(map[int]int),
	}
}

// Seed registers pid with a known working directory. An existing context
// keeps its cwd unless it was unresolved.
func (t *Table) Seed(pid int, cwd string) *Context {
	c := t.context(pid)
	if cwd = cleanAbs(cwd); cwd != "" {
		c.mu.Lock()
		if c.cwd == "" {
			c.cwd = cwd
		}
		c.mu.Unlock()
	}
	return c
}

// Get returns the context of pid without creating it.
func (t *Table) Get(pid int) (*Context, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.procs[pid]
	return c, ok
}

// Parent returns the pid that cloned pid.
func (t *Table) Parent(pid int) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.parents[pid]
	return p, ok
}

// PIDs lists every known pid in ascending order.
func (t *Table) PIDs() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var pids []int
	for pid := range t.procs {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

// Len returns the number of known processes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.procs)
}

// context returns the context of pid, materializing an empty one.
func (t *Table) context(pid int) *Context {
	t.mu.RLock()
	c, ok := t.procs[pid]
	t.mu.RUnlock()
	if ok {
		return c
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok = t.procs[pid]; !ok {
		c = newContext(pid, "")
		t.procs[pid] = c
	}
	return c
}

// Fork registers child as a copy of parent's current fd table and cwd.
func (t *Table) Fork(parent, child int) {
	c := t.context(parent)
	c.mu.Lock()
	defer c.mu.Unlock()
	t.fork(c, child)
}

// fork requires parent.mu to be held.
func (t *Table) fork(parent *Context, child int) {
	if child == parent.PID {
		return
	}
	snapshot := maps.Clone(parent.fds)
	cwd := parent.cwd

	t.mu.Lock()
	t.parents[child] = parent.PID
	cc, exists := t.procs[child]
	if !exists {
		cc = newContext(child, cwd)
		cc.fds = snapshot
		t.procs[child] = cc
	}
	t.mu.Unlock()
	if !exists {
		return
	}

	// The child already logged events (single-file -f traces interleave), so
	// only fill in what it has not overwritten.
	cc.mu.Lock()
	defer cc.mu.Unlock()
	for fd, e := range snapshot {
		if _, ok := cc.fds[fd]; !ok {
			cc.fds[fd] = e
		}
	}
	if cc.cwd == "" {
		cc.cwd = cwd
	}
}

// Apply updates the table with one event and reports what it touched.
// Unknown syscalls leave the table alone.
func (t *Table) Apply(ev *model.TraceEvent) Effect {
	spec, ok := syscalls.Lookup(ev.Syscall)
	if !ok {
		return Effect{}
	}
	c := t.context(ev.PID)
	c.mu.Lock()
	defer c.mu.Unlock()

	failed := ev.Return.Failed()
	switch spec.Family {
	case syscalls.FamilyOpen:
		return c.open(spec, ev, failed)
	case syscalls.FamilyRead, syscalls.FamilyWrite:
		return c.access(syscalls.Arg(ev.Args, spec.FD), failed)
	case syscalls.FamilyClose:
		if fd, _, ok := parser.ParseFD(syscalls.Arg(ev.Args, spec.FD)); ok && !failed {
			delete(c.fds, fd)
		}
	case syscalls.FamilyDup:
		c.dup(spec, ev, failed)
	case syscalls.FamilyFcntl:
		c.fcntl(spec, ev, failed)
	case syscalls.FamilyChdir:
		return c.chdir(spec, ev, failed)
	case syscalls.FamilyFchdir:
		return c.fchdir(spec, ev, failed)
	case syscalls.FamilyRename:
		src := c.resolve(syscalls.Arg(ev.Args, spec.DirFD), syscalls.Arg(ev.Args, spec.Path), false)
		dst := c.resolve(syscalls.Arg(ev.Args, spec.DirFD2), syscalls.Arg(ev.Args, spec.Path2), false)
		return withUnresolved(Effect{Paths: []model.ResolvedPath{src, dst}}, failed)
	case syscalls.FamilyUnlink:
		dir := spec.Dir || strings.Contains(syscalls.Arg(ev.Args, spec.Flags), "AT_REMOVEDIR")
		rp := c.resolve(syscalls.Arg(ev.Args, spec.DirFD), syscalls.Arg(ev.Args, spec.Path), dir)
		return withUnresolved(Effect{Paths: []model.ResolvedPath{rp}}, failed)
	case syscalls.FamilyClone:
		if !failed && ev.Return.Value > 0 {
			child := int(ev.Return.Value)
			t.fork(c, child)
			return Effect{Spawned: child}
		}
	case syscalls.FamilyExec:
		if !failed {
			maps.DeleteFunc(c.fds, func(_ int, e FD) bool { return e.CloseOnExec })
		}
	}
	return Effect{}
}

// The methods below require c.mu to be held.

func (c *Context) open(spec syscalls.Spec, ev *model.TraceEvent, failed bool) Effect {
	flags := spec.ImpliedFlags | syscalls.ParseFlags(syscalls.Arg(ev.Args, spec.Flags))
	rp := c.resolve(syscalls.Arg(ev.Args, spec.DirFD), syscalls.Arg(ev.Args, spec.Path), syscalls.Directory(flags))
	if !failed && !rp.Resolved && strings.HasPrefix(ev.Return.Decoration, "/") {
		rp.Path, rp.Resolved = path.Clean(ev.Return.Decoration), true
	}
	eff := withUnresolved(Effect{Paths: []model.ResolvedPath{rp}, Flags: flags}, failed)
	if !failed {
		c.fds[int(ev.Return.Value)] = FD{Path: rp, Flags: flags, CloseOnExec: syscalls.CloseOnExec(flags)}
	}
	return eff
}

func (c *Context) access(fdArg string, failed bool) Effect {
	e, ok := c.lookup(fdArg)
	if !ok {
		return Effect{UnknownFD: !failed}
	}
	// an unresolved entry was already counted when it was opened
	return Effect{Paths: []model.ResolvedPath{e.Path}, Flags: e.Flags}
}

func (c *Context) dup(spec syscalls.Spec, ev *model.TraceEvent, failed bool) {
	if failed {
		return
	}
	newFD := int(ev.Return.Value)
	e, ok := c.lookup(syscalls.Arg(ev.Args, spec.FD))
	if !ok {
		// dup2 onto a tracked fd closes it
		delete(c.fds, newFD)
		return
	}
	e.CloseOnExec = ev.Syscall == "dup3" && syscalls.CloseOnExec(syscalls.ParseFlags(syscalls.Arg(ev.Args, 2)))
	c.fds[newFD] = e
}

func (c *Context) fcntl(spec syscalls.Spec, ev *model.TraceEvent, failed bool) {
	if failed {
		return
	}
	cmd := syscalls.Arg(ev.Args, spec.Flags)
	fd, _, ok := parser.ParseFD(syscalls.Arg(ev.Args, spec.FD))
	if !ok {
		return
	}
	e, tracked := c.fds[fd]
	if !tracked {
		return
	}
	switch {
	case syscalls.IsDupCommand(cmd):
		e.CloseOnExec = syscalls.IsCloexecCommand(cmd)
		c.fds[int(ev.Return.Value)] = e
	case strings.TrimSpace(cmd) == "F_SETFD":
		e.CloseOnExec = strings.Contains(syscalls.Arg(ev.Args, 2), "FD_CLOEXEC")
		c.fds[fd] = e
	}
}

func (c *Context) chdir(spec syscalls.Spec, ev *model.TraceEvent, failed bool) Effect {
	rp := c.resolve("", syscalls.Arg(ev.Args, spec.Path), true)
	if !failed {
		c.cwd = ""
		if rp.Resolved {
			c.cwd = rp.Path
		}
	}
	return withUnresolved(Effect{Paths: []model.ResolvedPath{rp}}, failed)
}

func (c *Context) fchdir(spec syscalls.Spec, ev *model.TraceEvent, failed bool) Effect {
	e, ok := c.lookup(syscalls.Arg(ev.Args, spec.FD))
	if failed {
		return Effect{}
	}
	c.cwd = ""
	if !ok {
		return Effect{UnknownFD: true}
	}
	if e.Path.Resolved {
		c.cwd = e.Path.Path
	}
	e.Path.IsDir = true
	return withUnresolved(Effect{Paths: []model.ResolvedPath{e.Path}}, failed)
}

// lookup finds the entry for an fd argument, falling back to the path strace
// printed with -y when the open was never seen.
func (c *Context) lookup(fdArg string) (FD, bool) {
	fd, deco, ok := parser.ParseFD(fdArg)
	if !ok {
		return FD{}, false
	}
	if e, found := c.fds[fd]; found {
		return e, true
	}
	if deco != "" {
		return FD{Path: model.ResolvedPath{Path: path.Clean(deco), Resolved: true, Raw: fdArg}}, true
	}
	return FD{}, false
}

// resolve turns a path argument into an absolute path using dirArg (an
// *at(2) directory fd, or "" for the cwd).
func (c *Context) resolve(dirArg, pathArg string, dir bool) model.ResolvedPath {
	rp := model.ResolvedPath{Raw: pathArg, IsDir: dir}
	p, truncated, ok := parser.Unquote(pathArg)
	if !ok || truncated || p == "" {
		return rp
	}
	if path.IsAbs(p) {
		rp.Path, rp.Resolved = path.Clean(p), true
		return rp
	}

	base := c.cwd
	if dirArg != "" {
		fd, deco, ok := parser.ParseFD(dirArg)
		if !ok {
			return rp
		}
		switch e, found := c.fds[fd]; {
		case fd == parser.FDCWD:
			if base == "" {
				base = deco
			}
		case found && e.Path.Resolved:
			base = e.Path.Path
		default:
			base = deco
		}
	}
	if base == "" {
		return rp
	}
	rp.Path, rp.Resolved = path.Join(base, p), true
	return rp
}

func withUnresolved(eff Effect, failed bool) Effect {
	if failed {
		return eff
	}
	for _, p := range eff.Paths {
		if !p.Resolved {
			eff.Unresolved++
		}
	}
	return eff
}

func cleanAbs(p string) string {
	if p == "" || !path.IsAbs(p) {
		return ""
	}
	return path.Clean(p)
}
