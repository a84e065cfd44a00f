package process

import (
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/Hara602/straceAnalyzer/internal/model"
)

// FD is one open file descriptor entry.
type FD struct {
	Path        model.ResolvedPath
	Flags       int
	CloseOnExec bool
}

// Context is the state of one traced process.
type Context struct {
	mu sync.Mutex // protects cwd and fds

	PID int
	cwd string // "" while unresolved
	fds map[int]FD
}

func newContext(pid int, cwd string) *Context {
	return &Context{PID: pid, cwd: cwd, fds: make(map[int]FD)}
}

// Cwd returns the working directory, "" if unknown.
func (c *Context) Cwd() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cwd
}

// FD returns the entry for fd.
func (c *Context) FD(fd int) (FD, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.fds[fd]
	return e, ok
}

// FDs returns a copy of the fd table.
func (c *Context) FDs() map[int]FD {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.fds)
}

// Effect describes what applying one event did. Paths hold the resolved
// operands in argument order: the opened file, the fd's file for read and
// write, source then destination for rename.
type Effect struct {
	Paths      []model.ResolvedPath
	Flags      int  // open flags of the opened or accessed fd
	Spawned    int  // child pid of a successful clone, 0 otherwise
	UnknownFD  bool // read/write/close on an fd not in the table
	Unresolved int  // path operands that could not be resolved
}

// Err describes the unresolved operands, nil when every path resolved.
func (e Effect) Err() error {
	if e.Unresolved == 0 {
		return nil
	}
	var raw []string
	for _, p := range e.Paths {
		if !p.Resolved {
			raw = append(raw, p.Raw)
		}
	}
	return fmt.Errorf("%s: %w", strings.Join(raw, ", "), model.ErrUnresolvedPath)
}
