package model

import "time"

// ResolvedPath is a path argument after resolution against a process' cwd.
type ResolvedPath struct {
	Path     string // absolute and cleaned when Resolved
	IsDir    bool   // best effort: O_DIRECTORY, rmdir, chdir targets
	Resolved bool
	Raw      string // argument as it appeared in the trace
}

// Classification of a file access.
type Classification int

const (
	Unknown Classification = iota
	Accessed
	Modified
	Created
	Deleted
)

func (c Classification) String() string {
	switch c {
	case Accessed:
		return "accessed"
	case Modified:
		return "modified"
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// AccessRecord is one classified touch of a file.
type AccessRecord struct {
	Path  string
	IsDir bool
	Class Classification
	PID   int

	Timestamp    time.Duration
	HasTimestamp bool
	Seq          uint64 // merge order; stands in for ordering when there is no timestamp

	Size    int64 // bytes read or written
	HasSize bool
}
