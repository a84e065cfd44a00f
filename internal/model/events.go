package model

import "time"

// TraceEvent is one logical syscall invocation read from a trace file.
// A call that was interrupted and resumed is still a single TraceEvent.
type TraceEvent struct {
	PID     int      // process the call belongs to
	Syscall string   // e.g. "openat"
	Args    []string // raw argument text, positional
	Return  Return
	Known   bool // syscall is in the fixed table

	Timestamp    time.Duration // offset from midnight, epoch or trace start
	HasTimestamp bool
	Line         int // 1-based line of the (first) source line
}

// Return is the parsed "= ..." part of a record.
type Return struct {
	Value      int64
	Known      bool   // false for "= ?"
	Errno      string // e.g. "ENOENT"
	Decoration string // path strace -y printed after the fd, e.g. "/tmp/a"
}

// Failed reports whether the call did not succeed. Unknown returns count as failed.
func (r Return) Failed() bool {
	return !r.Known || r.Value < 0 || r.Errno != ""
}
