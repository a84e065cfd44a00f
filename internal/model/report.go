package model

import "time"

// DirectoryStats is the roll-up of every file attributed to one directory.
type DirectoryStats struct {
	Path          string
	TotalBytes    int64
	AccessedBytes int64
	ModifiedBytes int64
	Age           time.Duration

	Files   int
	Created int
	Deleted int

	First         time.Duration // earliest record timestamp
	Last          time.Duration // latest record timestamp
	HasTimestamps bool
}

// Diagnostics summarizes everything that was skipped or could not be used.
type Diagnostics struct {
	LinesTotal            int `json:"lines_total"`
	LinesSkipped          int `json:"lines_skipped"`
	LinesMalformed        int `json:"lines_malformed"`
	ProcessesDiscovered   int `json:"processes_discovered"`
	ProcessesMissingTrace int `json:"processes_missing_trace"`

	PathsUnresolved int `json:"paths_unresolved"`
	UnknownFDs      int `json:"unknown_fds"`
	SyscallsIgnored int `json:"syscalls_ignored"`
	FilesIngested   int `json:"files_ingested"`
}

// Merge adds o's counters into d.
func (d *Diagnostics) Merge(o Diagnostics) {
	d.LinesTotal += o.LinesTotal
	d.LinesSkipped += o.LinesSkipped
	d.LinesMalformed += o.LinesMalformed
	d.ProcessesDiscovered += o.ProcessesDiscovered
	d.ProcessesMissingTrace += o.ProcessesMissingTrace
	d.PathsUnresolved += o.PathsUnresolved
	d.UnknownFDs += o.UnknownFDs
	d.SyscallsIgnored += o.SyscallsIgnored
	d.FilesIngested += o.FilesIngested
}

// Complete reports whether nothing was lost while building the report.
func (d Diagnostics) Complete() bool {
	return d.LinesMalformed == 0 && d.ProcessesMissingTrace == 0 && d.PathsUnresolved == 0
}

// Report is what the engine hands to a renderer. Directories are sorted by path.
type Report struct {
	Directories []DirectoryStats
	Diagnostics Diagnostics
}
