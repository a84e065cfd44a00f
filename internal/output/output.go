// Package output renders a Report.
package output

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/fatih/color"
)

const (
	FormatTable      = "table"
	FormatOneline    = "oneline"
	FormatPrometheus = "prometheus"
	FormatSQLite     = "sqlite"
)

var formats = []string{FormatTable, FormatOneline, FormatPrometheus, FormatSQLite}

// Renderer writes a report in one format.
type Renderer interface {
	Render(w io.Writer, rep *model.Report) error
}

// Options shared by the renderers.
type Options struct {
	Color  bool
	DBPath string // sqlite only
}

// Formats lists the supported format names.
func Formats() []string { return slices.Clone(formats) }

// Supported reports whether name is a known format.
func Supported(name string) bool { return slices.Contains(formats, name) }

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	switch format {
	case FormatTable:
		return &tableRenderer{color: opts.Color}, nil
	case FormatOneline:
		return onelineRenderer{}, nil
	case FormatPrometheus:
		return prometheusRenderer{}, nil
	case FormatSQLite:
		if opts.DBPath == "" {
			return nil, fmt.Errorf("sqlite format needs a database path")
		}
		return &sqliteRenderer{path: opts.DBPath}, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// WriteDiagnostics prints the parse diagnostics, flagging a partial report.
func WriteDiagnostics(w io.Writer, d model.Diagnostics, useColor bool) error {
	warn := color.New(color.FgYellow)
	if useColor {
		warn.EnableColor()
	} else {
		warn.DisableColor()
	}
	_, err := fmt.Fprintf(w,
		"lines: total=%d skipped=%d malformed=%d; processes: discovered=%d missing_trace=%d; "+
			"files=%d unresolved_paths=%d unknown_fds=%d ignored_syscalls=%d\n",
		d.LinesTotal, d.LinesSkipped, d.LinesMalformed,
		d.ProcessesDiscovered, d.ProcessesMissingTrace,
		d.FilesIngested, d.PathsUnresolved, d.UnknownFDs, d.SyscallsIgnored)
	if err != nil || d.Complete() {
		return err
	}
	_, err = warn.Fprintln(w, "warning: report is partial, some trace data could not be used")
	return err
}

func ageSeconds(d model.DirectoryStats) float64 {
	return d.Age.Seconds()
}

func formatAge(d model.DirectoryStats) string {
	if !d.HasTimestamps {
		return "-"
	}
	if d.Age < time.Second {
		return d.Age.Round(time.Microsecond).String()
	}
	return d.Age.Truncate(time.Second).String()
}
