package analyzer

import (
	"fmt"
	"path"

	"github.com/Hara602/straceAnalyzer/internal/aggregate"
	"github.com/Hara602/straceAnalyzer/internal/parser"
)

// Config is everything the engine takes from outside.
type Config struct {
	Timestamps parser.TimestampMode
	RollUp     aggregate.RollUp
	Boundary   string // topmost directory for ancestor roll-up
	Age        aggregate.AgePolicy

	// Workers parses up to this many trace files of one generation at once.
	// 1 streams every event straight into the aggregator.
	Workers int

	// InitialCwd is the directory the traced command started in. Empty means
	// unknown: relative paths stay unresolved until a chdir.
	InitialCwd string
}

// DefaultConfig returns the defaults: immediate-parent roll-up, age from a
// directory's first event, sequential ingestion.
func DefaultConfig() Config {
	return Config{
		Timestamps: parser.TimestampAuto,
		RollUp:     aggregate.RollUpParent,
		Boundary:   "/",
		Age:        aggregate.AgeFromFirstEvent,
		Workers:    1,
	}
}

// Validate checks values that cannot be expressed by the types alone.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Boundary != "" && !path.IsAbs(c.Boundary) {
		return fmt.Errorf("boundary must be an absolute path, got %q", c.Boundary)
	}
	if c.InitialCwd != "" && !path.IsAbs(c.InitialCwd) {
		return fmt.Errorf("initial cwd must be an absolute path, got %q", c.InitialCwd)
	}
	return nil
}
