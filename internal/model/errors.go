package model

import "errors"

var (
	// ErrUnparseable marks a line that matched no known grammar.
	ErrUnparseable = errors.New("unparseable trace line")
	// ErrUnresolvedPath marks a relative path with no known base directory.
	ErrUnresolvedPath = errors.New("unresolved path")
	// ErrMissingChildTrace marks a cloned process whose trace file was not found.
	ErrMissingChildTrace = errors.New("missing child trace")
	// ErrFatalIO is returned when the primary trace cannot be read. It aborts the run.
	ErrFatalIO = errors.New("primary trace unavailable")
)
