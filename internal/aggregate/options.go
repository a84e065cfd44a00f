package aggregate

import (
	"fmt"
	"strings"
)

// RollUp selects which directories a file contributes to.
type RollUp int

const (
	// RollUpParent attributes a file to its immediate parent only.
	RollUpParent RollUp = iota
	// RollUpAncestors attributes a file to every ancestor up to the boundary.
	RollUpAncestors
)

func (r RollUp) String() string {
	if r == RollUpAncestors {
		return "ancestors"
	}
	return "parent"
}

// ParseRollUp maps a configuration value to a RollUp.
func ParseRollUp(s string) (RollUp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "parent":
		return RollUpParent, nil
	case "ancestors", "all", "deep":
		return RollUpAncestors, nil
	}
	return RollUpParent, fmt.Errorf("unknown roll-up %q", s)
}

// AgePolicy selects the baseline of a directory's age.
type AgePolicy int

const (
	// AgeFromFirstEvent is the span between the directory's earliest and
	// latest record.
	AgeFromFirstEvent AgePolicy = iota
	// AgeFromRunStart is the span between the earliest event of the whole run
	// and the directory's latest record.
	AgeFromRunStart
)

func (a AgePolicy) String() string {
	if a == AgeFromRunStart {
		return "run-start"
	}
	return "first-event"
}

// ParseAgePolicy maps a configuration value to an AgePolicy.
func ParseAgePolicy(s string) (AgePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-event", "first":
		return AgeFromFirstEvent, nil
	case "run-start", "start":
		return AgeFromRunStart, nil
	}
	return AgeFromFirstEvent, fmt.Errorf("unknown age policy %q", s)
}

// Options configure an Aggregator.
type Options struct {
	RollUp   RollUp
	Boundary string // topmost directory for RollUpAncestors, "/" when empty
	Age      AgePolicy
}
