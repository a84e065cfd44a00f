package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampMode selects how a leading timestamp field is read.
type TimestampMode int

const (
	// TimestampAuto accepts wall clock (-t, -tt) and epoch (-ttt) prefixes.
	TimestampAuto TimestampMode = iota
	// TimestampNone strips timestamp prefixes but never uses them.
	TimestampNone
	// TimestampRelative reads numeric prefixes as deltas to the previous line (-r).
	TimestampRelative
)

func (m TimestampMode) String() string {
	switch m {
	case TimestampNone:
		return "none"
	case TimestampRelative:
		return "relative"
	}
	return "auto"
}

// ParseTimestampMode maps a configuration value to a TimestampMode.
func ParseTimestampMode(s string) (TimestampMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return TimestampAuto, nil
	case "none", "off":
		return TimestampNone, nil
	case "relative", "r":
		return TimestampRelative, nil
	}
	return TimestampAuto, fmt.Errorf("unknown timestamp mode %q", s)
}

// parseClock reads HH:MM:SS[.frac] as an offset from midnight.
func parseClock(s string) (time.Duration, bool) {
	if len(s) < 8 || s[2] != ':' || s[5] != ':' {
		return 0, false
	}
	h, err1 := strconv.Atoi(s[0:2])
	m, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil || h > 23 || m > 59 {
		return 0, false
	}
	secs, ok := parseSeconds(s[6:])
	if !ok || secs >= time.Minute {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + secs, true
}

// parseSeconds reads DIGITS[.DIGITS] without going through float64, so
// epoch timestamps keep microsecond precision.
func parseSeconds(s string) (time.Duration, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || !allDigits(whole) || (frac != "" && !allDigits(frac)) {
		return 0, false
	}
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	var ns int64
	if frac != "" {
		ns, _ = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
	}
	return time.Duration(sec)*time.Second + time.Duration(ns), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// looksLikeTimestamp reports whether a field is a timestamp rather than a pid.
func looksLikeTimestamp(s string) bool {
	if _, ok := parseClock(s); ok {
		return true
	}
	if !strings.Contains(s, ".") {
		return false
	}
	_, ok := parseSeconds(s)
	return ok
}
