package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/Hara602/straceAnalyzer/internal/syscalls"
)

// Kind tags the outcome of parsing one line.
type Kind int

const (
	Parsed Kind = iota
	Skipped
	Malformed
	Pending // first half of an interrupted call
)

func (k Kind) String() string {
	switch k {
	case Parsed:
		return "parsed"
	case Skipped:
		return "skipped"
	case Malformed:
		return "malformed"
	case Pending:
		return "pending"
	}
	return "unknown"
}

// Result of parsing one line. Event is set only for Parsed.
type Result struct {
	Kind   Kind
	Event  *model.TraceEvent
	Reason string
	Err    error // wraps model.ErrUnparseable for Malformed
}

const (
	unfinishedMarker = "<unfinished ...>"
	resumedPrefix    = "<..."
	resumedMarker    = " resumed>"
)

// Options configure a Parser for one trace file.
type Options struct {
	// PID is used for lines without a pid prefix (strace -ff files).
	PID        int
	Timestamps TimestampMode
}

type pendingKey struct {
	pid  int
	name string
}

type pendingCall struct {
	head   string
	line   int
	ts     time.Duration
	hasTS  bool
	prefix int // pid from the line, kept for the resumed half
}

// Parser is stateful per trace file: it numbers lines, accumulates relative
// timestamps and joins unfinished calls with their resumed halves.
type Parser struct {
	opts    Options
	line    int
	clock   time.Duration
	pending map[pendingKey]pendingCall
}

// New creates a parser for one trace file.
func New(opts Options) *Parser {
	return &Parser{opts: opts, pending: make(map[pendingKey]pendingCall)}
}

// Line returns the number of lines seen so far.
func (p *Parser) Line() int { return p.line }

// Parse consumes one line of trace text.
func (p *Parser) Parse(line string) Result {
	p.line++
	s := strings.TrimSpace(line)
	if s == "" {
		return skipped("blank line")
	}

	pid := p.opts.PID
	if rest, v, ok := cutPID(s); ok {
		pid, s = v, rest
	}
	ts, hasTS, s := p.cutTimestamp(s)

	switch {
	case strings.HasPrefix(s, "---"):
		return skipped("signal")
	case strings.HasPrefix(s, "+++"):
		return skipped("exit")
	case strings.HasPrefix(s, "strace:"):
		return skipped("notice")
	case strings.HasPrefix(s, resumedPrefix):
		return p.resume(pid, s)
	}

	if head, ok := strings.CutSuffix(s, unfinishedMarker); ok {
		name, _, found := strings.Cut(head, "(")
		if !found || !isIdent(name) {
			return p.malformed("unfinished call without syscall name")
		}
		p.pending[pendingKey{pid, name}] = pendingCall{
			head: strings.TrimRight(head, " "), line: p.line, ts: ts, hasTS: hasTS, prefix: pid,
		}
		return Result{Kind: Pending, Reason: "unfinished " + name}
	}

	return p.call(pid, s, p.line, ts, hasTS)
}

// Flush reports calls still waiting for their resumed half. It is called once
// the file is exhausted.
func (p *Parser) Flush() []Result {
	var out []Result
	for key := range p.pending {
		out = append(out, skipped("unfinished "+key.name+" never resumed"))
	}
	clear(p.pending)
	return out
}

func (p *Parser) resume(pid int, s string) Result {
	rest := strings.TrimSpace(s[len(resumedPrefix):])
	name, tail, ok := strings.Cut(rest, resumedMarker)
	if !ok {
		// "<... resumed>" without a name
		if t, found := strings.CutPrefix(rest, "resumed>"); found {
			return p.resumeUnnamed(pid, t)
		}
		return p.malformed("bad resumed line")
	}
	name = strings.TrimSpace(name)
	key := pendingKey{pid, name}
	start, found := p.pending[key]
	if !found {
		return skipped("resumed " + name + " without start")
	}
	delete(p.pending, key)
	return p.call(start.prefix, start.head+tail, start.line, start.ts, start.hasTS)
}

// resumeUnnamed joins a resumed line without a syscall name when exactly one
// call of that pid is pending.
func (p *Parser) resumeUnnamed(pid int, tail string) Result {
	var match pendingKey
	n := 0
	for key := range p.pending {
		if key.pid == pid {
			match = key
			n++
		}
	}
	if n != 1 {
		return skipped("ambiguous resumed line")
	}
	start := p.pending[match]
	delete(p.pending, match)
	return p.call(start.prefix, start.head+tail, start.line, start.ts, start.hasTS)
}

func (p *Parser) call(pid int, s string, line int, ts time.Duration, hasTS bool) Result {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !isIdent(s[:open]) {
		return p.malformed("no syscall name")
	}
	name := s[:open]
	spec, known := syscalls.Lookup(name)
	ev := &model.TraceEvent{
		PID: pid, Syscall: name, Known: known,
		Timestamp: ts, HasTimestamp: hasTS, Line: line,
	}

	end := findClose(s, open)
	if end < 0 {
		if known {
			return p.malformed(name + ": " + errUnbalanced.Error())
		}
		return Result{Kind: Parsed, Event: ev}
	}

	ret, err := parseReturn(s[end+1:])
	if err != nil && known {
		return p.malformed(name + ": " + err.Error())
	}
	ev.Return = ret

	args, err := splitArgs(s[open+1 : end])
	if err != nil && known {
		return p.malformed(name + ": " + err.Error())
	}
	ev.Args = args
	if known && len(args) < spec.MinArgs {
		return p.malformed(fmt.Sprintf("%s: %d arguments, want %d", name, len(args), spec.MinArgs))
	}
	return Result{Kind: Parsed, Event: ev}
}

func (p *Parser) cutTimestamp(s string) (time.Duration, bool, string) {
	field, rest, found := strings.Cut(s, " ")
	if !found || !looksLikeTimestamp(field) {
		return 0, false, s
	}
	rest = strings.TrimLeft(rest, " ")
	switch p.opts.Timestamps {
	case TimestampNone:
		return 0, false, rest
	case TimestampRelative:
		d, ok := parseSeconds(field)
		if !ok {
			return 0, false, rest
		}
		p.clock += d
		return p.clock, true, rest
	}
	if d, ok := parseClock(field); ok {
		return d, true, rest
	}
	d, _ := parseSeconds(field)
	return d, true, rest
}

func (p *Parser) malformed(reason string) Result {
	return Result{
		Kind:   Malformed,
		Reason: reason,
		Err:    fmt.Errorf("line %d: %s: %w", p.line, reason, model.ErrUnparseable),
	}
}

func skipped(reason string) Result {
	return Result{Kind: Skipped, Reason: reason}
}

// cutPID strips a "1234 " or "[pid 1234] " prefix.
func cutPID(s string) (string, int, bool) {
	if rest, ok := strings.CutPrefix(s, "[pid"); ok {
		num, after, found := strings.Cut(strings.TrimLeft(rest, " "), "]")
		if v, err := strconv.Atoi(num); found && err == nil {
			return strings.TrimLeft(after, " "), v, true
		}
		return s, 0, false
	}
	field, rest, found := strings.Cut(s, " ")
	if !found || !allDigits(field) {
		return s, 0, false
	}
	v, err := strconv.Atoi(field)
	if err != nil {
		return s, 0, false
	}
	return strings.TrimLeft(rest, " "), v, true
}
