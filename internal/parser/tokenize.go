package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Hara602/straceAnalyzer/internal/model"
)

var (
	errUnbalanced = errors.New("unbalanced argument list")
	errNoReturn   = errors.New("missing return value")
	errBadReturn  = errors.New("bad return value")
)

// scanner walks argument text while tracking quotes, comments and nesting.
type scanner struct {
	s       string
	i       int
	depth   int
	inQuote bool
}

// step advances one byte and reports whether s[i] (before the advance) is
// structural, i.e. outside quotes and comments.
func (sc *scanner) step() (byte, bool) {
	c := sc.s[sc.i]
	if sc.inQuote {
		switch c {
		case '\\':
			sc.i++ // the escaped byte is skipped below
		case '"':
			sc.inQuote = false
		}
		sc.i++
		return c, false
	}
	if c == '/' && strings.HasPrefix(sc.s[sc.i:], "/*") {
		if end := strings.Index(sc.s[sc.i+2:], "*/"); end >= 0 {
			sc.i += end + 4
			return c, false
		}
	}
	if c == '"' {
		sc.inQuote = true
	}
	sc.i++
	return c, c != '"'
}

// findClose returns the index of the ')' closing the '(' at open, or -1.
func findClose(s string, open int) int {
	sc := scanner{s: s, i: open + 1, depth: 1}
	for sc.i < len(s) {
		at := sc.i
		c, structural := sc.step()
		if !structural {
			continue
		}
		switch c {
		case '(', '[', '{':
			sc.depth++
		case ')', ']', '}':
			sc.depth--
			if sc.depth == 0 {
				if c == ')' {
					return at
				}
				return -1
			}
		}
	}
	return -1
}

// splitArgs splits an argument list on top-level commas.
func splitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var args []string
	sc := scanner{s: s}
	start := 0
	for sc.i < len(s) {
		at := sc.i
		c, structural := sc.step()
		if !structural {
			continue
		}
		switch c {
		case '(', '[', '{':
			sc.depth++
		case ')', ']', '}':
			sc.depth--
			if sc.depth < 0 {
				return nil, errUnbalanced
			}
		case ',':
			if sc.depth == 0 {
				args = append(args, strings.TrimSpace(s[start:at]))
				start = at + 1
			}
		}
	}
	if sc.depth != 0 || sc.inQuote {
		return nil, errUnbalanced
	}
	return append(args, strings.TrimSpace(s[start:])), nil
}

// parseReturn parses the text after ')' of a completed call.
func parseReturn(rest string) (model.Return, error) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "=") {
		return model.Return{}, errNoReturn
	}
	rest = strings.TrimSpace(rest[1:])
	if rest == "" {
		return model.Return{}, errNoReturn
	}

	var ret model.Return
	if rest[0] == '?' {
		rest = rest[1:]
	} else {
		end := 0
		if rest[0] == '-' {
			end = 1
		}
		for end < len(rest) && isAlnum(rest[end]) {
			end++
		}
		v, err := parseInt(rest[:end])
		if err != nil {
			return model.Return{}, errBadReturn
		}
		ret.Value, ret.Known = v, true
		rest = rest[end:]
		if strings.HasPrefix(rest, "<") {
			deco, after := cutDecoration(rest)
			ret.Decoration = deco
			rest = after
		}
	}

	if fields := strings.Fields(rest); len(fields) > 0 && isErrno(fields[0]) {
		ret.Errno = fields[0]
	}
	return ret, nil
}

// cutDecoration splits "</tmp/a> rest" into "/tmp/a" and " rest". The
// decoration ends at the first '>' followed by a space or the end of text,
// so paths that contain '>' survive.
func cutDecoration(s string) (string, string) {
	for i := 1; i < len(s); i++ {
		if s[i] == '>' && (i+1 == len(s) || s[i+1] == ' ') {
			return s[1:i], s[i+1:]
		}
	}
	return strings.TrimPrefix(s, "<"), ""
}

func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}
	u, err := strconv.ParseUint(s, 0, 64)
	return int64(u), err
}

func isErrno(s string) bool {
	if len(s) < 2 || s[0] != 'E' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) && s[i] != '_' {
			return false
		}
	}
	return true
}
