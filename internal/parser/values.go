package parser

import (
	"strconv"
	"strings"

	"github.com/Hara602/straceAnalyzer/internal/syscalls"
)

// FDCWD is the value ParseFD returns for AT_FDCWD.
const FDCWD = -100

// Unquote decodes a strace string argument. truncated is set when strace
// appended "..." after the closing quote. ok is false for NULL, pointers and
// anything that is not a quoted string.
func Unquote(arg string) (s string, truncated bool, ok bool) {
	arg = strings.TrimSpace(arg)
	if len(arg) < 2 || arg[0] != '"' {
		return "", false, false
	}
	var b strings.Builder
	i := 1
	for ; i < len(arg); i++ {
		c := arg[i]
		if c == '"' {
			break
		}
		if c != '\\' || i+1 >= len(arg) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := arg[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'v':
			b.WriteByte('\v')
		case 'f':
			b.WriteByte('\f')
		case 'x':
			if i+2 < len(arg) {
				if v, err := strconv.ParseUint(arg[i+1:i+3], 16, 8); err == nil {
					b.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			b.WriteByte(e)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(arg) && j < i+3 && arg[j] >= '0' && arg[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(arg[i:j], 8, 8)
			b.WriteByte(byte(v))
			i = j - 1
		default:
			b.WriteByte(e)
		}
	}
	if i >= len(arg) {
		return "", false, false
	}
	return b.String(), strings.HasPrefix(arg[i+1:], "..."), true
}

// ParseFD decodes a file descriptor argument such as "3", "3</tmp/a>" or
// "AT_FDCWD". The decoration is only returned when it names a filesystem path.
func ParseFD(arg string) (fd int, decoration string, ok bool) {
	arg = strings.TrimSpace(arg)
	name := arg
	if i := strings.IndexByte(arg, '<'); i >= 0 {
		name = arg[:i]
		if j := strings.LastIndexByte(arg, '>'); j > i {
			decoration = arg[i+1 : j]
		}
		if !strings.HasPrefix(decoration, "/") {
			decoration = ""
		}
	}
	if name == syscalls.AtFDCWD {
		return FDCWD, decoration, true
	}
	v, err := strconv.Atoi(name)
	if err != nil {
		return 0, "", false
	}
	return v, decoration, true
}
