package syscalls

import (
	"strconv"
	"strings"
)

// AT_FDCWD as printed by strace.
const AtFDCWD = "AT_FDCWD"

// fcntl commands that duplicate a descriptor.
var dupCommands = map[string]bool{"F_DUPFD": true, "F_DUPFD_CLOEXEC": true}

// ParseFlags decodes an open(2) flag argument such as "O_WRONLY|O_CREAT|O_TRUNC"
// or a numeric value. Unknown symbolic names are ignored.
func ParseFlags(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return int(v)
	}
	flags := 0
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if v, ok := openFlags[part]; ok {
			flags |= v
			continue
		}
		if v, err := strconv.ParseInt(part, 0, 64); err == nil {
			flags |= int(v)
		}
	}
	return flags
}

// Writes reports whether flags open a file for writing or may change it.
func Writes(flags int) bool {
	acc := flags & O_ACCMODE
	return acc == O_WRONLY || acc == O_RDWR || flags&(O_CREAT|O_TRUNC|O_APPEND) != 0
}

// Directory reports whether O_DIRECTORY is set.
func Directory(flags int) bool { return flags&O_DIRECTORY != 0 }

// CloseOnExec reports whether O_CLOEXEC is set.
func CloseOnExec(flags int) bool { return flags&O_CLOEXEC != 0 }

// IsDupCommand reports whether an fcntl command argument duplicates the fd.
func IsDupCommand(cmd string) bool { return dupCommands[strings.TrimSpace(cmd)] }

// IsCloexecCommand reports whether an fcntl command argument sets close-on-exec on the copy.
func IsCloexecCommand(cmd string) bool { return strings.TrimSpace(cmd) == "F_DUPFD_CLOEXEC" }
