//go:build !linux

package syscalls

// Traces come from strace on Linux, so numeric flags carry the generic
// Linux values even when the analyzer runs elsewhere.
const (
	O_ACCMODE   = 0x3
	O_RDONLY    = 0x0
	O_WRONLY    = 0x1
	O_RDWR      = 0x2
	O_CREAT     = 0x40
	O_EXCL      = 0x80
	O_TRUNC     = 0x200
	O_APPEND    = 0x400
	O_DIRECTORY = 0x10000
	O_CLOEXEC   = 0x80000
)

var openFlags = map[string]int{
	"O_RDONLY":    O_RDONLY,
	"O_WRONLY":    O_WRONLY,
	"O_RDWR":      O_RDWR,
	"O_CREAT":     O_CREAT,
	"O_EXCL":      O_EXCL,
	"O_NOCTTY":    0x100,
	"O_TRUNC":     O_TRUNC,
	"O_APPEND":    O_APPEND,
	"O_NONBLOCK":  0x800,
	"O_DSYNC":     0x1000,
	"O_SYNC":      0x101000,
	"O_DIRECT":    0x4000,
	"O_LARGEFILE": 0x8000,
	"O_DIRECTORY": O_DIRECTORY,
	"O_NOFOLLOW":  0x20000,
	"O_NOATIME":   0x40000,
	"O_CLOEXEC":   O_CLOEXEC,
	"O_PATH":      0x200000,
	"O_TMPFILE":   0x410000,
}
