//go:build linux

package syscalls

import "golang.org/x/sys/unix"

const (
	O_ACCMODE   = unix.O_ACCMODE
	O_RDONLY    = unix.O_RDONLY
	O_WRONLY    = unix.O_WRONLY
	O_RDWR      = unix.O_RDWR
	O_CREAT     = unix.O_CREAT
	O_EXCL      = unix.O_EXCL
	O_TRUNC     = unix.O_TRUNC
	O_APPEND    = unix.O_APPEND
	O_DIRECTORY = unix.O_DIRECTORY
	O_CLOEXEC   = unix.O_CLOEXEC
)

var openFlags = map[string]int{
	"O_RDONLY":    unix.O_RDONLY,
	"O_WRONLY":    unix.O_WRONLY,
	"O_RDWR":      unix.O_RDWR,
	"O_CREAT":     unix.O_CREAT,
	"O_EXCL":      unix.O_EXCL,
	"O_NOCTTY":    unix.O_NOCTTY,
	"O_TRUNC":     unix.O_TRUNC,
	"O_APPEND":    unix.O_APPEND,
	"O_NONBLOCK":  unix.O_NONBLOCK,
	"O_DSYNC":     unix.O_DSYNC,
	"O_SYNC":      unix.O_SYNC,
	"O_DIRECT":    unix.O_DIRECT,
	"O_LARGEFILE": unix.O_LARGEFILE,
	"O_DIRECTORY": unix.O_DIRECTORY,
	"O_NOFOLLOW":  unix.O_NOFOLLOW,
	"O_NOATIME":   unix.O_NOATIME,
	"O_CLOEXEC":   unix.O_CLOEXEC,
	"O_PATH":      unix.O_PATH,
	"O_TMPFILE":   unix.O_TMPFILE,
}
