// Package syscalls holds the fixed table of syscalls the analyzer understands
// and the positions of the arguments it cares about.
package syscalls

// Family groups syscalls that touch the process state the same way.
type Family int

const (
	FamilyOther Family = iota
	FamilyOpen
	FamilyRead
	FamilyWrite
	FamilyClose
	FamilyDup
	FamilyFcntl
	FamilyChdir
	FamilyFchdir
	FamilyRename
	FamilyUnlink
	FamilyClone
	FamilyExec
)

// None marks an argument the syscall does not have.
const None = -1

// Spec describes the positional arguments of one syscall.
type Spec struct {
	Name    string
	Family  Family
	MinArgs int

	FD     int // fd operand (read/write/close/dup source/fchdir)
	DirFD  int // directory fd the path is relative to
	Path   int
	DirFD2 int // second directory fd (rename destination)
	Path2  int // second path (rename destination)
	Flags  int // open flags, or fcntl command

	ImpliedFlags int // flags implied by the call itself (creat)
	Dir          bool
}

func spec(name string, f Family, minArgs int) Spec {
	return Spec{
		Name: name, Family: f, MinArgs: minArgs,
		FD: None, DirFD: None, Path: None, DirFD2: None, Path2: None, Flags: None,
	}
}

var table = map[string]Spec{}

func add(s Spec) { table[s.Name] = s }

func init() {
	s := spec("open", FamilyOpen, 2)
	s.Path, s.Flags = 0, 1
	add(s)

	s = spec("openat", FamilyOpen, 3)
	s.DirFD, s.Path, s.Flags = 0, 1, 2
	add(s)

	s = spec("creat", FamilyOpen, 2)
	s.Path = 0
	s.ImpliedFlags = O_CREAT | O_WRONLY | O_TRUNC
	add(s)

	for name, n := range map[string]int{"read": 3, "pread64": 4, "readv": 3, "preadv": 4, "preadv2": 5} {
		s = spec(name, FamilyRead, n)
		s.FD = 0
		add(s)
	}
	for name, n := range map[string]int{"write": 3, "pwrite64": 4, "writev": 3, "pwritev": 4, "pwritev2": 5} {
		s = spec(name, FamilyWrite, n)
		s.FD = 0
		add(s)
	}

	s = spec("close", FamilyClose, 1)
	s.FD = 0
	add(s)

	for name, n := range map[string]int{"dup": 1, "dup2": 2, "dup3": 3} {
		s = spec(name, FamilyDup, n)
		s.FD = 0
		add(s)
	}

	s = spec("fcntl", FamilyFcntl, 2)
	s.FD, s.Flags = 0, 1
	add(s)

	s = spec("chdir", FamilyChdir, 1)
	s.Path, s.Dir = 0, true
	add(s)

	s = spec("fchdir", FamilyFchdir, 1)
	s.FD, s.Dir = 0, true
	add(s)

	s = spec("rename", FamilyRename, 2)
	s.Path, s.Path2 = 0, 1
	add(s)
	for _, name := range []string{"renameat", "renameat2"} {
		n := 4
		if name == "renameat2" {
			n = 5
		}
		s = spec(name, FamilyRename, n)
		s.DirFD, s.Path, s.DirFD2, s.Path2 = 0, 1, 2, 3
		add(s)
	}

	s = spec("unlink", FamilyUnlink, 1)
	s.Path = 0
	add(s)
	s = spec("unlinkat", FamilyUnlink, 3)
	s.DirFD, s.Path, s.Flags = 0, 1, 2
	add(s)
	s = spec("rmdir", FamilyUnlink, 1)
	s.Path, s.Dir = 0, true
	add(s)

	// clone's argument list varies by architecture; only the return matters.
	for _, name := range []string{"clone", "clone3", "fork", "vfork"} {
		add(spec(name, FamilyClone, 0))
	}

	s = spec("execve", FamilyExec, 3)
	s.Path = 0
	add(s)
	s = spec("execveat", FamilyExec, 5)
	s.DirFD, s.Path = 0, 1
	add(s)
}

// Lookup returns the table entry for a syscall name.
func Lookup(name string) (Spec, bool) {
	s, ok := table[name]
	return s, ok
}

// Known reports whether name is in the table.
func Known(name string) bool {
	_, ok := table[name]
	return ok
}

// Arg returns args[i], or "" when i is None or out of range.
func Arg(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}
