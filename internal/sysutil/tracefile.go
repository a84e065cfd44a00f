package sysutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SplitTraceName splits "dir/cmd.strace.1234" into the per-pid prefix
// "dir/cmd.strace" and pid 1234. A name without a numeric suffix is its own
// prefix with pid 0.
func SplitTraceName(name string) (prefix string, pid int) {
	dir, base := filepath.Split(name)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		if v, err := strconv.Atoi(base[i+1:]); err == nil && v > 0 {
			return filepath.Join(dir, base[:i]), v
		}
	}
	return filepath.Join(dir, base), 0
}

// TraceFileFor names the trace strace -ff writes for pid.
func TraceFileFor(prefix string, pid int) string {
	return prefix + "." + strconv.Itoa(pid)
}

// CheckRegularFile fails unless name exists and is a regular file.
func CheckRegularFile(name string) error {
	fi, err := os.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("does not exist: %q", name)
		}
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("is not a file: %q", name)
	}
	return nil
}
