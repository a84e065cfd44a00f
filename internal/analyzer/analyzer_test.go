package analyzer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Hara602/straceAnalyzer/internal/aggregate"
	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeTrace(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func analyze(t *testing.T, cfg Config, primary string) *model.Report {
	t.Helper()
	a, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	rep, err := a.Run(context.Background(), primary)
	require.NoError(t, err)
	return rep
}

func dirStats(t *testing.T, rep *model.Report, dir string) model.DirectoryStats {
	t.Helper()
	for _, d := range rep.Directories {
		if d.Path == dir {
			return d
		}
	}
	require.Failf(t, "directory missing", "%s not in report", dir)
	return model.DirectoryStats{}
}

func TestFollowsChildTrace(t *testing.T) {
	dir := t.TempDir()
	primary := writeTrace(t, dir, "cmd.strace.1",
		`open("/tmp/a", O_RDWR) = 3`,
		`write(3, "...", 10) = 10`,
		`clone(child_stack=NULL, flags=CLONE_CHILD_CLEARTID|CLONE_CHILD_SETTID|SIGCHLD, child_tidptr=0x7f12) = 42`,
	)
	writeTrace(t, dir, "cmd.strace.42",
		`read(3, "...", 4) = 4`,
		`close(3) = 0`,
	)

	rep := analyze(t, DefaultConfig(), primary)
	require.Len(t, rep.Directories, 1)
	tmp := dirStats(t, rep, "/tmp")
	assert.Equal(t, int64(10), tmp.ModifiedBytes)
	assert.Equal(t, int64(4), tmp.AccessedBytes)
	assert.Equal(t, int64(10), tmp.TotalBytes)
	assert.Equal(t, 1, tmp.Files)
	assert.Equal(t, 1, tmp.Created)

	assert.Equal(t, model.Diagnostics{
		LinesTotal:          5,
		ProcessesDiscovered: 1,
		FilesIngested:       2,
	}, rep.Diagnostics)
	assert.True(t, rep.Diagnostics.Complete())
}

func TestMalformedLineIsTolerated(t *testing.T) {
	dir := t.TempDir()
	primary := writeTrace(t, dir, "cmd.strace.1",
		`open("/tmp/a", O_RDWR) = 3`,
		`@@garbage@@`,
		`write(3, "...", 10) = 10`,
	)

	rep := analyze(t, DefaultConfig(), primary)
	assert.Equal(t, 1, rep.Diagnostics.LinesMalformed)
	assert.Equal(t, 3, rep.Diagnostics.LinesTotal)
	assert.False(t, rep.Diagnostics.Complete())
	assert.Equal(t, int64(10), dirStats(t, rep, "/tmp").ModifiedBytes)
}

func TestMissingChildTrace(t *testing.T) {
	dir := t.TempDir()
	primary := writeTrace(t, dir, "cmd.strace.1",
		`open("/tmp/a", O_WRONLY|O_CREAT, 0644) = 3`,
		`clone(child_stack=NULL, flags=SIGCHLD) = 99`,
		`write(3, "ab", 2) = 2`,
	)

	rep := analyze(t, DefaultConfig(), primary)
	assert.Equal(t, 1, rep.Diagnostics.ProcessesDiscovered)
	assert.Equal(t, 1, rep.Diagnostics.ProcessesMissingTrace)
	assert.False(t, rep.Diagnostics.Complete())
	assert.Equal(t, int64(2), dirStats(t, rep, "/tmp").TotalBytes)
}

func TestUnreadablePrimaryIsFatal(t *testing.T) {
	a, err := New(DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = a.Run(context.Background(), filepath.Join(t.TempDir(), "nope.strace.1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrFatalIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestChildIngestedOnce(t *testing.T) {
	dir := t.TempDir()
	primary := writeTrace(t, dir, "cmd.strace.1",
		`open("/tmp/a", O_RDONLY) = 3`,
		`clone(child_stack=NULL, flags=SIGCHLD) = 42`,
		`clone(child_stack=NULL, flags=SIGCHLD) = 42`,
		`vfork() = 1`,
	)
	writeTrace(t, dir, "cmd.strace.42", `read(3, "....", 4) = 4`)

	rep := analyze(t, DefaultConfig(), primary)
	assert.Equal(t, 2, rep.Diagnostics.FilesIngested)
	assert.Equal(t, int64(4), dirStats(t, rep, "/tmp").AccessedBytes)
	assert.Zero(t, rep.Diagnostics.ProcessesMissingTrace)
}

func buildTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	primary := writeTrace(t, dir, "p.strace.10",
		`open("/shared/log", O_WRONLY|O_CREAT|O_APPEND, 0644) = 3`,
		`clone(child_stack=NULL, flags=SIGCHLD) = 11`,
		`clone(child_stack=NULL, flags=SIGCHLD) = 12`,
		`clone(child_stack=NULL, flags=SIGCHLD) = 13`,
		`close(3) = 0`,
	)
	for _, pid := range []string{"11", "12", "13"} {
		writeTrace(t, dir, "p.strace."+pid,
			`write(3, "entry", 5) = 5`,
			`openat(AT_FDCWD, "/work/`+pid+`/out", O_WRONLY|O_CREAT|O_TRUNC, 0644) = 4`,
			`write(4, "data", 4) = 4`,
			`open("/work/common", O_RDWR|O_CREAT, 0644) = 5`,
			`pwrite64(5, "x", 1, 0) = 1`,
		)
	}
	appendLines(t, filepath.Join(dir, "p.strace.12"), `clone(child_stack=NULL, flags=SIGCHLD) = 14`)
	writeTrace(t, dir, "p.strace.14",
		`read(3, 0x7ffd, 4096) = -1 EBADF (Bad file descriptor)`,
		`open("/etc/passwd", O_RDONLY|O_CLOEXEC) = 3`,
		`read(3, "root:x:0:0"..., 4096) = 1200`,
	)
	return primary
}

func appendLines(t *testing.T, name string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(name, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(strings.Join(lines, "\n") + "\n")
	require.NoError(t, err)
}

func TestWorkerCountDoesNotChangeReport(t *testing.T) {
	primary := buildTree(t)

	sequential := analyze(t, DefaultConfig(), primary)
	cfg := DefaultConfig()
	cfg.Workers = 4
	parallel := analyze(t, cfg, primary)
	again := analyze(t, cfg, primary)

	assert.Equal(t, sequential, parallel)
	assert.Equal(t, parallel, again)

	assert.Equal(t, 5, sequential.Diagnostics.FilesIngested)
	assert.Equal(t, 4, sequential.Diagnostics.ProcessesDiscovered)
	shared := dirStats(t, sequential, "/shared")
	assert.Equal(t, int64(15), shared.ModifiedBytes)
	assert.Equal(t, 1, shared.Created)
	assert.Equal(t, int64(1200), dirStats(t, sequential, "/etc").AccessedBytes)
	assert.Equal(t, int64(3), dirStats(t, sequential, "/work").TotalBytes)
}

func TestCancelledRunReturnsPartialReport(t *testing.T) {
	primary := buildTree(t)
	a, err := New(DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := a.Run(ctx, primary)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Zero(t, rep.Diagnostics.FilesIngested)
}

func TestAgeFromTimestamps(t *testing.T) {
	dir := t.TempDir()
	primary := writeTrace(t, dir, "t.strace.3",
		`10:00:00.000000 open("/data/in", O_RDONLY) = 3`,
		`10:00:02.000000 read(3, "x", 1) = 1`,
		`10:00:05.000000 open("/out/o", O_WRONLY|O_CREAT, 0644) = 4`,
		`10:00:06.000000 write(4, "x", 1) = 1`,
	)

	rep := analyze(t, DefaultConfig(), primary)
	assert.Equal(t, 2*time.Second, dirStats(t, rep, "/data").Age)
	assert.Equal(t, time.Second, dirStats(t, rep, "/out").Age)

	cfg := DefaultConfig()
	cfg.Age = aggregate.AgeFromRunStart
	rep = analyze(t, cfg, primary)
	assert.Equal(t, 2*time.Second, dirStats(t, rep, "/data").Age)
	assert.Equal(t, 6*time.Second, dirStats(t, rep, "/out").Age)
}

func TestInterleavedSingleFileTrace(t *testing.T) {
	dir := t.TempDir()
	primary := writeTrace(t, dir, "trace.log",
		`100 open("/tmp/p", O_WRONLY|O_CREAT, 0644) = 3`,
		`100 clone(child_stack=NULL, flags=SIGCHLD <unfinished ...>`,
		`100 <... clone resumed>) = 101`,
		`101 write(3, "hello", 5) = 5`,
		`101 +++ exited with 0 +++`,
		`100 mmap(NULL, 4096, PROT_READ, MAP_PRIVATE|MAP_ANONYMOUS, -1, 0) = 0x7f0000000000`,
	)

	rep := analyze(t, DefaultConfig(), primary)
	d := rep.Diagnostics
	assert.Equal(t, 1, d.ProcessesDiscovered)
	assert.Zero(t, d.ProcessesMissingTrace)
	assert.Equal(t, 1, d.LinesSkipped)
	assert.Equal(t, 1, d.SyscallsIgnored)
	assert.Equal(t, 1, d.FilesIngested)
	assert.Equal(t, int64(5), dirStats(t, rep, "/tmp").ModifiedBytes)
}

func TestInitialCwd(t *testing.T) {
	dir := t.TempDir()
	primary := writeTrace(t, dir, "c.strace.5",
		`open("out.o", O_WRONLY|O_CREAT|O_TRUNC, 0644) = 3`,
		`write(3, "1234567", 7) = 7`,
	)

	rep := analyze(t, DefaultConfig(), primary)
	assert.Empty(t, rep.Directories)
	assert.Equal(t, 1, rep.Diagnostics.PathsUnresolved)
	assert.False(t, rep.Diagnostics.Complete())

	cfg := DefaultConfig()
	cfg.InitialCwd = "/work"
	rep = analyze(t, cfg, primary)
	assert.Equal(t, int64(7), dirStats(t, rep, "/work").ModifiedBytes)
	assert.Zero(t, rep.Diagnostics.PathsUnresolved)
}

func TestLastLineWithoutNewline(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "n.strace.1")
	require.NoError(t, os.WriteFile(primary,
		[]byte("open(\"/tmp/a\", O_RDONLY) = 3\nread(3, \"ab\", 2) = 2"), 0o644))

	rep := analyze(t, DefaultConfig(), primary)
	assert.Equal(t, 2, rep.Diagnostics.LinesTotal)
	assert.Equal(t, int64(2), dirStats(t, rep, "/tmp").AccessedBytes)
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	_, err := New(cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.InitialCwd = "relative"
	_, err = New(cfg, nil)
	assert.Error(t, err)
}
