package output

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lines_total INTEGER,
	lines_skipped INTEGER,
	lines_malformed INTEGER,
	processes_discovered INTEGER,
	processes_missing_trace INTEGER,
	paths_unresolved INTEGER,
	unknown_fds INTEGER,
	syscalls_ignored INTEGER,
	files_ingested INTEGER,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS directories (
	run_id INTEGER REFERENCES runs(id),
	path TEXT,
	total_bytes INTEGER,
	accessed_bytes INTEGER,
	modified_bytes INTEGER,
	age_seconds REAL,
	files INTEGER,
	created INTEGER,
	deleted INTEGER,
	PRIMARY KEY (run_id, path)
);
`

// sqliteRenderer appends the report as one run to a SQLite database and
// prints where it went.
type sqliteRenderer struct {
	path string
}

func (s *sqliteRenderer) Render(w io.Writer, rep *model.Report) (err error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	runID, err := insertRun(db, rep)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "run %d: %d directories written to %s\n", runID, len(rep.Directories), s.path)
	return err
}

func insertRun(db *sql.DB, rep *model.Report) (runID int64, err error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	d := rep.Diagnostics
	res, err := tx.Exec(
		`INSERT INTO runs(lines_total, lines_skipped, lines_malformed, processes_discovered,
			processes_missing_trace, paths_unresolved, unknown_fds, syscalls_ignored, files_ingested)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.LinesTotal, d.LinesSkipped, d.LinesMalformed, d.ProcessesDiscovered,
		d.ProcessesMissingTrace, d.PathsUnresolved, d.UnknownFDs, d.SyscallsIgnored, d.FilesIngested,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	if runID, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO directories(run_id, path, total_bytes, accessed_bytes, modified_bytes,
			age_seconds, files, created, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { err = multierr.Append(err, stmt.Close()) }()

	for _, dir := range rep.Directories {
		if _, err = stmt.Exec(runID, dir.Path, dir.TotalBytes, dir.AccessedBytes, dir.ModifiedBytes,
			ageSeconds(dir), dir.Files, dir.Created, dir.Deleted); err != nil {
			return 0, fmt.Errorf("insert directory %s: %w", dir.Path, err)
		}
	}
	return runID, tx.Commit()
}
