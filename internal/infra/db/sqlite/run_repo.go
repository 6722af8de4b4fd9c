// Package sqlite keeps run history in a local SQLite file. It is the default
// history store when no server database is configured.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/m00que/Memforensics-MCP/internal/domain/runs"
)

// started_at is unix milliseconds so range queries compare integers.
const schema = `
CREATE TABLE IF NOT EXISTS engine_runs (
	id           TEXT    PRIMARY KEY,
	started_at   INTEGER NOT NULL,
	engine       TEXT    NOT NULL,
	plugin       TEXT    NOT NULL,
	image_path   TEXT    NOT NULL,
	mode         TEXT    NOT NULL,
	status       TEXT    NOT NULL,
	exit_code    INTEGER NOT NULL DEFAULT 0,
	record_count INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	output_file  TEXT    NOT NULL DEFAULT '',
	csv_file     TEXT    NOT NULL DEFAULT '',
	dump_dir     TEXT    NOT NULL DEFAULT '',
	error        TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_engine_runs_started ON engine_runs (started_at);`

const selectRun = `
SELECT id, started_at, engine, plugin, image_path, mode, status,
       exit_code, record_count, duration_ms,
       output_file, csv_file, dump_dir, error
FROM engine_runs`

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer; concurrent runs queue on the busy timeout instead of failing
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on error
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *runs.Run) error {
	const q = `
INSERT INTO engine_runs
(id, started_at, engine, plugin, image_path, mode, status,
 exit_code, record_count, duration_ms, output_file, csv_file, dump_dir, error)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
 status=excluded.status, exit_code=excluded.exit_code,
 record_count=excluded.record_count, duration_ms=excluded.duration_ms,
 output_file=excluded.output_file, csv_file=excluded.csv_file,
 dump_dir=excluded.dump_dir, error=excluded.error;`

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(run.ID), started.UnixMilli(), string(run.Engine), run.Plugin, run.ImagePath,
		string(run.Mode), string(run.Status),
		run.ExitCode, run.RecordCount, run.DurationMS,
		run.OutputFile, run.CSVFile, run.DumpDir, run.Error,
	)
	return err
}

// Get by ID. Returns (nil, nil) when the run does not exist.
func (r *RunRepository) Get(ctx context.Context, id runs.RunID) (*runs.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, selectRun+" WHERE id = ?", string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

func (r *RunRepository) Latest(ctx context.Context, limit int) ([]*runs.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectRun+" ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (r *RunRepository) Summary(ctx context.Context, since time.Time) (runs.Summary, error) {
	const q = `
SELECT COUNT(*),
       COALESCE(SUM(status = 'success'), 0),
       COALESCE(SUM(status = 'timed_out'), 0)
FROM engine_runs
WHERE started_at >= ?`
	var s runs.Summary
	if err := r.db.QueryRowContext(ctx, q, since.UnixMilli()).Scan(&s.Total, &s.Succeeded, &s.TimedOut); err != nil {
		return runs.Summary{}, err
	}
	s.Failed = s.Total - s.Succeeded
	return s, nil
}

func (r *RunRepository) Paginate(ctx context.Context, page, pageSize int, f runs.Filter) (runs.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	where, args := whereClause(f)
	rows, err := r.db.QueryContext(ctx,
		selectRun+where+" ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return runs.PaginatedResult{}, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()
	data, err := scanRuns(rows)
	if err != nil {
		return runs.PaginatedResult{}, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM engine_runs"+where, args...).Scan(&total); err != nil {
		return runs.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}
	return runs.PaginatedResult{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func whereClause(f runs.Filter) (string, []any) {
	var conds []string
	var args []any
	if f.Engine != "" {
		conds = append(conds, "engine = ?")
		args = append(args, f.Engine)
	}
	if f.Plugin != "" {
		conds = append(conds, "plugin = ?")
		args = append(args, f.Plugin)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Image != "" {
		conds = append(conds, `image_path LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLikePattern(f.Image)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func scanRun(row interface{ Scan(...any) error }) (*runs.Run, error) {
	var run runs.Run
	var started int64
	if err := row.Scan(
		&run.ID, &started, &run.Engine, &run.Plugin, &run.ImagePath, &run.Mode, &run.Status,
		&run.ExitCode, &run.RecordCount, &run.DurationMS,
		&run.OutputFile, &run.CSVFile, &run.DumpDir, &run.Error,
	); err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	return &run, nil
}

func scanRuns(rows *sql.Rows) ([]*runs.Run, error) {
	var out []*runs.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
