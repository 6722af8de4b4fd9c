package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/m00que/Memforensics-MCP/internal/domain/runs"
)

const schema = `
CREATE TABLE IF NOT EXISTS engine_runs (
  id           VARCHAR(64)   NOT NULL PRIMARY KEY,
  started_at   DATETIME(3)   NOT NULL,
  engine       VARCHAR(16)   NOT NULL,
  plugin       VARCHAR(128)  NOT NULL,
  image_path   VARCHAR(1024) NOT NULL,
  mode         VARCHAR(8)    NOT NULL,
  status       VARCHAR(32)   NOT NULL,
  exit_code    INT           NOT NULL DEFAULT 0,
  record_count INT           NOT NULL DEFAULT 0,
  duration_ms  BIGINT        NOT NULL DEFAULT 0,
  output_file  VARCHAR(1024) NOT NULL DEFAULT '',
  csv_file     VARCHAR(1024) NOT NULL DEFAULT '',
  dump_dir     VARCHAR(1024) NOT NULL DEFAULT '',
  error        TEXT          NOT NULL,
  INDEX idx_engine_runs_started (started_at),
  INDEX idx_engine_runs_plugin (engine, plugin)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const selectRun = `
SELECT id, started_at, engine, plugin, image_path, mode, status,
       exit_code, record_count, duration_ms,
       output_file, csv_file, dump_dir, error
FROM engine_runs`

// RunRepository stores run history in MySQL. The DSN must set parseTime=true.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the engine_runs table if it is missing.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *runs.Run) error {
	const q = `
INSERT INTO engine_runs
(id, started_at, engine, plugin, image_path, mode, status,
 exit_code, record_count, duration_ms, output_file, csv_file, dump_dir, error)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), exit_code=VALUES(exit_code),
 record_count=VALUES(record_count), duration_ms=VALUES(duration_ms),
 output_file=VALUES(output_file), csv_file=VALUES(csv_file),
 dump_dir=VALUES(dump_dir), error=VALUES(error);
`
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		run.ID, started, stringOrDash(string(run.Engine)), stringOrDash(run.Plugin), run.ImagePath,
		string(run.Mode), stringOrDash(string(run.Status)),
		run.ExitCode, run.RecordCount, run.DurationMS,
		run.OutputFile, run.CSVFile, run.DumpDir, run.Error,
	)
	return err
}

// Get by ID. Returns (nil, nil) when the run does not exist.
func (r *RunRepository) Get(ctx context.Context, id runs.RunID) (*runs.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, selectRun+" WHERE id=? LIMIT 1;", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// Latest runs, newest first
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]*runs.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectRun+" ORDER BY started_at DESC, id DESC LIMIT ?;", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Summary counts runs started at or after since.
func (r *RunRepository) Summary(ctx context.Context, since time.Time) (runs.Summary, error) {
	const q = `
SELECT COUNT(*),
       COALESCE(SUM(status='success'),0),
       COALESCE(SUM(status='timed_out'),0)
FROM engine_runs
WHERE started_at >= ?;
`
	var s runs.Summary
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&s.Total, &s.Succeeded, &s.TimedOut); err != nil {
		return runs.Summary{}, err
	}
	s.Failed = s.Total - s.Succeeded
	return s, nil
}

// Paginate with offset + limit (classic pagination)
func (r *RunRepository) Paginate(ctx context.Context, page, pageSize int, f runs.Filter) (runs.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	where, args := whereClause(f)
	query := selectRun + where + "\n ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, pageSize, offset)...)
	if err != nil {
		return runs.PaginatedResult{}, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	data, err := scanRuns(rows)
	if err != nil {
		return runs.PaginatedResult{}, err
	}

	total, err := r.Count(ctx, f)
	if err != nil {
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

// Count returns the number of runs matching f.
func (r *RunRepository) Count(ctx context.Context, f runs.Filter) (int64, error) {
	where, args := whereClause(f)
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM engine_runs"+where, args...).Scan(&n)
	return n, err
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
		conds = append(conds, "image_path LIKE ?")
		args = append(args, "%"+escapeLikePattern(f.Image)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*runs.Run, error) {
	var run runs.Run
	if err := row.Scan(
		&run.ID, &run.StartedAt, &run.Engine, &run.Plugin, &run.ImagePath, &run.Mode, &run.Status,
		&run.ExitCode, &run.RecordCount, &run.DurationMS,
		&run.OutputFile, &run.CSVFile, &run.DumpDir, &run.Error,
	); err != nil {
		return nil, err
	}
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
