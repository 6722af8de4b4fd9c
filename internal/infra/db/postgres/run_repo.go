package postgres

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
  id           TEXT        PRIMARY KEY,
  started_at   TIMESTAMPTZ NOT NULL,
  engine       TEXT        NOT NULL,
  plugin       TEXT        NOT NULL,
  image_path   TEXT        NOT NULL,
  mode         TEXT        NOT NULL,
  status       TEXT        NOT NULL,
  exit_code    INTEGER     NOT NULL DEFAULT 0,
  record_count INTEGER     NOT NULL DEFAULT 0,
  duration_ms  BIGINT      NOT NULL DEFAULT 0,
  output_file  TEXT        NOT NULL DEFAULT '',
  csv_file     TEXT        NOT NULL DEFAULT '',
  dump_dir     TEXT        NOT NULL DEFAULT '',
  error        TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_engine_runs_started ON engine_runs (started_at DESC);
CREATE INDEX IF NOT EXISTS idx_engine_runs_plugin ON engine_runs (engine, plugin);`

const selectRun = `
SELECT id, started_at, engine, plugin, image_path, mode, status,
       exit_code, record_count, duration_ms,
       output_file, csv_file, dump_dir, error
FROM engine_runs`

type RunRepository struct{ db *sql.DB }

func NewRunRepository(db *sql.DB) *RunRepository { return &RunRepository{db: db} }

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
VALUES ($1,$2,$3,$4,$5,$6,$7,
        $8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 exit_code = EXCLUDED.exit_code,
 record_count = EXCLUDED.record_count,
 duration_ms = EXCLUDED.duration_ms,
 output_file = EXCLUDED.output_file,
 csv_file = EXCLUDED.csv_file,
 dump_dir = EXCLUDED.dump_dir,
 error = EXCLUDED.error;`

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		string(run.ID), started, stringOrDash(string(run.Engine)), stringOrDash(run.Plugin), run.ImagePath,
		string(run.Mode), stringOrDash(string(run.Status)),
		run.ExitCode, run.RecordCount, run.DurationMS,
		run.OutputFile, run.CSVFile, run.DumpDir, run.Error,
	)
	return err
}

// Get by ID. Returns (nil, nil) when the run does not exist.
func (r *RunRepository) Get(ctx context.Context, id runs.RunID) (*runs.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, selectRun+"\nWHERE id=$1\nLIMIT 1;", string(id)))
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
	rows, err := r.db.QueryContext(ctx, selectRun+"\nORDER BY started_at DESC, id DESC\nLIMIT $1;", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

func (r *RunRepository) Summary(ctx context.Context, since time.Time) (runs.Summary, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'success'),
       COUNT(*) FILTER (WHERE status = 'timed_out')
FROM engine_runs
WHERE started_at >= $1;`
	var s runs.Summary
	if err := r.db.QueryRowContext(ctx, q, since).Scan(&s.Total, &s.Succeeded, &s.TimedOut); err != nil {
		return runs.Summary{}, err
	}
	s.Failed = s.Total - s.Succeeded
	return s, nil
}

// Paginate with offset + limit
func (r *RunRepository) Paginate(ctx context.Context, page, pageSize int, f runs.Filter) (runs.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	where, args := whereClause(f)
	next := len(args) + 1
	query := selectRun + where + fmt.Sprintf("\n ORDER BY started_at DESC, id DESC LIMIT $%d OFFSET $%d", next, next+1)
	rows, err := r.db.QueryContext(ctx, query, append(args, pageSize, offset)...)
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

// whereClause numbers placeholders from $1.
func whereClause(f runs.Filter) (string, []any) {
	var conds []string
	var args []any
	next := 1
	add := func(cond string, v any) {
		conds = append(conds, fmt.Sprintf(cond, next))
		args = append(args, v)
		next++
	}
	if f.Engine != "" {
		add("engine = $%d", f.Engine)
	}
	if f.Plugin != "" {
		add("plugin = $%d", f.Plugin)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Image != "" {
		add(`image_path ILIKE $%d ESCAPE '\'`, "%"+escapeLikePattern(f.Image)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func scanRun(row interface{ Scan(...any) error }) (*runs.Run, error) {
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
