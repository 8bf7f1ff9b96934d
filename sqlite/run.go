package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/tablescrape"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ tablescrape.RunService = (*RunService)(nil)

// RunService implements tablescrape.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun stores a run and assigns its ID.
func (s *RunService) CreateRun(ctx context.Context, run *tablescrape.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, dataset, url, strategy, attempts, pages, row_count, file_path, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Dataset, run.URL, string(run.Strategy), run.Attempts, run.Pages, run.Rows,
		run.FilePath, string(run.Status), run.Error,
		formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		return tablescrape.Wrapf(err, tablescrape.EIO, "failed to insert run")
	}
	return nil
}

// FindRuns returns runs matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter tablescrape.RunFilter) ([]*tablescrape.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, dataset, url, strategy, attempts, pages, row_count, file_path, status, error, started_at, finished_at
		FROM runs WHERE 1=1`)

	if filter.Dataset != nil {
		query.WriteString(" AND dataset = ?")
		args = append(args, *filter.Dataset)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, tablescrape.Wrapf(err, tablescrape.EIO, "failed to query runs")
	}
	defer rows.Close()

	var runs []*tablescrape.Run
	for rows.Next() {
		var run tablescrape.Run
		var strategy, status, startedAt, finishedAt string

		if err := rows.Scan(&run.ID, &run.Dataset, &run.URL, &strategy, &run.Attempts, &run.Pages, &run.Rows,
			&run.FilePath, &status, &run.Error, &startedAt, &finishedAt); err != nil {
			return nil, tablescrape.Wrapf(err, tablescrape.EIO, "failed to scan run")
		}
		run.Strategy = tablescrape.Strategy(strategy)
		run.Status = tablescrape.RunStatus(status)

		if run.StartedAt, err = parseTime(startedAt, "started_at"); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTime(finishedAt, "finished_at"); err != nil {
			return nil, err
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
