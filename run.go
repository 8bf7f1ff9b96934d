package tablescrape

import (
	"context"
	"time"
)

// RunStatus is the outcome of a scrape session.
type RunStatus string

// RunStatus constants.
const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run records the outcome of one scrape session.
type Run struct {
	ID         string    `json:"id"`
	Dataset    string    `json:"dataset"`
	URL        string    `json:"url"`
	Strategy   Strategy  `json:"strategy"`
	Attempts   int       `json:"attempts"`
	Pages      int       `json:"pages"`
	Rows       int       `json:"rows"`
	FilePath   string    `json:"filePath"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.Dataset == "" {
		return Errorf(EINVALID, "run dataset required")
	}
	if r.URL == "" {
		return Errorf(EINVALID, "run URL required")
	}
	if r.Status != RunSucceeded && r.Status != RunFailed {
		return Errorf(EINVALID, "unknown run status %q", r.Status)
	}
	return nil
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	Dataset *string    `json:"dataset"`
	Status  *RunStatus `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RunService records scrape sessions.
type RunService interface {
	// CreateRun stores a new run and assigns its ID.
	CreateRun(ctx context.Context, run *Run) error

	// FindRuns returns runs matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
}
