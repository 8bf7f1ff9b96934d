package mock

import (
	"context"

	"github.com/fwojciec/tablescrape"
)

var _ tablescrape.RunService = (*RunService)(nil)

// RunService is a mock implementation of tablescrape.RunService.
type RunService struct {
	CreateRunFn func(ctx context.Context, run *tablescrape.Run) error
	FindRunsFn  func(ctx context.Context, filter tablescrape.RunFilter) ([]*tablescrape.Run, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *tablescrape.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FindRuns(ctx context.Context, filter tablescrape.RunFilter) ([]*tablescrape.Run, error) {
	return s.FindRunsFn(ctx, filter)
}
