// Package scrape orchestrates a table scrape: bounded retries with fresh
// fetchers, pagination and the write of the final table.
package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/tablescrape"
)

// AttemptFunc performs one acquisition and extraction with a fresh fetcher.
type AttemptFunc func(ctx context.Context, f tablescrape.Fetcher) (*tablescrape.Table, error)

// Executor runs an attempt up to MaxRetries times. Every attempt gets a new
// Fetcher from the factory, and that Fetcher is closed before the next
// attempt starts, whatever the outcome.
type Executor struct {
	// MaxRetries is the total number of attempts.
	MaxRetries int

	// Backoff is the wait after each failed attempt. The last entry repeats.
	// An empty schedule means no wait.
	Backoff []time.Duration

	Logger *slog.Logger
}

// Execute returns the table produced by the first successful attempt and the
// number of attempts made. Non-retryable errors are returned immediately.
// When every attempt fails the error carries EEXHAUSTED and wraps the last
// cause.
func (e *Executor) Execute(ctx context.Context, factory tablescrape.FetcherFactory, attempt AttemptFunc) (*tablescrape.Table, int, error) {
	if e.MaxRetries < 1 {
		return nil, 0, tablescrape.Errorf(tablescrape.EINVALID, "max retries must be at least 1")
	}
	logger := e.logger()

	var lastErr error
	for i := 0; i < e.MaxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, i, err
		}

		n := i + 1
		table, err := e.try(ctx, factory, attempt, logger)
		if err == nil {
			logger.Debug("attempt succeeded", "attempt", n, "max", e.MaxRetries)
			return table, n, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, n, ctxErr
		}
		if !tablescrape.Retryable(err) {
			logger.Error("attempt failed", "attempt", n, "max", e.MaxRetries, "err", err)
			return nil, n, err
		}
		if n == e.MaxRetries {
			logger.Warn("attempt failed", "attempt", n, "max", e.MaxRetries, "err", err)
			break
		}

		wait := e.backoff(i)
		logger.Warn("attempt failed", "attempt", n, "max", e.MaxRetries, "err", err, "backoff", wait)
		if err := sleep(ctx, wait); err != nil {
			return nil, n, err
		}
	}

	return nil, e.MaxRetries, tablescrape.Wrapf(lastErr, tablescrape.EEXHAUSTED,
		"all %d attempts failed", e.MaxRetries)
}

// try runs a single attempt. The fetcher is closed on every exit path,
// including a panic inside the attempt.
func (e *Executor) try(ctx context.Context, factory tablescrape.FetcherFactory, attempt AttemptFunc, logger *slog.Logger) (table *tablescrape.Table, err error) {
	f, err := factory(ctx)
	if err != nil {
		if tablescrape.ErrorCode(err) == tablescrape.EINTERNAL {
			return nil, tablescrape.Wrapf(err, tablescrape.EAUTOMATION, "creating fetcher")
		}
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = tablescrape.Errorf(tablescrape.EINTERNAL, "attempt panicked: %v", r)
		}
		if cerr := f.Close(); cerr != nil {
			logger.Warn("closing fetcher", "err", cerr)
		}
	}()

	return attempt(ctx, f)
}

func (e *Executor) backoff(i int) time.Duration {
	if len(e.Backoff) == 0 {
		return 0
	}
	if i >= len(e.Backoff) {
		return e.Backoff[len(e.Backoff)-1]
	}
	return e.Backoff[i]
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
