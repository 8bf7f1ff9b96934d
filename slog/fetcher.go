// Package slog provides logging decorators for tablescrape services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/tablescrape"
)

// Ensure LoggingFetcher implements tablescrape.PagedFetcher.
var _ tablescrape.PagedFetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   tablescrape.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next tablescrape.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (res *tablescrape.FetchResult, err error) {
	defer func(begin time.Time) {
		var bytes, status int
		if res != nil {
			bytes, status = len(res.Content), res.StatusCode
		}
		f.logger.Info("fetch",
			"url", url,
			"status", status,
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Open delegates to the wrapped fetcher when it supports pagination.
func (f *LoggingFetcher) Open(ctx context.Context, url string) (pager tablescrape.Pager, err error) {
	pf, ok := f.next.(tablescrape.PagedFetcher)
	if !ok {
		return nil, tablescrape.Errorf(tablescrape.EINVALID, "fetcher does not support pagination")
	}
	defer func(begin time.Time) {
		f.logger.Info("open",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	p, err := pf.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewLoggingPager(p, f.logger), nil
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// Ensure LoggingPager implements tablescrape.Pager.
var _ tablescrape.Pager = (*LoggingPager)(nil)

// LoggingPager wraps a Pager with debug logging.
type LoggingPager struct {
	next   tablescrape.Pager
	logger *slog.Logger
}

// NewLoggingPager creates a new LoggingPager.
func NewLoggingPager(next tablescrape.Pager, logger *slog.Logger) *LoggingPager {
	return &LoggingPager{next: next, logger: logger}
}

// HTML delegates to the wrapped pager.
func (p *LoggingPager) HTML(ctx context.Context) (string, error) {
	return p.next.HTML(ctx)
}

// SetPageSize logs the requested size and delegates to the wrapped pager.
func (p *LoggingPager) SetPageSize(ctx context.Context, size int) (err error) {
	defer func(begin time.Time) {
		p.logger.Debug("set page size",
			"size", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.SetPageSize(ctx, size)
}

// Next logs whether another page was reached and delegates to the wrapped pager.
func (p *LoggingPager) Next(ctx context.Context) (ok bool, err error) {
	defer func(begin time.Time) {
		p.logger.Debug("next page",
			"ok", ok,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Next(ctx)
}

// Close delegates to the wrapped pager.
func (p *LoggingPager) Close() error {
	return p.next.Close()
}
