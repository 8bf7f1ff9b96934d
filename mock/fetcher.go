package mock

import (
	"context"

	"github.com/fwojciec/tablescrape"
)

var _ tablescrape.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of tablescrape.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*tablescrape.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*tablescrape.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ tablescrape.PagedFetcher = (*PagedFetcher)(nil)

// PagedFetcher is a mock implementation of tablescrape.PagedFetcher.
type PagedFetcher struct {
	FetchFn func(ctx context.Context, url string) (*tablescrape.FetchResult, error)
	OpenFn  func(ctx context.Context, url string) (tablescrape.Pager, error)
	CloseFn func() error
}

func (f *PagedFetcher) Fetch(ctx context.Context, url string) (*tablescrape.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

func (f *PagedFetcher) Open(ctx context.Context, url string) (tablescrape.Pager, error) {
	return f.OpenFn(ctx, url)
}

func (f *PagedFetcher) Close() error {
	return f.CloseFn()
}

var _ tablescrape.Pager = (*Pager)(nil)

// Pager is a mock implementation of tablescrape.Pager.
type Pager struct {
	HTMLFn        func(ctx context.Context) (string, error)
	SetPageSizeFn func(ctx context.Context, size int) error
	NextFn        func(ctx context.Context) (bool, error)
	CloseFn       func() error
}

func (p *Pager) HTML(ctx context.Context) (string, error) {
	return p.HTMLFn(ctx)
}

func (p *Pager) SetPageSize(ctx context.Context, size int) error {
	return p.SetPageSizeFn(ctx, size)
}

func (p *Pager) Next(ctx context.Context) (bool, error) {
	return p.NextFn(ctx)
}

func (p *Pager) Close() error {
	return p.CloseFn()
}

var _ tablescrape.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of tablescrape.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

var _ tablescrape.DiagnosticSink = (*DiagnosticSink)(nil)

// DiagnosticSink is a mock implementation of tablescrape.DiagnosticSink.
type DiagnosticSink struct {
	WriteDiagnosticFn func(ctx context.Context, prefix string, result *tablescrape.FetchResult) (string, error)
}

func (s *DiagnosticSink) WriteDiagnostic(ctx context.Context, prefix string, result *tablescrape.FetchResult) (string, error) {
	return s.WriteDiagnosticFn(ctx, prefix, result)
}
