package tablescrape

import (
	"context"
	"time"
)

// FetchResult is a raw document obtained from a URL.
type FetchResult struct {
	URL        string
	StatusCode int
	Content    string
	FetchedAt  time.Time
}

// Fetcher retrieves a raw document for a URL.
// Implementations either issue a single HTTP request or drive a scripted
// browser that executes page scripts before the document is captured.
type Fetcher interface {
	// Fetch returns the document at url.
	// Failures carry ETRANSPORT, ETIMEOUT or EAUTOMATION.
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases every resource owned by the fetcher.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// FetcherFactory builds a fresh Fetcher. It is called once per attempt so
// that no cookies, profile locks or connections leak between attempts.
type FetcherFactory func(ctx context.Context) (Fetcher, error)

// PagedFetcher is a Fetcher that can keep a rendered document open and walk
// through a multi-page result set.
type PagedFetcher interface {
	Fetcher

	// Open navigates to url, waits for the content to be ready and returns
	// a Pager positioned on the first page. The Pager must be closed.
	Open(ctx context.Context, url string) (Pager, error)
}

// Pager controls a live, paginated result set.
type Pager interface {
	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// SetPageSize selects the page size control, applies the filter and
	// waits for the rows to refresh.
	SetPageSize(ctx context.Context, size int) error

	// Next activates the "next" control and waits for the rows to refresh.
	// It returns false without error when the control is absent or disabled.
	Next(ctx context.Context) (bool, error)

	// Close releases the underlying page.
	Close() error
}

// PaginationState tracks the traversal of one paginated result set.
type PaginationState struct {
	Page     int
	HasNext  bool
	PageSize int
}

// DomainLimiter throttles requests per domain.
type DomainLimiter interface {
	// Wait blocks until a request to domain is allowed.
	Wait(ctx context.Context, domain string) error
}

// DiagnosticSink persists raw fetched documents for offline inspection.
type DiagnosticSink interface {
	WriteDiagnostic(ctx context.Context, prefix string, result *FetchResult) (path string, err error)
}
