package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/tablescrape"
)

// Result summarizes a successful scrape.
type Result struct {
	Path     string
	Rows     int
	Attempts int
	Pages    int
}

// Session scrapes one dataset: it acquires and extracts the table with
// bounded retries, writes it once as a complete unit and records the run.
type Session struct {
	Dataset   *tablescrape.Dataset
	Factory   tablescrape.FetcherFactory
	Extractor tablescrape.TableExtractor
	Writer    tablescrape.TableWriter

	// Diagnostics receives every fetched document when set.
	Diagnostics tablescrape.DiagnosticSink

	// Runs records the outcome when set.
	Runs tablescrape.RunService

	Logger *slog.Logger
	Now    func() time.Time
}

// Run executes the session. Nothing is written unless a complete table was
// extracted.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	ds := s.Dataset
	if ds == nil {
		return nil, tablescrape.Errorf(tablescrape.EINVALID, "dataset required")
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if s.Factory == nil || s.Extractor == nil || s.Writer == nil {
		return nil, tablescrape.Errorf(tablescrape.EINVALID, "session requires a fetcher factory, extractor and writer")
	}

	logger := s.logger().With("dataset", s.name(), "url", ds.URL)
	started := s.now()

	exec := &Executor{
		MaxRetries: ds.MaxRetries,
		Backoff:    ds.BackoffSchedule(),
		Logger:     logger,
	}

	pages := 0
	attempt := func(ctx context.Context, f tablescrape.Fetcher) (*tablescrape.Table, error) {
		pages = 0
		if ds.Paginate {
			table, state, err := s.collect(ctx, f, logger)
			pages = state.Page
			return table, err
		}
		table, err := s.fetchOnce(ctx, f, logger)
		if err == nil {
			pages = 1
		}
		return table, err
	}

	table, attempts, err := exec.Execute(ctx, s.Factory, attempt)
	res := &Result{Attempts: attempts, Pages: pages}
	if err == nil {
		res.Rows = len(table.Rows)
		res.Path, err = s.Writer.WriteTable(ctx, ds.Prefix, table)
	}
	s.record(ctx, res, started, err, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("scrape complete",
		"path", res.Path,
		"rows", res.Rows,
		"pages", res.Pages,
		"attempts", res.Attempts,
	)
	return res, nil
}

func (s *Session) fetchOnce(ctx context.Context, f tablescrape.Fetcher, logger *slog.Logger) (*tablescrape.Table, error) {
	res, err := f.Fetch(ctx, s.Dataset.URL)
	if err != nil {
		return nil, err
	}
	s.diagnose(ctx, res, logger)
	return s.Extractor.ExtractTable(res.Content)
}

func (s *Session) collect(ctx context.Context, f tablescrape.Fetcher, logger *slog.Logger) (*tablescrape.Table, tablescrape.PaginationState, error) {
	ds := s.Dataset
	pf, ok := f.(tablescrape.PagedFetcher)
	if !ok {
		return nil, tablescrape.PaginationState{}, tablescrape.Errorf(tablescrape.EINVALID, "fetcher does not support pagination")
	}

	pager, err := pf.Open(ctx, ds.URL)
	if err != nil {
		return nil, tablescrape.PaginationState{}, err
	}
	defer pager.Close()

	extractor := s.Extractor
	if s.Diagnostics != nil {
		extractor = &diagnosingExtractor{session: s, ctx: ctx, logger: logger, next: s.Extractor}
	}
	p := &Paginator{
		Extractor: extractor,
		PageSize:  ds.PageSize,
		MaxPages:  ds.MaxPages,
		Logger:    logger,
	}
	return p.Collect(ctx, pager)
}

// diagnose writes the fetched document to the diagnostic sink. Failures are
// logged and never fail the session.
func (s *Session) diagnose(ctx context.Context, res *tablescrape.FetchResult, logger *slog.Logger) {
	if s.Diagnostics == nil {
		return
	}
	path, err := s.Diagnostics.WriteDiagnostic(ctx, s.Dataset.Prefix, res)
	if err != nil {
		logger.Warn("writing diagnostic", "err", err)
		return
	}
	logger.Debug("diagnostic written", "path", path)
}

func (s *Session) record(ctx context.Context, res *Result, started time.Time, err error, logger *slog.Logger) {
	if s.Runs == nil {
		return
	}
	run := &tablescrape.Run{
		Dataset:    s.name(),
		URL:        s.Dataset.URL,
		Strategy:   s.Dataset.Strategy,
		Attempts:   res.Attempts,
		Pages:      res.Pages,
		Rows:       res.Rows,
		FilePath:   res.Path,
		Status:     tablescrape.RunSucceeded,
		StartedAt:  started,
		FinishedAt: s.now(),
	}
	if err != nil {
		run.Status = tablescrape.RunFailed
		run.Error = err.Error()
		run.Rows = 0
	}
	// The session outcome does not depend on the history write.
	if rerr := s.Runs.CreateRun(context.WithoutCancel(ctx), run); rerr != nil {
		logger.Warn("recording run", "err", rerr)
	}
}

func (s *Session) name() string {
	if s.Dataset.Name != "" {
		return s.Dataset.Name
	}
	return s.Dataset.Prefix
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *Session) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// diagnosingExtractor passes each paginated document to the diagnostic sink
// before extraction.
type diagnosingExtractor struct {
	session *Session
	ctx     context.Context
	logger  *slog.Logger
	next    tablescrape.TableExtractor
}

func (e *diagnosingExtractor) ExtractTable(html string) (*tablescrape.Table, error) {
	e.session.diagnose(e.ctx, &tablescrape.FetchResult{
		URL:       e.session.Dataset.URL,
		Content:   html,
		FetchedAt: e.session.now(),
	}, e.logger)
	return e.next.ExtractTable(html)
}
