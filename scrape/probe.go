package scrape

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fwojciec/tablescrape"
)

// Ensure ProbeFetcher implements tablescrape.PagedFetcher at compile time.
var _ tablescrape.PagedFetcher = (*ProbeFetcher)(nil)

// ProbeFetcher tries a plain HTTP fetch first and falls back to a rendered
// fetch when the static document does not contain an extractable table.
//
// The rendered fetcher is only created when needed and is owned by the
// ProbeFetcher, so one ProbeFetcher still maps to at most one browser.
type ProbeFetcher struct {
	static    tablescrape.Fetcher
	newRender tablescrape.FetcherFactory
	extractor tablescrape.TableExtractor
	logger    *slog.Logger

	rendered tablescrape.Fetcher
}

// NewProbeFetcher returns a ProbeFetcher. The static fetcher is closed
// together with the ProbeFetcher.
func NewProbeFetcher(static tablescrape.Fetcher, rendered tablescrape.FetcherFactory, extractor tablescrape.TableExtractor, logger *slog.Logger) *ProbeFetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProbeFetcher{
		static:    static,
		newRender: rendered,
		extractor: extractor,
		logger:    logger,
	}
}

// Fetch returns the static document when the table can be extracted from it,
// otherwise the rendered document.
func (p *ProbeFetcher) Fetch(ctx context.Context, url string) (*tablescrape.FetchResult, error) {
	res, err := p.static.Fetch(ctx, url)
	if err == nil {
		_, xerr := p.extractor.ExtractTable(res.Content)
		if xerr == nil {
			p.logger.Debug("probe chose static document", "url", url)
			return res, nil
		}
		p.logger.Debug("static document has no usable table", "url", url, "err", xerr)
	} else {
		if ctx.Err() != nil {
			return nil, err
		}
		p.logger.Debug("static fetch failed", "url", url, "err", err)
	}

	r, err := p.renderer(ctx)
	if err != nil {
		return nil, err
	}
	return r.Fetch(ctx, url)
}

// Open always uses the rendered fetcher: pagination needs a live page.
func (p *ProbeFetcher) Open(ctx context.Context, url string) (tablescrape.Pager, error) {
	r, err := p.renderer(ctx)
	if err != nil {
		return nil, err
	}
	pf, ok := r.(tablescrape.PagedFetcher)
	if !ok {
		return nil, tablescrape.Errorf(tablescrape.EINVALID, "rendered fetcher does not support pagination")
	}
	return pf.Open(ctx, url)
}

// Close closes the static fetcher and the rendered fetcher if one was created.
func (p *ProbeFetcher) Close() error {
	var errs []error
	if err := p.static.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.rendered != nil {
		if err := p.rendered.Close(); err != nil {
			errs = append(errs, err)
		}
		p.rendered = nil
	}
	return errors.Join(errs...)
}

func (p *ProbeFetcher) renderer(ctx context.Context) (tablescrape.Fetcher, error) {
	if p.rendered != nil {
		return p.rendered, nil
	}
	r, err := p.newRender(ctx)
	if err != nil {
		return nil, err
	}
	p.rendered = r
	return r, nil
}
