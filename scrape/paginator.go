package scrape

import (
	"context"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/tablescrape"
)

// Paginator accumulates the rows of every page of a paginated result set.
type Paginator struct {
	Extractor tablescrape.TableExtractor

	// PageSize is applied before the first page is read. Zero keeps the
	// page's own default.
	PageSize int

	// MaxPages bounds the traversal. Defaults to tablescrape.DefaultMaxPages.
	MaxPages int

	Logger *slog.Logger
}

// Collect reads the current page, follows the next control until it is absent
// or disabled, and returns one table holding the headers of the first page
// and the rows of all pages in order.
//
// A page whose rows are identical to the previous page, or a traversal that
// would exceed MaxPages, fails with EPAGINATIONSTALLED.
func (p *Paginator) Collect(ctx context.Context, pager tablescrape.Pager) (*tablescrape.Table, tablescrape.PaginationState, error) {
	state := tablescrape.PaginationState{PageSize: p.PageSize}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = tablescrape.DefaultMaxPages
	}

	if p.PageSize > 0 {
		if err := pager.SetPageSize(ctx, p.PageSize); err != nil {
			return nil, state, err
		}
	}

	var table *tablescrape.Table
	var prev uint64
	for {
		if err := ctx.Err(); err != nil {
			return nil, state, err
		}

		html, err := pager.HTML(ctx)
		if err != nil {
			return nil, state, err
		}
		page, err := p.Extractor.ExtractTable(html)
		if err != nil {
			return nil, state, tablescrape.Wrapf(err, tablescrape.ErrorCode(err), "page %d", state.Page+1)
		}
		state.Page++

		fp := fingerprint(page.Rows)
		if state.Page > 1 && fp == prev {
			return nil, state, tablescrape.Errorf(tablescrape.EPAGINATIONSTALLED,
				"page %d repeats the rows of page %d", state.Page, state.Page-1)
		}
		prev = fp

		if table == nil {
			table = &tablescrape.Table{Headers: page.Headers}
		}
		table.Rows = append(table.Rows, page.Rows...)
		logger.Debug("page collected", "page", state.Page, "rows", len(page.Rows), "total", len(table.Rows))

		hasNext, err := pager.Next(ctx)
		if err != nil {
			return nil, state, err
		}
		state.HasNext = hasNext
		if !hasNext {
			return table, state, nil
		}
		if state.Page >= maxPages {
			return nil, state, tablescrape.Errorf(tablescrape.EPAGINATIONSTALLED,
				"pagination exceeded %d pages", maxPages)
		}
	}
}

// fingerprint hashes the cell contents of rows. Unit and record separators
// keep ["ab"] and ["a", "b"] distinct.
func fingerprint(rows []tablescrape.Row) uint64 {
	d := xxhash.New()
	for _, row := range rows {
		for _, cell := range row {
			_, _ = d.WriteString(cell)
			_, _ = d.Write([]byte{0x1f})
		}
		_, _ = d.Write([]byte{0x1e})
	}
	return d.Sum64()
}
