package mock

import (
	"context"

	"github.com/fwojciec/tablescrape"
)

var _ tablescrape.TableExtractor = (*TableExtractor)(nil)

// TableExtractor is a mock implementation of tablescrape.TableExtractor.
type TableExtractor struct {
	ExtractTableFn func(html string) (*tablescrape.Table, error)
}

func (e *TableExtractor) ExtractTable(html string) (*tablescrape.Table, error) {
	return e.ExtractTableFn(html)
}

var _ tablescrape.TableWriter = (*TableWriter)(nil)

// TableWriter is a mock implementation of tablescrape.TableWriter.
type TableWriter struct {
	WriteTableFn func(ctx context.Context, prefix string, table *tablescrape.Table) (string, error)
}

func (w *TableWriter) WriteTable(ctx context.Context, prefix string, table *tablescrape.Table) (string, error) {
	return w.WriteTableFn(ctx, prefix, table)
}
