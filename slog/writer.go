package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/tablescrape"
)

// Ensure LoggingTableWriter implements tablescrape.TableWriter.
var _ tablescrape.TableWriter = (*LoggingTableWriter)(nil)

// LoggingTableWriter wraps a TableWriter with logging.
type LoggingTableWriter struct {
	next   tablescrape.TableWriter
	logger *slog.Logger
}

// NewLoggingTableWriter creates a new LoggingTableWriter.
func NewLoggingTableWriter(next tablescrape.TableWriter, logger *slog.Logger) *LoggingTableWriter {
	return &LoggingTableWriter{next: next, logger: logger}
}

// WriteTable delegates to the wrapped writer and logs the operation.
func (w *LoggingTableWriter) WriteTable(ctx context.Context, prefix string, table *tablescrape.Table) (path string, err error) {
	defer func(begin time.Time) {
		var rows int
		if table != nil {
			rows = len(table.Rows)
		}
		w.logger.Info("write table",
			"path", path,
			"rows", rows,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.WriteTable(ctx, prefix, table)
}
