// Package fs provides file-based output for extracted tables and raw
// diagnostic documents.
package fs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/tablescrape"
)

// TimestampLayout formats output file timestamps with second precision.
const TimestampLayout = "20060102_150405"

// maxCollisions bounds the numeric suffixes tried when a file name is taken.
const maxCollisions = 100

// FileName returns the output file name for prefix at t.
// Example: FileName("nepal_stock_data", t, ".csv") → nepal_stock_data_20240101_093000.csv
func FileName(prefix string, t time.Time, ext string) string {
	return prefix + "_" + t.Format(TimestampLayout) + ext
}

// Ensure TableWriter implements tablescrape.TableWriter at compile time.
var _ tablescrape.TableWriter = (*TableWriter)(nil)

// TableWriter writes tables as CSV files to a directory.
// Every call creates a new file; existing files are never overwritten.
type TableWriter struct {
	dir string
	now func() time.Time
}

// WriterOption configures a TableWriter or DiagnosticWriter.
type WriterOption func(*writerConfig)

type writerConfig struct {
	now func() time.Time
}

// WithClock sets the clock used to timestamp file names.
func WithClock(now func() time.Time) WriterOption {
	return func(c *writerConfig) {
		c.now = now
	}
}

func newWriterConfig(opts []WriterOption) writerConfig {
	c := writerConfig{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewTableWriter creates a new TableWriter that writes to dir.
func NewTableWriter(dir string, opts ...WriterOption) *TableWriter {
	c := newWriterConfig(opts)
	return &TableWriter{dir: dir, now: c.now}
}

// WriteTable writes the headers followed by every row as UTF-8 CSV.
// The file is not written atomically: a fault mid-write leaves a truncated
// file behind.
func (w *TableWriter) WriteTable(ctx context.Context, prefix string, table *tablescrape.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := table.Validate(); err != nil {
		return "", err
	}

	f, err := createUnique(w.dir, prefix, w.now(), ".csv")
	if err != nil {
		return "", err
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(table.Headers); err != nil {
		f.Close()
		return "", tablescrape.Wrapf(err, tablescrape.EIO, "failed to write headers to %s", f.Name())
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			f.Close()
			return "", tablescrape.Wrapf(err, tablescrape.EIO, "failed to write row to %s", f.Name())
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return "", tablescrape.Wrapf(err, tablescrape.EIO, "failed to flush %s", f.Name())
	}
	if err := f.Close(); err != nil {
		return "", tablescrape.Wrapf(err, tablescrape.EIO, "failed to close %s", f.Name())
	}

	return f.Name(), nil
}

// createUnique creates dir if needed and opens a new file named after prefix
// and t. When the name is taken, a numeric suffix is appended.
func createUnique(dir, prefix string, t time.Time, ext string) (*os.File, error) {
	// MkdirAll succeeds when the directory already exists, so concurrent
	// sessions sharing dir can all call it.
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, tablescrape.Wrapf(err, tablescrape.EIO, "failed to create output directory %s", dir)
	}

	base := FileName(prefix, t, "")
	for i := 0; i < maxCollisions; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, tablescrape.Wrapf(err, tablescrape.EIO, "failed to create %s", path)
		}
		return f, nil
	}

	return nil, tablescrape.Errorf(tablescrape.EIO, "no free file name for %s in %s", base+ext, dir)
}
