package fs

import (
	"context"
	"time"

	"github.com/fwojciec/tablescrape"
)

// Ensure DiagnosticWriter implements tablescrape.DiagnosticSink at compile time.
var _ tablescrape.DiagnosticSink = (*DiagnosticWriter)(nil)

// DiagnosticWriter saves raw fetched documents as HTML files so a failed
// extraction can be inspected offline.
type DiagnosticWriter struct {
	dir string
	now func() time.Time
}

// NewDiagnosticWriter creates a new DiagnosticWriter that writes to dir.
func NewDiagnosticWriter(dir string, opts ...WriterOption) *DiagnosticWriter {
	c := newWriterConfig(opts)
	return &DiagnosticWriter{dir: dir, now: c.now}
}

// WriteDiagnostic writes the document content to <prefix>_<timestamp>.html.
func (w *DiagnosticWriter) WriteDiagnostic(ctx context.Context, prefix string, result *tablescrape.FetchResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := createUnique(w.dir, prefix, w.now(), ".html")
	if err != nil {
		return "", err
	}

	if _, err := f.WriteString(result.Content); err != nil {
		f.Close()
		return "", tablescrape.Wrapf(err, tablescrape.EIO, "failed to write %s", f.Name())
	}
	if err := f.Close(); err != nil {
		return "", tablescrape.Wrapf(err, tablescrape.EIO, "failed to close %s", f.Name())
	}

	return f.Name(), nil
}
