package tablescrape

import "context"

// Row is one data row of an extracted table, in document order.
type Row []string

// Table is an extracted data table.
// Rows are not required to have the same length as Headers.
type Table struct {
	Headers []string
	Rows    []Row
}

// Validate returns an error if the table cannot be written as output.
func (t *Table) Validate() error {
	if len(t.Headers) == 0 {
		return Errorf(ENOHEADERS, "table headers required")
	}
	if len(t.Rows) == 0 {
		return Errorf(ENOROWS, "table rows required")
	}
	for i, row := range t.Rows {
		if len(row) == 0 {
			return Errorf(ENOROWS, "table row %d is empty", i)
		}
	}
	return nil
}

// TableExtractor locates the target table in an HTML document and extracts
// its headers and rows.
type TableExtractor interface {
	// ExtractTable fails with ETABLENOTFOUND, ENOHEADERS, ENOROWS or,
	// in strict mode, EMALFORMED.
	ExtractTable(html string) (*Table, error)
}

// TableWriter persists a table as a new, timestamped output file.
type TableWriter interface {
	// WriteTable returns the path of the written file.
	// Failures carry EIO.
	WriteTable(ctx context.Context, prefix string, table *Table) (path string, err error)
}
