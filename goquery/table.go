// Package goquery implements table location and extraction over parsed HTML
// documents using goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/tablescrape"
)

// Ensure TableParser implements tablescrape.TableExtractor at compile time.
var _ tablescrape.TableExtractor = (*TableParser)(nil)

// ClassMarker converts a class attribute value into a table marker.
// A single class matches any table carrying that class. Several
// space-separated classes must match the attribute exactly, which keeps a
// long, specific marker from also matching a generic sibling table.
func ClassMarker(classes string) string {
	fields := strings.Fields(classes)
	switch len(fields) {
	case 0:
		return "table"
	case 1:
		return "table." + fields[0]
	}
	return `table[class="` + strings.Join(fields, " ") + `"]`
}

// Locate returns the first table matched by markers, tried in order.
// A marker may select the table itself or a container, in which case the
// first table inside the container is used. When no marker matches and
// fallback is set, the first table in the document is returned; otherwise
// Locate fails with ETABLENOTFOUND.
func Locate(doc *goquery.Document, markers []string, fallback bool) (*goquery.Selection, error) {
	for _, marker := range markers {
		if table := firstTable(doc.Find(marker)); table != nil {
			return table, nil
		}
	}

	if fallback {
		if table := doc.Find("table").First(); table.Length() > 0 {
			return table, nil
		}
	}

	return nil, tablescrape.Errorf(tablescrape.ETABLENOTFOUND, "no table matched %d candidate markers", len(markers))
}

// firstTable returns the first table element in sel, descending into
// non-table matches. Returns nil if there is none.
func firstTable(sel *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == "table" {
			found = s
			return false
		}
		if inner := s.Find("table").First(); inner.Length() > 0 {
			found = inner
			return false
		}
		return true
	})
	return found
}

// Extract reads headers from the table's head section and rows from its
// body section. Cell text is whitespace-trimmed. Rows without data cells are
// skipped as spacer rows. Rows may differ in length from the headers unless
// strict is set, in which case such a row fails with EMALFORMED.
func Extract(table *goquery.Selection, strict bool) (*tablescrape.Table, error) {
	head := table.Find("thead").First()
	if head.Length() == 0 {
		return nil, tablescrape.Errorf(tablescrape.ENOHEADERS, "table has no head section")
	}

	var headers []string
	head.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})
	if len(headers) == 0 {
		return nil, tablescrape.Errorf(tablescrape.ENOHEADERS, "table head has no header cells")
	}

	body := table.Find("tbody").First()
	if body.Length() == 0 {
		return nil, tablescrape.Errorf(tablescrape.ENOROWS, "table has no body section")
	}

	var rows []tablescrape.Row
	var malformed error
	body.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		var row tablescrape.Row
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		if len(row) == 0 {
			return true
		}
		if strict && len(row) != len(headers) {
			malformed = tablescrape.Errorf(tablescrape.EMALFORMED, "row %d has %d cells, want %d", i, len(row), len(headers))
			return false
		}
		rows = append(rows, row)
		return true
	})
	if malformed != nil {
		return nil, malformed
	}
	if len(rows) == 0 {
		return nil, tablescrape.Errorf(tablescrape.ENOROWS, "table body has no data rows")
	}

	return &tablescrape.Table{Headers: headers, Rows: rows}, nil
}

// TableParser locates and extracts a table from raw HTML.
type TableParser struct {
	markers  []string
	fallback bool
	strict   bool
}

// ParserOption configures a TableParser.
type ParserOption func(*TableParser)

// WithFallback makes the parser use the first table in the document when no
// marker matches.
func WithFallback(enabled bool) ParserOption {
	return func(p *TableParser) {
		p.fallback = enabled
	}
}

// WithStrict makes the parser reject rows whose length differs from the
// header count.
func WithStrict(enabled bool) ParserOption {
	return func(p *TableParser) {
		p.strict = enabled
	}
}

// NewTableParser creates a TableParser that tries markers in order.
func NewTableParser(markers []string, opts ...ParserOption) *TableParser {
	p := &TableParser{markers: markers}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExtractTable parses html, locates the target table and extracts it.
func (p *TableParser) ExtractTable(html string) (*tablescrape.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, tablescrape.Wrapf(err, tablescrape.ETABLENOTFOUND, "failed to parse HTML")
	}

	table, err := Locate(doc, p.markers, p.fallback)
	if err != nil {
		return nil, err
	}

	return Extract(table, p.strict)
}
