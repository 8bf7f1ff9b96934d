package sqlite

import (
	"strings"
	"time"

	"github.com/fwojciec/tablescrape"
)

// timeLayout is a fixed-width UTC timestamp, so text ordering matches time
// ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a timestamp written by formatTime. column names the
// source in the error.
func parseTime(value, column string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, tablescrape.Wrapf(err, tablescrape.EINTERNAL, "corrupt %s %q", column, value)
	}
	return t, nil
}

// appendPagination appends LIMIT and OFFSET clauses. SQLite only accepts
// OFFSET after a LIMIT, so an offset alone gets LIMIT -1 (no limit).
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	switch {
	case limit > 0:
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	case offset > 0:
		query.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}
