package goquery_test

import (
	"strings"
	"testing"

	gq "github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/tablescrape"
	"github.com/fwojciec/tablescrape/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liveMarketClasses = "table table__border table__lg table-striped table__border--bottom table-head-fixed"

func parse(t *testing.T, html string) *gq.Document {
	t.Helper()
	doc, err := gq.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestClassMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		classes string
		want    string
	}{
		{name: "single class", classes: "table", want: "table.table"},
		{name: "multiple classes", classes: "table  table-striped", want: `table[class="table table-striped"]`},
		{name: "empty", classes: "   ", want: "table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, goquery.ClassMarker(tt.classes))
		})
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	t.Run("tries markers most specific first", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><body>
<table class="table" id="generic"><thead><tr><th>A</th></tr></thead></table>
<table class="`+liveMarketClasses+`" id="live"><thead><tr><th>B</th></tr></thead></table>
</body></html>`)

		markers := []string{goquery.ClassMarker(liveMarketClasses), goquery.ClassMarker("table")}
		table, err := goquery.Locate(doc, markers, false)

		require.NoError(t, err)
		id, _ := table.Attr("id")
		assert.Equal(t, "live", id)
	})

	t.Run("falls through to later markers", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<table class="table table-striped" id="striped"></table>`)

		markers := []string{goquery.ClassMarker(liveMarketClasses), goquery.ClassMarker("table table-striped")}
		table, err := goquery.Locate(doc, markers, false)

		require.NoError(t, err)
		id, _ := table.Attr("id")
		assert.Equal(t, "striped", id)
	})

	t.Run("exact class marker does not match superset", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<table class="table table-striped extra"></table>`)

		_, err := goquery.Locate(doc, []string{goquery.ClassMarker("table table-striped")}, false)

		assert.Equal(t, tablescrape.ETABLENOTFOUND, tablescrape.ErrorCode(err))
	})

	t.Run("descends into container markers", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<div id="market"><p>intro</p><table id="inner"></table></div>`)

		table, err := goquery.Locate(doc, []string{"#market"}, false)

		require.NoError(t, err)
		id, _ := table.Attr("id")
		assert.Equal(t, "inner", id)
	})

	t.Run("unrelated tables are not found without fallback", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<table class="calendar"></table><table class="ads"></table>`)

		_, err := goquery.Locate(doc, []string{"table.market", "#live"}, false)

		require.Error(t, err)
		assert.Equal(t, tablescrape.ETABLENOTFOUND, tablescrape.ErrorCode(err))
	})

	t.Run("fallback returns first table", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<table class="calendar" id="first"></table><table class="ads"></table>`)

		table, err := goquery.Locate(doc, []string{"table.market"}, true)

		require.NoError(t, err)
		id, _ := table.Attr("id")
		assert.Equal(t, "first", id)
	})

	t.Run("fallback fails when document has no table", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<div>nothing here</div>`)

		_, err := goquery.Locate(doc, nil, true)

		assert.Equal(t, tablescrape.ETABLENOTFOUND, tablescrape.ErrorCode(err))
	})
}

func TestExtract(t *testing.T) {
	t.Parallel()

	locate := func(t *testing.T, html string) *gq.Selection {
		t.Helper()
		table, err := goquery.Locate(parse(t, html), []string{"table"}, false)
		require.NoError(t, err)
		return table
	}

	t.Run("extracts trimmed headers and rows", func(t *testing.T) {
		t.Parallel()

		table := locate(t, `<table>
<thead><tr><th> Symbol </th><th>LTP</th><th>
	Change %
</th></tr></thead>
<tbody>
<tr><td> NABIL</td><td>1200 </td><td>1.5</td></tr>
<tr><td>ADBL</td><td>350</td><td>-0.2</td></tr>
</tbody>
</table>`)

		got, err := goquery.Extract(table, false)

		require.NoError(t, err)
		assert.Equal(t, []string{"Symbol", "LTP", "Change %"}, got.Headers)
		assert.Equal(t, []tablescrape.Row{
			{"NABIL", "1200", "1.5"},
			{"ADBL", "350", "-0.2"},
		}, got.Rows)
	})

	t.Run("fails without head section", func(t *testing.T) {
		t.Parallel()

		table := locate(t, `<table><tbody><tr><td>1</td></tr></tbody></table>`)

		_, err := goquery.Extract(table, false)

		assert.Equal(t, tablescrape.ENOHEADERS, tablescrape.ErrorCode(err))
	})

	t.Run("fails when head has zero header cells", func(t *testing.T) {
		t.Parallel()

		table := locate(t, `<table><thead><tr><td>not a header</td></tr></thead><tbody><tr><td>1</td></tr></tbody></table>`)

		_, err := goquery.Extract(table, false)

		assert.Equal(t, tablescrape.ENOHEADERS, tablescrape.ErrorCode(err))
	})

	t.Run("fails when every body row has zero cells", func(t *testing.T) {
		t.Parallel()

		table := locate(t, `<table><thead><tr><th>A</th></tr></thead><tbody><tr></tr><tr><th>sub</th></tr></tbody></table>`)

		_, err := goquery.Extract(table, false)

		assert.Equal(t, tablescrape.ENOROWS, tablescrape.ErrorCode(err))
	})

	t.Run("drops spacer rows and keeps ragged rows verbatim", func(t *testing.T) {
		t.Parallel()

		table := locate(t, `<table><thead><tr><th>A</th><th>B</th><th>C</th></tr></thead><tbody>
<tr><td>1</td></tr>
<tr></tr>
<tr><td>1</td><td>2</td><td>3</td><td>4</td></tr>
</tbody></table>`)

		got, err := goquery.Extract(table, false)

		require.NoError(t, err)
		assert.Equal(t, []tablescrape.Row{{"1"}, {"1", "2", "3", "4"}}, got.Rows)
	})

	t.Run("strict mode rejects ragged rows", func(t *testing.T) {
		t.Parallel()

		table := locate(t, `<table><thead><tr><th>A</th><th>B</th></tr></thead><tbody>
<tr><td>1</td><td>2</td></tr>
<tr><td>1</td></tr>
</tbody></table>`)

		_, err := goquery.Extract(table, true)

		assert.Equal(t, tablescrape.EMALFORMED, tablescrape.ErrorCode(err))
		assert.Contains(t, tablescrape.ErrorMessage(err), "has 1 cells, want 2")
	})

	t.Run("keeps empty cells inside data rows", func(t *testing.T) {
		t.Parallel()

		table := locate(t, `<table><thead><tr><th>A</th><th>B</th></tr></thead><tbody><tr><td></td><td> </td></tr></tbody></table>`)

		got, err := goquery.Extract(table, false)

		require.NoError(t, err)
		assert.Equal(t, []tablescrape.Row{{"", ""}}, got.Rows)
	})
}

func TestTableParser_ExtractTable(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html><html><body>
<table class="summary"><thead><tr><th>Index</th></tr></thead><tbody><tr><td>NEPSE</td></tr></tbody></table>
<table class="` + liveMarketClasses + `">
<thead><tr><th>Symbol</th><th>LTP</th></tr></thead>
<tbody><tr><td>NABIL</td><td>1200</td></tr></tbody>
</table>
</body></html>`

	t.Run("uses markers", func(t *testing.T) {
		t.Parallel()

		p := goquery.NewTableParser([]string{goquery.ClassMarker(liveMarketClasses)})

		got, err := p.ExtractTable(page)

		require.NoError(t, err)
		assert.Equal(t, []string{"Symbol", "LTP"}, got.Headers)
		assert.Equal(t, []tablescrape.Row{{"NABIL", "1200"}}, got.Rows)
	})

	t.Run("does not harvest unrelated table by default", func(t *testing.T) {
		t.Parallel()

		p := goquery.NewTableParser([]string{"table.floorsheet"})

		_, err := p.ExtractTable(page)

		assert.Equal(t, tablescrape.ETABLENOTFOUND, tablescrape.ErrorCode(err))
	})

	t.Run("heuristic fallback harvests first table when enabled", func(t *testing.T) {
		t.Parallel()

		p := goquery.NewTableParser([]string{"table.floorsheet"}, goquery.WithFallback(true))

		got, err := p.ExtractTable(page)

		require.NoError(t, err)
		assert.Equal(t, []string{"Index"}, got.Headers)
	})

	t.Run("strict option is applied", func(t *testing.T) {
		t.Parallel()

		ragged := `<table class="x"><thead><tr><th>A</th><th>B</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table>`
		p := goquery.NewTableParser([]string{"table.x"}, goquery.WithStrict(true))

		_, err := p.ExtractTable(ragged)

		assert.Equal(t, tablescrape.EMALFORMED, tablescrape.ErrorCode(err))
	})
}
