//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/tablescrape"
	"github.com/fwojciec/tablescrape/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Fetcher implements tablescrape.PagedFetcher.
var _ tablescrape.PagedFetcher = (*rod.Fetcher)(nil)

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch_ReturnsRenderedTable(t *testing.T) {
	t.Parallel()

	srv := serveHTML(t, `<!DOCTYPE html>
<html>
<head><title>Market</title></head>
<body>
<div id="root">Loading...</div>
<script>
setTimeout(() => {
  document.getElementById('root').innerHTML =
    '<table class="table table__lg"><thead><tr><th>Symbol</th><th>LTP</th></tr></thead>' +
    '<tbody><tr><td>NABIL</td><td>500</td></tr></tbody></table>';
}, 200);
</script>
</body>
</html>`)

	fetcher, err := rod.NewFetcher(rod.WithReadyTimeout(10 * time.Second))
	require.NoError(t, err)
	defer fetcher.Close()

	res, err := fetcher.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, res.Content, "NABIL")
	assert.NotContains(t, res.Content, "Loading...")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestFetcher_Fetch_ReadyTimeout(t *testing.T) {
	t.Parallel()

	srv := serveHTML(t, `<html><body><p>no table here</p></body></html>`)

	fetcher, err := rod.NewFetcher(rod.WithReadyTimeout(500 * time.Millisecond))
	require.NoError(t, err)
	defer fetcher.Close()

	_, err = fetcher.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, tablescrape.ETIMEOUT, tablescrape.ErrorCode(err))
}

func TestFetcher_Fetch_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<html><body>down</body></html>`))
	}))
	defer srv.Close()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)
	defer fetcher.Close()

	_, err = fetcher.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, tablescrape.ETRANSPORT, tablescrape.ErrorCode(err))
	assert.Contains(t, err.Error(), "503")
}

func TestFetcher_Fetch_SendsUserAgentAndHeaders(t *testing.T) {
	t.Parallel()

	got := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case got <- r.Header.Clone():
		default:
		}
		_, _ = w.Write([]byte(`<html><body><table><tbody><tr><td>x</td></tr></tbody></table></body></html>`))
	}))
	defer srv.Close()

	fetcher, err := rod.NewFetcher(
		rod.WithUserAgent("tablescrape-test/1.0"),
		rod.WithHeaders(map[string]string{"X-Test": "yes"}),
	)
	require.NoError(t, err)
	defer fetcher.Close()

	_, err = fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	h := <-got
	assert.Equal(t, "tablescrape-test/1.0", h.Get("User-Agent"))
	assert.Equal(t, "yes", h.Get("X-Test"))
}

func TestFetcher_Fetch_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := serveHTML(t, `<html><body></body></html>`)

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)
	defer fetcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = fetcher.Fetch(ctx, srv.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_Close_Idempotent(t *testing.T) {
	t.Parallel()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)

	require.NoError(t, fetcher.Close())
	require.NoError(t, fetcher.Close())
}

func TestFetcher_Close_RemovesProfileDir(t *testing.T) {
	t.Parallel()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)

	dir := fetcher.ProfileDir()
	require.DirExists(t, dir)

	require.NoError(t, fetcher.Close())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "profile dir should be removed")
}

func TestFetcher_ProfileDirsAreUnique(t *testing.T) {
	t.Parallel()

	a, err := rod.NewFetcher()
	require.NoError(t, err)
	defer a.Close()

	b, err := rod.NewFetcher()
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.ProfileDir(), b.ProfileDir())
}

func TestFetcher_Fetch_AfterClose_ReturnsError(t *testing.T) {
	t.Parallel()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)
	require.NoError(t, fetcher.Close())

	_, err = fetcher.Fetch(context.Background(), "http://example.com")

	require.Error(t, err)
	assert.Equal(t, tablescrape.EINVALID, tablescrape.ErrorCode(err))
	assert.Contains(t, tablescrape.ErrorMessage(err), "closed")
}
