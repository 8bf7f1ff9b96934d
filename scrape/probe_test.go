package scrape_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/tablescrape"
	"github.com/fwojciec/tablescrape/mock"
	"github.com/fwojciec/tablescrape/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedFetcher(content string, err error, closed *int) *mock.PagedFetcher {
	return &mock.PagedFetcher{
		FetchFn: func(ctx context.Context, url string) (*tablescrape.FetchResult, error) {
			if err != nil {
				return nil, err
			}
			return &tablescrape.FetchResult{URL: url, Content: content}, nil
		},
		OpenFn: func(ctx context.Context, url string) (tablescrape.Pager, error) {
			return &mock.Pager{}, nil
		},
		CloseFn: func() error {
			*closed++
			return nil
		},
	}
}

func TestProbeFetcher_Fetch(t *testing.T) {
	t.Parallel()

	extractor := &mock.TableExtractor{
		ExtractTableFn: func(html string) (*tablescrape.Table, error) {
			if html == "with-table" {
				return sampleTable(), nil
			}
			return nil, tablescrape.Errorf(tablescrape.ETABLENOTFOUND, "no table")
		},
	}

	t.Run("uses static document when it contains the table", func(t *testing.T) {
		t.Parallel()

		var staticClosed, renderCreated int
		static := fixedFetcher("with-table", nil, &staticClosed)
		render := func(ctx context.Context) (tablescrape.Fetcher, error) {
			renderCreated++
			return nil, errors.New("unexpected")
		}
		p := scrape.NewProbeFetcher(static, render, extractor, nil)

		res, err := p.Fetch(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "with-table", res.Content)
		assert.Zero(t, renderCreated, "no browser for static pages")

		require.NoError(t, p.Close())
		assert.Equal(t, 1, staticClosed)
	})

	t.Run("falls back to rendered document when static lacks the table", func(t *testing.T) {
		t.Parallel()

		var staticClosed, renderClosed int
		static := fixedFetcher("skeleton", nil, &staticClosed)
		render := func(ctx context.Context) (tablescrape.Fetcher, error) {
			return fixedFetcher("with-table", nil, &renderClosed), nil
		}
		p := scrape.NewProbeFetcher(static, render, extractor, nil)

		res, err := p.Fetch(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "with-table", res.Content)

		require.NoError(t, p.Close())
		assert.Equal(t, 1, staticClosed)
		assert.Equal(t, 1, renderClosed)
	})

	t.Run("falls back to rendered document when static fetch fails", func(t *testing.T) {
		t.Parallel()

		var staticClosed, renderClosed int
		static := fixedFetcher("", tablescrape.Errorf(tablescrape.ETRANSPORT, "HTTP 403"), &staticClosed)
		render := func(ctx context.Context) (tablescrape.Fetcher, error) {
			return fixedFetcher("with-table", nil, &renderClosed), nil
		}
		p := scrape.NewProbeFetcher(static, render, extractor, nil)
		defer p.Close()

		res, err := p.Fetch(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "with-table", res.Content)
	})

	t.Run("Open always uses the rendered fetcher", func(t *testing.T) {
		t.Parallel()

		var staticClosed, renderClosed, created int
		static := fixedFetcher("with-table", nil, &staticClosed)
		render := func(ctx context.Context) (tablescrape.Fetcher, error) {
			created++
			return fixedFetcher("with-table", nil, &renderClosed), nil
		}
		p := scrape.NewProbeFetcher(static, render, extractor, nil)

		pager, err := p.Open(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.NotNil(t, pager)
		_, err = p.Fetch(context.Background(), "https://example.com")
		require.NoError(t, err)

		require.NoError(t, p.Close())
		assert.Equal(t, 1, created)
		assert.Equal(t, 1, renderClosed)
	})
}
