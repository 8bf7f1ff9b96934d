package main

import (
	"context"
	"log/slog"

	"github.com/fwojciec/tablescrape"
	"github.com/fwojciec/tablescrape/goquery"
	tshttp "github.com/fwojciec/tablescrape/http"
	"github.com/fwojciec/tablescrape/rod"
	"github.com/fwojciec/tablescrape/scrape"
	tsslog "github.com/fwojciec/tablescrape/slog"
)

// newExtractor builds the table parser configured by ds.
func newExtractor(ds *tablescrape.Dataset) tablescrape.TableExtractor {
	return goquery.NewTableParser(ds.Markers,
		goquery.WithFallback(ds.Fallback),
		goquery.WithStrict(ds.Strict),
	)
}

// newFetcherFactory returns a factory that builds a fresh, logged fetcher
// for ds on every attempt.
func newFetcherFactory(ds *tablescrape.Dataset, limiter tablescrape.DomainLimiter, logger *slog.Logger) tablescrape.FetcherFactory {
	static := func() tablescrape.Fetcher {
		return tshttp.NewFetcher(staticOptions(ds, limiter)...)
	}
	rendered := func(ctx context.Context) (tablescrape.Fetcher, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := rod.NewFetcher(renderedOptions(ds, limiter)...)
		if err != nil {
			return nil, err
		}
		logger.Debug("browser started", "profile", f.ProfileDir(), "pid", f.LauncherPID())
		return f, nil
	}

	return func(ctx context.Context) (tablescrape.Fetcher, error) {
		var f tablescrape.Fetcher
		switch ds.Strategy {
		case tablescrape.StrategyStatic:
			f = static()
		case tablescrape.StrategyAuto:
			f = scrape.NewProbeFetcher(static(), rendered, newExtractor(ds), logger)
		default:
			r, err := rendered(ctx)
			if err != nil {
				return nil, err
			}
			f = r
		}
		return tsslog.NewLoggingFetcher(f, logger), nil
	}
}

func staticOptions(ds *tablescrape.Dataset, limiter tablescrape.DomainLimiter) []tshttp.Option {
	opts := []tshttp.Option{
		tshttp.WithUserAgent(ds.UserAgent),
		tshttp.WithHeaders(ds.Headers),
		tshttp.WithInsecureTLS(ds.InsecureTLS),
		tshttp.WithCloudflareBypass(ds.Cloudflare),
		tshttp.WithDomainLimiter(limiter),
	}
	if ds.FetchTimeout > 0 {
		opts = append(opts, tshttp.WithTimeout(ds.FetchTimeout))
	}
	return opts
}

func renderedOptions(ds *tablescrape.Dataset, limiter tablescrape.DomainLimiter) []rod.Option {
	return []rod.Option{
		rod.WithHeadless(ds.Headless),
		rod.WithInsecureTLS(ds.InsecureTLS),
		rod.WithStealth(ds.Stealth),
		rod.WithUserAgent(ds.UserAgent),
		rod.WithHeaders(ds.BrowserHeaders()),
		rod.WithFetchTimeout(ds.FetchTimeout),
		rod.WithReadySelector(ds.ReadySelector),
		rod.WithReadyTimeout(ds.ReadyTimeout),
		rod.WithSettleDelay(ds.SettleDelay),
		rod.WithDomainLimiter(limiter),
		rod.WithPagination(rod.PaginationConfig{
			PageSizeSelector: ds.PageSizeSelector,
			ApplySelector:    ds.ApplySelector,
			NextSelector:     ds.NextSelector,
			RowSelector:      ds.RowSelector,
			RefreshTimeout:   ds.RefreshTimeout,
		}),
	}
}
