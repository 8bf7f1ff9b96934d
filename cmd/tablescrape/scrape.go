package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/tablescrape"
	"github.com/fwojciec/tablescrape/fs"
	"github.com/fwojciec/tablescrape/scrape"
	tsslog "github.com/fwojciec/tablescrape/slog"
	"golang.org/x/sync/errgroup"
)

// maxWait is the longest pause between attempts accepted on the command line.
const maxWait = 30 * time.Second

// adhocDataset names a dataset built from --url.
const adhocDataset = "adhoc"

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	datasets, err := c.resolve(deps.Datasets)
	if err != nil {
		return reported(deps.Stderr, err)
	}

	results := make([]*scrape.Result, len(datasets))
	errs := make([]error, len(datasets))

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.SetLimit(max(c.Parallel, 1))
	for i, ds := range datasets {
		g.Go(func() error {
			// A failed dataset does not cancel the others.
			results[i], errs[i] = c.session(deps, ds).Run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, ds := range datasets {
		if err := errs[i]; err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "error: %s: %v\n", ds.Name, err)
			continue
		}
		res := results[i]
		fmt.Fprintf(deps.Stdout, "%s  %d rows  %s\n", ds.Name, res.Rows, res.Path)
	}

	if failed > 0 {
		if len(datasets) == 1 {
			return &reportedError{err: errs[0]}
		}
		return reported(deps.Stderr, tablescrape.Errorf(tablescrape.EEXHAUSTED, "%d of %d datasets failed", failed, len(datasets)))
	}
	return nil
}

// session wires one dataset to its fetcher, parser, writer and history.
func (c *ScrapeCmd) session(deps *Dependencies, ds *tablescrape.Dataset) *scrape.Session {
	logger := deps.logger().With("dataset", ds.Name)
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	s := &scrape.Session{
		Dataset:   ds,
		Factory:   deps.NewFactory(ds),
		Extractor: newExtractor(ds),
		Writer:    tsslog.NewLoggingTableWriter(fs.NewTableWriter(ds.OutputDir, fs.WithClock(now)), logger),
		Runs:      deps.Runs,
		Logger:    deps.logger(),
		Now:       now,
	}
	if ds.DiagnosticsDir != "" {
		s.Diagnostics = fs.NewDiagnosticWriter(ds.DiagnosticsDir, fs.WithClock(now))
	}
	return s
}

// resolve returns the datasets selected by the arguments with the flag
// overrides applied. Configured datasets are copied, never modified.
func (c *ScrapeCmd) resolve(available map[string]*tablescrape.Dataset) ([]*tablescrape.Dataset, error) {
	if c.Wait != nil && (*c.Wait < 0 || *c.Wait > maxWait) {
		return nil, tablescrape.Errorf(tablescrape.EINVALID, "--wait must be between 0s and %s", maxWait)
	}
	if c.Parallel < 1 {
		return nil, tablescrape.Errorf(tablescrape.EINVALID, "--parallel must be at least 1")
	}

	var out []*tablescrape.Dataset
	if c.URL != "" {
		if len(c.Names) > 0 {
			return nil, tablescrape.Errorf(tablescrape.EINVALID, "use either dataset names or --url")
		}
		ds := tablescrape.DefaultDataset()
		ds.Name = adhocDataset
		ds.URL = c.URL
		ds.Fallback = len(c.Marker) == 0
		out = append(out, ds)
	} else {
		names := c.Names
		if len(names) == 0 {
			names = []string{LiveMarket}
		}
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			base, ok := available[name]
			if !ok {
				return nil, tablescrape.Errorf(tablescrape.ENOTFOUND, "unknown dataset %q", name)
			}
			ds := base.Clone()
			ds.Name = name
			out = append(out, ds)
		}
	}

	for _, ds := range out {
		c.apply(ds)
		if err := ds.Validate(); err != nil {
			return nil, tablescrape.Errorf(tablescrape.EINVALID, "dataset %q: %s", ds.Name, tablescrape.ErrorMessage(err))
		}
	}
	return out, nil
}

// apply overrides ds with every flag that was set.
func (c *ScrapeCmd) apply(ds *tablescrape.Dataset) {
	if c.Strategy != "" {
		ds.Strategy = tablescrape.Strategy(c.Strategy)
	}
	if c.Retries != nil {
		ds.MaxRetries = *c.Retries
	}
	if c.Wait != nil {
		ds.Wait = *c.Wait
		ds.Backoff = nil
	}
	if c.ReadyTimeout != nil {
		ds.ReadyTimeout = *c.ReadyTimeout
	}
	if c.Settle != nil {
		ds.SettleDelay = *c.Settle
	}
	if len(c.Marker) > 0 {
		ds.Markers = c.Marker
	}
	if c.Fallback {
		ds.Fallback = true
	}
	if c.Strict {
		ds.Strict = true
	}
	if c.Out != "" {
		ds.OutputDir = c.Out
	}
	if c.Prefix != "" {
		ds.Prefix = c.Prefix
	}
	if c.Headful {
		ds.Headless = false
	}
	if c.Insecure {
		ds.InsecureTLS = true
	}
	if c.Stealth {
		ds.Stealth = true
	}
	if c.Cloudflare {
		ds.Cloudflare = true
	}
	if c.Paginate {
		ds.Paginate = true
	}
	if c.PageSize != nil {
		ds.PageSize = *c.PageSize
	}
	if c.MaxPages != nil {
		ds.MaxPages = *c.MaxPages
	}
	if c.Diagnostics != "" {
		ds.DiagnosticsDir = c.Diagnostics
	}
}
