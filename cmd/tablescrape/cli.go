package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/tablescrape"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Runs     tablescrape.RunService
	Datasets map[string]*tablescrape.Dataset

	// NewFactory builds the fetcher factory for one dataset.
	NewFactory func(ds *tablescrape.Dataset) tablescrape.FetcherFactory

	Now func() time.Time
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose  bool   `short:"v" help:"Log debug output"`
	DB       string `help:"History database path" env:"TABLESCRAPE_DB"`
	Profiles string `help:"YAML file with dataset profiles" env:"TABLESCRAPE_PROFILES" type:"path"`

	Scrape   ScrapeCmd   `cmd:"" help:"Scrape one or more datasets into CSV files"`
	History  HistoryCmd  `cmd:"" help:"Show recorded scrape runs"`
	Datasets DatasetsCmd `cmd:"" help:"List configured datasets"`
}

// ScrapeCmd is the "scrape" subcommand. Flags override the selected
// datasets; unset flags keep the dataset's values.
type ScrapeCmd struct {
	Names []string `arg:"" optional:"" name:"dataset" help:"Datasets to scrape (default: live-market)"`

	URL          string         `help:"Scrape an ad-hoc URL instead of a named dataset"`
	Strategy     string         `help:"Acquisition strategy (static, rendered, auto)"`
	Retries      *int           `help:"Total number of attempts"`
	Wait         *time.Duration `help:"Pause after a failed attempt (0s to 30s)"`
	ReadyTimeout *time.Duration `help:"Maximum wait for the ready selector"`
	Settle       *time.Duration `help:"Fixed pause after the ready selector matched"`
	Marker       []string       `sep:"none" help:"CSS selector of the target table, most specific first (repeatable)"`
	Fallback     bool           `help:"Use the first table when no marker matches"`
	Strict       bool           `help:"Reject rows whose length differs from the header row"`
	Out          string         `short:"o" env:"TABLESCRAPE_OUT" help:"Output directory"`
	Prefix       string         `help:"Output file name prefix"`
	Headful      bool           `help:"Show the browser window"`
	Insecure     bool           `help:"Skip TLS certificate verification"`
	Stealth      bool           `help:"Mask browser automation fingerprints"`
	Cloudflare   bool           `help:"Use a Cloudflare-compatible TLS fingerprint for static fetches"`
	Paginate     bool           `help:"Walk every page of the result set"`
	PageSize     *int           `help:"Page size selected before paginating"`
	MaxPages     *int           `help:"Maximum number of pages to walk"`
	Diagnostics  string         `help:"Directory for raw fetched documents"`
	Parallel     int            `short:"p" default:"1" help:"Datasets scraped concurrently"`
	RPS          float64        `name:"rps" default:"1" help:"Requests per second per host (0 disables throttling)"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Dataset string `short:"d" help:"Only show runs of this dataset"`
	Failed  bool   `help:"Only show failed runs"`
	Limit   int    `short:"n" default:"20" help:"Maximum number of runs"`
}

// DatasetsCmd is the "datasets" subcommand.
type DatasetsCmd struct {
	YAML bool `name:"yaml" help:"Print the datasets as a profiles document"`
}

// reportedError marks an error a command has already written to stderr.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// reported writes err to w and marks it as written.
func reported(w io.Writer, err error) error {
	fmt.Fprintf(w, "error: %s\n", tablescrape.ErrorMessage(err))
	return &reportedError{err: err}
}

// ReportError writes err to w unless a command already did.
func ReportError(w io.Writer, err error) {
	var r *reportedError
	if errors.As(err, &r) {
		return
	}
	fmt.Fprintln(w, err)
}
