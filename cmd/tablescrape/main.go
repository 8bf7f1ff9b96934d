package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/tablescrape"
	"github.com/fwojciec/tablescrape/scrape"
	"github.com/fwojciec/tablescrape/sqlite"
	tsyaml "github.com/fwojciec/tablescrape/yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// NewFactory overrides fetcher construction for end-to-end testing.
	NewFactory func(ds *tablescrape.Dataset, limiter tablescrape.DomainLimiter, logger *slog.Logger) tablescrape.FetcherFactory
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    time.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("tablescrape"),
		kong.Description("Scrape HTML tables from web pages into timestamped CSV files."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'tablescrape --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd, _, _ := strings.Cut(kongCtx.Command(), " ")

	deps.Logger = newLogger(stderr, cli.Verbose)

	datasets := builtinDatasets()
	if cli.Profiles != "" {
		loaded, err := tsyaml.LoadDatasets(cli.Profiles)
		if err != nil {
			return reported(stderr, err)
		}
		for name, ds := range loaded {
			datasets[name] = ds
		}
	}
	deps.Datasets = datasets

	if cmd == "scrape" || cmd == "history" {
		dbPath := m.DBPath
		if cli.DB != "" {
			dbPath = cli.DB
		}
		m.DB = sqlite.NewDB(dbPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set TABLESCRAPE_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
		}
		defer m.Close()
		deps.Runs = sqlite.NewRunService(m.DB)
	}

	if cmd == "scrape" {
		// One limiter for the whole invocation, shared by parallel sessions.
		limiter := scrape.NewDomainLimiter(cli.Scrape.RPS)
		newFactory := m.NewFactory
		if newFactory == nil {
			newFactory = newFetcherFactory
		}
		deps.NewFactory = func(ds *tablescrape.Dataset) tablescrape.FetcherFactory {
			return newFactory(ds, limiter, deps.logger().With("dataset", ds.Name))
		}
	}

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func defaultDBPath() string {
	if path := os.Getenv("TABLESCRAPE_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "tablescrape.db"
	}
	dir := filepath.Join(home, ".tablescrape")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "history.db")
}
