// Package rod provides a browser-driven implementation of tablescrape.Fetcher
// for pages whose table is built by client-side scripts.
package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/fwojciec/tablescrape"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/google/uuid"
	"github.com/ysmood/gson"
)

// Ensure Fetcher implements tablescrape.PagedFetcher at compile time.
var _ tablescrape.PagedFetcher = (*Fetcher)(nil)

// cleanupTimeout bounds how long Close waits for the browser process to exit.
const cleanupTimeout = 5 * time.Second

// Fetcher retrieves rendered HTML using a dedicated Chrome instance.
//
// Each Fetcher owns one browser process and one disposable profile
// directory. Both are released by Close, so a Fetcher must not be reused
// across retry attempts.
type Fetcher struct {
	mu         sync.Mutex
	closed     bool
	browser    *rod.Browser
	launcher   *launcher.Launcher
	profileDir string

	headless      bool
	insecure      bool
	stealth       bool
	userAgent     string
	headers       map[string]string
	fetchTimeout  time.Duration
	readySelector string
	readyTimeout  time.Duration
	settleDelay   time.Duration
	limiter       tablescrape.DomainLimiter
	pagination    PaginationConfig
	now           func() time.Time
}

// PaginationConfig holds the selectors driving a paginated result set.
type PaginationConfig struct {
	PageSizeSelector string
	ApplySelector    string
	NextSelector     string
	RowSelector      string
	RefreshTimeout   time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHeadless toggles headless mode. Defaults to true.
func WithHeadless(enabled bool) Option {
	return func(f *Fetcher) {
		f.headless = enabled
	}
}

// WithInsecureTLS makes the browser ignore certificate errors.
func WithInsecureTLS(enabled bool) Option {
	return func(f *Fetcher) {
		f.insecure = enabled
	}
}

// WithStealth opens pages with navigator.webdriver and related
// automation fingerprints masked.
func WithStealth(enabled bool) Option {
	return func(f *Fetcher) {
		f.stealth = enabled
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sends extra headers with every request made by the page.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithFetchTimeout bounds navigation and page load.
// Defaults to tablescrape.DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.fetchTimeout = d
	}
}

// WithReadySelector sets the CSS selector that must match before the
// document is captured. Defaults to tablescrape.DefaultReadySelector.
func WithReadySelector(sel string) Option {
	return func(f *Fetcher) {
		f.readySelector = sel
	}
}

// WithReadyTimeout bounds the wait for the ready selector.
func WithReadyTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.readyTimeout = d
	}
}

// WithSettleDelay sets a fixed pause after the ready selector matched.
func WithSettleDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.settleDelay = d
	}
}

// WithDomainLimiter throttles navigations per host.
func WithDomainLimiter(l tablescrape.DomainLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithPagination configures the controls used by Pager.
func WithPagination(cfg PaginationConfig) Option {
	return func(f *Fetcher) {
		f.pagination = cfg
	}
}

// NewFetcher launches a Chrome instance with a fresh profile directory.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an EAUTOMATION error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		headless:      true,
		headers:       make(map[string]string),
		fetchTimeout:  tablescrape.DefaultFetchTimeout,
		readySelector: tablescrape.DefaultReadySelector,
		readyTimeout:  tablescrape.DefaultReadyTimeout,
		pagination: PaginationConfig{
			RowSelector:    "table tbody tr",
			RefreshTimeout: tablescrape.DefaultRefreshTimeout,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	dir, err := os.MkdirTemp("", "tablescrape-"+uuid.NewString()+"-*")
	if err != nil {
		return nil, tablescrape.Wrapf(err, tablescrape.EAUTOMATION, "creating browser profile")
	}
	f.profileDir = dir

	l := launcher.New().
		UserDataDir(dir).
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Set("disable-blink-features", "AutomationControlled").
		Set("no-first-run").
		Leakless(true).
		Headless(f.headless)
	if f.insecure {
		l = l.Set("ignore-certificate-errors")
	}

	u, err := l.Launch()
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, tablescrape.Wrapf(err, tablescrape.EAUTOMATION, "launching browser")
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		_ = os.RemoveAll(dir)
		return nil, tablescrape.Wrapf(err, tablescrape.EAUTOMATION, "connecting to browser")
	}

	f.browser = browser
	f.launcher = l
	return f, nil
}

// ProfileDir returns the disposable profile directory owned by f.
func (f *Fetcher) ProfileDir() string {
	return f.profileDir
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (f *Fetcher) LauncherPID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launcher == nil {
		return 0
	}
	return f.launcher.PID()
}

// Fetch navigates to rawURL, waits for the ready selector and the settle
// delay, and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*tablescrape.FetchResult, error) {
	page, status, err := f.open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return nil, classifyError(err, "reading rendered HTML")
	}

	return &tablescrape.FetchResult{
		URL:        currentURL(page.Context(ctx), rawURL),
		StatusCode: status,
		Content:    html,
		FetchedAt:  f.now(),
	}, nil
}

// Open navigates to rawURL and returns a Pager over the live page.
// The caller must close the Pager.
func (f *Fetcher) Open(ctx context.Context, rawURL string) (tablescrape.Pager, error) {
	page, _, err := f.open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return &Pager{page: page, cfg: f.pagination}, nil
}

// open creates a configured page, navigates and waits until the document is
// ready. The returned page is not bound to ctx and must be closed.
func (f *Fetcher) open(ctx context.Context, rawURL string) (*rod.Page, int, error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, 0, tablescrape.Errorf(tablescrape.EINVALID, "fetcher is closed")
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, tablescrape.Errorf(tablescrape.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, u.Hostname()); err != nil {
			return nil, 0, classifyError(err, "rate limiter wait for %s", u.Hostname())
		}
	}

	page, err := f.newPage()
	if err != nil {
		return nil, 0, err
	}

	status, err := f.load(ctx, page, rawURL)
	if err != nil {
		_ = page.Close()
		return nil, 0, err
	}
	return page, status, nil
}

func (f *Fetcher) newPage() (*rod.Page, error) {
	var page *rod.Page
	var err error
	if f.stealth {
		page, err = stealth.Page(f.browser)
	} else {
		page, err = f.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, classifyError(err, "opening page")
	}

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			_ = page.Close()
			return nil, classifyError(err, "setting user agent")
		}
	}
	if len(f.headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(f.headers)}).Call(page); err != nil {
			_ = page.Close()
			return nil, classifyError(err, "setting extra headers")
		}
	}
	return page, nil
}

func (f *Fetcher) load(ctx context.Context, page *rod.Page, rawURL string) (int, error) {
	navCtx, cancel := withTimeout(ctx, f.fetchTimeout)
	defer cancel()

	p := page.Context(navCtx)
	if err := p.Navigate(rawURL); err != nil {
		return 0, classifyError(err, "navigating to %s", rawURL)
	}
	if err := p.WaitLoad(); err != nil {
		return 0, classifyError(err, "waiting for %s to load", rawURL)
	}

	status := navigationStatus(p)
	if status >= 400 {
		return status, tablescrape.Errorf(tablescrape.ETRANSPORT, "HTTP %d for %s", status, rawURL)
	}

	if f.readySelector != "" {
		readyCtx, readyCancel := withTimeout(ctx, f.readyTimeout)
		defer readyCancel()
		if _, err := page.Context(readyCtx).Element(f.readySelector); err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return status, tablescrape.Wrapf(err, tablescrape.ETIMEOUT,
					"%q did not appear within %s", f.readySelector, f.readyTimeout)
			}
			return status, classifyError(err, "waiting for %q", f.readySelector)
		}
	}

	if f.settleDelay > 0 {
		select {
		case <-time.After(f.settleDelay):
		case <-ctx.Done():
			return status, ctx.Err()
		}
	}
	return status, nil
}

// Close closes the browser, kills the launcher process and removes the
// profile directory. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		l := f.launcher
		l.Kill()
		done := make(chan struct{})
		go func() {
			l.Cleanup()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(cleanupTimeout):
		}
		f.launcher = nil
	}
	if f.profileDir != "" {
		if rmErr := os.RemoveAll(f.profileDir); rmErr != nil && err == nil {
			err = fmt.Errorf("removing browser profile: %w", rmErr)
		}
	}
	return err
}

// withTimeout bounds ctx by d. A zero d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// navigationStatus returns the HTTP status of the main document, or 0 when
// the browser does not expose it.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func currentURL(p *rod.Page, fallback string) string {
	res, err := p.Eval(`() => window.location.href`)
	if err != nil || res.Value.Str() == "" {
		return fallback
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// classifyError maps browser-control failures to error codes.
func classifyError(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, context.DeadlineExceeded) {
		return tablescrape.Wrapf(err, tablescrape.ETIMEOUT, "%s", msg)
	}
	return tablescrape.Wrapf(err, tablescrape.EAUTOMATION, "%s", msg)
}
