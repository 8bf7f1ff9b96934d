package tablescrape

import (
	"net/url"
	"time"
)

// Strategy selects how a document is acquired.
type Strategy string

// Strategy constants.
const (
	// StrategyStatic issues one plain HTTP request; no scripts run.
	StrategyStatic Strategy = "static"

	// StrategyRendered drives a scripted browser and captures the rendered document.
	StrategyRendered Strategy = "rendered"

	// StrategyAuto probes the page over HTTP and falls back to the browser
	// when the target table is not present in the static document.
	StrategyAuto Strategy = "auto"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyStatic, StrategyRendered, StrategyAuto:
		return true
	}
	return false
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Defaults applied by DefaultDataset.
const (
	DefaultMaxRetries     = 3
	DefaultWait           = 5 * time.Second
	DefaultReadyTimeout   = 30 * time.Second
	DefaultSettleDelay    = 5 * time.Second
	DefaultFetchTimeout   = 30 * time.Second
	DefaultRefreshTimeout = 30 * time.Second
	DefaultMaxPages       = 1000
	DefaultReadySelector  = "table"
)

// Dataset is the configuration of one scrape target.
type Dataset struct {
	Name     string   `yaml:"-"`
	URL      string   `yaml:"url"`
	Strategy Strategy `yaml:"strategy"`

	// MaxRetries is the total number of attempts.
	MaxRetries int `yaml:"maxRetries"`

	// Wait is the pause after every failed attempt unless Backoff is set.
	Wait time.Duration `yaml:"wait"`

	// Backoff is an explicit per-attempt schedule. The last entry repeats.
	Backoff []time.Duration `yaml:"backoff,omitempty"`

	FetchTimeout  time.Duration `yaml:"fetchTimeout"`
	ReadySelector string        `yaml:"readySelector"`
	ReadyTimeout  time.Duration `yaml:"readyTimeout"`
	SettleDelay   time.Duration `yaml:"settleDelay"`

	// Markers are CSS selectors for the target table, most specific first.
	Markers  []string `yaml:"markers,omitempty"`
	Fallback bool     `yaml:"fallback"`
	Strict   bool     `yaml:"strict"`

	OutputDir      string `yaml:"outputDir"`
	Prefix         string `yaml:"prefix"`
	DiagnosticsDir string `yaml:"diagnosticsDir"`

	UserAgent   string            `yaml:"userAgent"`
	Headers     map[string]string `yaml:"headers"`
	Headless    bool              `yaml:"headless"`
	InsecureTLS bool              `yaml:"insecureTLS"`
	Stealth     bool              `yaml:"stealth"`
	Cloudflare  bool              `yaml:"cloudflare"`

	Paginate         bool          `yaml:"paginate"`
	PageSize         int           `yaml:"pageSize"`
	PageSizeSelector string        `yaml:"pageSizeSelector"`
	ApplySelector    string        `yaml:"applySelector"`
	NextSelector     string        `yaml:"nextSelector"`
	RowSelector      string        `yaml:"rowSelector"`
	RefreshTimeout   time.Duration `yaml:"refreshTimeout"`
	MaxPages         int           `yaml:"maxPages"`
}

// DefaultDataset returns a Dataset populated with defaults.
func DefaultDataset() *Dataset {
	return &Dataset{
		Strategy:       StrategyRendered,
		MaxRetries:     DefaultMaxRetries,
		Wait:           DefaultWait,
		FetchTimeout:   DefaultFetchTimeout,
		ReadySelector:  DefaultReadySelector,
		ReadyTimeout:   DefaultReadyTimeout,
		SettleDelay:    DefaultSettleDelay,
		OutputDir:      ".",
		Prefix:         "table",
		UserAgent:      DefaultUserAgent,
		Headers:        DefaultHeaders(),
		Headless:       true,
		RowSelector:    "table tbody tr",
		RefreshTimeout: DefaultRefreshTimeout,
		MaxPages:       DefaultMaxPages,
	}
}

// DefaultHeaders returns the request headers sent with static fetches
// unless a dataset overrides them.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

// BrowserHeaders returns the headers to add to every request a rendered
// page makes: the dataset's headers minus the unchanged static defaults.
// The browser negotiates Accept itself for scripts and XHR calls.
func (d *Dataset) BrowserHeaders() map[string]string {
	defaults := DefaultHeaders()
	out := make(map[string]string)
	for k, v := range d.Headers {
		if dv, ok := defaults[k]; ok && dv == v {
			continue
		}
		out[k] = v
	}
	return out
}

// BackoffSchedule returns the wait after each failed attempt.
func (d *Dataset) BackoffSchedule() []time.Duration {
	if len(d.Backoff) > 0 {
		return d.Backoff
	}
	return []time.Duration{d.Wait}
}

// Validate returns an error if the dataset contains invalid fields.
func (d *Dataset) Validate() error {
	if d.URL == "" {
		return Errorf(EINVALID, "dataset URL required")
	}
	u, err := url.Parse(d.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Errorf(EINVALID, "dataset URL must be an absolute http(s) URL: %q", d.URL)
	}
	if !d.Strategy.Valid() {
		return Errorf(EINVALID, "unknown strategy %q", d.Strategy)
	}
	if d.MaxRetries < 1 {
		return Errorf(EINVALID, "max retries must be at least 1")
	}
	if d.Wait < 0 || d.FetchTimeout < 0 || d.ReadyTimeout < 0 || d.SettleDelay < 0 || d.RefreshTimeout < 0 {
		return Errorf(EINVALID, "durations must not be negative")
	}
	for _, b := range d.Backoff {
		if b < 0 {
			return Errorf(EINVALID, "backoff durations must not be negative")
		}
	}
	if len(d.Markers) == 0 && !d.Fallback {
		return Errorf(EINVALID, "at least one table marker required unless fallback is enabled")
	}
	if d.OutputDir == "" {
		return Errorf(EINVALID, "output directory required")
	}
	if d.Prefix == "" {
		return Errorf(EINVALID, "output prefix required")
	}
	if d.Paginate {
		if d.Strategy == StrategyStatic {
			return Errorf(EINVALID, "pagination requires the rendered strategy")
		}
		if d.NextSelector == "" {
			return Errorf(EINVALID, "pagination requires a next selector")
		}
		if d.PageSize < 0 {
			return Errorf(EINVALID, "page size must not be negative")
		}
		if d.PageSize > 0 && d.PageSizeSelector == "" {
			return Errorf(EINVALID, "page size requires a page size selector")
		}
		if d.MaxPages < 1 {
			return Errorf(EINVALID, "max pages must be at least 1")
		}
	}
	return nil
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	c := *d
	if d.Backoff != nil {
		c.Backoff = append([]time.Duration(nil), d.Backoff...)
	}
	if d.Markers != nil {
		c.Markers = append([]string(nil), d.Markers...)
	}
	if d.Headers != nil {
		c.Headers = make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			c.Headers[k] = v
		}
	}
	return &c
}
