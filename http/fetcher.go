// Package http provides an HTTP-based implementation of tablescrape.Fetcher
// for pages whose table is present in the server-delivered document.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/fwojciec/tablescrape"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = tablescrape.DefaultFetchTimeout

// maxBodySize is the largest response body accepted. Larger bodies are
// rejected rather than cut short.
const maxBodySize = 10 << 20

// Ensure Fetcher implements tablescrape.Fetcher at compile time.
var _ tablescrape.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves documents with a single HTTP GET request.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client     *http.Client
	timeout    time.Duration
	userAgent  string
	headers    map[string]string
	insecure   bool
	cloudflare bool
	limiter    tablescrape.DomainLimiter
	now        func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders adds request headers. Later calls override earlier keys.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithInsecureTLS disables TLS certificate verification.
func WithInsecureTLS(enabled bool) Option {
	return func(f *Fetcher) {
		f.insecure = enabled
	}
}

// WithCloudflareBypass wraps the transport with a Cloudflare-compatible
// TLS configuration and browser-like default headers.
func WithCloudflareBypass(enabled bool) Option {
	return func(f *Fetcher) {
		f.cloudflare = enabled
	}
}

// WithDomainLimiter throttles requests per host.
func WithDomainLimiter(l tablescrape.DomainLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: tablescrape.DefaultUserAgent,
		headers:   make(map[string]string),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	var rt http.RoundTripper = transport
	if f.cloudflare {
		rt = cloudflarebp.AddCloudFlareByPass(transport)
	}
	// Applied after the bypass wrapper, which replaces the TLS config.
	if f.insecure {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: rt,
	}

	return f
}

// Fetch retrieves the document at rawURL verbatim.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*tablescrape.FetchResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, tablescrape.Errorf(tablescrape.EINVALID, "invalid URL %q: %v", rawURL, err)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, u.Hostname()); err != nil {
			return nil, classifyError(err, "rate limiter wait for %s", u.Hostname())
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, tablescrape.Errorf(tablescrape.EINVALID, "failed to build request: %v", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyError(err, "GET %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, tablescrape.Errorf(tablescrape.ETRANSPORT, "HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, classifyError(err, "read body of %s", rawURL)
	}
	if len(body) > maxBodySize {
		return nil, tablescrape.Errorf(tablescrape.ETRANSPORT, "response from %s exceeds %d bytes", rawURL, maxBodySize)
	}

	return &tablescrape.FetchResult{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Content:    string(body),
		FetchedAt:  f.now(),
	}, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// classifyError maps transport failures to error codes.
func classifyError(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return tablescrape.Wrapf(err, tablescrape.ETIMEOUT, "%s", msg)
	case errors.As(err, &netErr) && netErr.Timeout():
		return tablescrape.Wrapf(err, tablescrape.ETIMEOUT, "%s", msg)
	default:
		return tablescrape.Wrapf(err, tablescrape.ETRANSPORT, "%s", msg)
	}
}
