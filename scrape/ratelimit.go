package scrape

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/tablescrape"
	"golang.org/x/time/rate"
)

var _ tablescrape.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces out requests per host with one token bucket per host.
// Sessions running in parallel against the same site share a bucket, so
// several datasets on one host never hit it faster than the configured rate.
type DomainLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
}

// NewDomainLimiter returns a limiter allowing rps requests per second to each
// host, without bursts. A non-positive rps disables throttling.
func NewDomainLimiter(rps float64) *DomainLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &DomainLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
	}
}

// Wait blocks until a request to domain is allowed or ctx is done.
// Host names are compared case-insensitively and a leading "www." is ignored.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.bucket(hostKey(domain)).Wait(ctx)
}

func (d *DomainLimiter) bucket(key string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buckets[key]
	if !ok {
		b = rate.NewLimiter(d.limit, 1)
		d.buckets[key] = b
	}
	return b
}

func hostKey(domain string) string {
	return strings.TrimPrefix(strings.ToLower(domain), "www.")
}
