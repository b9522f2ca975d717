// Package probe checks configured proxy endpoints for reachability by
// fetching a lightweight target URL through each of them.
package probe

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

// DefaultTarget is the URL fetched through each endpoint. It returns an
// empty 204 response, so a probe costs almost no bandwidth.
const DefaultTarget = "https://www.google.com/generate_204"

const (
	defaultTimeout = 10 * time.Second
	defaultWorkers = 4
)

// Result records the outcome of one endpoint check.
type Result struct {
	Endpoint   string    `json:"endpoint"`
	Time       time.Time `json:"time"`
	DurationMs int64     `json:"duration_ms"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// IsSuccess reports whether the endpoint relayed the request at all. Any
// HTTP status counts; only transport-level failures mark an endpoint down.
func (r Result) IsSuccess() bool {
	return r.Error == ""
}

// Prober runs reachability checks against proxy endpoints.
type Prober struct {
	target  string
	timeout time.Duration
	workers int
}

// Option configures a Prober.
type Option func(*Prober)

// WithTarget sets the URL fetched through each endpoint.
func WithTarget(url string) Option {
	return func(p *Prober) {
		if url != "" {
			p.target = url
		}
	}
}

// WithTimeout sets the per-endpoint timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithWorkers sets how many endpoints are checked concurrently.
func WithWorkers(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New creates a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{
		target:  DefaultTarget,
		timeout: defaultTimeout,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check fetches the target through a single endpoint.
func (p *Prober) Check(ctx context.Context, ep anticrawl.ProxyEndpoint) Result {
	start := time.Now()
	res := Result{
		Endpoint: ep.Redacted(),
		Time:     start.UTC().Truncate(time.Second),
	}

	client := resty.New().
		SetTimeout(p.timeout).
		SetProxy(ep.URL()).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(3))

	resp, err := client.R().SetContext(ctx).Get(p.target)
	res.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		logger.Debug("proxy probe failed", "endpoint", res.Endpoint, "error", err)
		return res
	}

	res.StatusCode = resp.StatusCode()
	logger.Debug("proxy probe complete",
		"endpoint", res.Endpoint,
		"status", res.StatusCode,
		"duration_ms", res.DurationMs)
	return res
}

// CheckAll checks every endpoint with bounded concurrency. Results keep the
// order of the input slice.
func (p *Prober) CheckAll(ctx context.Context, endpoints []anticrawl.ProxyEndpoint) []Result {
	results := make([]Result, len(endpoints))

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		sem <- struct{}{}
		wg.Add(1)

		go func(i int, ep anticrawl.ProxyEndpoint) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.Check(ctx, ep)
		}(i, ep)
	}
	wg.Wait()

	return results
}
