package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
	"github.com/searcrawl/anticrawl/pkg/fetcher"
)

// Result represents one crawled page.
type Result struct {
	URL           string
	Content       fetcher.Content
	IdentityID    string
	Proxy         string // redacted egress address, "direct" when none
	Attempts      int
	Depth         int
	Error         error
	FetchDuration time.Duration
}

// Config holds crawler configuration. Request pacing is not configured
// here; it comes from the identity provider's delay scheduler.
type Config struct {
	// Link following
	FollowSelector string // CSS selector for links to follow
	FollowPattern  string // Regex pattern for URLs to follow
	SameDomainOnly bool   // Only follow links on the same domain
	MaxDepth       int    // Max link depth (0 = seeds only, 1 = seeds + direct links)

	// Pagination
	NextSelector string // CSS selector for the "next page" link
	MaxPages     int    // Max pagination pages (0 = unlimited)

	// Limits
	MaxURLs int // Max total URLs to process (0 = unlimited)

	// Fetch options passed through to browser fetchers.
	WaitForSelector string        // CSS selector to wait for after navigation
	WaitDuration    time.Duration // Extra settle time after load

	// Workers
	Concurrency int // Max concurrent fetches

	// Retries. Each retry draws a fresh identity, so a second attempt
	// arrives with a different signature and egress point.
	Retries int
}

// DefaultConfig returns sensible crawler defaults.
func DefaultConfig() Config {
	return Config{
		SameDomainOnly: true,
		MaxDepth:       1,
		Concurrency:    3,
		Retries:        1,
	}
}

// Crawler walks pages through a fetcher, presenting a freshly drawn
// identity on every request.
type Crawler struct {
	fetcher  fetcher.Fetcher
	provider *anticrawl.Provider
	config   Config
}

// New creates a new Crawler.
func New(f fetcher.Fetcher, provider *anticrawl.Provider, cfg Config) *Crawler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Crawler{
		fetcher:  f,
		provider: provider,
		config:   cfg,
	}
}

// Crawl starts crawling from seed URLs and returns results via channel.
// The channel closes when the crawl finishes or ctx is cancelled.
func (c *Crawler) Crawl(ctx context.Context, seeds []string) <-chan Result {
	results := make(chan Result, 100)

	go func() {
		defer close(results)
		c.crawl(ctx, seeds, results)
	}()

	return results
}

func (c *Crawler) crawl(ctx context.Context, seeds []string, results chan<- Result) {
	logger.Debug("crawler starting",
		"seeds", len(seeds),
		"max_depth", c.config.MaxDepth,
		"max_urls", c.config.MaxURLs,
		"concurrency", c.config.Concurrency,
		"retries", c.config.Retries)

	for _, seed := range seeds {
		logger.Info("seed", "url", seed)
	}

	queue := NewURLQueue()
	var linkSelector *LinkSelector
	var paginationSelector *PaginationSelector

	if c.config.FollowSelector != "" || c.config.FollowPattern != "" {
		var err error
		linkSelector, err = NewLinkSelector(c.config.FollowSelector, c.config.FollowPattern)
		if err != nil {
			results <- Result{Error: fmt.Errorf("invalid link selector: %w", err)}
			return
		}
	}

	if c.config.NextSelector != "" {
		paginationSelector = NewPaginationSelector(c.config.NextSelector)
	}

	for _, seed := range seeds {
		queue.Add(seed, 0)
	}

	urlsProcessed := 0
	paginationPages := 0

	sem := make(chan struct{}, c.config.Concurrency)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		default:
		}

		if c.config.MaxURLs > 0 && urlsProcessed >= c.config.MaxURLs {
			logger.Debug("crawler reached max URLs limit", "max_urls", c.config.MaxURLs)
			wg.Wait()
			return
		}

		currentURL, depth, ok := queue.Pop()
		if !ok {
			// Queue drained; in-flight fetches may still add links.
			wg.Wait()
			if queue.Len() == 0 {
				return
			}
			continue
		}

		// Pagination chains stay at depth 0 and get their own budget.
		if depth == 0 && c.config.MaxPages > 0 && paginationPages >= c.config.MaxPages {
			logger.Debug("crawler reached max pagination pages", "max_pages", c.config.MaxPages)
			continue
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(url string, d int) {
			defer wg.Done()
			defer func() { <-sem }()
			c.processURL(ctx, url, d, queue, linkSelector, paginationSelector, results)
		}(currentURL, depth)

		urlsProcessed++
		if depth == 0 {
			paginationPages++
		}
	}
}

// processURL fetches one page under a freshly drawn identity, retrying
// failed fetches under new identities, then feeds followed links and the
// next pagination page back into the queue.
func (c *Crawler) processURL(
	ctx context.Context,
	rawURL string,
	depth int,
	queue *URLQueue,
	linkSelector *LinkSelector,
	paginationSelector *PaginationSelector,
	results chan<- Result,
) {
	res := Result{URL: rawURL, Depth: depth}

	var content fetcher.Content
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		// Draw waits out the inter-request delay and honors cancellation.
		bundle, err := c.provider.Draw(ctx)
		if err != nil {
			res.Error = err
			results <- res
			return
		}

		res.Attempts = attempt + 1
		res.IdentityID = bundle.ID
		res.Proxy = describeEgress(bundle.Proxy)

		logger.Debug("crawler processing URL",
			"url", rawURL,
			"depth", depth,
			"attempt", res.Attempts,
			"identity", bundle.ID,
			"proxy", res.Proxy)

		start := time.Now()
		content, err = c.fetcher.Fetch(ctx, rawURL, fetcher.Options{
			Identity:        &bundle,
			WaitForSelector: c.config.WaitForSelector,
			WaitDuration:    c.config.WaitDuration,
		})
		res.FetchDuration = time.Since(start)

		if err == nil {
			res.Error = nil
			break
		}
		res.Error = fmt.Errorf("fetch error: %w", err)
		if attempt < c.config.Retries {
			logger.Info("fetch failed, retrying under a fresh identity",
				"url", rawURL,
				"attempt", res.Attempts,
				"error", err)
		}
	}

	if res.Error != nil {
		logger.Info("fetch failed",
			"url", rawURL,
			"attempts", res.Attempts,
			"error", res.Error)
		results <- res
		return
	}

	res.Content = content
	logger.Info("fetched",
		"url", rawURL,
		"identity", res.IdentityID,
		"proxy", res.Proxy,
		"fetch", res.FetchDuration.Round(time.Millisecond),
		"links", len(content.Links))
	results <- res

	// Follow links within the depth limit.
	if linkSelector != nil && depth < c.config.MaxDepth {
		links, err := linkSelector.ExtractLinks(content.HTML, rawURL)
		if err != nil {
			logger.Debug("link extraction failed", "url", rawURL, "error", err)
		} else {
			added := 0
			for _, link := range links {
				if c.config.SameDomainOnly && !IsSameDomain(rawURL, link) {
					logger.Debug("skipping cross-domain link", "link", link)
					continue
				}
				if queue.Add(link, depth+1) {
					added++
				}
			}
			if added > 0 {
				logger.Info("following links", "from", rawURL, "count", added)
			}
		}
	}

	// Pagination stays at depth 0.
	if paginationSelector != nil && depth == 0 {
		if nextURL, found := paginationSelector.FindNextPage(content.HTML, rawURL); found {
			logger.Info("pagination", "next", nextURL)
			queue.Add(nextURL, 0)
		}
	}
}

// describeEgress renders a bundle's egress for logs and results: the
// redacted proxy address, or "direct" when the bundle carries none.
func describeEgress(ep *anticrawl.ProxyEndpoint) string {
	if ep == nil {
		return "direct"
	}
	return ep.Redacted()
}
