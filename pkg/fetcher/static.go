package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

// defaultAgent is presented when a fetch carries no identity.
var defaultAgent = anticrawl.BuiltinDesktopSignatures()[0].Value

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	Timeout     time.Duration
	MaxBodySize int
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		Timeout:     30 * time.Second,
		MaxBodySize: 10 * 1024 * 1024,
	}
}

// StaticFetcher fetches static HTML through Colly, presenting the proxy,
// signature and headers of the identity it is handed.
// It implements the Fetcher interface.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultStaticConfig().Timeout
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultStaticConfig().MaxBodySize
	}
	return &StaticFetcher{config: cfg}
}

// Fetch retrieves page content using Colly.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	identity := opts.Identity

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	agent := defaultAgent
	if identity != nil {
		result.IdentityID = identity.ID
		if identity.Signature.Value != "" {
			agent = identity.Signature.Value
		}
	}
	logger.Debug("static fetch starting", "url", targetURL, "identity", result.IdentityID)

	// One collector per request so identities never bleed across fetches
	c := colly.NewCollector(
		colly.UserAgent(agent),
		colly.MaxBodySize(f.config.MaxBodySize),
	)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)

	if identity != nil && identity.Proxy != nil {
		if err := c.SetProxy(identity.Proxy.URL()); err != nil {
			return result, fmt.Errorf("failed to set proxy: %w", err)
		}
		logger.Debug("static fetch routed", "proxy", identity.Proxy.Redacted())
	}

	if len(opts.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(opts.Cookies))
		for _, ck := range opts.Cookies {
			cookies = append(cookies, &http.Cookie{Name: ck.Name, Value: ck.Value, Domain: ck.Domain})
		}
		if err := c.SetCookies(targetURL, cookies); err != nil {
			return result, fmt.Errorf("failed to set cookies: %w", err)
		}
	}

	if identity != nil && len(identity.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for _, h := range identity.Headers {
				r.Headers.Set(h.Name, h.Value)
			}
		})
	}

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
		logger.Debug("static fetch error", "status", result.StatusCode, "error", err)
	})

	if err := c.Visit(targetURL); err != nil {
		logger.Debug("static fetch visit failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("failed to visit URL: %w", err)
	}

	if fetchErr != nil {
		return result, fetchErr
	}

	if result.HTML != "" {
		if err := ParseContent(&result); err != nil {
			return result, fmt.Errorf("failed to parse content: %w", err)
		}
	}

	if kind := DetectChallenge(result.Title, result.HTML); kind != "" {
		logger.Warn("challenge page detected", "url", targetURL, "type", kind)
		return result, ChallengeError(kind)
	}

	logger.Debug("static fetch complete",
		"url", targetURL,
		"title", result.Title,
		"text_size", len(result.Text),
		"links_count", len(result.Links))
	return result, nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}
