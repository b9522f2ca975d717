// Package fetcher defines the interface for identity-aware page fetching.
// A Fetcher presents one identity bundle per request: the bundle's proxy,
// signature and header set. Implement the interface to add fetch strategies
// with other transports.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL, presenting the identity
	// carried in opts.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "browser").
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	Identity        *anticrawl.Bundle // identity to present; nil uses fetcher defaults
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (browser fetchers)
	WaitDuration    time.Duration // Additional wait after load
	Cookies         []Cookie
}

// Cookie represents an HTTP cookie.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// Content represents fetched page data. IdentityID links the page back to
// the bundle that fetched it.
type Content struct {
	URL         string
	IdentityID  string
	HTML        string
	Text        string // Extracted readable text
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Links       []string // Links found on the page
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, fetcher.ErrAntiBot).
var (
	// ErrCaptchaChallenge indicates the site has an interactive CAPTCHA.
	ErrCaptchaChallenge = errors.New("captcha challenge detected")
	// ErrAntiBot indicates the site's anti-bot protection blocked the request.
	ErrAntiBot = errors.New("anti-bot protection detected")
	// ErrChallengeTimeout indicates a timeout while waiting for a challenge to resolve.
	ErrChallengeTimeout = errors.New("challenge timeout")
)

// DetectChallenge reports which challenge system served the page, or ""
// for an ordinary page. Both fetch strategies run it on every response.
func DetectChallenge(title, html string) string {
	titleLower := strings.ToLower(title)
	htmlLower := strings.ToLower(html)

	if strings.Contains(htmlLower, "challenges.cloudflare.com/turnstile") ||
		strings.Contains(htmlLower, "cf-turnstile") {
		return "cloudflare-turnstile"
	}

	if strings.Contains(titleLower, "just a moment") ||
		strings.Contains(titleLower, "attention required") ||
		strings.Contains(htmlLower, "cf-challenge") ||
		strings.Contains(htmlLower, "cf_chl_opt") {
		return "cloudflare"
	}

	if strings.Contains(htmlLower, "hcaptcha.com") ||
		strings.Contains(htmlLower, "h-captcha") {
		return "hcaptcha"
	}

	if strings.Contains(htmlLower, "google.com/recaptcha") ||
		strings.Contains(htmlLower, "g-recaptcha") {
		return "recaptcha"
	}

	if strings.Contains(titleLower, "access denied") ||
		strings.Contains(titleLower, "bot detection") ||
		strings.Contains(htmlLower, "robot or human") {
		return "anti-bot"
	}

	return ""
}

// ChallengeError maps a detected challenge kind to its sentinel error.
// Returns nil for the empty kind.
func ChallengeError(kind string) error {
	switch kind {
	case "":
		return nil
	case "hcaptcha", "recaptcha", "cloudflare-turnstile":
		return fmt.Errorf("%w: %s", ErrCaptchaChallenge, kind)
	default:
		return fmt.Errorf("%w: %s", ErrAntiBot, kind)
	}
}
