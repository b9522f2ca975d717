// Package fetcher provides the browser-based fetch implementation for the
// CLI. It drives headless Chrome through chromedp, presenting the identity
// bundles drawn from pkg/anticrawl and applying the provider's
// fingerprint-suppression launch arguments.
package fetcher

import (
	"time"
)

// Config holds configuration for the browser fetcher.
type Config struct {
	Timeout    time.Duration
	Stealth    bool     // inject the evasion init script before navigation
	LaunchArgs []string // provider launch arguments, applied as Chrome flags
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		Stealth: true,
	}
}
