package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/searcrawl/anticrawl/internal/logger"
	"github.com/searcrawl/anticrawl/pkg/anticrawl"
	"github.com/searcrawl/anticrawl/pkg/fetcher"
)

// BrowserFetcher renders JavaScript pages in headless Chrome. Every fetch
// runs in a fresh browser context so identities never bleed across requests;
// fetches that carry a proxy get a dedicated browser process, because Chrome
// pins its proxy at launch.
type BrowserFetcher struct {
	config      Config
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewBrowser creates a browser fetcher. One allocator is shared by all
// direct (unproxied) fetches.
func NewBrowser(cfg Config) (*BrowserFetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(cfg)...)

	logger.Debug("browser fetcher created",
		"stealth", cfg.Stealth,
		"launch_args", len(cfg.LaunchArgs),
		"timeout", cfg.Timeout)

	return &BrowserFetcher{
		config:      cfg,
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Fetch renders targetURL and extracts its content, presenting the identity
// carried in opts.
func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL string, opts fetcher.Options) (fetcher.Content, error) {
	identity := opts.Identity

	result := fetcher.Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}
	if identity != nil {
		result.IdentityID = identity.ID
	}

	browserCtx, cancelBrowser := f.browserContext(identity)
	defer cancelBrowser()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html, title string
	actions := []chromedp.Action{network.Enable()}
	actions = append(actions, identityActions(identity)...)
	if len(opts.Cookies) > 0 {
		actions = append(actions, setCookies(targetURL, opts.Cookies))
	}
	if f.config.Stealth {
		actions = append(actions, InjectInitScript())
	}
	actions = append(actions, chromedp.Navigate(targetURL))
	if opts.WaitForSelector != "" {
		actions = append(actions, chromedp.WaitReady(opts.WaitForSelector))
	} else {
		// WaitVisible can poll forever on pages without a visible body.
		actions = append(actions, chromedp.WaitReady("body"))
	}
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}
	actions = append(actions,
		chromedp.OuterHTML("html", &html),
		chromedp.Title(&title),
	)

	logger.Debug("browser fetch",
		"url", targetURL,
		"identity", result.IdentityID,
		"actions", len(actions),
		"timeout", timeout)

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		if shot := captureScreenshot(browserCtx); shot != nil {
			path := filepath.Join(os.TempDir(), fmt.Sprintf("anticrawl-debug-%d.png", time.Now().UnixNano()))
			if writeErr := os.WriteFile(path, shot, 0o644); writeErr == nil {
				logger.Debug("debug screenshot saved", "path", path)
			}
		}
		if ctx.Err() != nil || strings.Contains(err.Error(), "deadline exceeded") {
			logger.Warn("browser timeout, possible anti-bot protection", "url", targetURL)
			return result, fmt.Errorf("%w: %v", fetcher.ErrChallengeTimeout, err)
		}
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	result.HTML = html
	result.Title = title
	result.StatusCode = 200 // chromedp does not surface the navigation status

	if kind := fetcher.DetectChallenge(title, html); kind != "" {
		logger.Warn("challenge page detected", "url", targetURL, "type", kind)
		return result, fetcher.ChallengeError(kind)
	}

	if err := fetcher.ParseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}

	logger.Debug("browser fetch complete",
		"url", targetURL,
		"title", title,
		"text_size", len(result.Text),
		"links", len(result.Links))

	return result, nil
}

// browserContext returns the context one fetch runs in. Identities without
// a proxy share the fetcher's allocator; identities with one get their own,
// since the proxy can only be set at process launch.
func (f *BrowserFetcher) browserContext(identity *anticrawl.Bundle) (context.Context, context.CancelFunc) {
	logf := chromedp.WithLogf(func(format string, args ...interface{}) {
		logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
	})

	if identity == nil || identity.Proxy == nil {
		return chromedp.NewContext(f.allocCtx, logf)
	}

	if identity.Proxy.Username != "" {
		logger.Warn("chrome ignores credentials embedded in the proxy address",
			"proxy", identity.Proxy.Redacted())
	}

	opts := append(AllocatorOptions(f.config), chromedp.ProxyServer(proxyAddress(*identity.Proxy)))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, logf)
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// proxyAddress renders the endpoint in the credential-free form Chrome's
// --proxy-server flag accepts.
func proxyAddress(ep anticrawl.ProxyEndpoint) string {
	return fmt.Sprintf("%s://%s", ep.Scheme, net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port)))
}

// identityActions translates a bundle into CDP overrides: the user agent
// with a coherent navigator.platform, and the remaining headers as extra
// request headers. Must run before navigation.
func identityActions(identity *anticrawl.Bundle) []chromedp.Action {
	if identity == nil {
		return nil
	}

	var actions []chromedp.Action

	if identity.Signature.Value != "" {
		override := emulation.SetUserAgentOverride(identity.Signature.Value).
			WithPlatform(navigatorPlatform(identity.Signature))
		if lang, ok := identity.Headers.Get("Accept-Language"); ok {
			override = override.WithAcceptLanguage(lang)
		}
		actions = append(actions, override)
	}

	headers := make(network.Headers, len(identity.Headers))
	for _, h := range identity.Headers {
		if strings.EqualFold(h.Name, "User-Agent") {
			continue // the override above carries it
		}
		headers[h.Name] = h.Value
	}
	if len(headers) > 0 {
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}

	return actions
}

// navigatorPlatform picks the navigator.platform value matching the
// signature's user-agent string.
func navigatorPlatform(sig anticrawl.ClientSignature) string {
	ua := sig.Value
	switch {
	case strings.Contains(ua, "iPhone"):
		return "iPhone"
	case strings.Contains(ua, "iPad"):
		return "iPad"
	case strings.Contains(ua, "Android"):
		return "Linux armv8l"
	case strings.Contains(ua, "Macintosh"):
		return "MacIntel"
	case strings.Contains(ua, "Linux"):
		return "Linux x86_64"
	default:
		return "Win32"
	}
}

// setCookies returns an action that installs cookies before navigation.
func setCookies(targetURL string, cookies []fetcher.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		u, err := url.Parse(targetURL)
		if err != nil {
			return fmt.Errorf("failed to parse URL for cookies: %w", err)
		}

		params := make([]*network.CookieParam, 0, len(cookies))
		for _, c := range cookies {
			domain := c.Domain
			if domain == "" {
				domain = u.Host
			}
			params = append(params, &network.CookieParam{
				Name:   c.Name,
				Value:  c.Value,
				Domain: domain,
				Path:   "/",
				Secure: u.Scheme == "https",
			})
		}

		return network.SetCookies(params).Do(ctx)
	})
}

// Close releases the shared browser allocator.
func (f *BrowserFetcher) Close() error {
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	return nil
}

// Type returns the fetcher type.
func (f *BrowserFetcher) Type() string {
	return "browser"
}
