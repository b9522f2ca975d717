// Package anticrawl supplies per-request crawl identities: a rotated proxy
// endpoint, a client signature, a correlated header bundle and a randomized
// delay, plus the fixed launch flags that hide browser automation. The
// package performs no network I/O itself; the consuming crawl engine
// applies what it hands out.
package anticrawl

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Bundle is one complete request identity. The crawl engine waits out
// Delay, then performs the fetch through Proxy (nil means a direct
// connection) presenting Signature and Headers.
type Bundle struct {
	ID        string          `json:"id" yaml:"id"`
	Proxy     *ProxyEndpoint  `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Signature ClientSignature `json:"signature" yaml:"signature"`
	Headers   HeaderBundle    `json:"headers" yaml:"headers"`
	Delay     time.Duration   `json:"delay" yaml:"delay"`
}

// Provider hands out request identities built from one validated Config.
// All methods are safe for concurrent use by many crawl workers; the only
// shared mutable state is the sequential-rotation cursor.
type Provider struct {
	cfg    *Config
	rnd    Source
	cursor *Cursor

	signatures *SignaturePool
	proxies    *ProxyPool
	headers    *HeaderSynthesizer
	delays     *DelayScheduler
	stealth    *FingerprintSuppressor
}

// New builds a Provider from a validated configuration. Options inject a
// deterministic random source or a shared rotation cursor; by default each
// provider owns a fresh cursor and draws from the production source.
func New(cfg *Config, opts ...Option) *Provider {
	p := &Provider{
		cfg:    cfg,
		rnd:    DefaultSource(),
		cursor: new(Cursor),
	}
	for _, opt := range opts {
		opt(p)
	}

	s := cfg.Settings()
	p.signatures = newSignaturePool(cfg.signatures, s.EnableUserAgentRotation, p.rnd)
	p.proxies = newProxyPool(cfg.proxies, cfg.mode, s.EnableProxyRotation, p.cursor, p.rnd)
	p.headers = newHeaderSynthesizer(s.EnableBrowserHeaders, s.EnableRandomHeaders, p.rnd)
	p.delays = newDelayScheduler(cfg.delay, s.EnableRequestDelay, p.rnd)
	p.stealth = newFingerprintSuppressor(s.Enabled)
	return p
}

// Next assembles one identity bundle without waiting. Delay carries the
// drawn duration for the caller to apply.
func (p *Provider) Next() Bundle {
	if !p.cfg.Enabled() {
		return p.neutralBundle()
	}
	b := p.assemble()
	b.Delay = p.delays.NextDelay()
	return b
}

// Draw waits out one drawn delay, then assembles an identity bundle.
// Delay carries the duration already waited. If the context is cancelled
// during the wait no identity is assembled, so no sequential-rotation slot
// is spent.
func (p *Provider) Draw(ctx context.Context) (Bundle, error) {
	if !p.cfg.Enabled() {
		if err := ctx.Err(); err != nil {
			return Bundle{}, err
		}
		return p.neutralBundle(), nil
	}
	waited, err := p.delays.Wait(ctx)
	if err != nil {
		return Bundle{}, err
	}
	b := p.assemble()
	b.Delay = waited
	return b, nil
}

// assemble draws proxy, signature and headers. The three draws need no
// atomicity relative to each other; skew between which proxy and which
// signature get paired has no correctness impact.
func (p *Provider) assemble() Bundle {
	sig := p.signatures.Next()
	return Bundle{
		ID:        uuid.NewString(),
		Proxy:     p.proxies.Next(),
		Signature: sig,
		Headers:   p.headers.Build(sig),
	}
}

// neutralBundle is what a disabled layer hands out: the stable default
// signature with a bare User-Agent header, no proxy and no wait.
func (p *Provider) neutralBundle() Bundle {
	sig := p.signatures.Default()
	return Bundle{
		ID:        uuid.NewString(),
		Signature: sig,
		Headers:   HeaderBundle{{Name: "User-Agent", Value: sig.Value}},
	}
}

// LaunchArguments returns the fingerprint-suppression flags for a new
// browser session, empty when the layer is disabled.
func (p *Provider) LaunchArguments() []string {
	return p.stealth.LaunchArguments()
}

// Config returns the provider's immutable configuration.
func (p *Provider) Config() *Config {
	return p.cfg
}

// Signatures returns the signature pool.
func (p *Provider) Signatures() *SignaturePool {
	return p.signatures
}

// Proxies returns the proxy pool.
func (p *Provider) Proxies() *ProxyPool {
	return p.proxies
}

// Headers returns the header synthesizer.
func (p *Provider) Headers() *HeaderSynthesizer {
	return p.headers
}

// Delays returns the delay scheduler.
func (p *Provider) Delays() *DelayScheduler {
	return p.delays
}

// Snapshot reports the effective configuration for diagnostics and logs.
func (p *Provider) Snapshot() map[string]any {
	s := p.cfg.Settings()
	return map[string]any{
		"enabled":                    s.Enabled,
		"enable_proxy_rotation":      s.EnableProxyRotation,
		"enable_user_agent_rotation": s.EnableUserAgentRotation,
		"enable_request_delay":       s.EnableRequestDelay,
		"enable_random_headers":      s.EnableRandomHeaders,
		"enable_browser_headers":     s.EnableBrowserHeaders,
		"min_request_delay":          s.MinRequestDelay,
		"max_request_delay":          s.MaxRequestDelay,
		"proxy_rotation_mode":        string(p.proxies.Mode()),
		"use_mobile_agents":          s.UseMobileAgents,
		"proxy_count":                p.proxies.Size(),
		"signature_count":            p.signatures.Size(),
	}
}
