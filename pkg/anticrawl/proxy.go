package anticrawl

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the protocol family of a proxy endpoint.
type Scheme string

const (
	SchemeHTTP   Scheme = "http"
	SchemeHTTPS  Scheme = "https"
	SchemeSOCKS5 Scheme = "socks5"
)

// RotationMode selects how the proxy pool hands out endpoints.
type RotationMode string

const (
	// RotationRandom draws a uniformly random endpoint per call,
	// independent across calls.
	RotationRandom RotationMode = "random"

	// RotationSequential walks the pool in order under a shared cursor: a
	// strict round robin where every endpoint is handed out exactly once
	// per cycle, regardless of how calls interleave across workers.
	RotationSequential RotationMode = "sequential"
)

// ProxyEndpoint is one configured egress point. Values are parsed and
// validated once at configuration time and never mutated.
type ProxyEndpoint struct {
	Scheme   Scheme `json:"scheme" yaml:"scheme"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// ProxyURL returns the endpoint as a parsed URL suitable for transport
// configuration (http.Transport.Proxy, colly's proxy function).
func (p ProxyEndpoint) ProxyURL() *url.URL {
	u := &url.URL{
		Scheme: string(p.Scheme),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// URL returns the scheme://[user:pass@]host:port string form.
func (p ProxyEndpoint) URL() string {
	return p.ProxyURL().String()
}

// Redacted returns the endpoint string with the password masked, for logs
// and diagnostics.
func (p ProxyEndpoint) Redacted() string {
	return p.ProxyURL().Redacted()
}

// ParseProxyEndpoint parses one entry of the form
//
//	scheme://[user:pass@]host:port
//
// where scheme is http, https or socks5. Each malformed component fails
// with its own sentinel error so configuration messages stay deterministic:
// ErrInvalidProxyScheme, ErrInvalidProxyCredentials, ErrMissingProxyHost or
// ErrInvalidProxyPort.
func ParseProxyEndpoint(raw string) (ProxyEndpoint, error) {
	scheme, rest, found := strings.Cut(raw, "://")
	if !found || scheme == "" {
		return ProxyEndpoint{}, ErrInvalidProxyScheme
	}

	var ep ProxyEndpoint
	switch s := Scheme(strings.ToLower(scheme)); s {
	case SchemeHTTP, SchemeHTTPS, SchemeSOCKS5:
		ep.Scheme = s
	default:
		return ProxyEndpoint{}, fmt.Errorf("%w: got %q", ErrInvalidProxyScheme, scheme)
	}

	// Credentials split on the last "@" so passwords may contain one.
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		user, pass, ok := strings.Cut(rest[:i], ":")
		if !ok || user == "" || pass == "" {
			return ProxyEndpoint{}, ErrInvalidProxyCredentials
		}
		ep.Username, ep.Password = user, pass
		rest = rest[i+1:]
	}

	host, portStr, err := net.SplitHostPort(rest)
	if err != nil {
		return ProxyEndpoint{}, fmt.Errorf("%w: got %q", ErrInvalidProxyPort, rest)
	}
	if host == "" {
		return ProxyEndpoint{}, ErrMissingProxyHost
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return ProxyEndpoint{}, fmt.Errorf("%w: got %q", ErrInvalidProxyPort, portStr)
	}
	ep.Host, ep.Port = host, port

	return ep, nil
}

// ProxyPool hands out one egress endpoint per request. The endpoint set is
// immutable after construction; in sequential mode the only mutable state
// is the shared rotation cursor.
type ProxyPool struct {
	endpoints []ProxyEndpoint
	mode      RotationMode
	enabled   bool
	cursor    *Cursor
	rnd       Source
}

func newProxyPool(endpoints []ProxyEndpoint, mode RotationMode, enabled bool, cursor *Cursor, rnd Source) *ProxyPool {
	return &ProxyPool{
		endpoints: endpoints,
		mode:      mode,
		enabled:   enabled,
		cursor:    cursor,
		rnd:       rnd,
	}
}

// Next returns the endpoint for the next request, or nil for a direct
// connection when rotation is disabled or no endpoints are configured.
// In sequential mode N concurrent calls over a pool of size N each claim a
// distinct index before the cursor wraps.
func (p *ProxyPool) Next() *ProxyEndpoint {
	if !p.enabled || len(p.endpoints) == 0 {
		return nil
	}
	var idx int
	if p.mode == RotationSequential {
		idx = p.cursor.Next(len(p.endpoints))
	} else {
		idx = p.rnd.IntN(len(p.endpoints))
	}
	ep := p.endpoints[idx]
	return &ep
}

// ProxyFunc adapts the pool to the proxy-selector shape shared by
// http.Transport and colly's SetProxyFunc. A nil URL with nil error means
// direct connection.
func (p *ProxyPool) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		ep := p.Next()
		if ep == nil {
			return nil, nil
		}
		return ep.ProxyURL(), nil
	}
}

// Available reports whether the pool can supply endpoints.
func (p *ProxyPool) Available() bool {
	return p.enabled && len(p.endpoints) > 0
}

// Size returns the number of configured endpoints.
func (p *ProxyPool) Size() int {
	return len(p.endpoints)
}

// Mode returns the configured rotation mode.
func (p *ProxyPool) Mode() RotationMode {
	return p.mode
}

// Endpoints returns a copy of the configured endpoint set.
func (p *ProxyPool) Endpoints() []ProxyEndpoint {
	return append([]ProxyEndpoint(nil), p.endpoints...)
}
