package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

// proxyServer runs an HTTP server that answers every proxied request with
// 204, standing in for a working forward proxy.
func proxyServer(t *testing.T, hits *atomic.Int64) anticrawl.ProxyEndpoint {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return endpointFor(t, srv.URL)
}

func endpointFor(t *testing.T, rawURL string) anticrawl.ProxyEndpoint {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split server host: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return anticrawl.ProxyEndpoint{Scheme: anticrawl.SchemeHTTP, Host: host, Port: port}
}

// --- Check Tests ---

func TestProber_Check_ReachableEndpoint(t *testing.T) {
	var hits atomic.Int64
	ep := proxyServer(t, &hits)

	p := New(WithTarget("http://upstream.invalid/"), WithTimeout(5*time.Second))
	res := p.Check(context.Background(), ep)

	if !res.IsSuccess() {
		t.Fatalf("probe failed: %s", res.Error)
	}
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", res.StatusCode)
	}
	if hits.Load() == 0 {
		t.Error("request never went through the proxy")
	}
	if res.Endpoint == "" {
		t.Error("result does not identify the endpoint")
	}
}

func TestProber_Check_UnreachableEndpoint(t *testing.T) {
	// Bind a listener, learn its port, then close it so the port refuses.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	ep := endpointFor(t, "http://"+addr)
	p := New(WithTarget("http://upstream.invalid/"), WithTimeout(2*time.Second))
	res := p.Check(context.Background(), ep)

	if res.IsSuccess() {
		t.Fatal("probe of a closed port reported success")
	}
	if res.Error == "" {
		t.Error("failed probe carries no error message")
	}
	if res.StatusCode != 0 {
		t.Errorf("status = %d, want 0 for transport failure", res.StatusCode)
	}
}

func TestProber_Check_CredentialsRedacted(t *testing.T) {
	ep := proxyServer(t, nil)
	ep.Username = "user"
	ep.Password = "secret"

	p := New(WithTarget("http://upstream.invalid/"))
	res := p.Check(context.Background(), ep)

	if res.Endpoint == "" {
		t.Fatal("result does not identify the endpoint")
	}
	if strings.Contains(res.Endpoint, "secret") {
		t.Fatalf("probe result leaked the proxy password: %s", res.Endpoint)
	}
}

// --- CheckAll Tests ---

func TestProber_CheckAll_PreservesOrder(t *testing.T) {
	good := proxyServer(t, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	deadAddr := l.Addr().String()
	l.Close()
	dead := endpointFor(t, "http://"+deadAddr)

	endpoints := []anticrawl.ProxyEndpoint{good, dead, good}

	p := New(WithTarget("http://upstream.invalid/"), WithTimeout(2*time.Second), WithWorkers(2))
	results := p.CheckAll(context.Background(), endpoints)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].IsSuccess() || !results[2].IsSuccess() {
		t.Errorf("reachable endpoints reported down: %+v", results)
	}
	if results[1].IsSuccess() {
		t.Errorf("dead endpoint reported up: %+v", results[1])
	}
}

func TestProber_CheckAll_Empty(t *testing.T) {
	p := New()
	results := p.CheckAll(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("got %d results for empty input", len(results))
	}
}

func TestProber_CheckAll_ManyEndpointsBoundedWorkers(t *testing.T) {
	var hits atomic.Int64
	ep := proxyServer(t, &hits)

	endpoints := make([]anticrawl.ProxyEndpoint, 12)
	for i := range endpoints {
		endpoints[i] = ep
	}

	p := New(WithTarget("http://upstream.invalid/"), WithWorkers(3))
	results := p.CheckAll(context.Background(), endpoints)

	if len(results) != 12 {
		t.Fatalf("got %d results, want 12", len(results))
	}
	for i, r := range results {
		if !r.IsSuccess() {
			t.Errorf("endpoint %d reported down: %s", i, r.Error)
		}
	}
	if hits.Load() != 12 {
		t.Errorf("proxy saw %d requests, want 12", hits.Load())
	}
}
