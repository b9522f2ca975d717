package anticrawl

import (
	"context"
	"sync"
	"testing"
	"time"
)

func testProvider(t *testing.T, mutate func(*Settings), opts ...Option) *Provider {
	t.Helper()
	s := DefaultSettings()
	s.EnableRequestDelay = false
	if mutate != nil {
		mutate(&s)
	}
	cfg, err := NewConfig(s)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	return New(cfg, opts...)
}

// --- Provider Tests ---

func TestProvider_Next_SequentialProxies(t *testing.T) {
	p := testProvider(t, func(s *Settings) {
		s.EnableProxyRotation = true
		s.ProxyRotationMode = string(RotationSequential)
		s.ProxyList = "http://a:1,http://b:2"
	})

	var hosts []string
	for i := 0; i < 3; i++ {
		b := p.Next()
		if b.Proxy == nil {
			t.Fatalf("draw %d: bundle has no proxy", i)
		}
		hosts = append(hosts, b.Proxy.Host)
	}

	want := []string{"a", "b", "a"}
	for i := range want {
		if hosts[i] != want[i] {
			t.Errorf("draw %d routed through %q, want %q (got sequence %v)", i, hosts[i], want[i], hosts)
		}
	}
}

func TestProvider_Next_DirectWhenRotationOff(t *testing.T) {
	p := testProvider(t, func(s *Settings) {
		s.ProxyList = "http://a:1,http://b:2"
	})

	for i := 0; i < 10; i++ {
		if b := p.Next(); b.Proxy != nil {
			t.Fatalf("draw %d carried proxy %v with rotation disabled", i, b.Proxy)
		}
	}
}

func TestProvider_Next_BundleShape(t *testing.T) {
	p := testProvider(t, nil, WithRand(NewSeededSource(7)))

	b := p.Next()
	if b.ID == "" {
		t.Error("bundle has no ID")
	}
	if b.Signature.Value == "" {
		t.Error("bundle has no signature")
	}
	if got := b.Headers.Get("User-Agent"); got != b.Signature.Value {
		t.Errorf("User-Agent = %q, want the bundle signature %q", got, b.Signature.Value)
	}
	if !b.Headers.Has("Accept-Language") {
		t.Error("bundle is missing Accept-Language")
	}
	if b.Delay != 0 {
		t.Errorf("Delay = %v, want 0 with delays disabled", b.Delay)
	}
}

func TestProvider_Next_UniqueIDs(t *testing.T) {
	p := testProvider(t, nil)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := p.Next().ID
		if seen[id] {
			t.Fatalf("duplicate bundle ID %q", id)
		}
		seen[id] = true
	}
}

func TestProvider_Next_DelayWithinBounds(t *testing.T) {
	p := testProvider(t, func(s *Settings) {
		s.EnableRequestDelay = true
		s.MinRequestDelay = 0.5
		s.MaxRequestDelay = 3.0
	}, WithRand(NewSeededSource(11)))

	for i := 0; i < 200; i++ {
		d := p.Next().Delay
		if d < 500*time.Millisecond || d > 3*time.Second {
			t.Fatalf("draw %d: delay %v outside [500ms, 3s]", i, d)
		}
	}
}

func TestProvider_Disabled_NeutralBundle(t *testing.T) {
	p := testProvider(t, func(s *Settings) {
		s.Enabled = false
		s.EnableProxyRotation = true
		s.ProxyList = "http://a:1"
		s.EnableRequestDelay = true
	})

	b := p.Next()
	if b.Proxy != nil {
		t.Errorf("disabled layer assigned proxy %v", b.Proxy)
	}
	if b.Delay != 0 {
		t.Errorf("disabled layer drew delay %v", b.Delay)
	}
	if b.Signature.Value != desktopSignatures[0] {
		t.Errorf("disabled layer signature = %q, want the stable default", b.Signature.Value)
	}
	if len(b.Headers) != 1 || b.Headers[0].Name != "User-Agent" {
		t.Errorf("disabled layer headers = %v, want bare User-Agent", b.Headers)
	}
	if args := p.LaunchArguments(); len(args) != 0 {
		t.Errorf("disabled layer emitted launch arguments %v", args)
	}
}

func TestProvider_Draw_AppliesDelayBeforeAssembly(t *testing.T) {
	p := testProvider(t, func(s *Settings) {
		s.EnableRequestDelay = true
		s.MinRequestDelay = 0.02
		s.MaxRequestDelay = 0.05
	})

	start := time.Now()
	b, err := p.Draw(context.Background())
	if err != nil {
		t.Fatalf("Draw returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < b.Delay {
		t.Errorf("Draw returned after %v, bundle reports %v waited", elapsed, b.Delay)
	}
	if b.Delay < 20*time.Millisecond || b.Delay > 50*time.Millisecond {
		t.Errorf("waited delay %v outside configured [20ms, 50ms]", b.Delay)
	}
}

func TestProvider_Draw_CancelSpendsNoRotationSlot(t *testing.T) {
	p := testProvider(t, func(s *Settings) {
		s.EnableProxyRotation = true
		s.ProxyRotationMode = string(RotationSequential)
		s.ProxyList = "http://a:1,http://b:2"
		s.EnableRequestDelay = true
		s.MinRequestDelay = 3600
		s.MaxRequestDelay = 3600
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Draw(ctx); err == nil {
		t.Fatal("Draw succeeded with a cancelled context")
	}

	// The cancelled draw must not have advanced the cursor.
	if got := p.Proxies().Next().Host; got != "a" {
		t.Errorf("first completed draw routed through %q, want \"a\"", got)
	}
}

func TestProvider_Draw_ConcurrentSequentialCoverage(t *testing.T) {
	const workers = 8

	p := testProvider(t, func(s *Settings) {
		s.EnableProxyRotation = true
		s.ProxyRotationMode = string(RotationSequential)
		s.ProxyList = "http://p0:1,http://p1:1,http://p2:1,http://p3:1,http://p4:1,http://p5:1,http://p6:1,http://p7:1"
	})

	hosts := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := p.Draw(context.Background())
			if err != nil {
				t.Errorf("Draw returned error: %v", err)
				return
			}
			hosts <- b.Proxy.Host
		}()
	}
	wg.Wait()
	close(hosts)

	seen := make(map[string]int)
	for h := range hosts {
		seen[h]++
	}
	for h, n := range seen {
		if n != 1 {
			t.Errorf("proxy %q drawn %d times in one full cycle, want exactly once", h, n)
		}
	}
	if len(seen) != workers {
		t.Errorf("full cycle covered %d distinct proxies, want %d", len(seen), workers)
	}
}

func TestProvider_SharedCursorAcrossProviders(t *testing.T) {
	cursor := new(Cursor)
	mutate := func(s *Settings) {
		s.EnableProxyRotation = true
		s.ProxyRotationMode = string(RotationSequential)
		s.ProxyList = "http://a:1,http://b:2,http://c:3"
	}
	p1 := testProvider(t, mutate, WithProxyCursor(cursor))
	p2 := testProvider(t, mutate, WithProxyCursor(cursor))

	var hosts []string
	hosts = append(hosts, p1.Next().Proxy.Host)
	hosts = append(hosts, p2.Next().Proxy.Host)
	hosts = append(hosts, p1.Next().Proxy.Host)
	hosts = append(hosts, p2.Next().Proxy.Host)

	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if hosts[i] != want[i] {
			t.Errorf("interleaved draw %d = %q, want %q (sequence %v)", i, hosts[i], want[i], hosts)
		}
	}
}

func TestProvider_LaunchArguments(t *testing.T) {
	p := testProvider(t, nil)

	args := p.LaunchArguments()
	if len(args) != len(launchArguments) {
		t.Fatalf("LaunchArguments returned %d flags, want %d", len(args), len(launchArguments))
	}
	if args[0] != "--disable-blink-features=AutomationControlled" {
		t.Errorf("first flag = %q, want the automation-control suppressor", args[0])
	}

	// Returned slice is a copy; mutating it must not leak back.
	args[0] = "mutated"
	if p.LaunchArguments()[0] == "mutated" {
		t.Error("LaunchArguments exposed internal state")
	}
}

func TestProvider_Snapshot(t *testing.T) {
	p := testProvider(t, func(s *Settings) {
		s.EnableProxyRotation = true
		s.ProxyRotationMode = string(RotationSequential)
		s.ProxyList = "http://a:1,http://b:2"
		s.UseMobileAgents = true
	})

	snap := p.Snapshot()
	if snap["proxy_count"] != 2 {
		t.Errorf("proxy_count = %v, want 2", snap["proxy_count"])
	}
	if snap["signature_count"] != len(desktopSignatures)+len(mobileSignatures) {
		t.Errorf("signature_count = %v, want %d", snap["signature_count"], len(desktopSignatures)+len(mobileSignatures))
	}
	if snap["proxy_rotation_mode"] != string(RotationSequential) {
		t.Errorf("proxy_rotation_mode = %v, want sequential", snap["proxy_rotation_mode"])
	}
	if snap["enabled"] != true {
		t.Errorf("enabled = %v, want true", snap["enabled"])
	}
}

func TestProvider_DeterministicWithSeededSource(t *testing.T) {
	mutate := func(s *Settings) {
		s.EnableProxyRotation = true
		s.ProxyList = "http://a:1,http://b:2,http://c:3"
	}
	p1 := testProvider(t, mutate, WithRand(NewSeededSource(99)))
	p2 := testProvider(t, mutate, WithRand(NewSeededSource(99)))

	for i := 0; i < 50; i++ {
		b1, b2 := p1.Next(), p2.Next()
		if b1.Signature.Value != b2.Signature.Value {
			t.Fatalf("draw %d: signatures diverged under identical seeds", i)
		}
		if (b1.Proxy == nil) != (b2.Proxy == nil) || (b1.Proxy != nil && b1.Proxy.Host != b2.Proxy.Host) {
			t.Fatalf("draw %d: proxies diverged under identical seeds", i)
		}
	}
}
