package anticrawl

import (
	"net/http"
	"reflect"
	"testing"
)

func testSignature() ClientSignature {
	return ClientSignature{Value: desktopSignatures[0], Platform: PlatformDesktop, Origin: OriginBuiltin}
}

// --- HeaderBundle Tests ---

func TestHeaderBundle_Get(t *testing.T) {
	b := HeaderBundle{
		{Name: "User-Agent", Value: "TestBrowser/1.0"},
		{Name: "Accept-Language", Value: "en-US,en;q=0.9"},
	}

	if v, ok := b.Get("user-agent"); !ok || v != "TestBrowser/1.0" {
		t.Errorf("Get(user-agent) = %q, %v; want TestBrowser/1.0, true", v, ok)
	}
	if _, ok := b.Get("Referer"); ok {
		t.Error("Get(Referer) should report absence")
	}
}

func TestHeaderBundle_Apply(t *testing.T) {
	b := HeaderBundle{
		{Name: "User-Agent", Value: "TestBrowser/1.0"},
		{Name: "DNT", Value: "1"},
	}

	h := make(http.Header)
	b.Apply(h)

	if got := h.Get("User-Agent"); got != "TestBrowser/1.0" {
		t.Errorf("applied User-Agent = %q", got)
	}
	if got := h.Get("DNT"); got != "1" {
		t.Errorf("applied DNT = %q", got)
	}
}

// --- HeaderSynthesizer Tests ---

func TestHeaderSynthesizer_Build_FullBundleOrder(t *testing.T) {
	s := newHeaderSynthesizer(true, false, NewSeededSource(1))
	bundle := s.Build(testSignature())

	want := []string{
		"User-Agent",
		"Accept",
		"Accept-Language",
		"Accept-Encoding",
		"DNT",
		"Connection",
		"Upgrade-Insecure-Requests",
		"Sec-Fetch-Dest",
		"Sec-Fetch-Mode",
		"Sec-Fetch-Site",
		"Cache-Control",
	}
	if len(bundle) != len(want) {
		t.Fatalf("bundle has %d headers, want %d", len(bundle), len(want))
	}
	for i, name := range want {
		if bundle[i].Name != name {
			t.Errorf("header %d = %q, want %q", i, bundle[i].Name, name)
		}
	}
}

func TestHeaderSynthesizer_Build_CarriesSignature(t *testing.T) {
	s := newHeaderSynthesizer(true, true, NewSeededSource(2))
	sig := testSignature()
	bundle := s.Build(sig)

	ua, ok := bundle.Get("User-Agent")
	if !ok || ua != sig.Value {
		t.Errorf("User-Agent = %q, want signature value %q", ua, sig.Value)
	}
}

func TestHeaderSynthesizer_Build_LocaleAlwaysFromSet(t *testing.T) {
	valid := make(map[string]bool, len(acceptLanguages))
	for _, l := range acceptLanguages {
		valid[l] = true
	}

	configs := []struct {
		name            string
		browser, random bool
	}{
		{"all headers", true, true},
		{"browser only", true, false},
		{"random only", false, true},
		{"neither", false, false},
	}

	for _, cfg := range configs {
		t.Run(cfg.name, func(t *testing.T) {
			s := newHeaderSynthesizer(cfg.browser, cfg.random, NewSeededSource(5))
			for i := 0; i < 200; i++ {
				bundle := s.Build(testSignature())
				locale, ok := bundle.Get("Accept-Language")
				if !ok || locale == "" {
					t.Fatal("bundle missing Accept-Language")
				}
				if !valid[locale] {
					t.Fatalf("Accept-Language %q outside configured locale set", locale)
				}
			}
		})
	}
}

func TestHeaderSynthesizer_Build_RefererFromSetOrAbsent(t *testing.T) {
	valid := make(map[string]bool, len(referrerOrigins))
	for _, r := range referrerOrigins {
		valid[r] = true
	}

	s := newHeaderSynthesizer(true, true, NewSeededSource(9))
	present, absent := 0, 0
	for i := 0; i < 1000; i++ {
		bundle := s.Build(testSignature())
		ref, ok := bundle.Get("Referer")
		if !ok {
			absent++
			continue
		}
		present++
		if !valid[ref] {
			t.Fatalf("Referer %q outside configured origin set", ref)
		}
	}

	// Both outcomes must actually occur; absence is a first-class result.
	if present == 0 {
		t.Error("Referer never present across 1000 draws")
	}
	if absent == 0 {
		t.Error("Referer never absent across 1000 draws")
	}
}

func TestHeaderSynthesizer_Build_NoRefererWhenRandomDisabled(t *testing.T) {
	s := newHeaderSynthesizer(true, false, NewSeededSource(4))
	for i := 0; i < 100; i++ {
		if s.Build(testSignature()).Has("Referer") {
			t.Fatal("Referer present with random headers disabled")
		}
	}
}

func TestHeaderSynthesizer_Build_MinimalWithoutBrowserHeaders(t *testing.T) {
	s := newHeaderSynthesizer(false, false, NewSeededSource(6))
	bundle := s.Build(testSignature())

	if len(bundle) != 2 {
		t.Fatalf("bundle has %d headers, want 2 (User-Agent, Accept-Language)", len(bundle))
	}
	if bundle.Has("Accept") || bundle.Has("Sec-Fetch-Mode") || bundle.Has("Cache-Control") {
		t.Error("browser baseline present with browser headers disabled")
	}
}

func TestHeaderSynthesizer_Build_Reproducible(t *testing.T) {
	a := newHeaderSynthesizer(true, true, NewSeededSource(42))
	b := newHeaderSynthesizer(true, true, NewSeededSource(42))

	sig := testSignature()
	for i := 0; i < 50; i++ {
		if !reflect.DeepEqual(a.Build(sig), b.Build(sig)) {
			t.Fatalf("draw %d diverged between identically seeded synthesizers", i)
		}
	}
}

func TestHeaderSynthesizer_Build_PlatformConsistency(t *testing.T) {
	s := newHeaderSynthesizer(true, true, NewSeededSource(8))
	mobile := ClientSignature{Value: mobileSignatures[0], Platform: PlatformMobile, Origin: OriginBuiltin}

	bundle := s.Build(mobile)
	ua, _ := bundle.Get("User-Agent")
	if ua != mobile.Value {
		t.Errorf("User-Agent = %q, want the mobile signature", ua)
	}
	// The remaining headers are platform-neutral; none may claim a
	// different device class than the signature.
	for _, h := range bundle {
		if h.Name == "User-Agent" {
			continue
		}
		if v := h.Value; v == "desktop" || v == "mobile" {
			t.Errorf("header %s carries platform claim %q", h.Name, v)
		}
	}
}
