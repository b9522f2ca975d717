package anticrawl

import (
	"net/http"
	"strings"
)

// Accept-Language values the synthesizer draws from. Kept small and fixed
// so produced bundles stay inside a testable set.
var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"zh-CN,zh;q=0.9",
	"en-US,en;q=0.9,zh-CN;q=0.8",
}

// Referrer origins presented as the page that linked to the target. The
// synthesizer may also omit the Referer entirely, modelling a first-touch
// navigation.
var referrerOrigins = []string{
	"https://www.google.com/",
	"https://www.bing.com/",
	"https://www.baidu.com/",
	"https://www.duckduckgo.com/",
}

const headerAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

// Header is one name/value pair of a synthesized bundle.
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// HeaderBundle is an ordered list of request headers. Order is part of the
// value: real browsers emit headers in a stable order, so the bundle
// preserves insertion order rather than using a map.
type HeaderBundle []Header

// Get returns the value for a header name, matching case-insensitively.
func (b HeaderBundle) Get(name string) (string, bool) {
	for _, h := range b {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Has reports whether the bundle carries a header with the given name.
func (b HeaderBundle) Has(name string) bool {
	_, ok := b.Get(name)
	return ok
}

// Map returns the bundle as a plain name to value map, losing order.
func (b HeaderBundle) Map() map[string]string {
	m := make(map[string]string, len(b))
	for _, h := range b {
		m[h.Name] = h.Value
	}
	return m
}

// Apply sets every header of the bundle on an http.Header in order.
func (b HeaderBundle) Apply(h http.Header) {
	for _, hdr := range b {
		h.Set(hdr.Name, hdr.Value)
	}
}

// HeaderSynthesizer builds an internally consistent header bundle around
// one client signature. It performs no I/O and keeps no mutable state, so
// concurrent Build calls need no coordination.
type HeaderSynthesizer struct {
	browserHeaders bool
	randomHeaders  bool
	rnd            Source
}

func newHeaderSynthesizer(browserHeaders, randomHeaders bool, rnd Source) *HeaderSynthesizer {
	return &HeaderSynthesizer{
		browserHeaders: browserHeaders,
		randomHeaders:  randomHeaders,
		rnd:            rnd,
	}
}

// Build returns the header bundle for one request identity. The bundle
// always carries the signature as User-Agent and an Accept-Language drawn
// from the fixed locale set. With browser headers enabled the realistic
// navigation baseline is added; with random headers enabled a Referer is
// drawn from the fixed origin set or omitted entirely. Given the same
// signature and the same random draws the result is identical.
func (s *HeaderSynthesizer) Build(sig ClientSignature) HeaderBundle {
	bundle := HeaderBundle{{Name: "User-Agent", Value: sig.Value}}

	if s.browserHeaders {
		bundle = append(bundle, Header{Name: "Accept", Value: headerAccept})
	}
	bundle = append(bundle, Header{Name: "Accept-Language", Value: acceptLanguages[s.rnd.IntN(len(acceptLanguages))]})
	if s.browserHeaders {
		bundle = append(bundle,
			Header{Name: "Accept-Encoding", Value: "gzip, deflate, br"},
			Header{Name: "DNT", Value: "1"},
			Header{Name: "Connection", Value: "keep-alive"},
			Header{Name: "Upgrade-Insecure-Requests", Value: "1"},
			Header{Name: "Sec-Fetch-Dest", Value: "document"},
			Header{Name: "Sec-Fetch-Mode", Value: "navigate"},
			Header{Name: "Sec-Fetch-Site", Value: "none"},
			Header{Name: "Cache-Control", Value: "max-age=0"},
		)
	}

	if s.randomHeaders {
		if ref, ok := s.pickReferrer(); ok {
			bundle = append(bundle, Header{Name: "Referer", Value: ref})
		}
	}

	return bundle
}

// pickReferrer draws over the referrer set plus one extra slot standing in
// for "no referrer". Absence is a represented outcome, not a placeholder
// value.
func (s *HeaderSynthesizer) pickReferrer() (string, bool) {
	i := s.rnd.IntN(len(referrerOrigins) + 1)
	if i == len(referrerOrigins) {
		return "", false
	}
	return referrerOrigins[i], true
}

// Locales returns a copy of the Accept-Language candidate set.
func Locales() []string {
	return append([]string(nil), acceptLanguages...)
}

// Referrers returns a copy of the Referer candidate set.
func Referrers() []string {
	return append([]string(nil), referrerOrigins...)
}
