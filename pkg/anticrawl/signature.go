package anticrawl

import "strings"

// Platform classifies the device class a client signature claims.
type Platform string

const (
	PlatformDesktop Platform = "desktop"
	PlatformMobile  Platform = "mobile"
)

// Origin records where a signature came from.
type Origin string

const (
	OriginBuiltin Origin = "builtin"
	OriginCustom  Origin = "custom"
)

// ClientSignature identifies a browser and platform, carried in the
// User-Agent header of every request that presents it. Values are immutable
// once the pool is built.
type ClientSignature struct {
	Value    string   `json:"value" yaml:"value"`
	Platform Platform `json:"platform" yaml:"platform"`
	Origin   Origin   `json:"origin" yaml:"origin"`
}

// Built-in desktop signatures covering the common browser/OS pairs.
var desktopSignatures = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/120.0.0.0",
}

// Built-in mobile signatures, included only when mobile agents are enabled.
var mobileSignatures = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 13; SM-S901B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPad; CPU OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
}

// BuiltinDesktopSignatures returns a copy of the built-in desktop set.
func BuiltinDesktopSignatures() []string {
	return append([]string(nil), desktopSignatures...)
}

// BuiltinMobileSignatures returns a copy of the built-in mobile set.
func BuiltinMobileSignatures() []string {
	return append([]string(nil), mobileSignatures...)
}

// classifyPlatform tags a custom signature by the device markers in its
// User-Agent string. Built-in signatures carry their platform explicitly.
func classifyPlatform(ua string) Platform {
	switch {
	case strings.Contains(ua, "Mobi"),
		strings.Contains(ua, "Android"),
		strings.Contains(ua, "iPhone"),
		strings.Contains(ua, "iPad"):
		return PlatformMobile
	}
	return PlatformDesktop
}

// SignaturePool holds the candidate client signatures for one provider.
// The candidate set is fixed at construction; only random draws happen
// afterwards, so the pool is safe for concurrent use.
type SignaturePool struct {
	signatures []ClientSignature
	rotate     bool
	rnd        Source
}

// buildSignatureSet assembles the candidate set: built-in desktop
// signatures, built-in mobile signatures when enabled, then custom entries
// in their configured order.
func buildSignatureSet(custom []string, useMobile bool) []ClientSignature {
	signatures := make([]ClientSignature, 0, len(desktopSignatures)+len(mobileSignatures)+len(custom))
	for _, ua := range desktopSignatures {
		signatures = append(signatures, ClientSignature{Value: ua, Platform: PlatformDesktop, Origin: OriginBuiltin})
	}
	if useMobile {
		for _, ua := range mobileSignatures {
			signatures = append(signatures, ClientSignature{Value: ua, Platform: PlatformMobile, Origin: OriginBuiltin})
		}
	}
	for _, ua := range custom {
		signatures = append(signatures, ClientSignature{Value: ua, Platform: classifyPlatform(ua), Origin: OriginCustom})
	}
	return signatures
}

// newSignaturePool wraps a pre-validated, non-empty candidate set.
func newSignaturePool(signatures []ClientSignature, rotate bool, rnd Source) *SignaturePool {
	return &SignaturePool{signatures: signatures, rotate: rotate, rnd: rnd}
}

// Next returns one signature. With rotation enabled each call is an
// independent uniform draw; with rotation disabled the first pool entry is
// pinned so repeat visits present a stable client.
func (p *SignaturePool) Next() ClientSignature {
	if !p.rotate || len(p.signatures) == 1 {
		return p.signatures[0]
	}
	return p.signatures[p.rnd.IntN(len(p.signatures))]
}

// Default returns the signature presented when rotation is disabled.
func (p *SignaturePool) Default() ClientSignature {
	return p.signatures[0]
}

// Size returns the number of candidate signatures.
func (p *SignaturePool) Size() int {
	return len(p.signatures)
}

// Signatures returns a copy of the candidate set.
func (p *SignaturePool) Signatures() []ClientSignature {
	return append([]ClientSignature(nil), p.signatures...)
}
