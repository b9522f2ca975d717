package anticrawl

// Launch flags that strip automation tells from a Chromium-family browser
// before the first page loads: the AutomationControlled blink feature,
// sandbox constraints that differ under automation, and cross-origin
// isolation behavior that fingerprinting scripts probe for.
var launchArguments = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-web-security",
	"--disable-features=IsolateOrigins,site-per-process",
}

// FingerprintSuppressor supplies the fixed launch arguments for the
// browser host. The list never varies between calls and involves no
// randomness; the crawl engine consumes it once per browser session, not
// per request.
type FingerprintSuppressor struct {
	enabled bool
}

func newFingerprintSuppressor(enabled bool) *FingerprintSuppressor {
	return &FingerprintSuppressor{enabled: enabled}
}

// LaunchArguments returns the flag list in a stable order, or an empty
// list when suppression is disabled.
func (f *FingerprintSuppressor) LaunchArguments() []string {
	if !f.enabled {
		return nil
	}
	return append([]string(nil), launchArguments...)
}

// Enabled reports whether suppression flags are being emitted.
func (f *FingerprintSuppressor) Enabled() bool {
	return f.enabled
}
