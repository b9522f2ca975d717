package anticrawl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config is the validated, immutable identity configuration. All parsing
// and validation happens once in NewConfig; afterwards the value is shared
// read-only across every crawl worker, so no synchronization is needed for
// configuration access.
type Config struct {
	settings   Settings
	proxies    []ProxyEndpoint
	signatures []ClientSignature
	mode       RotationMode
	delay      DelayRange
}

// NewConfig validates raw settings eagerly and builds an immutable
// configuration snapshot. Any invalid setting aborts with a *ConfigError
// naming the offending key, and for list-valued settings the failing
// entry. Nothing is skipped or silently defaulted.
func NewConfig(s Settings) (*Config, error) {
	s.ProxyRotationMode = strings.ToLower(strings.TrimSpace(s.ProxyRotationMode))

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, translateFieldError(verrs[0], s)
		}
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	entries := s.ProxyEntries()
	proxies := make([]ProxyEndpoint, 0, len(entries))
	for i, entry := range entries {
		ep, err := ParseProxyEndpoint(entry)
		if err != nil {
			return nil, configEntryErr(KeyProxyList, i+1, entry, err)
		}
		proxies = append(proxies, ep)
	}

	signatures := buildSignatureSet(s.CustomAgents(), s.UseMobileAgents)
	if len(signatures) == 0 {
		return nil, configErr(KeyCustomAgents, ErrEmptySignaturePool)
	}

	return &Config{
		settings:   s,
		proxies:    proxies,
		signatures: signatures,
		mode:       RotationMode(s.ProxyRotationMode),
		delay: DelayRange{
			Min: time.Duration(s.MinRequestDelay * float64(time.Second)),
			Max: time.Duration(s.MaxRequestDelay * float64(time.Second)),
		},
	}, nil
}

// translateFieldError maps the first struct-level validation failure onto
// the configuration key it belongs to.
func translateFieldError(e validator.FieldError, s Settings) *ConfigError {
	switch e.StructField() {
	case "ProxyRotationMode":
		return configValueErr(KeyProxyRotationMode, s.ProxyRotationMode, ErrInvalidRotationMode)
	case "MinRequestDelay":
		return configValueErr(KeyMinDelay, formatSeconds(s.MinRequestDelay), ErrInvalidDelayBounds)
	case "MaxRequestDelay":
		return configValueErr(KeyMaxDelay, formatSeconds(s.MaxRequestDelay), ErrInvalidDelayBounds)
	}
	return &ConfigError{
		Setting: e.StructField(),
		Err:     fmt.Errorf("failed validation %q", e.Tag()),
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Enabled reports the master switch. When false the provider hands out
// neutral bundles and no launch flags.
func (c *Config) Enabled() bool {
	return c.settings.Enabled
}

// Settings returns a copy of the normalized raw settings.
func (c *Config) Settings() Settings {
	return c.settings
}

// ProxyEndpoints returns a copy of the parsed proxy set, in configuration
// order.
func (c *Config) ProxyEndpoints() []ProxyEndpoint {
	return append([]ProxyEndpoint(nil), c.proxies...)
}

// Signatures returns a copy of the client-signature candidate set.
func (c *Config) Signatures() []ClientSignature {
	return append([]ClientSignature(nil), c.signatures...)
}

// RotationMode returns the proxy rotation mode.
func (c *Config) RotationMode() RotationMode {
	return c.mode
}

// Delay returns the inter-request delay bounds.
func (c *Config) Delay() DelayRange {
	return c.delay
}
