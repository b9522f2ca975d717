package anticrawl

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Configuration keys, consumed as a flat key to value mapping. The same
// names work as environment variables and as config-file keys.
const (
	KeyEnabled           = "ANTI_CRAWL_ENABLED"
	KeyProxyRotation     = "ENABLE_PROXY_ROTATION"
	KeyProxyRotationMode = "PROXY_ROTATION_MODE"
	KeyProxyList         = "PROXY_LIST"
	KeyAgentRotation     = "ENABLE_USER_AGENT_ROTATION"
	KeyCustomAgents      = "CUSTOM_USER_AGENTS"
	KeyMobileAgents      = "USE_MOBILE_AGENTS"
	KeyRequestDelay      = "ENABLE_REQUEST_DELAY"
	KeyMinDelay          = "MIN_REQUEST_DELAY"
	KeyMaxDelay          = "MAX_REQUEST_DELAY"
	KeyRandomHeaders     = "ENABLE_RANDOM_HEADERS"
	KeyBrowserHeaders    = "ENABLE_BROWSER_HEADERS"
)

// Keys lists every configuration key in documentation order.
func Keys() []string {
	return []string{
		KeyEnabled,
		KeyProxyRotation,
		KeyProxyRotationMode,
		KeyProxyList,
		KeyAgentRotation,
		KeyCustomAgents,
		KeyMobileAgents,
		KeyRequestDelay,
		KeyMinDelay,
		KeyMaxDelay,
		KeyRandomHeaders,
		KeyBrowserHeaders,
	}
}

// Settings is the raw configuration surface before validation. Field names
// map one to one onto the configuration keys; delays are fractional
// seconds; list-valued settings are comma-separated strings.
type Settings struct {
	Enabled                 bool    `json:"anti_crawl_enabled" mapstructure:"anti_crawl_enabled"`
	EnableProxyRotation     bool    `json:"enable_proxy_rotation" mapstructure:"enable_proxy_rotation"`
	ProxyRotationMode       string  `json:"proxy_rotation_mode" mapstructure:"proxy_rotation_mode" validate:"oneof=random sequential"`
	ProxyList               string  `json:"proxy_list" mapstructure:"proxy_list"`
	EnableUserAgentRotation bool    `json:"enable_user_agent_rotation" mapstructure:"enable_user_agent_rotation"`
	CustomUserAgents        string  `json:"custom_user_agents" mapstructure:"custom_user_agents"`
	UseMobileAgents         bool    `json:"use_mobile_agents" mapstructure:"use_mobile_agents"`
	EnableRequestDelay      bool    `json:"enable_request_delay" mapstructure:"enable_request_delay"`
	MinRequestDelay         float64 `json:"min_request_delay" mapstructure:"min_request_delay" validate:"gte=0"`
	MaxRequestDelay         float64 `json:"max_request_delay" mapstructure:"max_request_delay" validate:"gte=0,gtefield=MinRequestDelay"`
	EnableRandomHeaders     bool    `json:"enable_random_headers" mapstructure:"enable_random_headers"`
	EnableBrowserHeaders    bool    `json:"enable_browser_headers" mapstructure:"enable_browser_headers"`
}

// DefaultSettings returns the documented defaults: identity diversification
// on, proxy rotation off, random rotation mode, desktop signatures only,
// delays between 0.5s and 3s, full header synthesis.
func DefaultSettings() Settings {
	return Settings{
		Enabled:                 true,
		EnableProxyRotation:     false,
		ProxyRotationMode:       string(RotationRandom),
		EnableUserAgentRotation: true,
		UseMobileAgents:         false,
		EnableRequestDelay:      true,
		MinRequestDelay:         0.5,
		MaxRequestDelay:         3.0,
		EnableRandomHeaders:     true,
		EnableBrowserHeaders:    true,
	}
}

// ProxyEntries returns the trimmed, non-empty entries of PROXY_LIST.
func (s Settings) ProxyEntries() []string {
	return splitList(s.ProxyList)
}

// CustomAgents returns the trimmed, non-empty entries of
// CUSTOM_USER_AGENTS.
func (s Settings) CustomAgents() []string {
	return splitList(s.CustomUserAgents)
}

// SettingsFromEnv reads the configuration keys from the process
// environment, applying documented defaults for keys that are unset or
// blank. Unparseable boolean or numeric values fail with a *ConfigError
// rather than falling back to a default.
func SettingsFromEnv() (Settings, error) {
	return DefaultSettings().WithEnv()
}

// WithEnv returns a copy of s with environment overrides applied. Keys
// that are unset or blank keep their current values, so s acts as the
// default layer under the environment.
func (s Settings) WithEnv() (Settings, error) {
	var err error
	if s.Enabled, err = envBool(KeyEnabled, s.Enabled); err != nil {
		return Settings{}, err
	}
	if s.EnableProxyRotation, err = envBool(KeyProxyRotation, s.EnableProxyRotation); err != nil {
		return Settings{}, err
	}
	s.ProxyRotationMode = envString(KeyProxyRotationMode, s.ProxyRotationMode)
	s.ProxyList = envString(KeyProxyList, s.ProxyList)
	if s.EnableUserAgentRotation, err = envBool(KeyAgentRotation, s.EnableUserAgentRotation); err != nil {
		return Settings{}, err
	}
	s.CustomUserAgents = envString(KeyCustomAgents, s.CustomUserAgents)
	if s.UseMobileAgents, err = envBool(KeyMobileAgents, s.UseMobileAgents); err != nil {
		return Settings{}, err
	}
	if s.EnableRequestDelay, err = envBool(KeyRequestDelay, s.EnableRequestDelay); err != nil {
		return Settings{}, err
	}
	if s.MinRequestDelay, err = envFloat(KeyMinDelay, s.MinRequestDelay); err != nil {
		return Settings{}, err
	}
	if s.MaxRequestDelay, err = envFloat(KeyMaxDelay, s.MaxRequestDelay); err != nil {
		return Settings{}, err
	}
	if s.EnableRandomHeaders, err = envBool(KeyRandomHeaders, s.EnableRandomHeaders); err != nil {
		return Settings{}, err
	}
	if s.EnableBrowserHeaders, err = envBool(KeyBrowserHeaders, s.EnableBrowserHeaders); err != nil {
		return Settings{}, err
	}

	return s, nil
}

func envString(key, def string) string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	return strings.TrimSpace(raw)
}

func envBool(key string, def bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, configValueErr(key, raw, fmt.Errorf("must be a boolean: %w", err))
	}
	return v, nil
}

func envFloat(key string, def float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, configValueErr(key, raw, fmt.Errorf("must be a number of seconds: %w", err))
	}
	return v, nil
}

// splitList splits a comma-separated setting, trimming whitespace and
// dropping empty entries so trailing commas are not treated as values.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
