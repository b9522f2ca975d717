package anticrawl

import (
	"errors"
	"fmt"
)

// Validation failure causes. A *ConfigError wraps one of these; check with
// errors.Is(err, anticrawl.ErrInvalidProxyScheme) etc.
var (
	// ErrInvalidProxyScheme indicates a proxy entry without a recognized
	// scheme prefix.
	ErrInvalidProxyScheme = errors.New("invalid proxy scheme: must be http, https or socks5")

	// ErrMissingProxyHost indicates a proxy entry whose host part is empty.
	ErrMissingProxyHost = errors.New("invalid proxy host: must be non-empty")

	// ErrInvalidProxyPort indicates a proxy entry whose port is missing or
	// outside 1-65535.
	ErrInvalidProxyPort = errors.New("invalid proxy port: must be an integer between 1 and 65535")

	// ErrInvalidProxyCredentials indicates a user:pass pair with an empty
	// user or password.
	ErrInvalidProxyCredentials = errors.New("invalid proxy credentials: user and password must both be non-empty")

	// ErrInvalidRotationMode indicates an unrecognized proxy rotation mode.
	ErrInvalidRotationMode = errors.New("invalid rotation mode: must be random or sequential")

	// ErrInvalidDelayBounds indicates negative delay bounds or min > max.
	ErrInvalidDelayBounds = errors.New("invalid delay bounds: must be non-negative with min <= max")

	// ErrEmptySignaturePool indicates an enabled signature pool with no
	// candidate signatures.
	ErrEmptySignaturePool = errors.New("empty signature pool: no client signatures configured")
)

// ConfigError reports a rejected setting. Validation is eager: the first
// invalid setting aborts configuration, it is never skipped or defaulted,
// since a silently shrunk pool would change rotation behavior without
// operator awareness.
type ConfigError struct {
	// Setting is the configuration key that failed, e.g. "PROXY_LIST".
	Setting string

	// Index is the 1-based position within a list-valued setting,
	// or zero when the failure is not tied to a list entry.
	Index int

	// Value is the offending raw value, when one exists.
	Value string

	// Err is the underlying cause, usually one of the sentinel errors
	// above.
	Err error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Index > 0 && e.Value != "":
		return fmt.Sprintf("%s entry %d (%q): %v", e.Setting, e.Index, e.Value, e.Err)
	case e.Index > 0:
		return fmt.Sprintf("%s entry %d: %v", e.Setting, e.Index, e.Err)
	case e.Value != "":
		return fmt.Sprintf("%s (%q): %v", e.Setting, e.Value, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Setting, e.Err)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(setting string, err error) *ConfigError {
	return &ConfigError{Setting: setting, Err: err}
}

func configValueErr(setting, value string, err error) *ConfigError {
	return &ConfigError{Setting: setting, Value: value, Err: err}
}

func configEntryErr(setting string, index int, value string, err error) *ConfigError {
	return &ConfigError{Setting: setting, Index: index, Value: value, Err: err}
}
