package config

import (
	"time"

	"git.home.luguber.info/inful/releaser/internal/foundation/normalization"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, RetryBackoffExponential)

// NormalizeRetryBackoff converts user input (case-insensitive) into a typed mode.
// Unknown input yields exponential.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// RetryConfig controls how long the release verifier polls the registry.
type RetryConfig struct {
	Mode       string        `koanf:"mode" yaml:"mode"`
	Initial    time.Duration `koanf:"initial" yaml:"initial"`
	Max        time.Duration `koanf:"max" yaml:"max"`
	MaxRetries int           `koanf:"max_retries" yaml:"max_retries"`
}

// BackoffMode returns the normalized backoff mode.
func (r RetryConfig) BackoffMode() RetryBackoffMode {
	return NormalizeRetryBackoff(r.Mode)
}

// MarshalYAML renders durations as "200ms" rather than nanoseconds.
func (r RetryConfig) MarshalYAML() (any, error) {
	return struct {
		Mode       string `yaml:"mode"`
		Initial    string `yaml:"initial"`
		Max        string `yaml:"max"`
		MaxRetries int    `yaml:"max_retries"`
	}{r.Mode, r.Initial.String(), r.Max.String(), r.MaxRetries}, nil
}
