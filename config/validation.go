package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Retry backoff names
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Credential backends
const (
	BackendMemory  = "memory"
	BackendKeyring = "keyring"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}

func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}

	if err := validateClient(&cfg.Client); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if err := validateRetry(&cfg.Retry); err != nil {
		return fmt.Errorf("retry config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if err := validateCredentials(&cfg.Credentials); err != nil {
		return fmt.Errorf("credentials config: %w", err)
	}

	if err := cfg.Observability.Validate(); err != nil {
		return fmt.Errorf("observability config: %w", err)
	}

	return nil
}

// validateApp accepts an empty base URL; requests then need absolute targets.
func validateApp(cfg *AppConfig) error {
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return NewInvalidFieldError("app.baseurl", fmt.Sprintf("not an absolute http(s) url: %q", cfg.BaseURL), nil)
		}
	}

	if strings.ContainsAny(cfg.Version, "\r\n") {
		return NewValidationError("app.version", "must not contain line breaks")
	}

	return nil
}

func validateClient(cfg *ClientConfig) error {
	if cfg.Timeout <= 0 {
		return NewValidationError("client.timeout", "must be positive")
	}

	if cfg.RateLimit < 0 {
		return NewValidationError("client.ratelimit", "must not be negative")
	}

	if cfg.Burst < 0 {
		return NewValidationError("client.burst", "must not be negative")
	}

	if cfg.MaxPayloadBytes < 0 {
		return NewValidationError("client.maxpayloadbytes", "must not be negative")
	}

	return nil
}

func validateRetry(cfg *RetryConfig) error {
	if cfg.MaxAttempts < 1 {
		return NewValidationError("retry.maxattempts", fmt.Sprintf("must be at least 1, got %d", cfg.MaxAttempts))
	}

	if cfg.Delay < 0 {
		return NewValidationError("retry.delay", "must not be negative")
	}

	validBackoffs := []string{BackoffFixed, BackoffExponential}
	if !slices.Contains(validBackoffs, cfg.Backoff) {
		return NewInvalidFieldError("retry.backoff", fmt.Sprintf("invalid backoff: %s", cfg.Backoff), validBackoffs)
	}

	if cfg.MaxDelay < 0 {
		return NewValidationError("retry.maxdelay", "must not be negative")
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Level)) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("invalid log level: %s", cfg.Level), validLogLevels)
	}
	return nil
}

func validateCredentials(cfg *CredentialsConfig) error {
	validBackends := []string{BackendMemory, BackendKeyring}
	if !slices.Contains(validBackends, cfg.Backend) {
		return NewInvalidFieldError("credentials.backend", fmt.Sprintf("invalid backend: %s", cfg.Backend), validBackends)
	}

	if cfg.Backend == BackendKeyring && cfg.Service == "" {
		return NewMissingFieldError("credentials.service", EnvPrefix+"CREDENTIALS_SERVICE", "credentials.service")
	}

	return nil
}
