package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/dataaccess/http"
	"github.com/gaborage/dataaccess/observability"
	"github.com/gaborage/dataaccess/retry"
)

// Config represents the overall client configuration structure.
// The embedded koanf.Koanf instance keeps the merged key space available
// for keys that are not mapped onto the struct.
type Config struct {
	App           AppConfig            `koanf:"app" json:"app" yaml:"app"`
	Client        ClientConfig         `koanf:"client" json:"client" yaml:"client"`
	Retry         RetryConfig          `koanf:"retry" json:"retry" yaml:"retry"`
	Log           LogConfig            `koanf:"log" json:"log" yaml:"log"`
	Credentials   CredentialsConfig    `koanf:"credentials" json:"credentials" yaml:"credentials"`
	Observability observability.Config `koanf:"observability" json:"observability" yaml:"observability"`

	k *koanf.Koanf `json:"-" yaml:"-"`
}

// AppConfig identifies the remote service and the client build talking to it.
type AppConfig struct {
	// BaseURL is prepended to request endpoints
	BaseURL string `koanf:"baseurl" json:"baseurl" yaml:"baseurl"`
	// Version is sent as X-App-Version
	Version string `koanf:"version" json:"version" yaml:"version"`
	// TraceParent enables the W3C traceparent header on outgoing requests
	TraceParent bool `koanf:"traceparent" json:"traceparent" yaml:"traceparent"`
}

// ClientConfig holds transport settings.
type ClientConfig struct {
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
	// RateLimit is exchanges per second; 0 disables limiting
	RateLimit float64 `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit"`
	Burst     int     `koanf:"burst" json:"burst" yaml:"burst"`
	// LogPayloads logs request and response bodies at debug level, up to MaxPayloadBytes
	LogPayloads     bool `koanf:"logpayloads" json:"logpayloads" yaml:"logpayloads"`
	MaxPayloadBytes int  `koanf:"maxpayloadbytes" json:"maxpayloadbytes" yaml:"maxpayloadbytes"`
}

// RetryConfig holds the connectivity retry policy.
type RetryConfig struct {
	MaxAttempts int           `koanf:"maxattempts" json:"maxattempts" yaml:"maxattempts"`
	Delay       time.Duration `koanf:"delay" json:"delay" yaml:"delay"`
	Backoff     string        `koanf:"backoff" json:"backoff" yaml:"backoff"`
	MaxDelay    time.Duration `koanf:"maxdelay" json:"maxdelay" yaml:"maxdelay"`
	Jitter      bool          `koanf:"jitter" json:"jitter" yaml:"jitter"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// CredentialsConfig selects where bearer credentials are kept.
type CredentialsConfig struct {
	// Backend is "memory" or "keyring"
	Backend string `koanf:"backend" json:"backend" yaml:"backend"`
	// Service is the keyring service name
	Service string `koanf:"service" json:"service" yaml:"service"`
	// AuthScheme prefixes the stored token in the Authorization header
	AuthScheme string `koanf:"authscheme" json:"authscheme" yaml:"authscheme"`
}

// Policy converts the retry section to a retry.Policy
func (c RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.MaxAttempts,
		Delay:       c.Delay,
		Backoff:     retry.Backoff(c.Backoff),
		MaxDelay:    c.MaxDelay,
		Jitter:      c.Jitter,
	}
}

// Transport converts the client section to an http.Config
func (c ClientConfig) Transport() http.Config {
	return http.Config{
		Timeout:            c.Timeout,
		DefaultHeaders:     make(map[string]string),
		RateLimit:          c.RateLimit,
		RateBurst:          c.Burst,
		LogPayloads:        c.LogPayloads,
		MaxPayloadLogBytes: c.MaxPayloadBytes,
	}
}

// String returns the raw value at key, including keys not mapped onto Config
func (c *Config) String(key string) string {
	if c.k == nil {
		return ""
	}
	return c.k.String(key)
}

// Exists reports whether key was set by any source
func (c *Config) Exists(key string) bool {
	return c.k != nil && c.k.Exists(key)
}
