package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultFile is read by Load when no path is given and the file exists
	DefaultFile = "dataaccess.yaml"
	// EnvPrefix selects the environment variables that override file values
	EnvPrefix = "DATAACCESS_"
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables with the DATAACCESS_ prefix (highest priority)
// 2. The YAML file at path, or DefaultFile when path is empty
// 3. Default values (lowest priority)
//
// An explicit path must exist; DefaultFile is optional.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", DefaultFile, err)
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	return build(k)
}

// LoadFromBytes loads configuration from YAML data layered over the defaults.
// Environment variables still take precedence.
func LoadFromBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return build(k)
}

func build(k *koanf.Koanf) (*Config, error) {
	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	cfg.Observability.ApplyDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnv maps DATAACCESS_RETRY_MAXATTEMPTS to retry.maxattempts
func loadEnv(k *koanf.Koanf) error {
	return k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.baseurl":     "",
		"app.version":     "20210705",
		"app.traceparent": false,

		"client.timeout":         "120s",
		"client.ratelimit":       0,
		"client.burst":           1,
		"client.logpayloads":     false,
		"client.maxpayloadbytes": 4096,

		"retry.maxattempts": 10,
		"retry.delay":       "3s",
		"retry.backoff":     BackoffFixed,
		"retry.maxdelay":    "30s",
		"retry.jitter":      false,

		"log.level":  "info",
		"log.pretty": false,

		"credentials.backend":    BackendMemory,
		"credentials.service":    "dataaccess",
		"credentials.authscheme": "Bearer",

		"observability.enabled": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
