package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dataaccess/observability"
	"github.com/gaborage/dataaccess/retry"
)

const testBaseURL = "https://api.example.com/v1"

func TestLoadWithDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Empty(t, cfg.App.BaseURL)
	assert.Equal(t, "20210705", cfg.App.Version)
	assert.False(t, cfg.App.TraceParent)

	assert.Equal(t, 120*time.Second, cfg.Client.Timeout)
	assert.Zero(t, cfg.Client.RateLimit)
	assert.Equal(t, 4096, cfg.Client.MaxPayloadBytes)

	assert.Equal(t, retry.DefaultPolicy(), cfg.Retry.Policy())

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)

	assert.Equal(t, BackendMemory, cfg.Credentials.Backend)
	assert.Equal(t, "Bearer", cfg.Credentials.AuthScheme)

	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, observability.EndpointStdout, cfg.Observability.Trace.Endpoint)

	_, err = cfg.RequireBaseURL()
	assert.True(t, IsNotConfigured(err))
}

func TestLoadFromBytes(t *testing.T) {
	data := []byte(`
app:
  baseurl: https://api.example.com/v1
  traceparent: true
client:
  timeout: 15s
  ratelimit: 5
  burst: 10
retry:
  maxattempts: 4
  delay: 250ms
  backoff: exponential
  maxdelay: 2s
  jitter: true
credentials:
  authscheme: Token
custom:
  feature: enabled
`)

	cfg, err := LoadFromBytes(data)
	require.NoError(t, err)

	baseURL, err := cfg.RequireBaseURL()
	require.NoError(t, err)
	assert.Equal(t, testBaseURL, baseURL)
	assert.True(t, cfg.App.TraceParent)

	transport := cfg.Client.Transport()
	assert.Equal(t, 15*time.Second, transport.Timeout)
	assert.Equal(t, 5.0, transport.RateLimit)
	assert.Equal(t, 10, transport.RateBurst)
	assert.NotNil(t, transport.DefaultHeaders)

	assert.Equal(t, retry.Policy{
		MaxAttempts: 4,
		Delay:       250 * time.Millisecond,
		Backoff:     retry.BackoffExponential,
		MaxDelay:    2 * time.Second,
		Jitter:      true,
	}, cfg.Retry.Policy())

	assert.Equal(t, "Token", cfg.Credentials.AuthScheme)
	assert.Equal(t, "enabled", cfg.String("custom.feature"))
	assert.True(t, cfg.Exists("custom.feature"))
	assert.False(t, cfg.Exists("custom.missing"))
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("DATAACCESS_RETRY_MAXATTEMPTS", "2")
	t.Setenv("DATAACCESS_LOG_LEVEL", "debug")
	t.Setenv("DATAACCESS_APP_BASEURL", "https://env.example.com")
	t.Setenv("UNRELATED_RETRY_MAXATTEMPTS", "99")

	cfg, err := LoadFromBytes([]byte("retry:\n  maxattempts: 7\napp:\n  baseurl: " + testBaseURL + "\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://env.example.com", cfg.App.BaseURL)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n  pretty: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("credentials:\n  backend: keyring\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendKeyring, cfg.Credentials.Backend)
	assert.Equal(t, "dataaccess", cfg.Credentials.Service)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromBytesInvalidYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("retry: [unclosed"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
	}{
		{name: "relative base url", yaml: "app:\n  baseurl: /v1\n", wantField: "app.baseurl"},
		{name: "ftp base url", yaml: "app:\n  baseurl: ftp://files.example.com\n", wantField: "app.baseurl"},
		{name: "version with newline", yaml: "app:\n  version: \"1\\r\\nX: y\"\n", wantField: "app.version"},
		{name: "zero timeout", yaml: "client:\n  timeout: 0s\n", wantField: "client.timeout"},
		{name: "negative rate", yaml: "client:\n  ratelimit: -1\n", wantField: "client.ratelimit"},
		{name: "zero attempts", yaml: "retry:\n  maxattempts: 0\n", wantField: "retry.maxattempts"},
		{name: "negative delay", yaml: "retry:\n  delay: -1s\n", wantField: "retry.delay"},
		{name: "unknown backoff", yaml: "retry:\n  backoff: linear\n", wantField: "retry.backoff"},
		{name: "unknown log level", yaml: "log:\n  level: verbose\n", wantField: "log.level"},
		{name: "unknown backend", yaml: "credentials:\n  backend: vault\n", wantField: "credentials.backend"},
		{name: "keyring without service", yaml: "credentials:\n  backend: keyring\n  service: \"\"\n", wantField: "credentials.service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)

			var configErr *ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tt.wantField, configErr.Field)
		})
	}
}

func TestValidationObservability(t *testing.T) {
	_, err := LoadFromBytes([]byte("observability:\n  enabled: true\n  trace:\n    endpoint: collector:4318\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, observability.ErrInvalidEndpointFormat)

	cfg, err := LoadFromBytes([]byte("observability:\n  enabled: true\n  trace:\n    endpoint: http://collector:4318\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://collector:4318", cfg.Observability.Trace.Endpoint)
	assert.Equal(t, observability.EndpointStdout, cfg.Observability.Metrics.Endpoint)
}
