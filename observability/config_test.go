package observability

import (
	"testing"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, defaultServiceName, cfg.Service.Name)
	assert.Equal(t, "unknown", cfg.Service.Version)
	assert.Equal(t, EnvironmentDevelopment, cfg.Environment)
	assert.Equal(t, EndpointStdout, cfg.Trace.Endpoint)
	assert.Equal(t, defaultSampleRate, cfg.Trace.SampleRate)
	assert.Equal(t, defaultBatchTimeout, cfg.Trace.BatchTimeout)
	assert.Equal(t, EndpointStdout, cfg.Metrics.Endpoint)
	assert.Equal(t, defaultMetricInterval, cfg.Metrics.Interval)
	assert.Equal(t, ProtocolHTTP, cfg.Trace.Protocol)
	assert.Equal(t, ProtocolHTTP, cfg.Metrics.Protocol)
}

func TestMetricsProtocolInheritsTrace(t *testing.T) {
	cfg := &Config{Trace: TraceConfig{Protocol: ProtocolGRPC}}
	cfg.ApplyDefaults()
	assert.Equal(t, ProtocolGRPC, cfg.Metrics.Protocol)
}

func TestApplyDefaultsKeepsValues(t *testing.T) {
	headers := map[string]string{"Authorization": "key"}
	cfg := &Config{
		Service: ServiceConfig{Name: "cli", Version: "1.2.3"},
		Trace:   TraceConfig{Endpoint: "https://otel.example.com/v1/traces", SampleRate: 0.5, Headers: headers},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "cli", cfg.Service.Name)
	assert.Equal(t, 0.5, cfg.Trace.SampleRate)
	assert.Equal(t, "https://otel.example.com/v1/traces", cfg.Trace.Endpoint)

	cfg.Trace.Headers["Authorization"] = "changed"
	assert.Equal(t, "key", headers["Authorization"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{name: "nil", cfg: nil, wantErr: ErrNilConfig},
		{name: "disabled ignores endpoints", cfg: &Config{Trace: TraceConfig{Endpoint: "bogus"}}},
		{name: "stdout", cfg: &Config{Enabled: true, Trace: TraceConfig{Endpoint: EndpointStdout, SampleRate: 1}, Metrics: MetricsConfig{Endpoint: EndpointStdout}}},
		{name: "http endpoints", cfg: &Config{Enabled: true, Trace: TraceConfig{Endpoint: "http://localhost:4318"}, Metrics: MetricsConfig{Endpoint: "https://otel.example.com"}}},
		{name: "missing scheme", cfg: &Config{Enabled: true, Trace: TraceConfig{Endpoint: "localhost:4318"}, Metrics: MetricsConfig{Endpoint: EndpointStdout}}, wantErr: ErrInvalidEndpointFormat},
		{name: "grpc host port", cfg: &Config{Enabled: true, Trace: TraceConfig{Endpoint: "collector:4317", Protocol: ProtocolGRPC}, Metrics: MetricsConfig{Endpoint: "collector:4317", Protocol: ProtocolGRPC}}},
		{name: "grpc with scheme", cfg: &Config{Enabled: true, Trace: TraceConfig{Endpoint: "http://collector:4317", Protocol: ProtocolGRPC}, Metrics: MetricsConfig{Endpoint: EndpointStdout}}, wantErr: ErrInvalidEndpointFormat},
		{name: "unknown protocol", cfg: &Config{Enabled: true, Trace: TraceConfig{Endpoint: "collector:4317", Protocol: "thrift"}, Metrics: MetricsConfig{Endpoint: EndpointStdout}}, wantErr: ErrInvalidProtocol},
		{name: "sample rate above one", cfg: &Config{Enabled: true, Trace: TraceConfig{Endpoint: EndpointStdout, SampleRate: 1.5}, Metrics: MetricsConfig{Endpoint: EndpointStdout}}, wantErr: ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigFromYAML(t *testing.T) {
	yamlContent := `
enabled: true
service:
  name: dataaccess-cli
environment: staging
trace:
  endpoint: http://collector:4318/v1/traces
  samplerate: 0.25
  batchtimeout: 2s
  headers:
    x-api-key: secret
metrics:
  endpoint: stdout
  interval: 15s
`
	k := koanf.New(".")
	require.NoError(t, k.Load(rawbytes.Provider([]byte(yamlContent)), yaml.Parser()))

	var cfg Config
	require.NoError(t, k.Unmarshal("", &cfg))
	cfg.ApplyDefaults()

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "dataaccess-cli", cfg.Service.Name)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 0.25, cfg.Trace.SampleRate)
	assert.Equal(t, 2*time.Second, cfg.Trace.BatchTimeout)
	assert.Equal(t, "secret", cfg.Trace.Headers["x-api-key"])
	assert.Equal(t, 15*time.Second, cfg.Metrics.Interval)
}
