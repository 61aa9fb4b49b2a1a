package observability

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that outputs to stdout (for local development).
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"
	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name.
	EnvironmentDevelopment = "development"

	defaultServiceName    = "dataaccess"
	defaultSampleRate     = 1.0
	defaultBatchTimeout   = 5 * time.Second
	defaultMetricInterval = 60 * time.Second
)

// Config defines the configuration for tracing and metrics export.
type Config struct {
	// Enabled controls whether telemetry is exported.
	// When false, the provider hands out no-op tracers and meters.
	Enabled     bool          `koanf:"enabled"`
	Service     ServiceConfig `koanf:"service"`
	Environment string        `koanf:"environment"`
	Trace       TraceConfig   `koanf:"trace"`
	Metrics     MetricsConfig `koanf:"metrics"`
}

// ServiceConfig contains service identification metadata.
type ServiceConfig struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
}

// TraceConfig configures span export.
type TraceConfig struct {
	// Endpoint is "stdout", an OTLP/HTTP URL, or host:port for gRPC
	Endpoint     string            `koanf:"endpoint"`
	Protocol     string            `koanf:"protocol"`
	Insecure     bool              `koanf:"insecure"`
	Headers      map[string]string `koanf:"headers"`
	SampleRate   float64           `koanf:"samplerate"`
	BatchTimeout time.Duration     `koanf:"batchtimeout"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	// Endpoint is "stdout", an OTLP/HTTP URL, or host:port for gRPC
	Endpoint string `koanf:"endpoint"`
	// Protocol defaults to the trace protocol
	Protocol string            `koanf:"protocol"`
	Insecure bool              `koanf:"insecure"`
	Headers  map[string]string `koanf:"headers"`
	Interval time.Duration     `koanf:"interval"`
}

// ApplyDefaults sets default values for any config fields that are not specified.
func (c *Config) ApplyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if c.Trace.Endpoint == "" {
		c.Trace.Endpoint = EndpointStdout
	}
	if c.Trace.SampleRate == 0 {
		c.Trace.SampleRate = defaultSampleRate
	}
	if c.Trace.BatchTimeout <= 0 {
		c.Trace.BatchTimeout = defaultBatchTimeout
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = EndpointStdout
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = defaultMetricInterval
	}
	if c.Trace.Protocol == "" {
		c.Trace.Protocol = ProtocolHTTP
	}
	if c.Metrics.Protocol == "" {
		c.Metrics.Protocol = c.Trace.Protocol
	}
	c.Trace.Headers = cloneHeaderMap(c.Trace.Headers)
	c.Metrics.Headers = cloneHeaderMap(c.Metrics.Headers)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Trace.SampleRate < 0 || c.Trace.SampleRate > 1 {
		return ErrInvalidSampleRate
	}
	if err := validateEndpointFormat(c.Trace.Endpoint, c.Trace.Protocol); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	if err := validateEndpointFormat(c.Metrics.Endpoint, c.Metrics.Protocol); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// validateEndpointFormat checks that the endpoint format matches the protocol.
// gRPC endpoints are host:port, HTTP endpoints carry a scheme.
func validateEndpointFormat(endpoint, protocol string) error {
	if endpoint == EndpointStdout {
		return nil
	}
	hasScheme := hasHTTPScheme(endpoint)
	switch protocol {
	case ProtocolHTTP, "":
		if !hasScheme {
			return ErrInvalidEndpointFormat
		}
	case ProtocolGRPC:
		if hasScheme || endpoint == "" {
			return ErrInvalidEndpointFormat
		}
	default:
		return ErrInvalidProtocol
	}
	return nil
}

func hasHTTPScheme(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}

// cloneHeaderMap creates a copy of a header map to avoid aliasing.
func cloneHeaderMap(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	clone := make(map[string]string, len(headers))
	maps.Copy(clone, headers)
	return clone
}
