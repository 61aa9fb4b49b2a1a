package observability

import "errors"

// ErrNilConfig is returned when Validate is called on a nil Config pointer.
var ErrNilConfig = errors.New("observability: config is nil")

// ErrInvalidSampleRate is returned when the trace sample rate is outside the valid range [0.0, 1.0].
var ErrInvalidSampleRate = errors.New("observability: trace sample rate must be between 0.0 and 1.0")

// ErrInvalidEndpointFormat is returned when an endpoint does not match its protocol:
// an http(s) URL for "http", host:port for "grpc", or "stdout".
var ErrInvalidEndpointFormat = errors.New("observability: endpoint format does not match protocol")

// ErrInvalidProtocol is returned when a protocol is neither "http" nor "grpc".
var ErrInvalidProtocol = errors.New("observability: protocol must be 'http' or 'grpc'")
