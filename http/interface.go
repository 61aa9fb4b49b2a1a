package http

import (
	"context"
	nethttp "net/http"
	"time"
)

// Transport performs a single network exchange for a prepared request.
type Transport interface {
	// Send performs the exchange and returns the raw response.
	Send(ctx context.Context, req *Request) (*Response, error)
	// SendMultipart uploads body in place of req.Body, reporting send progress.
	SendMultipart(ctx context.Context, req *Request, body []byte, progress ProgressFunc) (*Response, error)
	// Download performs the exchange while reporting receive progress.
	Download(ctx context.Context, req *Request, progress ProgressFunc) (*Response, error)
}

// Request is a fully materialized request ready to go on the wire.
type Request struct {
	Method  string
	URL     string
	Headers nethttp.Header
	Body    []byte
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}

// ProgressFunc receives the completed fraction of a transfer.
type ProgressFunc func(fraction float64)

// Config holds the transport configuration
type Config struct {
	Timeout        time.Duration
	DefaultHeaders map[string]string
	// RateLimit is the allowed number of exchanges per second; zero disables limiting
	RateLimit float64
	// RateBurst is the token bucket size used with RateLimit
	RateBurst int
	// LogPayloads enables debug-level logging of request and response bodies
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
}
