package http

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/dataaccess/logger"
)

const (
	// DefaultTimeout is the default per-exchange timeout
	DefaultTimeout = 120 * time.Second

	// DefaultMaxPayloadLogBytes caps logged payloads when LogPayloads is enabled
	DefaultMaxPayloadLogBytes = 4096
)

// client implements the Transport interface over net/http
type client struct {
	httpClient *nethttp.Client
	logger     logger.Logger
	config     *Config
	limiter    *rate.Limiter
	callCount  int64
}

// NewClient creates a new transport with default configuration
func NewClient(log logger.Logger) Transport {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the transport
type Builder struct {
	config    *Config
	logger    logger.Logger
	transport nethttp.RoundTripper
	jar       nethttp.CookieJar
}

// NewBuilder creates a new transport builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:            DefaultTimeout,
			DefaultHeaders:     make(map[string]string),
			MaxPayloadLogBytes: DefaultMaxPayloadLogBytes,
		},
		logger: log,
	}
}

// WithConfig replaces the whole configuration
func (b *Builder) WithConfig(cfg Config) *Builder {
	if cfg.DefaultHeaders == nil {
		cfg.DefaultHeaders = make(map[string]string)
	}
	b.config = &cfg
	return b
}

// WithTimeout sets the per-exchange timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRateLimit throttles exchanges to perSecond with the given burst
func (b *Builder) WithRateLimit(perSecond float64, burst int) *Builder {
	b.config.RateLimit = perSecond
	b.config.RateBurst = burst
	return b
}

// WithDefaultHeader adds a header sent with every exchange unless the request sets it
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithPayloadLogging enables debug logging of bodies up to maxBytes
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	b.config.MaxPayloadLogBytes = maxBytes
	return b
}

// WithRoundTripper overrides the underlying net/http transport
func (b *Builder) WithRoundTripper(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithCookieJar lets net/http store cookies set on redirect hops.
// Cookies on the final response are handled by the response validator.
func (b *Builder) WithCookieJar(jar nethttp.CookieJar) *Builder {
	b.jar = jar
	return b
}

// Build creates the transport with the configured options
func (b *Builder) Build() Transport {
	log := b.logger
	if log == nil {
		log = logger.Nop()
	}
	c := &client{
		httpClient: &nethttp.Client{
			Timeout:   b.config.Timeout,
			Transport: b.transport,
			Jar:       b.jar,
		},
		logger: log,
		config: b.config,
	}
	if b.config.RateLimit > 0 {
		burst := b.config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(b.config.RateLimit), burst)
	}
	return c
}

// Send performs a plain exchange
func (c *client) Send(ctx context.Context, req *Request) (*Response, error) {
	return c.exchange(ctx, "send", req, req.Body, nil, nil)
}

// SendMultipart uploads body while reporting send progress
func (c *client) SendMultipart(ctx context.Context, req *Request, body []byte, progress ProgressFunc) (*Response, error) {
	return c.exchange(ctx, "upload", req, body, progress, nil)
}

// Download performs an exchange while reporting receive progress
func (c *client) Download(ctx context.Context, req *Request, progress ProgressFunc) (*Response, error) {
	return c.exchange(ctx, "download", req, req.Body, nil, progress)
}

func (c *client) exchange(ctx context.Context, op string, req *Request, body []byte, sendProgress, recvProgress ProgressFunc) (*Response, error) {
	if req == nil || req.URL == "" {
		return nil, NewTransportError(CodeBadServerResponse, op, "", errMissingURL)
	}

	if err := c.wait(ctx); err != nil {
		return nil, NewTransportError(waitErrorCode(ctx), op, req.URL, err)
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)
	c.logRequest(op, req, body)

	httpReq, err := c.buildRequest(ctx, req, body, sendProgress)
	if err != nil {
		return nil, NewTransportError(CodeBadServerResponse, op, req.URL, err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewTransportError(Classify(err), op, req.URL, err)
	}
	defer httpResp.Body.Close()

	var reader io.Reader = httpResp.Body
	if recvProgress != nil {
		reader = newProgressReader(httpResp.Body, httpResp.ContentLength, recvProgress)
	}
	respBody, err := io.ReadAll(reader)
	if err != nil {
		code := Classify(err)
		if code == CodeUnknown {
			code = CodeBadServerResponse
		}
		return nil, NewTransportError(code, op, req.URL, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   callCount,
		},
	}
	c.logResponse(op, resp)
	return resp, nil
}

func (c *client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func waitErrorCode(ctx context.Context) ErrorCode {
	if ctx.Err() != nil {
		return Classify(ctx.Err())
	}
	// the limiter refuses waits that would overrun the context deadline
	return CodeTimedOut
}

// buildRequest constructs an *http.Request and applies default and request headers.
func (c *client) buildRequest(ctx context.Context, req *Request, body []byte, progress ProgressFunc) (*nethttp.Request, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = newProgressReader(bytes.NewReader(body), int64(len(body)), progress)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		httpReq.ContentLength = int64(len(body))
		httpReq.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, values := range req.Headers {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	return httpReq, nil
}

// logRequest logs the outgoing exchange
func (c *client) logRequest(op string, req *Request, body []byte) {
	logEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("op", op).
		Str("method", req.Method).
		Str("url", req.URL)

	if len(req.Headers) > 0 {
		logEvent = logEvent.Interface("headers", map[string][]string(req.Headers))
	}
	if c.config.LogPayloads && len(body) > 0 {
		logEvent = logEvent.Bytes("body", c.truncate(body))
	}

	logEvent.Msg("transport request")
}

// logResponse logs the incoming response
func (c *client) logResponse(op string, resp *Response) {
	logEvent := c.logger.Debug().
		Str("direction", "inbound").
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount)

	if c.config.LogPayloads && len(resp.Body) > 0 {
		logEvent = logEvent.Bytes("body", c.truncate(resp.Body))
	}

	logEvent.Msg("transport response")
}

func (c *client) truncate(body []byte) []byte {
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 || len(body) <= limit {
		return body
	}
	return body[:limit]
}
