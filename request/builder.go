package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/gaborage/dataaccess/cookies"
	"github.com/gaborage/dataaccess/credentials"
	"github.com/gaborage/dataaccess/http"
	"github.com/gaborage/dataaccess/logger"
	"github.com/gaborage/dataaccess/trace"
	"github.com/gaborage/dataaccess/validation"
)

const (
	// DefaultAppVersion is sent in X-App-Version unless configured otherwise
	DefaultAppVersion = "20210705"
	// DefaultAuthScheme prefixes the stored token in the Authorization header
	DefaultAuthScheme = "Bearer"
)

const jsonContentType = "application/json"

// Builder materializes LogicalRequests using the ambient base URL, credentials and cookies.
// A Builder performs no network I/O and is safe for concurrent use once configured.
type Builder struct {
	baseURL        string
	appVersion     string
	authScheme     string
	credentials    credentials.Store
	jar            nethttp.CookieJar
	propagateTrace bool
	newBoundary    func() string
	validator      *validation.Validator
	logger         logger.Logger
}

// NewBuilder creates a Builder with default settings
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		appVersion:  DefaultAppVersion,
		authScheme:  DefaultAuthScheme,
		newBoundary: NewBoundary,
		validator:   validation.Default(),
		logger:      log,
	}
}

// WithBaseURL sets the base URL used when a request does not carry its own
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// WithAppVersion sets the X-App-Version header value
func (b *Builder) WithAppVersion(version string) *Builder {
	b.appVersion = version
	return b
}

// WithAuthScheme sets the Authorization scheme. An empty scheme sends the bare token.
func (b *Builder) WithAuthScheme(scheme string) *Builder {
	b.authScheme = scheme
	return b
}

// WithCredentials sets the store the authorization token is read from
func (b *Builder) WithCredentials(store credentials.Store) *Builder {
	b.credentials = store
	return b
}

// WithCookieJar sets the jar used to populate the Cookie header
func (b *Builder) WithCookieJar(jar nethttp.CookieJar) *Builder {
	b.jar = jar
	return b
}

// WithTraceParent enables the W3C traceparent header
func (b *Builder) WithTraceParent(enabled bool) *Builder {
	b.propagateTrace = enabled
	return b
}

// WithBoundaryGenerator replaces the multipart boundary source
func (b *Builder) WithBoundaryGenerator(fn func() string) *Builder {
	if fn != nil {
		b.newBoundary = fn
	}
	return b
}

// Build turns req into a transport request. Failures to produce a usable URL,
// and malformed request descriptions, wrap ErrInvalidTarget.
func (b *Builder) Build(ctx context.Context, req LogicalRequest) (*http.Request, error) {
	if err := b.validate(req); err != nil {
		return nil, newTargetError(b.describeTarget(req), err)
	}

	target, err := b.ResolveURL(req)
	if err != nil {
		return nil, err
	}

	headers := nethttp.Header{}
	body, err := b.encodeBody(req, headers)
	if err != nil {
		return nil, err
	}

	if b.appVersion != "" {
		headers.Set(HeaderAppVersion, b.appVersion)
	}
	b.setAuthorization(ctx, headers)
	if cookie := cookies.Header(b.jar, target); cookie != "" {
		headers.Set(HeaderCookie, cookie)
	}
	headers.Set(trace.HeaderXRequestID, trace.EnsureRequestID(ctx))
	if b.propagateTrace {
		headers.Set(trace.HeaderTraceParent, trace.EnsureTraceParent(ctx))
	}
	for k, v := range req.Headers {
		headers.Set(k, v)
	}

	prepared := &http.Request{
		Method:  string(req.Method),
		URL:     target.String(),
		Headers: headers,
		Body:    body,
	}
	b.logPrepared(ctx, prepared)
	return prepared, nil
}

// ResolveURL composes the absolute target of req: RawURL verbatim, otherwise the
// base URL joined with the endpoint, then escaped path segments, then query items.
func (b *Builder) ResolveURL(req LogicalRequest) (*url.URL, error) {
	raw := b.describeTarget(req)
	target, err := url.Parse(raw)
	if err != nil {
		return nil, newTargetError(raw, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, newTargetError(raw, errors.New("scheme and host are required"))
	}

	if len(req.PathSegments) > 0 {
		escaped := make([]string, len(req.PathSegments))
		for i, s := range req.PathSegments {
			escaped[i] = url.PathEscape(s)
		}
		target = target.JoinPath(escaped...)
	}

	if len(req.Query) > 0 {
		values := target.Query()
		for k, v := range req.Query {
			values.Set(k, v)
		}
		target.RawQuery = values.Encode()
	}
	return target, nil
}

func (b *Builder) describeTarget(req LogicalRequest) string {
	if req.RawURL != "" {
		return req.RawURL
	}
	base := req.BaseURL
	if base == "" {
		base = b.baseURL
	}
	if req.Endpoint == "" {
		return base
	}
	if strings.HasSuffix(base, "/") && strings.HasPrefix(req.Endpoint, "/") {
		return base + req.Endpoint[1:]
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(req.Endpoint, "/") &&
		!strings.HasPrefix(req.Endpoint, "?") && base != "" {
		return base + "/" + req.Endpoint
	}
	return base + req.Endpoint
}

func (b *Builder) validate(req LogicalRequest) error {
	if err := b.validator.Struct(req); err != nil {
		return err
	}
	if req.ContentType == ContentTypeFormData && req.File == nil {
		return errors.New("form-data request requires a file")
	}
	if req.File != nil && req.Method == MethodGet {
		return errors.New("file upload requires a method with a body")
	}
	return nil
}

func (b *Builder) encodeBody(req LogicalRequest, headers nethttp.Header) ([]byte, error) {
	if req.File != nil {
		boundary := b.newBoundary()
		headers.Set(HeaderContentType, MultipartContentType(boundary))
		return EncodeMultipart(boundary, *req.File), nil
	}

	headers.Set(HeaderContentType, jsonContentType)
	if req.Method == MethodGet || req.Body == nil {
		return nil, nil
	}
	switch v := req.Body.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}
	body, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return body, nil
}

// setAuthorization sends the request anonymously when the store cannot be read
func (b *Builder) setAuthorization(ctx context.Context, headers nethttp.Header) {
	token, err := credentials.Token(ctx, b.credentials)
	if err != nil {
		b.logger.WithContext(ctx).Warn().Err(err).Msg("Failed to read authorization token")
		return
	}
	switch {
	case token == "":
	case b.authScheme == "":
		headers.Set(HeaderAuthorization, token)
	default:
		headers.Set(HeaderAuthorization, b.authScheme+" "+token)
	}
}

func (b *Builder) logPrepared(ctx context.Context, req *http.Request) {
	b.logger.WithContext(ctx).Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Interface("headers", map[string][]string(req.Headers)).
		Int("body_bytes", len(req.Body)).
		Msg("Prepared request")
}
