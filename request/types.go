// Package request turns a LogicalRequest into a wire-ready transport request:
// target resolution, query merging, body encoding, multipart framing and the
// standard headers (content type, app version, authorization, cookies, correlation).
package request

import (
	"maps"
	"slices"
)

// Method is an HTTP method accepted by the builder
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// ContentType selects how the body is encoded
type ContentType string

const (
	ContentTypeJSON     ContentType = "json"
	ContentTypeFormData ContentType = "form-data"
)

// Header names
const (
	HeaderContentType   = "Content-Type"
	HeaderAppVersion    = "X-App-Version"
	HeaderAuthorization = "Authorization"
	HeaderCookie        = "Cookie"
)

// MultipartFile is the single file part of a form-data request.
type MultipartFile struct {
	FileName  string `validate:"required,header_safe"`
	ParamName string `validate:"required,header_safe"`
	Data      []byte
}

// LogicalRequest describes one call independent of the wire format.
// Treat values as immutable; the With helpers return modified copies.
type LogicalRequest struct {
	// BaseURL overrides the builder's base URL when set
	BaseURL  string
	Endpoint string
	// RawURL, when set, is used verbatim as the target and BaseURL/Endpoint are ignored
	RawURL       string
	PathSegments []string          `validate:"-"`
	Query        map[string]string `validate:"-"`
	Body         any               `validate:"-"`
	Method       Method            `validate:"required,oneof=GET POST PUT PATCH DELETE"`
	ContentType  ContentType       `validate:"omitempty,oneof=json form-data"`
	ShowProgress bool
	File         *MultipartFile
	Headers      map[string]string `validate:"-"`
}

// Get returns a GET request for endpoint
func Get(endpoint string) LogicalRequest {
	return LogicalRequest{Endpoint: endpoint, Method: MethodGet, ContentType: ContentTypeJSON}
}

// Post returns a JSON POST request for endpoint
func Post(endpoint string, body any) LogicalRequest {
	return LogicalRequest{Endpoint: endpoint, Method: MethodPost, ContentType: ContentTypeJSON, Body: body}
}

// Upload returns a form-data POST request carrying file.
func Upload(endpoint string, file MultipartFile) LogicalRequest {
	return LogicalRequest{Endpoint: endpoint, Method: MethodPost, ContentType: ContentTypeFormData, File: &file}
}

// Download returns a GET request for an absolute URL
func Download(rawURL string) LogicalRequest {
	return LogicalRequest{RawURL: rawURL, Method: MethodGet, ContentType: ContentTypeJSON}
}

// IsMultipart reports whether the request carries a file part
func (r LogicalRequest) IsMultipart() bool {
	return r.File != nil
}

// WithQuery returns a copy with key set to value, replacing any previous value.
func (r LogicalRequest) WithQuery(key, value string) LogicalRequest {
	q := make(map[string]string, len(r.Query)+1)
	maps.Copy(q, r.Query)
	q[key] = value
	r.Query = q
	return r
}

// WithPath returns a copy with segments appended to the path
func (r LogicalRequest) WithPath(segments ...string) LogicalRequest {
	r.PathSegments = append(slices.Clone(r.PathSegments), segments...)
	return r
}

// WithHeader returns a copy carrying an extra header
func (r LogicalRequest) WithHeader(key, value string) LogicalRequest {
	h := make(map[string]string, len(r.Headers)+1)
	maps.Copy(h, r.Headers)
	h[key] = value
	r.Headers = h
	return r
}

// WithBaseURL returns a copy targeting baseURL
func (r LogicalRequest) WithBaseURL(baseURL string) LogicalRequest {
	r.BaseURL = baseURL
	return r
}

// WithProgress returns a copy that shows the activity indicator while in flight
func (r LogicalRequest) WithProgress(show bool) LogicalRequest {
	r.ShowProgress = show
	return r
}
