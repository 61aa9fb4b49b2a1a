package request

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dataaccess/cookies"
	"github.com/gaborage/dataaccess/credentials"
	"github.com/gaborage/dataaccess/logger"
	"github.com/gaborage/dataaccess/trace"
	"github.com/gaborage/dataaccess/validation"
)

const testBaseURL = "https://api.example.com/v1"

func newTestBuilder() *Builder {
	return NewBuilder(logger.NewWithWriter(io.Discard, "debug", false, nil)).
		WithBaseURL(testBaseURL).
		WithBoundaryGenerator(func() string { return "Boundary-test" })
}

func TestBuildGetRequest(t *testing.T) {
	req := Get("/users").WithPath("42", "a b").WithQuery("page", "2")

	prepared, err := newTestBuilder().Build(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "GET", prepared.Method)
	assert.Equal(t, "https://api.example.com/v1/users/42/a%20b?page=2", prepared.URL)
	assert.Nil(t, prepared.Body)
	assert.Equal(t, "application/json", prepared.Headers.Get(HeaderContentType))
	assert.Equal(t, DefaultAppVersion, prepared.Headers.Get(HeaderAppVersion))
	assert.Empty(t, prepared.Headers.Get(HeaderAuthorization))
	assert.NotEmpty(t, prepared.Headers.Get(trace.HeaderXRequestID))
	assert.Empty(t, prepared.Headers.Get(trace.HeaderTraceParent))
}

func TestBuildQueryLastWriteWins(t *testing.T) {
	req := Get("/search?page=1&sort=asc").
		WithQuery("page", "2").
		WithQuery("q", "x").
		WithQuery("q", "y")

	prepared, err := newTestBuilder().Build(context.Background(), req)
	require.NoError(t, err)

	u, err := url.Parse(prepared.URL)
	require.NoError(t, err)
	assert.Equal(t, url.Values{"page": {"2"}, "sort": {"asc"}, "q": {"y"}}, u.Query())
}

func TestWithHelpersDoNotMutate(t *testing.T) {
	base := Get("/users").WithQuery("a", "1").WithPath("x")
	_ = base.WithQuery("a", "2").WithPath("y").WithHeader("h", "v")

	assert.Equal(t, map[string]string{"a": "1"}, base.Query)
	assert.Equal(t, []string{"x"}, base.PathSegments)
	assert.Nil(t, base.Headers)
}

func TestBuildPostBody(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		expected []byte
	}{
		{name: "struct", body: struct {
			Name string `json:"name"`
		}{Name: "n"}, expected: []byte(`{"name":"n"}`)},
		{name: "raw bytes", body: []byte(`{"a":1}`), expected: []byte(`{"a":1}`)},
		{name: "nil", body: nil, expected: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepared, err := newTestBuilder().Build(context.Background(), Post("/users", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prepared.Body)
		})
	}
}

func TestBuildBodyEncodingError(t *testing.T) {
	_, err := newTestBuilder().Build(context.Background(), Post("/users", make(chan int)))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidTarget))
}

func TestBuildGetOmitsBody(t *testing.T) {
	req := Get("/users")
	req.Body = map[string]int{"a": 1}
	prepared, err := newTestBuilder().Build(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, prepared.Body)
}

func TestBuildAuthorization(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(ctx, credentials.KeyAuthorization, "tok"))

	prepared, err := newTestBuilder().WithCredentials(store).Build(ctx, Get("/me"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", prepared.Headers.Get(HeaderAuthorization))

	prepared, err = newTestBuilder().WithCredentials(store).WithAuthScheme("").Build(ctx, Get("/me"))
	require.NoError(t, err)
	assert.Equal(t, "tok", prepared.Headers.Get(HeaderAuthorization))
}

func TestBuildHeadersFromContextAndJar(t *testing.T) {
	jar, err := cookies.NewJar()
	require.NoError(t, err)
	u, _ := url.Parse(testBaseURL)
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc", Path: "/"}})

	ctx := trace.WithRequestID(context.Background(), "req-1")
	ctx = trace.WithTraceParent(ctx, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")

	prepared, err := newTestBuilder().
		WithCookieJar(jar).
		WithTraceParent(true).
		WithAppVersion("1.2.3").
		Build(ctx, Get("/users").WithHeader("X-Custom", "yes"))
	require.NoError(t, err)

	assert.Equal(t, "session=abc", prepared.Headers.Get(HeaderCookie))
	assert.Equal(t, "req-1", prepared.Headers.Get(trace.HeaderXRequestID))
	assert.Equal(t, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01", prepared.Headers.Get(trace.HeaderTraceParent))
	assert.Equal(t, "1.2.3", prepared.Headers.Get(HeaderAppVersion))
	assert.Equal(t, "yes", prepared.Headers.Get("X-Custom"))
}

func TestBuildRawURL(t *testing.T) {
	prepared, err := newTestBuilder().Build(context.Background(), Download("https://cdn.example.com/files/a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/files/a.pdf", prepared.URL)
}

func TestBuildRequestBaseURLOverride(t *testing.T) {
	prepared, err := newTestBuilder().Build(context.Background(), Get("users").WithBaseURL("https://other.example.com/api/"))
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/api/users", prepared.URL)
}

func TestBuildInvalidTarget(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
		req  LogicalRequest
	}{
		{name: "no base url", b: NewBuilder(nil), req: Get("/users")},
		{name: "unparsable", b: NewBuilder(nil), req: Download("http://[::1")},
		{name: "relative raw url", b: NewBuilder(nil), req: Download("files/a.pdf")},
		{name: "unknown method", b: newTestBuilder(), req: LogicalRequest{Endpoint: "/x", Method: "TRACE"}},
		{name: "form data without file", b: newTestBuilder(), req: LogicalRequest{Endpoint: "/x", Method: MethodPost, ContentType: ContentTypeFormData}},
		{name: "file name with quote", b: newTestBuilder(), req: Upload("/x", MultipartFile{FileName: `a"b`, ParamName: "file"})},
		{name: "get with file", b: newTestBuilder(), req: LogicalRequest{Endpoint: "/x", Method: MethodGet, File: &MultipartFile{FileName: "a", ParamName: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTarget)
			var te *TargetError
			assert.True(t, errors.As(err, &te))
		})
	}
}

func TestBuildInvalidRequestCarriesValidationError(t *testing.T) {
	_, err := newTestBuilder().Build(context.Background(), LogicalRequest{Endpoint: "/x"})
	var ve *validation.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.HasField("LogicalRequest.Method"))
}

func TestBuildIgnoresValidationTagsOnPayload(t *testing.T) {
	type signup struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}
	req := Post("/users", signup{}).
		WithQuery("ref", "").
		WithHeader("X-Trace", "")

	prepared, err := newTestBuilder().Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"name":"","email":""}`), prepared.Body)
}

func TestEncodeMultipartFraming(t *testing.T) {
	body := EncodeMultipart("B", MultipartFile{FileName: "f.txt", ParamName: "file", Data: []byte("hi")})
	expected := "\r\n--B\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"f.txt\"\r\n" +
		"Content-Type: application/octet-stream\r\n\r\n" +
		"hi" +
		"\r\n--B--\r\n"
	assert.Equal(t, expected, string(body))
}

func TestMultipartRoundTrip(t *testing.T) {
	data := []byte("binary\x00\r\n--not-a-boundary\r\npayload")
	req := Upload("/files", MultipartFile{FileName: "photo.jpg", ParamName: "image", Data: data})

	prepared, err := NewBuilder(nil).WithBaseURL(testBaseURL).Build(context.Background(), req)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(prepared.Headers.Get(HeaderContentType))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	assert.Contains(t, params["boundary"], boundaryPrefix)

	reader := multipart.NewReader(bytes.NewReader(prepared.Body), params["boundary"])
	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "image", part.FormName())
	assert.Equal(t, "photo.jpg", part.FileName())
	assert.Equal(t, "application/octet-stream", part.Header.Get("Content-Type"))

	got, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewBoundaryIsUnique(t *testing.T) {
	assert.NotEqual(t, NewBoundary(), NewBoundary())
}
