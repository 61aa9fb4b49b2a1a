package cookies

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingJar captures every SetCookies call
type recordingJar struct {
	calls [][]*http.Cookie
}

func (r *recordingJar) SetCookies(_ *url.URL, cookies []*http.Cookie) {
	r.calls = append(r.calls, cookies)
}

func (r *recordingJar) Cookies(*url.URL) []*http.Cookie { return nil }

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestMergeExtendsExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	headers := http.Header{}
	headers.Add("Set-Cookie", "session=abc; Path=/; Max-Age=60")
	headers.Add("Set-Cookie", "theme=dark; Path=/")

	jar := &recordingJar{}
	extended := Merge(jar, mustParse(t, "https://api.example.com/v1"), headers, now)

	require.Len(t, jar.calls, 2)
	assert.Len(t, jar.calls[0], 2)
	require.Len(t, extended, 2)
	for _, c := range extended {
		assert.Equal(t, now.Add(Extension), c.Expires)
		assert.Zero(t, c.MaxAge)
	}
	assert.Equal(t, "session", extended[0].Name)
	assert.Equal(t, "abc", extended[0].Value)
	// originals are untouched
	assert.Equal(t, 60, jar.calls[0][0].MaxAge)
}

func TestMergeNoCookies(t *testing.T) {
	jar := &recordingJar{}
	assert.Nil(t, Merge(jar, mustParse(t, "https://api.example.com"), http.Header{}, time.Now()))
	assert.Empty(t, jar.calls)
	assert.Nil(t, Merge(nil, nil, nil, time.Now()))
}

func TestJarRoundTrip(t *testing.T) {
	jar, err := NewJar()
	require.NoError(t, err)

	target := mustParse(t, "https://api.example.com/v1/users")
	headers := http.Header{}
	headers.Add("Set-Cookie", "session=abc; Path=/")

	Merge(jar, target, headers, time.Now())

	assert.Equal(t, "session=abc", Header(jar, mustParse(t, "https://api.example.com/v1/other")))
	assert.Empty(t, Header(jar, mustParse(t, "https://other.example.org/")))
	assert.Empty(t, Header(nil, target))
}
