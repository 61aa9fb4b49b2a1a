// Package cookies provides the cookie jar used by the executor and the merge step
// that persists response cookies with an extended lifetime.
package cookies

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Extension is how far past the response time merged cookies are kept.
const Extension = 365 * 24 * time.Hour

// NewJar creates a public-suffix aware, concurrency-safe cookie jar.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// FromHeaders parses the Set-Cookie lines of a response header.
func FromHeaders(headers http.Header) []*http.Cookie {
	if len(headers) == 0 {
		return nil
	}
	return (&http.Response{Header: headers}).Cookies()
}

// Merge stores the cookies set by a response for target, then stores a copy of each
// with an expiry of now plus Extension. The extended copies are returned.
func Merge(jar http.CookieJar, target *url.URL, headers http.Header, now time.Time) []*http.Cookie {
	if jar == nil || target == nil {
		return nil
	}
	received := FromHeaders(headers)
	if len(received) == 0 {
		return nil
	}
	jar.SetCookies(target, received)

	extended := make([]*http.Cookie, 0, len(received))
	for _, c := range received {
		clone := *c
		clone.Expires = now.Add(Extension)
		// MaxAge wins over Expires in the jar
		clone.MaxAge = 0
		extended = append(extended, &clone)
	}
	jar.SetCookies(target, extended)
	return extended
}

// Header renders the jar cookies for target as a Cookie header value.
func Header(jar http.CookieJar, target *url.URL) string {
	if jar == nil || target == nil {
		return ""
	}
	req := &http.Request{Header: http.Header{}}
	for _, c := range jar.Cookies(target) {
		req.AddCookie(c)
	}
	return req.Header.Get("Cookie")
}
