// Package response classifies transport responses: status acceptance, percent
// decoding, the "0000" envelope sentinel, strict decoding, credential rotation
// and cookie persistence.
package response

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/gaborage/dataaccess/cookies"
	"github.com/gaborage/dataaccess/credentials"
	"github.com/gaborage/dataaccess/http"
	"github.com/gaborage/dataaccess/logger"
)

// SuccessCode is the envelope code reported by the server for a successful call
const SuccessCode = "0000"

// Rotation headers
const (
	HeaderAuthorization = "Authorization"
	HeaderRefreshToken  = "Refresh-Token"
)

// Kind is the classification of a response
type Kind int

const (
	Valid Kind = iota
	RecoverableEmpty
	DecodeFailure
	ProtocolError
)

func (k Kind) String() string {
	switch k {
	case Valid:
		return "valid"
	case RecoverableEmpty:
		return "recoverable_empty"
	case DecodeFailure:
		return "decode_failure"
	case ProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of Validate.
type Result struct {
	Kind       Kind
	StatusCode int
	// Body is the percent-decoded body
	Body []byte
	// Code is the envelope code, empty when the body carries none
	Code string
	// Value is the decoded value for Valid results
	Value any
	// Err is the decoding error for DecodeFailure results
	Err error
}

// Validator classifies responses and applies their side effects to the
// ambient credential store and cookie jar.
type Validator struct {
	credentials credentials.Store
	jar         nethttp.CookieJar
	now         func() time.Time
	logger      logger.Logger
}

// NewValidator creates a Validator. store and jar may be nil.
func NewValidator(store credentials.Store, jar nethttp.CookieJar, log logger.Logger) *Validator {
	if log == nil {
		log = logger.Nop()
	}
	return &Validator{credentials: store, jar: jar, now: time.Now, logger: log}
}

// WithClock replaces the clock used for cookie expiry extension
func (v *Validator) WithClock(now func() time.Time) *Validator {
	if now != nil {
		v.now = now
	}
	return v
}

// Validate classifies resp received for target. dec decodes accepted bodies; a nil
// dec yields the percent-decoded body bytes as the value, Raw yields the bytes as
// received. Store or jar failures are logged and never change the classification.
func (v *Validator) Validate(ctx context.Context, resp *http.Response, target *url.URL, dec Decoder) Result {
	log := v.logger.WithContext(ctx)
	body := PercentDecode(resp.Body)
	v.logBody(log, resp.StatusCode, body)

	cookies.Merge(v.jar, target, resp.Headers, v.now())

	if _, raw := dec.(rawDecoder); raw {
		body = resp.Body
	}
	if !Accepted(resp.StatusCode) {
		return Result{Kind: ProtocolError, StatusCode: resp.StatusCode, Body: body}
	}

	if resp.StatusCode == nethttp.StatusOK {
		v.rotate(ctx, log, resp.Headers)
	}

	if dec == nil {
		dec = passthrough
	}
	result := Result{StatusCode: resp.StatusCode, Body: body, Code: envelopeCode(body)}

	value, err := dec.Decode(body)
	if err != nil {
		if result.Code != SuccessCode && isEmptyObject(body) {
			log.Debug().Str("code", result.Code).Msg("Empty response object")
			result.Kind = RecoverableEmpty
			return result
		}
		result.Kind = DecodeFailure
		result.Err = err
		return result
	}
	result.Kind = Valid
	result.Value = value
	return result
}

// Accepted reports whether status proceeds to decoding
func Accepted(status int) bool {
	return (status >= 200 && status <= 299) || status == nethttp.StatusBadRequest
}

// PercentDecode unescapes percent-encoded text. Bodies that are not valid UTF-8,
// or that contain malformed escapes, are returned unchanged.
func PercentDecode(body []byte) []byte {
	if len(body) == 0 || !utf8.Valid(body) || bytes.IndexByte(body, '%') < 0 {
		return body
	}
	decoded, err := url.PathUnescape(string(body))
	if err != nil || !utf8.ValidString(decoded) {
		return body
	}
	return []byte(decoded)
}

// envelopeCode returns the top-level "code" (or "status") of a JSON object body
func envelopeCode(body []byte) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	for _, key := range []string{"code", "status"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func isEmptyObject(body []byte) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(body, &obj) == nil && obj != nil && len(obj) == 0
}

func (v *Validator) rotate(ctx context.Context, log logger.Logger, headers nethttp.Header) {
	if v.credentials == nil {
		return
	}
	auth := headers.Get(HeaderAuthorization)
	refresh := headers.Get(HeaderRefreshToken)
	if auth == "" || refresh == "" {
		return
	}
	if err := credentials.Rotate(ctx, v.credentials, auth, refresh); err != nil {
		log.Warn().Err(err).Msg("Failed to persist rotated credentials")
		return
	}
	log.Debug().Msg("Rotated credentials")
}

func (v *Validator) logBody(log logger.Logger, status int, body []byte) {
	var pretty bytes.Buffer
	text := string(body)
	if json.Valid(body) && json.Indent(&pretty, body, "", "  ") == nil {
		text = pretty.String()
	}
	log.Debug().
		Int("status", status).
		Str("body", text).
		Msg("Response received")
}
