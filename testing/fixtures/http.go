package fixtures

import (
	"errors"
	nethttp "net/http"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/dataaccess/http"
	"github.com/gaborage/dataaccess/testing/mocks"
)

// Header constants
const (
	ContentTypeHeader   = "Content-Type"
	AuthorizationHeader = "Authorization"
	RefreshTokenHeader  = "Refresh-Token"
	SetCookieHeader     = "Set-Cookie"
)

// ApplicationJSONContentType is the JSON media type
const ApplicationJSONContentType = "application/json"

// JSONResponse creates a transport response with a JSON body
func JSONResponse(status int, body string) *http.Response {
	headers := nethttp.Header{}
	headers.Set(ContentTypeHeader, ApplicationJSONContentType)
	return &http.Response{StatusCode: status, Body: []byte(body), Headers: headers}
}

// RotationResponse creates a 200 response carrying fresh bearer credentials
func RotationResponse(body, token, refreshToken string) *http.Response {
	resp := JSONResponse(nethttp.StatusOK, body)
	resp.Headers.Set(AuthorizationHeader, "Bearer "+token)
	resp.Headers.Set(RefreshTokenHeader, "Bearer "+refreshToken)
	return resp
}

// ConnectivityError creates a transport error with code
func ConnectivityError(code http.ErrorCode) error {
	return http.NewTransportError(code, "send", "https://api.example.com", errors.New(code.String()))
}

// NewFlakyTransport creates a mock transport whose Send fails failures times with
// code, then returns resp.
func NewFlakyTransport(failures int, code http.ErrorCode, resp *http.Response) *mocks.MockTransport {
	transport := &mocks.MockTransport{}
	if failures > 0 {
		transport.On("Send", mock.Anything, mock.Anything).
			Return(nil, ConnectivityError(code)).Times(failures)
	}
	transport.On("Send", mock.Anything, mock.Anything).Return(resp, nil)
	return transport
}

// NewFailingTransport creates a mock transport whose Send always fails with code
func NewFailingTransport(code http.ErrorCode) *mocks.MockTransport {
	transport := &mocks.MockTransport{}
	transport.On("Send", mock.Anything, mock.Anything).Return(nil, ConnectivityError(code))
	return transport
}

// NewWorkingTransport creates a mock transport whose Send always returns resp
func NewWorkingTransport(resp *http.Response) *mocks.MockTransport {
	return NewFlakyTransport(0, http.CodeUnknown, resp)
}
