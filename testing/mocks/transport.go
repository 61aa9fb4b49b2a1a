package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/dataaccess/http"
)

// MockTransport provides a testify-based mock implementation of http.Transport.
//
// Example usage:
//
//	transport := &mocks.MockTransport{}
//	transport.On("Send", mock.Anything, mock.Anything).
//		Return(nil, fixtures.ConnectivityError(http.CodeNotConnectedToInternet)).Twice()
//	transport.On("Send", mock.Anything, mock.Anything).
//		Return(fixtures.JSONResponse(200, `{"code":"0000"}`), nil).Once()
//
// Progress reported by SendMultipart and Download is simulated with WithProgress,
// which invokes the callback with each fraction before the call returns.
type MockTransport struct {
	mock.Mock
}

var _ http.Transport = (*MockTransport)(nil)

// Send implements http.Transport
func (m *MockTransport) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	arguments := m.Called(ctx, req)
	return responseArg(arguments, 0), arguments.Error(1)
}

// SendMultipart implements http.Transport
func (m *MockTransport) SendMultipart(ctx context.Context, req *http.Request, body []byte, progress http.ProgressFunc) (*http.Response, error) {
	arguments := m.Called(ctx, req, body, progress)
	return responseArg(arguments, 0), arguments.Error(1)
}

// Download implements http.Transport
func (m *MockTransport) Download(ctx context.Context, req *http.Request, progress http.ProgressFunc) (*http.Response, error) {
	arguments := m.Called(ctx, req, progress)
	return responseArg(arguments, 0), arguments.Error(1)
}

// WithProgress returns a Run function that reports fractions through the
// progress callback of SendMultipart or Download.
func WithProgress(fractions ...float64) func(mock.Arguments) {
	return func(args mock.Arguments) {
		fn, ok := args.Get(len(args) - 1).(http.ProgressFunc)
		if !ok || fn == nil {
			return
		}
		for _, f := range fractions {
			fn(f)
		}
	}
}

// CallCount returns how many times method was called. Read it only after the
// calls under test have completed.
func (m *MockTransport) CallCount(method string) int {
	n := 0
	for _, call := range m.Calls {
		if call.Method == method {
			n++
		}
	}
	return n
}

func responseArg(arguments mock.Arguments, index int) *http.Response {
	if resp, ok := arguments.Get(index).(*http.Response); ok {
		return resp
	}
	return nil
}
