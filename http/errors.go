package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrorCode identifies the class of a transport failure.
type ErrorCode int

const (
	CodeUnknown                ErrorCode = -1
	CodeCancelled              ErrorCode = -999
	CodeTimedOut               ErrorCode = -1001
	CodeCannotFindHost         ErrorCode = -1003
	CodeCannotConnectToHost    ErrorCode = -1004
	CodeNetworkConnectionLost  ErrorCode = -1005
	CodeNotConnectedToInternet ErrorCode = -1009
	CodeBadServerResponse      ErrorCode = -1011
)

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	switch c {
	case CodeCancelled:
		return "cancelled"
	case CodeTimedOut:
		return "timed_out"
	case CodeCannotFindHost:
		return "cannot_find_host"
	case CodeCannotConnectToHost:
		return "cannot_connect_to_host"
	case CodeNetworkConnectionLost:
		return "network_connection_lost"
	case CodeNotConnectedToInternet:
		return "not_connected_to_internet"
	case CodeBadServerResponse:
		return "bad_server_response"
	default:
		return "unknown"
	}
}

// Description returns the user-facing message key for the code.
func (c ErrorCode) Description() string {
	switch c {
	case CodeTimedOut, CodeCannotFindHost, CodeCannotConnectToHost:
		return "connection_time_out"
	case CodeNetworkConnectionLost, CodeNotConnectedToInternet:
		return "internet_connection_is_unstable_please_try_again_after_connecting"
	default:
		return "error_occurred_during_process"
	}
}

// TransportError is returned when an exchange fails before a complete response
// is available.
type TransportError struct {
	Code ErrorCode
	Op   string
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %s %s: %s (code %d): %v", e.Op, e.URL, e.Code, int(e.Code), e.Err)
	}
	return fmt.Sprintf("transport error: %s %s: %s (code %d)", e.Op, e.URL, e.Code, int(e.Code))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError with an explicit code
func NewTransportError(code ErrorCode, op, url string, err error) *TransportError {
	return &TransportError{Code: code, Op: op, URL: url, Err: err}
}

// CodeOf extracts the ErrorCode from err, classifying raw network errors when
// err is not already a TransportError.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return 0
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Code
	}
	return Classify(err)
}

// Classify maps a Go network error onto an ErrorCode.
func Classify(err error) ErrorCode {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimedOut
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return CodeTimedOut
		}
		return CodeCannotFindHost
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimedOut
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.EHOSTUNREACH):
		return CodeCannotConnectToHost
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.ENETDOWN):
		return CodeNotConnectedToInternet
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNABORTED), errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return CodeNetworkConnectionLost
	}

	return CodeUnknown
}

var errMissingURL = errors.New("request URL is empty")
