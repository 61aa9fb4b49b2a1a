package executor

import (
	"errors"
	"fmt"

	"github.com/gaborage/dataaccess/http"
)

// ClientError is the failure delivered in an execution's Outcome
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	InvalidTargetError ErrorType = "invalid_target"
	TransportError     ErrorType = "transport"
	DecodeError        ErrorType = "decode"
	ProtocolError      ErrorType = "protocol"
	UnknownError       ErrorType = "unknown"
)

// invalidTargetError represents a request that could not be built
type invalidTargetError struct {
	target  string
	wrapped error
}

func (e *invalidTargetError) Error() string {
	return fmt.Sprintf("invalid target: %s: %v", e.target, e.wrapped)
}

func (e *invalidTargetError) Type() ErrorType {
	return InvalidTargetError
}

func (e *invalidTargetError) Unwrap() error {
	return e.wrapped
}

// transportError represents an exchange that failed before a response was received
type transportError struct {
	code     http.ErrorCode
	attempts int
	wrapped  error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("transport error: %s after %d attempt(s): %v", e.code, e.attempts, e.wrapped)
}

func (e *transportError) Type() ErrorType {
	return TransportError
}

func (e *transportError) Unwrap() error {
	return e.wrapped
}

// Code returns the transport error code
func (e *transportError) Code() http.ErrorCode {
	return e.code
}

// Attempts returns the number of transport calls made
func (e *transportError) Attempts() int {
	return e.attempts
}

// decodeError represents a response body that did not match the expected shape
type decodeError struct {
	statusCode int
	body       []byte
	wrapped    error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decode error (status: %d): %v", e.statusCode, e.wrapped)
}

func (e *decodeError) Type() ErrorType {
	return DecodeError
}

func (e *decodeError) Unwrap() error {
	return e.wrapped
}

func (e *decodeError) Body() []byte {
	return e.body
}

// protocolError represents a response status outside the accepted range
type protocolError struct {
	statusCode int
	body       []byte
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("protocol error: unexpected status %d", e.statusCode)
}

func (e *protocolError) Type() ErrorType {
	return ProtocolError
}

func (e *protocolError) StatusCode() int {
	return e.statusCode
}

func (e *protocolError) Body() []byte {
	return e.body
}

// unknownError represents any other failure
type unknownError struct {
	message string
	wrapped error
}

func (e *unknownError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("unknown error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("unknown error: %s", e.message)
}

func (e *unknownError) Type() ErrorType {
	return UnknownError
}

func (e *unknownError) Unwrap() error {
	return e.wrapped
}

// NewInvalidTargetError creates a new invalid target error
func NewInvalidTargetError(target string, err error) ClientError {
	return &invalidTargetError{target: target, wrapped: err}
}

// NewTransportError creates a new transport error. The code is taken from err.
func NewTransportError(err error, attempts int) ClientError {
	return &transportError{code: http.CodeOf(err), attempts: attempts, wrapped: err}
}

// NewDecodeError creates a new decode error
func NewDecodeError(statusCode int, body []byte, err error) ClientError {
	return &decodeError{statusCode: statusCode, body: body, wrapped: err}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(statusCode int, body []byte) ClientError {
	return &protocolError{statusCode: statusCode, body: body}
}

// NewUnknownError creates a new unknown error
func NewUnknownError(message string, err error) ClientError {
	return &unknownError{message: message, wrapped: err}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsProtocolStatus checks if err is a protocol error with the given status
func IsProtocolStatus(err error, status int) bool {
	var pe *protocolError
	return errors.As(err, &pe) && pe.statusCode == status
}

// StatusCode returns the HTTP status carried by a protocol or decode error
func StatusCode(err error) (int, bool) {
	var pe *protocolError
	if errors.As(err, &pe) {
		return pe.statusCode, true
	}
	var de *decodeError
	if errors.As(err, &de) {
		return de.statusCode, true
	}
	return 0, false
}

// Message returns the user-facing message key for err
func Message(err error) string {
	var te *transportError
	if errors.As(err, &te) {
		return te.code.Description()
	}
	return http.CodeUnknown.Description()
}
