package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the toolkit.
type ErrorCode string

// Remote task error codes
const (
	ErrSubmissionFailed  ErrorCode = "SUBMISSION_FAILED"
	ErrTransportFailure  ErrorCode = "TRANSPORT_FAILURE"
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// Caller error codes
const (
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrRateLimited   ErrorCode = "RATE_LIMITED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// AsError extracts an *Error from the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether any *Error in the chain carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// NewConfigError 创建配置错误
func NewConfigError(format string, args ...any) *Error {
	return NewError(ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// NewTransportError 创建传输层错误（网络不可达、连接重置等），可重试
func NewTransportError(op string, cause error) *Error {
	return NewError(ErrTransportFailure, op+" failed").WithCause(cause).WithRetryable(true)
}
