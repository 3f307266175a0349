// Package errs provides structured errors shared across the module: a code
// per failure class, HTTP status mapping, and errors.Is/As support.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error
type Code string

const (
	CodeInternal              Code = "INTERNAL_ERROR"
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeNotFound              Code = "NOT_FOUND"
	CodeForbidden             Code = "FORBIDDEN"
	CodeAuthFailed            Code = "AUTH_FAILED"
	CodeNotAuthenticated      Code = "NOT_AUTHENTICATED"
	CodeOTPInvalidOrExpired   Code = "OTP_INVALID_OR_EXPIRED"
	CodeRateLimited           Code = "RATE_LIMITED"
	CodeStorageUnavailable    Code = "STORAGE_UNAVAILABLE"
	CodeEnrichmentUnavailable Code = "ENRICHMENT_UNAVAILABLE"
)

// Error is a structured error with code, message and an optional wrapped
// underlying error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status for this error's code
func (e *Error) HTTPStatusCode() int {
	switch e.Code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeAuthFailed, CodeNotAuthenticated, CodeOTPInvalidOrExpired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeStorageUnavailable, CodeEnrichmentUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new Error with the given code and message
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// IsCode checks whether an error carries a specific code
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the code from an error, defaulting to CodeInternal.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
