package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes shared across the auth packages. The credential and token
// codes are deliberately coarse: callers receive the same code whether a
// username did not exist or its password was wrong, and whether a token
// expired or never existed.
const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	// Authentication errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked      ErrorCode = "ACCOUNT_LOCKED"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"

	// Second factor errors
	ErrCode2FAInvalid       ErrorCode = "TWO_FA_INVALID"
	ErrCode2FANotInitiated  ErrorCode = "TWO_FA_NOT_INITIATED"
	ErrCode2FAAlreadySetup  ErrorCode = "TWO_FA_ALREADY_SETUP"

	// Password and reset errors
	ErrCodePasswordTooShort  ErrorCode = "PASSWORD_TOO_SHORT"
	ErrCodeResetTokenInvalid ErrorCode = "RESET_TOKEN_INVALID"
)

// Error is a structured error carrying a code, a caller-facing message and
// an optional wrapped cause.
type Error struct {
	Code    ErrorCode
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

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
// Returns ErrCodeInternal if the error is not a structured Error.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// Message extracts the caller-facing message from an error.
// Storage and other unstructured faults collapse to a generic message so
// their details never reach a client.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodePasswordTooShort, ErrCodeResetTokenInvalid,
		ErrCode2FANotInitiated, ErrCode2FAAlreadySetup:
		return http.StatusBadRequest

	case ErrCodeInvalidCredentials, ErrCodeAccountLocked, ErrCodeSessionNotFound,
		ErrCode2FAInvalid:
		return http.StatusUnauthorized

	case ErrCodeNotFound:
		return http.StatusNotFound

	case ErrCodeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}
