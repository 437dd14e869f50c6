package output

import (
	"errors"
	"fmt"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	WireCode   int // numeric error_code from the service envelope, if any
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

func ErrValidation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func ErrNotFound(resource, identifier string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func ErrAuth(msg string) *Error {
	return &Error{
		Code:    CodeAuth,
		Message: msg,
		Hint:    "Run: racelink auth login",
	}
}

// ErrAuthExpired marks an expired access token. The transport treats it as
// retryable exactly once via token refresh.
func ErrAuthExpired(wireCode int) *Error {
	return &Error{
		Code:      CodeAuth,
		Message:   "Authorization expired",
		WireCode:  wireCode,
		Retryable: true,
	}
}

// ErrAuthInvalid marks a refresh token the service no longer accepts.
// Stored credentials must be purged before returning this.
func ErrAuthInvalid(cause error) *Error {
	return &Error{
		Code:    CodeAuthInvalid,
		Message: "Stored authorization is no longer valid",
		Hint:    "Run: racelink auth login",
		Cause:   cause,
	}
}

func ErrCancelled() *Error {
	return &Error{Code: CodeCancelled, Message: "Cancelled"}
}

func ErrNetwork(cause error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: "Network error",
		Hint:    cause.Error(),
		Cause:   cause,
	}
}

// ErrAPI builds an error from the service's structured error envelope.
func ErrAPI(wireCode int, msg string) *Error {
	return &Error{
		Code:     CodeAPI,
		Message:  msg,
		WireCode: wireCode,
	}
}

// ErrHTTP builds an error from a bare HTTP status with no envelope.
func ErrHTTP(status int, msg string) *Error {
	return &Error{
		Code:       CodeAPI,
		Message:    msg,
		HTTPStatus: status,
	}
}

// AsError attempts to convert an error to an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeAPI,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAuthExpired reports whether err is the retryable expired-token error.
func IsAuthExpired(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeAuth && e.Retryable
}

// IsCancelled reports whether err is a user cancellation.
func IsCancelled(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeCancelled
}
