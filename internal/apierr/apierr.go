// ABOUTME: Boundary error taxonomy for the account API
// ABOUTME: Maps internal failures to an HTTP status and a caller-safe message

package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the kind of a boundary error.
type Code string

const (
	CodeForbiddenAdminAccount Code = "FORBIDDEN_ADMIN_ACCOUNT"
	CodeNotFound              Code = "NOT_FOUND"
	CodeNoActiveSession       Code = "NO_ACTIVE_SESSION"
	CodeValidation            Code = "VALIDATION_FAILURE"
	CodeConflict              Code = "CONFLICT"
)

// Error is an error that knows how it should be reported to a caller.
type Error struct {
	Code    Code
	Status  int
	Message string
	Cause   error
}

// Fixed errors with non-store-derived status and message.
var (
	ErrForbiddenAdminAccount = &Error{Code: CodeForbiddenAdminAccount, Status: http.StatusForbidden, Message: "Admins have no accounts"}
	ErrNoActiveSession       = &Error{Code: CodeNoActiveSession, Status: http.StatusUnauthorized, Message: "Session invalid"}
)

// New creates a new Error.
func New(code Code, status int, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Status:  status,
		Message: message,
		Cause:   cause,
	}
}

// NotFound wraps cause as a NOT_FOUND error reported with a 404 status.
func NotFound(message string, cause error) *Error {
	return New(CodeNotFound, http.StatusNotFound, message, cause)
}

// Validation reports a malformed request.
func Validation(message string, cause error) *Error {
	return New(CodeValidation, http.StatusBadRequest, message, cause)
}

// Conflict reports a write that collides with an existing record.
func Conflict(message string, cause error) *Error {
	return New(CodeConflict, http.StatusConflict, message, cause)
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

// Unwrap returns the root cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code so wrapped copies of the fixed errors compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Status == t.Status
}

// As extracts an *Error if present.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// HasCode reports whether err carries an *Error with the given code.
func HasCode(err error, code Code) bool {
	apiErr := As(err)
	return apiErr != nil && apiErr.Code == code
}

// Translate maps err to the status and message sent to the caller.
// Errors that are not *Error are reported with defaultStatus and the generic
// status text so that store internals never reach the response.
func Translate(err error, defaultStatus int) (int, string) {
	if apiErr := As(err); apiErr != nil {
		status := apiErr.Status
		if status == 0 {
			status = defaultStatus
		}
		message := apiErr.Message
		if message == "" {
			message = http.StatusText(status)
		}
		return status, message
	}
	return defaultStatus, http.StatusText(defaultStatus)
}
