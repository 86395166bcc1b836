// Package errors provides structured error types for pulseboard.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for pulseboard.
const (
	// Import errors
	CodeValidationFailed Code = "VALIDATION_FAILED"

	// Authorization errors
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeAuthNotConfigured Code = "AUTH_NOT_CONFIGURED"
	CodeNotAuthenticated  Code = "NOT_AUTHENTICATED"

	// Persistence errors
	CodeStoreFailure Code = "STORE_FAILURE"
	CodeTaskNotFound Code = "TASK_NOT_FOUND"

	// Config errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
	CodeConfigMissing Code = "CONFIG_MISSING"
)

// Category groups error codes for HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryUnauthorized
	CategoryInternal
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeValidationFailed: CategoryBadRequest,
	CodeUnauthorized:     CategoryUnauthorized,
	CodeNotAuthenticated: CategoryUnauthorized,
	// A missing server secret is a deployment fault, not an auth
	// outcome. It must never map to 401 or read as a silent bypass.
	CodeAuthNotConfigured: CategoryInternal,
	CodeStoreFailure:      CategoryInternal,
	CodeTaskNotFound:      CategoryNotFound,
	CodeConfigInvalid:     CategoryBadRequest,
	CodeConfigMissing:     CategoryBadRequest,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNotFound:
		return 404
	case CategoryBadRequest:
		return 400
	case CategoryUnauthorized:
		return 401
	default:
		return 500
	}
}

// Error is the structured error type for pulseboard.
type Error struct {
	Code    Code   `json:"code"`
	What    string `json:"what"`
	Why     string `json:"why,omitempty"`
	Fix     string `json:"fix,omitempty"`
	Details any    `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error category for HTTP status mapping.
func (e *Error) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is an Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		What:    e.What,
		Why:     e.Why,
		Fix:     e.Fix,
		Details: e.Details,
		Cause:   err,
	}
}

// --- Error constructors ---

// ErrValidationFailed returns an error for a rejected import batch.
// Details carries per-record field errors; the batch is never
// partially applied.
func ErrValidationFailed(details any) *Error {
	return &Error{
		Code:    CodeValidationFailed,
		What:    "import batch failed validation",
		Why:     "One or more records is missing required fields or has malformed timestamps",
		Fix:     "Fix the listed records and resubmit the whole batch",
		Details: details,
	}
}

// ErrUnauthorized returns an error for a missing or mismatched import token.
func ErrUnauthorized() *Error {
	return &Error{
		Code: CodeUnauthorized,
		What: "invalid or missing import token",
		Why:  "The Authorization header did not carry the configured import secret",
		Fix:  "Send 'Authorization: Bearer <secret>' matching the server's import.secret",
	}
}

// ErrAuthNotConfigured returns an error when the server has no import secret.
func ErrAuthNotConfigured() *Error {
	return &Error{
		Code: CodeAuthNotConfigured,
		What: "import endpoint is not configured",
		Why:  "No import secret is set, and unauthenticated writes are not allowed",
		Fix:  "Set import.secret in the config file or PULSEBOARD_IMPORT_SECRET",
	}
}

// ErrNotAuthenticated returns an error for requests without a valid session.
func ErrNotAuthenticated() *Error {
	return &Error{
		Code: CodeNotAuthenticated,
		What: "not authenticated",
		Why:  "No active session was found for this request",
		Fix:  "Sign in via /auth/login",
	}
}

// ErrStoreFailure returns an error for a failed database operation.
// The caller must resubmit the whole batch; there is no partial-success
// protocol.
func ErrStoreFailure(op string, cause error) *Error {
	return &Error{
		Code:  CodeStoreFailure,
		What:  fmt.Sprintf("store operation failed: %s", op),
		Why:   "The database was unreachable or rejected the write",
		Fix:   "Check database connectivity and retry the full request",
		Cause: cause,
	}
}

// ErrTaskNotFound returns an error when a task doesn't exist.
func ErrTaskNotFound(externalID string) *Error {
	return &Error{
		Code: CodeTaskNotFound,
		What: fmt.Sprintf("task %s not found", externalID),
		Why:  "No task with this external ID has been imported",
	}
}

// ErrConfigMissing returns an error for an explicitly requested config
// file that does not exist. The layered loader treats missing files as
// optional; only --config paths surface this.
func ErrConfigMissing(path string) *Error {
	return &Error{
		Code: CodeConfigMissing,
		What: fmt.Sprintf("config file %s not found", path),
		Why:  "The requested configuration file does not exist",
		Fix:  "Run `pulseboard init` or pass an existing file",
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(why string) *Error {
	return &Error{
		Code: CodeConfigInvalid,
		What: "configuration is invalid",
		Why:  why,
		Fix:  "Edit .pulseboard/config.yaml and fix the reported field",
	}
}
