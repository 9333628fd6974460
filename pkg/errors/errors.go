package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by the storefront services.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError is a structured application error with an HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(code string, status int, sentinel error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound reports a missing resource (404).
func NotFound(resource, id string) *AppError {
	return newError("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// AlreadyExists reports a uniqueness violation (409).
func AlreadyExists(resource, field, value string) *AppError {
	return newError("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput reports a malformed request (400).
func InvalidInput(message string) *AppError {
	return newError("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

// Unauthorized reports a request without a usable session (401).
func Unauthorized(message string) *AppError {
	return newError("UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, message)
}

// Conflict reports a state conflict (409).
func Conflict(message string) *AppError {
	return newError("CONFLICT", http.StatusConflict, ErrConflict, message)
}

// Unavailable reports a backing store or downstream that cannot be reached
// (503). The cause, when given, stays reachable through errors.Is.
func Unavailable(message string, cause error) *AppError {
	e := newError("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail, message)
	if cause != nil {
		e.Err = fmt.Errorf("%w: %w", ErrServiceUnavail, cause)
	}
	return e
}

// Internal hides err behind a generic 500 message.
func Internal(err error) *AppError {
	e := newError("INTERNAL_ERROR", http.StatusInternalServerError, ErrInternal, "an internal error occurred")
	if err != nil {
		e.Err = err
	}
	return e
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
