package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error kind across layers.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeDuplicateIdentity  Code = "DUPLICATE_IDENTITY"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnavailable        Code = "SERVICE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// AppError carries a code, a client-safe message and the HTTP status it maps to.
type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports a match on Code, so errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of its message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrValidation         = &AppError{Code: CodeValidation, Message: "invalid input", HTTPStatus: http.StatusBadRequest}
	ErrUnauthorized       = &AppError{Code: CodeUnauthorized, Message: "unauthorized", HTTPStatus: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: CodeForbidden, Message: "forbidden", HTTPStatus: http.StatusForbidden}
	ErrNotFound           = &AppError{Code: CodeNotFound, Message: "not found", HTTPStatus: http.StatusNotFound}
	ErrDuplicateIdentity  = &AppError{Code: CodeDuplicateIdentity, Message: "username or email already exists", HTTPStatus: http.StatusConflict}
	ErrInvalidCredentials = &AppError{Code: CodeInvalidCredentials, Message: "invalid email or password", HTTPStatus: http.StatusUnauthorized}
	ErrUnavailable        = &AppError{Code: CodeUnavailable, Message: "service unavailable", HTTPStatus: http.StatusServiceUnavailable}
	ErrInternal           = &AppError{Code: CodeInternal, Message: "internal server error", HTTPStatus: http.StatusInternalServerError}
)

func New(code Code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code Code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Cause: err}
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message, http.StatusServiceUnavailable)
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(err error) *AppError {
	return Wrap(err, CodeInternal, "internal server error", http.StatusInternalServerError)
}

// From extracts the AppError from an error chain. Anything that is not an
// AppError becomes an InternalError.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
