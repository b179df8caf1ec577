package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrPermission      = errors.New("permission denied")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrSlugTaken       = errors.New("slug taken")
	ErrUploadRejected  = errors.New("upload rejected")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrInternal        = errors.New("internal server error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTooManyRequests = errors.New("too many requests")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	// Field names the offending input field for validation failures.
	Field string
	Err   error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

// NewValidation reports a field-level validation failure; msg is shown to the caller.
func NewValidation(field, msg string) *AppError {
	e := NewAppError(ErrInvalidInput, msg, fmt.Sprintf("validation failed on '%s'", field), nil)
	e.Field = field
	return e
}

func NewConflict(resource, field, value string) *AppError {
	msg := fmt.Sprintf("%s conflict", resource)
	details := fmt.Sprintf("%s with %s '%s' already exists", resource, field, value)
	return NewAppError(ErrConflict, msg, details, nil)
}

func NewSlugTaken(slug string) *AppError {
	e := NewAppError(ErrSlugTaken, "This username is already taken", fmt.Sprintf("slug '%s' is held by another portfolio", slug), nil)
	e.Field = "slug"
	return e
}

func NewUploadRejected(msg string) *AppError {
	e := NewAppError(ErrUploadRejected, msg, "upload policy rejected the file", nil)
	e.Field = "file"
	return e
}

func NewUpstreamTimeout(details string, err error) *AppError {
	return NewAppError(ErrUpstreamTimeout, "Upstream did not respond in time", details, err)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Unauthorized", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

func NewTooManyRequests(details string) *AppError {
	return NewAppError(ErrTooManyRequests, "Too many requests, slow down", details, nil)
}

func ToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUploadRejected):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict), errors.Is(err, ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ToJSON renders the client-facing body. Causes and details never leave the server.
func (e *AppError) ToJSON() gin.H {
	body := gin.H{
		"success": false,
		"error":   e.Message,
		"code":    e.BaseError.Error(),
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	return body
}
