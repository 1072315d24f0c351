package utils

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	pkgerrors "github.com/pkg/errors"
)

// ErrorKind is the stable, machine-checkable class of an API failure.
type ErrorKind string

const (
	KindUnauthenticated  ErrorKind = "UNAUTHENTICATED"
	KindForbidden        ErrorKind = "FORBIDDEN"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindConflict         ErrorKind = "CONFLICT"
	KindValidationFailed ErrorKind = "VALIDATION_FAILED"
	KindUnprocessable    ErrorKind = "UNPROCESSABLE"
	KindRateLimited      ErrorKind = "RATE_LIMITED"
	KindInternal         ErrorKind = "INTERNAL"
)

var kindStatus = map[ErrorKind]int{
	KindUnauthenticated:  http.StatusUnauthorized,
	KindForbidden:        http.StatusForbidden,
	KindNotFound:         http.StatusNotFound,
	KindConflict:         http.StatusConflict,
	KindValidationFailed: http.StatusBadRequest,
	KindUnprocessable:    http.StatusUnprocessableEntity,
	KindRateLimited:      http.StatusTooManyRequests,
	KindInternal:         http.StatusInternalServerError,
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the typed error every layer raises for client-visible failures.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Errors     []FieldError
	cause      error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Is matches APIErrors by kind, so errors.Is(err, ErrForbidden) works.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind && t.Message == ""
}

func NewAPIError(kind ErrorKind, message string) *APIError {
	return &APIError{Kind: kind, StatusCode: kindStatus[kind], Message: message}
}

// WithCause attaches the underlying error; it is never shown in production.
func (e *APIError) WithCause(err error) *APIError {
	clone := *e
	clone.cause = pkgerrors.WithStack(err)
	return &clone
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated = &APIError{Kind: KindUnauthenticated}
	ErrForbidden       = &APIError{Kind: KindForbidden}
	ErrNotFound        = &APIError{Kind: KindNotFound}
	ErrConflict        = &APIError{Kind: KindConflict}
	ErrValidation      = &APIError{Kind: KindValidationFailed}
	ErrUnprocessable   = &APIError{Kind: KindUnprocessable}
)

func Unauthenticated(message string) *APIError {
	return NewAPIError(KindUnauthenticated, message)
}

func Forbidden(message string) *APIError {
	return NewAPIError(KindForbidden, message)
}

func NotFound(message string) *APIError {
	return NewAPIError(KindNotFound, message)
}

func Conflict(message string) *APIError {
	return NewAPIError(KindConflict, message)
}

func Unprocessable(message string) *APIError {
	return NewAPIError(KindUnprocessable, message)
}

func ValidationFailed(message string, fields ...FieldError) *APIError {
	e := NewAPIError(KindValidationFailed, message)
	e.Errors = fields
	return e
}

func Internal(err error) *APIError {
	return NewAPIError(KindInternal, "Internal server error").WithCause(err)
}

// AsAPIError classifies any error into an APIError.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return ValidationFailed("Validation failed", fieldErrors(verrs)...)
	}
	return Internal(err)
}

func fieldErrors(verrs validation.Errors) []FieldError {
	var fields []FieldError
	for field, err := range verrs {
		if nested, ok := err.(validation.Errors); ok {
			for _, fe := range fieldErrors(nested) {
				fields = append(fields, FieldError{Field: field + "." + fe.Field, Message: fe.Message})
			}
			continue
		}
		fields = append(fields, FieldError{Field: field, Message: err.Error()})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return fields
}
