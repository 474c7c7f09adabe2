package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP status.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindPersistence  Kind = "persistence"
	KindInternal     Kind = "internal"
)

type AppError struct {
	Code    int         `json:"code"`
	Kind    Kind        `json:"kind"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a client-visible payload to the error.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
		Err:     err,
	}
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

// Validation reports a malformed payload or a missing required reference.
func Validation(message string, err error) *AppError {
	return New(http.StatusUnprocessableEntity, message, err)
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return New(http.StatusConflict, message, nil)
}

// Persistence wraps a store-level failure. The message never leaks the cause.
func Persistence(err error) *AppError {
	e := New(http.StatusInternalServerError, "Storage operation failed", err)
	e.Kind = KindPersistence
	return e
}

// PartialUpdateDetails tells the client which collections of a profile update
// were committed before the failing one.
type PartialUpdateDetails struct {
	Succeeded []string `json:"succeeded"`
	Failed    string   `json:"failed"`
}

// PartialUpdate decorates cause with the progress of a multi-collection update.
// The cause keeps its kind and status; a plain error becomes a persistence error.
func PartialUpdate(cause error, succeeded []string, failed string) *AppError {
	if succeeded == nil {
		succeeded = []string{}
	}
	details := PartialUpdateDetails{Succeeded: succeeded, Failed: failed}

	var appErr *AppError
	if errors.As(cause, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Kind:    appErr.Kind,
			Message: appErr.Message,
			Details: details,
			Err:     cause,
		}
	}
	return Persistence(cause).WithDetails(details)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "Internal Server Error", err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
