package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dgarant/qed/pkg/logic"
	"github.com/dgarant/qed/pkg/report"
)

// Common sentinel errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps a domain error to an AppError with an appropriate HTTP
// status code. Malformed goals and unknown predicates are the caller's
// fault; everything unrecognized is internal.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var queryErr *logic.QueryError
	if errors.As(err, &queryErr) {
		return NewAppError(http.StatusBadRequest, queryErr.Error(), err)
	}
	var unknownOut *report.UnknownOutcomeError
	if errors.As(err, &unknownOut) {
		return NewAppError(http.StatusNotFound, unknownOut.Error(), err)
	}

	if errors.Is(err, ErrInvalidInput) {
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	}
	if errors.Is(err, ErrNotFound) {
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	}

	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
