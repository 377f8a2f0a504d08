// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrPaymentRequired = errors.New("payment required")
	ErrNotImplemented  = errors.New("not implemented")
	ErrUnavailable     = errors.New("service unavailable")
	ErrUpstream        = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
	Details    map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// WithDetail attaches an extra top-level field to the error response body.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "BAD_REQUEST")
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound, "NOT_FOUND")
}

func ConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, "CONFLICT")
}

func DuplicateError(message string) *AppError {
	return NewAppError(ErrDuplicateKey, message, http.StatusConflict, "DUPLICATE")
}

func PaymentRequiredError(message string) *AppError {
	return NewAppError(
		ErrPaymentRequired,
		message,
		http.StatusPaymentRequired,
		"PLAN_LIMIT_REACHED",
	)
}

func NotImplementedError(message string) *AppError {
	return NewAppError(
		ErrNotImplemented,
		message,
		http.StatusNotImplemented,
		"NOT_CONFIGURED",
	)
}

func UnavailableError(message string) *AppError {
	return NewAppError(
		ErrUnavailable,
		message,
		http.StatusServiceUnavailable,
		"UNAVAILABLE",
	)
}

func UpstreamError(err error, message string) *AppError {
	if err == nil {
		err = ErrUpstream
	}
	return NewAppError(err, message, http.StatusBadGateway, "UPSTREAM")
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(
		ErrRateLimited,
		message,
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	)
}
