// Package errors provides custom error types for the renditax API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Instrument errors.
var (
	ErrInstrumentNotFound = &AppError{Code: "INSTRUMENT_NOT_FOUND", Message: "Instrument not found", StatusCode: http.StatusNotFound}
	ErrDuplicateISIN      = &AppError{Code: "DUPLICATE_ISIN", Message: "An instrument with this ISIN already exists", StatusCode: http.StatusConflict}
	ErrInvalidISIN        = &AppError{Code: "INVALID_ISIN", Message: "ISIN must be 2 uppercase letters followed by 10 uppercase alphanumerics", StatusCode: http.StatusBadRequest}
)

// Enrichment errors.
var (
	ErrEnrichSourceMismatch = &AppError{Code: "ENRICH_SOURCE_MISMATCH", Message: "This source cannot enrich instruments of this category", StatusCode: http.StatusBadRequest}
	ErrEnrichRunActive      = &AppError{Code: "ENRICH_RUN_ACTIVE", Message: "A batch run for this source is already in progress", StatusCode: http.StatusConflict}
	ErrEnrichFetchFailed    = &AppError{Code: "ENRICH_FETCH_FAILED", Message: "External source returned no usable data", StatusCode: http.StatusBadGateway}
	ErrEnrichStoreFailed    = &AppError{Code: "ENRICH_STORE_FAILED", Message: "Data fetched but could not be saved", StatusCode: http.StatusInternalServerError}
)

// Currency errors.
var (
	ErrRateNotFound = &AppError{Code: "RATE_NOT_FOUND", Message: "Conversion rate not found for this pair", StatusCode: http.StatusNotFound}
)
