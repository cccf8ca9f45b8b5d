// Package apperr provides error code definitions shared across the module.
package apperr

import "fmt"

// ErrorCode identifies a class of failure that callers can branch on.
type ErrorCode string

const (
	// General errors
	ErrInternal ErrorCode = "INTERNAL_ERROR"
	ErrInvalid  ErrorCode = "INVALID_INPUT"

	// Durable store errors
	ErrQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
	ErrStoreCorrupt  ErrorCode = "STORE_CORRUPT"
	ErrStoreFailed   ErrorCode = "STORE_FAILED"

	// Image codec errors
	ErrMalformedEncoding ErrorCode = "MALFORMED_ENCODING"
	ErrImageDecode       ErrorCode = "IMAGE_DECODE_FAILED"

	// Submission errors
	ErrSubmitFailed ErrorCode = "SUBMIT_FAILED"

	// Geolocation errors
	ErrGeoPermissionDenied ErrorCode = "GEO_PERMISSION_DENIED"
	ErrGeoUnavailable      ErrorCode = "GEO_UNAVAILABLE"
	ErrGeoTimeout          ErrorCode = "GEO_TIMEOUT"
	ErrGeoNoStreet         ErrorCode = "GEO_NO_STREET"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code, unwrapping as needed.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
