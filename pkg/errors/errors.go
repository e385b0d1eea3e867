package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppErrorType is the closed set of pipeline error kinds (decode, convert,
// encode, write, catalog, backpressure), each mapped to one HTTP status
// code at the ingress boundary.
type AppErrorType string

const (
	Malformed              AppErrorType = "MALFORMED"
	PayloadTooLarge        AppErrorType = "PAYLOAD_TOO_LARGE"
	UnsupportedEncoding    AppErrorType = "UNSUPPORTED_ENCODING"
	UnsupportedContentType AppErrorType = "UNSUPPORTED_CONTENT_TYPE"
	ConversionFailed       AppErrorType = "CONVERSION_FAILED"
	EncodeFailed           AppErrorType = "ENCODE_FAILED"
	WriteFailedTransient   AppErrorType = "WRITE_FAILED_TRANSIENT"
	WriteFailedPermanent   AppErrorType = "WRITE_FAILED_PERMANENT"
	CatalogError           AppErrorType = "CATALOG_ERROR"
	Backpressure           AppErrorType = "BACKPRESSURE"
	InternalError          AppErrorType = "INTERNAL_ERROR"
)

// AppError is the pipeline's single error type: a kind, a human message,
// optional details, the wrapped cause, and the HTTP status the transport
// layer should answer with.
type AppError struct {
	Err        error        `json:"-"`
	Type       AppErrorType `json:"type"`
	Message    string       `json:"message"`
	Details    string       `json:"details,omitempty"`
	StatusCode int          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errorType AppErrorType, message, details string, err error) *AppError {
	appErr := &AppError{
		Type:    errorType,
		Message: message,
		Details: details,
		Err:     err,
	}

	switch errorType {
	case Malformed, ConversionFailed:
		appErr.StatusCode = http.StatusBadRequest
	case PayloadTooLarge:
		appErr.StatusCode = http.StatusRequestEntityTooLarge
	case UnsupportedEncoding, UnsupportedContentType:
		appErr.StatusCode = http.StatusUnsupportedMediaType
	case Backpressure:
		appErr.StatusCode = http.StatusServiceUnavailable
	case WriteFailedTransient:
		appErr.StatusCode = http.StatusServiceUnavailable
	case WriteFailedPermanent, EncodeFailed, CatalogError, InternalError:
		appErr.StatusCode = http.StatusInternalServerError
	default:
		appErr.StatusCode = http.StatusInternalServerError
	}

	return appErr
}

func NewMalformedError(message, details string) *AppError {
	return NewAppError(Malformed, message, details, nil)
}

func NewPayloadTooLargeError(message string) *AppError {
	return NewAppError(PayloadTooLarge, message, "", nil)
}

func NewUnsupportedEncodingError(encoding string) *AppError {
	return NewAppError(UnsupportedEncoding, "unsupported content-encoding: "+encoding, "", nil)
}

func NewUnsupportedContentTypeError(contentType string) *AppError {
	return NewAppError(UnsupportedContentType, "unsupported content-type: "+contentType, "", nil)
}

func NewConversionFailedError(message string, err error) *AppError {
	return NewAppError(ConversionFailed, message, "", err)
}

func NewEncodeFailedError(message string, err error) *AppError {
	return NewAppError(EncodeFailed, message, "", err)
}

func NewWriteFailedError(transient bool, message string, err error) *AppError {
	if transient {
		return NewAppError(WriteFailedTransient, message, "", err)
	}
	return NewAppError(WriteFailedPermanent, message, "", err)
}

func NewCatalogError(message string, err error) *AppError {
	return NewAppError(CatalogError, message, "", err)
}

func NewBackpressureError(message string) *AppError {
	return NewAppError(Backpressure, message, "", nil)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(InternalError, message, "", err)
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func GetStatusCode(err error) int {
	if appErr, ok := IsAppError(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func GetErrorType(err error) AppErrorType {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type
	}
	return InternalError
}

// IsTransientWriteError reports whether err is a retryable blob-write
// failure, as opposed to a permanent one that should route to the
// dead-letter sink immediately.
func IsTransientWriteError(err error) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type == WriteFailedTransient
	}
	return false
}

func WrapConversionFailed(err error, message string) *AppError {
	return NewAppError(ConversionFailed, message, err.Error(), err)
}

func WrapInternalError(err error, message string) *AppError {
	return NewAppError(InternalError, message, "", err)
}
