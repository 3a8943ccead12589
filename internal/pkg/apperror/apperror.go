package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of the transport status code.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindBusinessRule Kind = "business_rule"
	KindDependency   Kind = "dependency"
	KindSignature    Kind = "signature"
	KindInternal     Kind = "internal"
)

// AppError is a custom error type that includes an HTTP status code and an error kind.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    Kind   // Taxonomy bucket used by callers and metrics
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
// The kind is derived from the status code.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
		Err:     err,
	}
}

func Validation(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: message}
}

// BusinessRule reports a mutation or transition the current state does not allow.
// code is either 400 or 409.
func BusinessRule(code int, message string) *AppError {
	return &AppError{Code: code, Kind: KindBusinessRule, Message: message}
}

// Dependency reports an unavailable or timed out collaborator (storage, payment provider).
func Dependency(err error, message string) *AppError {
	return &AppError{Code: http.StatusServiceUnavailable, Kind: KindDependency, Message: message, Err: err}
}

// BadGateway is a Dependency error for an upstream that answered with a failure.
func BadGateway(err error, message string) *AppError {
	return &AppError{Code: http.StatusBadGateway, Kind: KindDependency, Message: message, Err: err}
}

func Signature(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindSignature, Message: message}
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindDependency
	default:
		if code >= 500 {
			return KindInternal
		}
		return KindBusinessRule
	}
}
