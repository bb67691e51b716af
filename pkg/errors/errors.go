package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error produced by the core wraps exactly one of them,
// so callers can branch with errors.Is regardless of the message.
var (
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("access denied")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("storage failure")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	// JWT
	ErrInvalidSigningMethod = fmt.Errorf("%w: unexpected token signing method", ErrUnauthorized)
	ErrInvalidToken         = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired         = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenIsNotAccess     = fmt.Errorf("%w: token is not an access token", ErrUnauthorized)
	ErrTokenIsNotRefresh    = fmt.Errorf("%w: token is not a refresh token", ErrUnauthorized)

	// Auth
	ErrEmptyAuthHeader    = fmt.Errorf("%w: authorization header is missing", ErrUnauthorized)
	ErrInvalidAuthHeader  = fmt.Errorf("%w: malformed authorization header", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrUserInactive       = fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	ErrAccountLocked      = fmt.Errorf("%w: too many failed login attempts, try again later", ErrUnauthorized)
	ErrSessionRevoked     = fmt.Errorf("%w: session has ended", ErrUnauthorized)
	ErrCallerNotInContext = fmt.Errorf("%w: caller is missing from request context", ErrUnauthorized)
)

// HttpError carries a user-facing message together with the kind and the
// underlying cause. Only Message is ever shown to the client.
type HttpError struct {
	Code    int
	Message string
	Kind    error
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Kind: kindForCode(code), Err: err, Context: context}
}

func kindForCode(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized, http.StatusTooManyRequests:
		return ErrUnauthorized
	default:
		return ErrUpstream
	}
}

func NewNotFoundError(entity string) error {
	return &HttpError{Code: http.StatusNotFound, Message: entity + " not found", Kind: ErrNotFound}
}

func NewForbiddenError(reason string) error {
	if reason == "" {
		reason = "access denied"
	}
	return &HttpError{Code: http.StatusForbidden, Message: reason, Kind: ErrForbidden}
}

func NewValidationError(format string, args ...interface{}) error {
	return &HttpError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...), Kind: ErrValidation}
}

func NewConflictError(format string, args ...interface{}) error {
	return &HttpError{Code: http.StatusConflict, Message: fmt.Sprintf(format, args...), Kind: ErrConflict}
}

func NewUnauthorizedError(message string) error {
	return &HttpError{Code: http.StatusUnauthorized, Message: message, Kind: ErrUnauthorized}
}

func NewUpstreamError(err error) error {
	return &HttpError{Code: http.StatusInternalServerError, Message: "internal server error", Kind: ErrUpstream, Err: err}
}

// KindOf reports which kind err belongs to. Unclassified errors are upstream failures.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrValidation, ErrConflict, ErrUnauthorized, ErrUpstream} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrUpstream
}

// StatusCode maps an error kind to the HTTP status used by the transport.
func StatusCode(err error) int {
	var httpErr *HttpError
	if errors.As(err, &httpErr) && httpErr.Code != 0 {
		return httpErr.Code
	}
	switch KindOf(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrForbidden:
		return http.StatusForbidden
	case ErrValidation:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
