package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by how the caller is expected to surface them.
type Kind string

const (
	// KindValidation is detected before any upstream call and shown inline.
	KindValidation Kind = "VALIDATION"
	// KindDomainConflict is a precondition or authoritative upstream rejection.
	KindDomainConflict Kind = "DOMAIN_CONFLICT"
	// KindTransport covers network failures, timeouts and upstream 5xx.
	KindTransport Kind = "TRANSPORT"
	// KindAuth covers missing or rejected sessions.
	KindAuth Kind = "AUTH"
	// KindInternal is anything unexpected inside the gateway.
	KindInternal Kind = "INTERNAL"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Kind    Kind                   `json:"kind"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so that clones compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, kind Kind, message string) *Error {
	return &Error{Code: code, Status: status, Kind: kind, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Kind: kindForStatus(status), Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, KindDomainConflict, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, KindAuth, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, KindAuth, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, KindDomainConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, KindDomainConflict, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, KindValidation, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, KindInternal, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, KindInternal, "cache miss")

	ErrUnitLocked      = New("UNIT_LOCKED", http.StatusConflict, KindDomainConflict, "unit already has activities, its points can no longer be changed")
	ErrConfigMismatch  = New("CONFIG_MISMATCH", http.StatusConflict, KindDomainConflict, "recorded points do not match the unit configuration")
	ErrUnitClosed      = New("UNIT_CLOSED", http.StatusConflict, KindDomainConflict, "unit is closed, request a reopening to edit grades")
	ErrZonesIncomplete = New("ZONES_INCOMPLETE", http.StatusConflict, KindDomainConflict, "all zone activities must be fully graded before final activities")

	ErrNothingToClose       = New("NOTHING_TO_CLOSE", http.StatusPreconditionFailed, KindDomainConflict, "no courses are ready to close")
	ErrNothingToNotify      = New("NOTHING_TO_NOTIFY", http.StatusPreconditionFailed, KindDomainConflict, "no courses are pending or incomplete")
	ErrConfirmationRequired = New("CONFIRMATION_REQUIRED", http.StatusPreconditionRequired, KindValidation, "explicit confirmation required")
	ErrConfirmationStale    = New("CONFIRMATION_STALE", http.StatusConflict, KindDomainConflict, "course counts changed since confirmation")

	ErrTransport       = New("UPSTREAM_UNAVAILABLE", http.StatusBadGateway, KindTransport, "school service unavailable, try again")
	ErrUpstreamTimeout = New("UPSTREAM_TIMEOUT", http.StatusGatewayTimeout, KindTransport, "school service did not answer in time, try again")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if err.Details != nil {
		clone.Details = make(map[string]interface{}, len(err.Details))
		for k, v := range err.Details {
			clone.Details[k] = v
		}
	}
	return &clone
}

// WithDetails returns a copy carrying structured detail for display.
func WithDetails(err *Error, details map[string]interface{}) *Error {
	clone := Clone(err, "")
	if clone == nil {
		return nil
	}
	if clone.Details == nil {
		clone.Details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		clone.Details[k] = v
	}
	return clone
}

// IsKind reports whether err normalises to the provided kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusBadGateway || status == http.StatusGatewayTimeout || status == http.StatusServiceUnavailable:
		return KindTransport
	case status >= 500:
		return KindInternal
	default:
		return KindDomainConflict
	}
}
