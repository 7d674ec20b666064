package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how it is reported to the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindExternal
	KindRateLimited
	KindConflict
)

// Error is the error type shared by services and controllers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinel errors below work with errors.Is even after
// WithMessage produced a copy.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Kind == e.Kind
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrInvalidPayload     = &Error{Kind: KindValidation, Code: "invalid_payload", Message: "malformed request body"}
	ErrInvalidField       = &Error{Kind: KindValidation, Code: "invalid_field", Message: "invalid field"}
	ErrInvalidOrderType   = &Error{Kind: KindValidation, Code: "invalid_order_type", Message: "order_type must be pickup or delivery"}
	ErrInvalidAddress     = &Error{Kind: KindValidation, Code: "invalid_address", Message: "Delivery address is required for delivery orders."}
	ErrInvalidTotalPrice  = &Error{Kind: KindValidation, Code: "invalid_total_price", Message: "total_price must be a non-negative amount with at most 2 decimal places"}
	ErrInvalidItem        = &Error{Kind: KindValidation, Code: "invalid_item", Message: "invalid order item"}
	ErrInvalidStatus      = &Error{Kind: KindValidation, Code: "invalid_status", Message: "Invalid status"}
	ErrMissingAmount      = &Error{Kind: KindValidation, Code: "missing_amount", Message: "Amount is required"}
	ErrInvalidCredentials = &Error{Kind: KindValidation, Code: "invalid_credentials", Message: "Unable to log in with provided credentials."}

	ErrNotFound     = &Error{Kind: KindNotFound, Code: "not_found", Message: "not found"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Code: "unauthorized", Message: "Authentication credentials were not provided."}
	ErrForbidden    = &Error{Kind: KindForbidden, Code: "forbidden", Message: "You do not have permission to perform this action."}
	ErrExternal     = &Error{Kind: KindExternal, Code: "external_service", Message: "payment processor error"}
	ErrRateLimited  = &Error{Kind: KindRateLimited, Code: "rate_limited", Message: "Too many requests, please try again later."}
	ErrInternal     = &Error{Kind: KindInternal, Code: "internal", Message: "internal server error"}

	ErrIdempotencyKeyReused = &Error{Kind: KindConflict, Code: "idempotency_key_reused", Message: "Idempotency-Key was already used for a different order."}
)

// NotFound builds a not-found error for the named entity.
func NotFound(entity string) *Error {
	return ErrNotFound.WithMessage("%s not found", entity)
}

// External wraps a failure from a third-party service. The message is shown
// to the caller.
func External(message string, err error) *Error {
	return &Error{Kind: KindExternal, Code: ErrExternal.Code, Message: message, Err: err}
}

// Internal wraps an unexpected error. Callers only ever see the generic
// message; the wrapped error is for logs.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: ErrInternal.Code, Message: ErrInternal.Message, Err: err}
}

// From extracts an *Error from err, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
