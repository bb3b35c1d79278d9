package apperr

import (
	"errors"
	"fmt"
)

// Kind is the failure class used for logging and for the transport status.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	// KindPayment covers sessions that are foreign, malformed or not complete.
	KindPayment  Kind = "payment"
	KindExternal Kind = "external"
	// KindUnsavedConfirmation means the provider took the money but the
	// booking could not be marked paid. Needs reconciliation.
	KindUnsavedConfirmation Kind = "unsaved_confirmation"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindInternal            Kind = "internal"
)

// Error carries a kind, the failing operation and a message safe to show to
// end users. Err holds the cause and is only ever logged.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, message string, cause error) error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

func Validation(op, message string, cause error) error {
	return New(KindValidation, op, message, cause)
}

func NotFound(op, message string, cause error) error {
	return New(KindNotFound, op, message, cause)
}

func Conflict(op, message string, cause error) error {
	return New(KindConflict, op, message, cause)
}

func Internal(op string, cause error) error {
	return New(KindInternal, op, "", cause)
}

// KindOf returns the kind of the outermost *Error in the chain. Plain errors
// are internal; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing text for err, falling back to a generic
// sentence per kind. Causes are never included.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	switch KindOf(err) {
	case KindValidation:
		return "invalid request"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "request conflicts with current state"
	case KindPayment, KindExternal, KindUnsavedConfirmation:
		return "payment could not be completed"
	case KindUnauthorized:
		return "authentication required"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal error"
	}
}
