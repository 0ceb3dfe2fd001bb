package esign

import (
	"errors"
	"fmt"
)

// ErrNoRecord is returned by stores when a queried row does not exist.
// Components translate it into the taxonomy below.
var ErrNoRecord = errors.New("record not found")

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConsentRequired
	KindConflict
	KindInternal
)

func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConsentRequired:
		return "CONSENT_REQUIRED"
	case KindConflict:
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}

// Error is the engine's result-type error: a machine-readable kind/code plus
// a human-readable message. Precondition failures never leave partial state
// behind, so an Error of any client kind implies nothing was written.
type Error struct {
	Kind    Kind
	Message string
	Details any
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message) }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func ConsentRequired() *Error {
	return &Error{Kind: KindConsentRequired, Message: "ESIGN consent required before signing"}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: err.Error()}
}

// KindOf classifies any error into the taxonomy; unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrNoRecord) {
		return KindNotFound
	}
	return KindInternal
}
