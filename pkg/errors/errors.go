package errors

import "errors"

// Kind classifies an application error; handlers map it to an HTTP status.
type Kind string

const (
	KindBadRequest        Kind = "BAD_REQUEST"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindDuplicateBinding  Kind = "DUPLICATE_BINDING"
	KindLockedSession     Kind = "LOCKED_SESSION"
	KindMoveWindowExpired Kind = "MOVE_WINDOW_EXPIRED"
	KindCapacityExceeded  Kind = "CAPACITY_EXCEEDED"
	KindInternal          Kind = "INTERNAL"
)

// Error typed business error. Code is the numeric code written to the response envelope.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

// New creates a sentinel business error
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and code, so wrapped copies
// still satisfy errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap returns a copy of the sentinel carrying a cause
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrOptimisticLock the row was modified by another operation
var ErrOptimisticLock = New(KindConflict, 10009, "record was modified by another operation, reload and retry")
