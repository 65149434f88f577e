// Package errors defines the typed error taxonomy of the platform.
// Engine-level code returns these errors; the HTTP boundary maps their
// Kind to a transport status code.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error for the boundary layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthenticated
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error carries a Kind alongside the message. It supports errors.Is on
// the sentinel values below and errors.As for Kind extraction.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a new tagged error.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Ef builds a new tagged error with a formatted message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error with a Kind and context message.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind of an error, defaulting to KindInternal for
// untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrCategoryNotFound  = E(KindNotFound, "category not found")
	ErrCategoryNameTaken = E(KindConflict, "category name already in use")

	ErrServerNotFound = E(KindNotFound, "server not found")
	ErrInvalidServer  = E(KindValidation, "server value error")

	ErrChannelNotFound = E(KindNotFound, "channel not found")

	ErrAlreadyMember    = E(KindConflict, "user is already a member")
	ErrNotMember        = E(KindNotFound, "user is not a member")
	ErrOwnerCannotLeave = E(KindConflict, "owners cannot be removed as a member")

	ErrConversationNotFound = E(KindNotFound, "conversation not found")
	ErrUnknownAttachment    = E(KindValidation, "unknown attachment reference")
	ErrAttachmentNotFound   = E(KindNotFound, "attachment not found")
	ErrAttachmentInUse      = E(KindConflict, "attachment is still referenced by messages")

	ErrUnauthenticated = E(KindUnauthenticated, "authentication required")
	ErrForbidden       = E(KindForbidden, "operation not allowed")
)
