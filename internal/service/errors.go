// ABOUTME: Closed failure taxonomy surfaced by the operation layer
// ABOUTME: Every failure carries a Kind plus a human-readable message

package service

import (
	"errors"
	"fmt"

	"github.com/controldesk/controldesk/internal/store"
)

// Kind classifies an operation failure for the caller.
type Kind string

const (
	KindAuthentication   Kind = "authentication"
	KindAuthorization    Kind = "authorization"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindStoreUnavailable Kind = "store_unavailable"
	KindInternal         Kind = "internal"
)

// Error is the terminal outcome of a failed operation. The shell receives
// the kind and message and is responsible for presentation.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the Kind from an error returned by the operation layer.
// Errors of unknown shape classify as Internal.
func KindOf(err error) Kind {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindInternal
}

func errAuthentication(message string) error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func errAuthorization(message string) error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func errValidation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func errNotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func errConflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// storeError maps a store failure onto the taxonomy, attaching the
// underlying message for diagnostics.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotConnected):
		return &Error{Kind: KindStoreUnavailable, Message: "database not connected", cause: err}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: op + ": not found", cause: err}
	case errors.Is(err, store.ErrUsernameExists):
		return &Error{Kind: KindConflict, Message: "username already exists", cause: err}
	case errors.Is(err, store.ErrDuplicateCard):
		return &Error{Kind: KindConflict, Message: "card number already exists for this year", cause: err}
	}
	return &Error{Kind: KindInternal, Message: fmt.Sprintf("%s: %v", op, err), cause: err}
}
