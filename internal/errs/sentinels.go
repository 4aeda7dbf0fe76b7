// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every error surfaced by the core unwraps to exactly one of them.
var (
	// ErrNotFound indicates the requested entity does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a state precondition failed (illegal transition, lost race).
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates the caller is authenticated but not allowed to act on the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates malformed input rejected before touching storage.
	ErrValidation = errors.New("validation")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")
)

// ErrVersionConflict indicates optimistic concurrency failure (stored state no longer matches
// the expected one).
var ErrVersionConflict = &Error{Kind: ErrConflict, Msg: "version conflict"}

// User-facing errors produced by the services.
var (
	ErrProductNotFound    = &Error{Kind: ErrNotFound, Msg: "product not found"}
	ErrPurchaseNotFound   = &Error{Kind: ErrNotFound, Msg: "purchase not found"}
	ErrUserNotFound       = &Error{Kind: ErrNotFound, Msg: "user not found"}
	ErrProductUnavailable = &Error{Kind: ErrConflict, Msg: "product not available"}
	ErrSelfPurchase       = &Error{Kind: ErrConflict, Msg: "cannot buy your own product"}
	ErrNotOwner           = &Error{Kind: ErrForbidden, Msg: "not authorized"}
	ErrHasPurchases       = &Error{Kind: ErrConflict, Msg: "cannot delete: product has purchase history"}
)

// Error pairs a message safe to show to end users with its kind sentinel.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Unwrap exposes the kind so errors.Is(err, ErrConflict) and friends work.
func (e *Error) Unwrap() error { return e.Kind }

// Validationf builds a validation error with a "validation: " prefixed message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: "validation: " + fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error naming the failed precondition.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

var kinds = []error{ErrNotFound, ErrConflict, ErrForbidden, ErrValidation, ErrUnauthorized, ErrRateLimited, ErrAlreadyExists}

// KindOf returns the kind sentinel err unwraps to, or nil for unexpected errors.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Public returns the message to show to a caller. Unexpected errors collapse to a generic text.
func Public(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	if k := KindOf(err); k != nil {
		return k.Error()
	}
	return "unexpected error"
}
