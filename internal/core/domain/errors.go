package domain

import "errors"

// ErrorKind is the closed set of failure classes the listing engine reports.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindBusinessRule
	KindLockUnavailable
	KindConcurrencyConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindLockUnavailable:
		return "lock_unavailable"
	case KindConcurrencyConflict:
		return "concurrency_conflict"
	default:
		return "unknown"
	}
}

// Error is a typed domain failure carrying a stable machine-readable code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidReorder  = newError(KindValidation, "invalid_reorder", "reorder must name every image exactly once")
	ErrInvalidImage    = newError(KindValidation, "invalid_image", "invalid image metadata")
	ErrInvalidListing  = newError(KindValidation, "invalid_listing", "invalid listing")
	ErrListingNotFound = newError(KindNotFound, "listing_not_found", "listing not found")
	ErrImageNotFound   = newError(KindNotFound, "image_not_found", "image not found")

	ErrInvalidTransition = newError(KindBusinessRule, "invalid_status_transition", "invalid status transition")
	ErrAlreadyInState    = newError(KindBusinessRule, "already_in_state", "listing already in requested status")
	ErrNoImages          = newError(KindBusinessRule, "listing_has_no_images", "listing has no images")

	ErrLockUnavailable     = newError(KindLockUnavailable, "lock_unavailable", "listing is locked by another operation")
	ErrConcurrencyConflict = newError(KindConcurrencyConflict, "concurrency_conflict", "listing was modified concurrently")
)

// KindOf returns the kind of the first domain error in err's chain.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// CodeOf returns the stable code of the first domain error in err's chain, or "internal".
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal"
}

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindLockUnavailable, KindConcurrencyConflict:
		return true
	default:
		return false
	}
}
