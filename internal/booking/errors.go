package booking

import "errors"

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrForbidden          = errors.New("caller does not own this resource")
	ErrCapacityExceeded   = errors.New("not enough seats available")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrPolicyViolation    = errors.New("tickets can only be cancelled at least 24 hours before the event")
	ErrVerificationFailed = errors.New("payment signature verification failed")

	// ErrTransientStore wraps transaction aborts. Nothing is partially
	// applied when it is returned, so the whole operation is safe to retry.
	ErrTransientStore = errors.New("transient store error")
)
