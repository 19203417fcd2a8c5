package errors

import (
	"abclisting/pkg/availability"
	"errors"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrOwnListing = errors.New("viewer can't book own listing")

	ErrWindowExceeded = errors.New("date is beyond the booking window")

	ErrInvertedRange = availability.ErrInvertedRange

	ErrDateConflict = availability.ErrDateConflict

	ErrHostNotPayable = errors.New("the host is not connected with Stripe")

	ErrPaymentFailed = errors.New("failed to charge the payment source")

	// ErrPersistAfterCharge means money moved but the booking records may not
	// reflect it. It is never retried automatically.
	ErrPersistAfterCharge = errors.New("booking persistence failed after a successful charge")

	ErrSlotLocked = errors.New("listing is currently being booked by another request")
)

// CreationFailedError wraps every failure of a booking attempt so callers see a
// single descriptive error while errors.Is still reaches the cause.
type CreationFailedError struct {
	Cause error
}

func CreationFailed(cause error) error {
	if cause == nil {
		return nil
	}
	var already *CreationFailedError
	if errors.As(cause, &already) {
		return cause
	}
	return &CreationFailedError{Cause: cause}
}

func (e *CreationFailedError) Error() string {
	return "failed to create a booking: " + e.Cause.Error()
}

func (e *CreationFailedError) Unwrap() error {
	return e.Cause
}
