package errors

import "errors"

var (
	ErrNotFound = errors.New("listing not found")

	ErrInvalidID = errors.New("invalid listing ID format")

	// ErrIndexChanged means the stored index already holds one of the days
	// being booked, so the write was refused.
	ErrIndexChanged = errors.New("listing bookings index changed concurrently")

	ErrHostNotConnected = errors.New("viewer must be connected with Stripe to host a listing")

	ErrImageUpload = errors.New("failed to upload listing image")
)
