package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrNoWallet = errors.New("viewer is not connected with Stripe")
)
