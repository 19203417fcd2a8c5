package model

import (
	"abclisting/pkg/availability"
	"time"
)

type Booking struct {
	ID         string            `json:"id,omitempty" bson:"_id,omitempty"`
	Listing    string            `json:"listing" bson:"listing"`
	Tenant     string            `json:"tenant" bson:"tenant"`
	CheckIn    availability.Date `json:"check_in" bson:"check_in"`
	CheckOut   availability.Date `json:"check_out" bson:"check_out"`
	TotalPrice int64             `json:"total_price" bson:"total_price"`
	ChargeID   string            `json:"charge_id,omitempty" bson:"charge_id"`
	IntentID   string            `json:"intent_id" bson:"intent_id"`
	CreatedAt  time.Time         `json:"created_at" bson:"created_at"`
}

// CreateBookingRequest is the body of POST /api/v1/bookings. Dates stay strings
// until the validator has checked their format.
type CreateBookingRequest struct {
	ListingID string `json:"listing_id" validate:"required,mongodb"`
	Source    string `json:"source" validate:"required,min=3,max=255"`
	CheckIn   string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut  string `json:"check_out" validate:"required,datetime=2006-01-02"`
}
