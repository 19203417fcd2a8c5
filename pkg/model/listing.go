package model

import (
	"abclisting/pkg/availability"
	"time"
)

type ListingType string

const (
	ListingTypeApartment ListingType = "apartment"
	ListingTypeHouse     ListingType = "house"
)

type Listing struct {
	ID            string             `json:"id,omitempty" bson:"_id,omitempty"`
	Host          string             `json:"host" bson:"host"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description" bson:"description"`
	Image         string             `json:"image" bson:"image"`
	Type          ListingType        `json:"type" bson:"type"`
	Address       string             `json:"address" bson:"address"`
	Country       string             `json:"country" bson:"country"`
	Admin         string             `json:"admin" bson:"admin"`
	City          string             `json:"city" bson:"city"`
	NumOfGuests   int                `json:"num_of_guests" bson:"num_of_guests"`
	Price         int64              `json:"price" bson:"price"`
	BookingsIndex availability.Index `json:"bookings_index" bson:"bookings_index"`
	Bookings      []string           `json:"bookings,omitempty" bson:"bookings"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

// CreateListingRequest carries the image as a base64 data URL.
type CreateListingRequest struct {
	Title       string      `json:"title" validate:"required,min=3,max=100"`
	Description string      `json:"description" validate:"required,min=3,max=5000"`
	Image       string      `json:"image" validate:"required,datauri"`
	Type        ListingType `json:"type" validate:"required,oneof=apartment house"`
	Address     string      `json:"address" validate:"required,min=3,max=200"`
	Country     string      `json:"country" validate:"required,min=2,max=100"`
	Admin       string      `json:"admin" validate:"omitempty,max=100"`
	City        string      `json:"city" validate:"required,min=1,max=100"`
	NumOfGuests int         `json:"num_of_guests" validate:"required,min=1,max=50"`
	Price       int64       `json:"price" validate:"required,gt=0"`
}
