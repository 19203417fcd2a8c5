package validator

import (
	bookingserrors "abclisting/internal/bookings/errors"
	"abclisting/pkg/availability"
	"abclisting/pkg/logger"
	"abclisting/pkg/model"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Stay is a parsed, inclusive check-in/check-out range.
type Stay struct {
	CheckIn  availability.Date
	CheckOut availability.Date
}

// Nights counts both ends, so a same-day stay is one night.
func (s Stay) Nights() int {
	return availability.InclusiveDays(s.CheckIn, s.CheckOut)
}

type BookingValidator struct {
	validate   *validator.Validate
	logger     *logger.Logger
	windowDays int
}

func NewBookingValidator(log *logger.Logger, windowDays int) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully", "window_days", windowDays)

	return &BookingValidator{
		validate:   v,
		logger:     log,
		windowDays: windowDays,
	}
}

// ValidateInput checks the request shape and returns the parsed stay.
func (v *BookingValidator) ValidateInput(req *model.CreateBookingRequest) (Stay, error) {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Stay{}, v.translateValidationErrors(validationErrs)
		}
		return Stay{}, err
	}

	checkIn, err := availability.ParseDate(req.CheckIn)
	if err != nil {
		return Stay{}, ValidationErrors{{Field: "CheckIn", Message: err.Error()}}
	}
	checkOut, err := availability.ParseDate(req.CheckOut)
	if err != nil {
		return Stay{}, ValidationErrors{{Field: "CheckOut", Message: err.Error()}}
	}
	return Stay{CheckIn: checkIn, CheckOut: checkOut}, nil
}

// Validate applies the booking rules in order and stops at the first failure.
// Dates are compared as UTC calendar days, and a stay ending exactly windowDays
// after today is accepted. Check-in dates in the past are not rejected.
func (v *BookingValidator) Validate(stay Stay, listing *model.Listing, viewer *model.User, now time.Time) error {
	if viewer.ID == listing.Host {
		return bookingserrors.ErrOwnListing
	}

	limit := availability.DateOf(now).AddDays(v.windowDays)
	if stay.CheckIn.After(limit) {
		return fmt.Errorf("%w: check in date can't be more than %d days from today", bookingserrors.ErrWindowExceeded, v.windowDays)
	}
	if stay.CheckOut.After(limit) {
		return fmt.Errorf("%w: check out date can't be more than %d days from today", bookingserrors.ErrWindowExceeded, v.windowDays)
	}

	if stay.CheckOut.Before(stay.CheckIn) {
		return bookingserrors.ErrInvertedRange
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
