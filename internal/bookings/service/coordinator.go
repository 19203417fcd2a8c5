package service

import (
	bookingserrors "abclisting/internal/bookings/errors"
	"abclisting/internal/bookings/events"
	"abclisting/internal/bookings/repository"
	"abclisting/internal/bookings/validator"
	listingsrepo "abclisting/internal/listings/repository"
	usersrepo "abclisting/internal/users/repository"
	"abclisting/pkg/availability"
	"abclisting/pkg/config"
	"abclisting/pkg/model"
	"abclisting/pkg/payments"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReconciliationReporter records charges whose booking could not be persisted.
type ReconciliationReporter interface {
	ReconciliationRequired(ctx context.Context, event events.ReconciliationRequired) error
}

// Coordinator turns a validated request into a charged, persisted booking.
type Coordinator struct {
	bookings    repository.BookingRepository
	listings    listingsrepo.ListingRepository
	users       usersrepo.UserRepository
	charger     payments.Charger
	reporter    ReconciliationReporter
	cfg         *config.Config
	newIntentID func() string
}

func NewCoordinator(
	bookings repository.BookingRepository,
	listings listingsrepo.ListingRepository,
	users usersrepo.UserRepository,
	charger payments.Charger,
	reporter ReconciliationReporter,
	cfg *config.Config,
) *Coordinator {
	return &Coordinator{
		bookings:    bookings,
		listings:    listings,
		users:       users,
		charger:     charger,
		reporter:    reporter,
		cfg:         cfg,
		newIntentID: uuid.NewString,
	}
}

// Commit runs, in order: extend the listing's index, price the stay, check the
// host can be paid, charge, then persist every record in one transaction.
// Nothing is written unless the charge succeeded. Every error is a
// *bookingserrors.CreationFailedError wrapping the cause.
func (c *Coordinator) Commit(ctx context.Context, listing *model.Listing, tenant, host *model.User, source string, stay validator.Stay) (*model.Booking, error) {
	index, err := listing.BookingsIndex.Extend(stay.CheckIn, stay.CheckOut)
	if err != nil {
		return nil, bookingserrors.CreationFailed(err)
	}

	total := listing.Price * int64(stay.Nights())

	if !host.HasWallet() {
		return nil, bookingserrors.CreationFailed(bookingserrors.ErrHostNotPayable)
	}

	intentID := c.newIntentID()
	charge, err := c.charger.Charge(ctx, payments.ChargeRequest{
		Amount:         total,
		Currency:       c.cfg.Currency,
		Source:         source,
		Destination:    host.WalletID,
		IdempotencyKey: intentID,
		Description:    fmt.Sprintf("%s, %s to %s", listing.Title, stay.CheckIn, stay.CheckOut),
	})
	if err != nil {
		c.cfg.Log.Warn("Booking charge failed",
			"listing_id", listing.ID,
			"tenant_id", tenant.ID,
			"intent_id", intentID,
			"amount", total,
			"error", err,
		)
		return nil, bookingserrors.CreationFailed(fmt.Errorf("%w: %w", bookingserrors.ErrPaymentFailed, err))
	}

	booking := &model.Booking{
		Listing:    listing.ID,
		Tenant:     tenant.ID,
		CheckIn:    stay.CheckIn,
		CheckOut:   stay.CheckOut,
		TotalPrice: total,
		ChargeID:   charge.ID,
		IntentID:   intentID,
	}
	newDays := daysOf(stay)

	// Money has moved, so a client disconnect or request deadline must not
	// abandon the writes halfway.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.WriteTimeout)
	defer cancel()

	err = c.bookings.ExecuteTransaction(persistCtx, func(sessCtx mongo.SessionContext) error {
		// The driver may run this function again on transient errors.
		booking.ID = ""
		if err := c.bookings.Create(sessCtx, booking); err != nil {
			return err
		}
		if err := c.listings.AppendBooking(sessCtx, listing.ID, index, newDays, booking.ID); err != nil {
			return err
		}
		if err := c.users.IncrementIncome(sessCtx, host.ID, total); err != nil {
			return err
		}
		return c.users.AppendBooking(sessCtx, tenant.ID, booking.ID)
	})
	if err != nil {
		c.reportPersistFailure(ctx, listing, tenant, host, booking, err)
		return nil, bookingserrors.CreationFailed(fmt.Errorf("%w: %w", bookingserrors.ErrPersistAfterCharge, err))
	}

	listing.BookingsIndex = index
	listing.Bookings = append(listing.Bookings, booking.ID)
	return booking, nil
}

func (c *Coordinator) reportPersistFailure(ctx context.Context, listing *model.Listing, tenant, host *model.User, booking *model.Booking, cause error) {
	c.cfg.Log.Error("Booking persistence failed after successful charge, manual reconciliation required",
		"intent_id", booking.IntentID,
		"charge_id", booking.ChargeID,
		"listing_id", listing.ID,
		"tenant_id", tenant.ID,
		"host_id", host.ID,
		"amount", booking.TotalPrice,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
		"error", cause,
	)

	if c.reporter == nil {
		return
	}
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.WriteTimeout)
	defer cancel()

	event := events.ReconciliationRequired{
		IntentID:   booking.IntentID,
		ChargeID:   booking.ChargeID,
		ListingID:  listing.ID,
		TenantID:   tenant.ID,
		HostID:     host.ID,
		Amount:     booking.TotalPrice,
		Currency:   c.cfg.Currency,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		Cause:      cause.Error(),
		OccurredAt: time.Now().UTC(),
	}
	if err := c.reporter.ReconciliationRequired(reportCtx, event); err != nil {
		c.cfg.Log.Error("Failed to report reconciliation",
			"intent_id", booking.IntentID,
			"charge_id", booking.ChargeID,
			"error", err,
		)
	}
}

func daysOf(stay validator.Stay) []availability.Date {
	days := make([]availability.Date, 0, stay.Nights())
	for d := stay.CheckIn; !d.After(stay.CheckOut); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
