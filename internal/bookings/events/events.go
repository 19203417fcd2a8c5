package events

import (
	"abclisting/pkg/availability"
	"abclisting/pkg/kafka"
	"abclisting/pkg/logger"
	"abclisting/pkg/middleware"
	"abclisting/pkg/model"
	"context"
	"fmt"
	"time"
)

const (
	TypeBookingCreated         = "booking.created"
	TypeReconciliationRequired = "booking.reconciliation_required"

	SchemaVersion = "1"
)

type BookingCreated struct {
	BookingID  string            `json:"booking_id"`
	ListingID  string            `json:"listing_id"`
	TenantID   string            `json:"tenant_id"`
	HostID     string            `json:"host_id"`
	CheckIn    availability.Date `json:"check_in"`
	CheckOut   availability.Date `json:"check_out"`
	TotalPrice int64             `json:"total_price"`
	ChargeID   string            `json:"charge_id"`
	IntentID   string            `json:"intent_id"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ReconciliationRequired describes a charge whose booking records were not written.
type ReconciliationRequired struct {
	IntentID   string            `json:"intent_id"`
	ChargeID   string            `json:"charge_id"`
	ListingID  string            `json:"listing_id"`
	TenantID   string            `json:"tenant_id"`
	HostID     string            `json:"host_id"`
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	CheckIn    availability.Date `json:"check_in"`
	CheckOut   availability.Date `json:"check_out"`
	Cause      string            `json:"cause"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ReconciliationRequired) Record() *model.Reconciliation {
	return &model.Reconciliation{
		IntentID:  e.IntentID,
		ChargeID:  e.ChargeID,
		Listing:   e.ListingID,
		Tenant:    e.TenantID,
		Host:      e.HostID,
		Amount:    e.Amount,
		Currency:  e.Currency,
		CheckIn:   e.CheckIn,
		CheckOut:  e.CheckOut,
		Cause:     e.Cause,
		Status:    model.ReconciliationOpen,
		CreatedAt: e.OccurredAt,
	}
}

// Publisher writes booking events to Kafka, keyed by listing id.
type Publisher struct {
	bookings       kafka.Publisher
	reconciliation kafka.Publisher
	source         string
	log            *logger.Logger
}

func NewPublisher(bookings, reconciliation kafka.Publisher, source string, log *logger.Logger) *Publisher {
	return &Publisher{
		bookings:       bookings,
		reconciliation: reconciliation,
		source:         source,
		log:            log,
	}
}

func (p *Publisher) BookingCreated(ctx context.Context, booking *model.Booking, hostID string) error {
	event := BookingCreated{
		BookingID:  booking.ID,
		ListingID:  booking.Listing,
		TenantID:   booking.Tenant,
		HostID:     hostID,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		TotalPrice: booking.TotalPrice,
		ChargeID:   booking.ChargeID,
		IntentID:   booking.IntentID,
		OccurredAt: booking.CreatedAt,
	}
	return p.publish(ctx, p.bookings, booking.Listing, TypeBookingCreated, event)
}

func (p *Publisher) ReconciliationRequired(ctx context.Context, event ReconciliationRequired) error {
	return p.publish(ctx, p.reconciliation, event.ListingID, TypeReconciliationRequired, event)
}

func (p *Publisher) publish(ctx context.Context, to kafka.Publisher, key, eventType string, payload any) error {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(middleware.GetRequestID(ctx)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	return to.Publish(ctx, msg)
}
