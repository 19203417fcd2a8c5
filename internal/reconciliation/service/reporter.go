package service

import (
	"abclisting/internal/bookings/events"
	"abclisting/pkg/logger"
	"context"
	"errors"
)

type EventPublisher interface {
	ReconciliationRequired(ctx context.Context, event events.ReconciliationRequired) error
}

// Reporter publishes reconciliation events and writes the record directly
// when the broker cannot take them.
type Reporter struct {
	publisher EventPublisher
	fallback  *Recorder
	log       *logger.Logger
}

func NewReporter(publisher EventPublisher, fallback *Recorder, log *logger.Logger) *Reporter {
	return &Reporter{
		publisher: publisher,
		fallback:  fallback,
		log:       log,
	}
}

func (r *Reporter) ReconciliationRequired(ctx context.Context, event events.ReconciliationRequired) error {
	pubErr := r.publisher.ReconciliationRequired(ctx, event)
	if pubErr == nil {
		return nil
	}
	r.log.Error("Failed to publish reconciliation event, storing it directly",
		"intent_id", event.IntentID,
		"charge_id", event.ChargeID,
		"error", pubErr,
	)
	if r.fallback == nil {
		return pubErr
	}
	if _, err := r.fallback.Record(ctx, event); err != nil {
		return errors.Join(pubErr, err)
	}
	return nil
}
