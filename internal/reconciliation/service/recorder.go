package service

import (
	"abclisting/internal/bookings/events"
	"abclisting/internal/reconciliation/repository"
	"abclisting/pkg/kafka"
	"abclisting/pkg/logger"
	"abclisting/pkg/model"
	"context"
	"errors"
	"time"
)

var ErrMissingIntentID = errors.New("reconciliation event has no intent id")

// Recorder consumes booking.reconciliation_required events and files them
// for manual review.
type Recorder struct {
	repo repository.ReconciliationRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewRecorder(repo repository.ReconciliationRepository, log *logger.Logger) *Recorder {
	return &Recorder{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// HandleMessage is a kafka.MessageHandler. Payloads that cannot be decoded
// are permanent failures; storage errors are retried.
func (r *Recorder) HandleMessage(ctx context.Context, msg kafka.Message) error {
	if t := msg.GetEventType(); t != "" && t != events.TypeReconciliationRequired {
		r.log.Debug("Skipping unrelated event", "event_type", t, "event_id", msg.GetEventID())
		return nil
	}

	var event events.ReconciliationRequired
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable reconciliation event", err)
	}
	if event.IntentID == "" {
		return kafka.NewPermanentError("invalid reconciliation event", ErrMissingIntentID)
	}

	_, err := r.Record(ctx, event)
	if err != nil {
		return kafka.NewTransientError("failed to store reconciliation", err)
	}
	return nil
}

// Record stores the event. Replays of the same intent id are no-ops.
func (r *Recorder) Record(ctx context.Context, event events.ReconciliationRequired) (bool, error) {
	rec := event.Record()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}

	created, err := r.repo.Insert(ctx, rec)
	if err != nil {
		return false, err
	}

	if created {
		r.log.Warn("Reconciliation recorded",
			"intent_id", rec.IntentID,
			"charge_id", rec.ChargeID,
			"listing_id", rec.Listing,
			"tenant_id", rec.Tenant,
			"amount", rec.Amount,
			"currency", rec.Currency,
		)
		return true, nil
	}

	r.logReplay(ctx, rec)
	return false, nil
}

// logReplay compares a replayed event with the stored record. A different
// charge id for one intent means the card was charged twice.
func (r *Recorder) logReplay(ctx context.Context, replay *model.Reconciliation) {
	stored, err := r.repo.FindByIntentID(ctx, replay.IntentID)
	if err != nil {
		r.log.Warn("Reconciliation already recorded but could not be loaded", "intent_id", replay.IntentID, "error", err)
		return
	}

	if stored.ChargeID != replay.ChargeID {
		r.log.Error("Reconciliation replay reports a different charge",
			"intent_id", replay.IntentID,
			"stored_charge_id", stored.ChargeID,
			"replay_charge_id", replay.ChargeID,
			"listing_id", stored.Listing,
			"tenant_id", stored.Tenant,
		)
		return
	}

	r.log.Info("Reconciliation already recorded",
		"intent_id", replay.IntentID,
		"status", stored.Status,
		"recorded_at", stored.CreatedAt,
	)
}
