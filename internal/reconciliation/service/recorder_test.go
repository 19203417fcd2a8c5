package service

import (
	"abclisting/internal/bookings/events"
	"abclisting/internal/reconciliation/repository"
	"abclisting/pkg/availability"
	"abclisting/pkg/kafka"
	"abclisting/pkg/logger"
	"abclisting/pkg/model"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	records map[string]*model.Reconciliation
	err     error
	lookups int
}

func (m *mockRepository) Insert(ctx context.Context, rec *model.Reconciliation) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.records == nil {
		m.records = map[string]*model.Reconciliation{}
	}
	if _, ok := m.records[rec.IntentID]; ok {
		return false, nil
	}
	m.records[rec.IntentID] = rec
	return true, nil
}

func (m *mockRepository) FindByIntentID(ctx context.Context, intentID string) (*model.Reconciliation, error) {
	m.lookups++
	if rec, ok := m.records[intentID]; ok {
		return rec, nil
	}
	return nil, repository.ErrNotFound
}

type mockPublisher struct {
	published []events.ReconciliationRequired
	err       error
}

func (m *mockPublisher) ReconciliationRequired(ctx context.Context, event events.ReconciliationRequired) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, event)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func sampleEvent() events.ReconciliationRequired {
	return events.ReconciliationRequired{
		IntentID:  "intent-1",
		ChargeID:  "ch_1",
		ListingID: "65a000000000000000000001",
		TenantID:  "tenant-1",
		HostID:    "host-1",
		Amount:    30000,
		Currency:  "usd",
		CheckIn:   availability.NewDate(2024, time.January, 10),
		CheckOut:  availability.NewDate(2024, time.January, 12),
		Cause:     "connection reset",
	}
}

func eventMessage(t *testing.T, event any, eventType string) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey("65a000000000000000000001").
		WithValue(event).
		WithEventType(eventType).
		Build()
	require.NoError(t, err)
	return msg
}

func TestRecorder_HandleMessageStoresOpenRecord(t *testing.T) {
	repo := &mockRepository{}
	recorder := NewRecorder(repo, testLogger())
	fixed := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	recorder.now = func() time.Time { return fixed }

	err := recorder.HandleMessage(context.Background(), eventMessage(t, sampleEvent(), events.TypeReconciliationRequired))
	require.NoError(t, err)

	rec := repo.records["intent-1"]
	require.NotNil(t, rec)
	assert.Equal(t, model.ReconciliationOpen, rec.Status)
	assert.Equal(t, "ch_1", rec.ChargeID)
	assert.Equal(t, int64(30000), rec.Amount)
	assert.Equal(t, fixed, rec.CreatedAt)
}

func TestRecorder_ReplayIsIdempotent(t *testing.T) {
	repo := &mockRepository{}
	recorder := NewRecorder(repo, testLogger())
	msg := eventMessage(t, sampleEvent(), events.TypeReconciliationRequired)

	require.NoError(t, recorder.HandleMessage(context.Background(), msg))
	first := repo.records["intent-1"]

	replay := sampleEvent()
	replay.Cause = "different"
	require.NoError(t, recorder.HandleMessage(context.Background(), eventMessage(t, replay, events.TypeReconciliationRequired)))

	assert.Len(t, repo.records, 1)
	assert.Same(t, first, repo.records["intent-1"])
	assert.Equal(t, "connection reset", repo.records["intent-1"].Cause)
	assert.Equal(t, 1, repo.lookups)
}

func TestRecorder_ReplayWithDifferentChargeIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "info", Format: logger.JSON, Output: &buf, Service: "test"})
	repo := &mockRepository{}
	recorder := NewRecorder(repo, log)

	created, err := recorder.Record(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.True(t, created)

	replay := sampleEvent()
	replay.ChargeID = "ch_2"
	created, err = recorder.Record(context.Background(), replay)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, "ch_1", repo.records["intent-1"].ChargeID)
	assert.Contains(t, buf.String(), "Reconciliation replay reports a different charge")
	assert.Contains(t, buf.String(), `"replay_charge_id":"ch_2"`)
}

func TestRecorder_HandleMessageErrors(t *testing.T) {
	tests := []struct {
		name     string
		msg      func(t *testing.T) kafka.Message
		repoErr  error
		wantType kafka.ErrorType
	}{
		{
			name: "undecodable payload",
			msg: func(t *testing.T) kafka.Message {
				return kafka.Message{Value: []byte("{not json"), Headers: map[string]string{}}
			},
			wantType: kafka.ErrorTypePermanent,
		},
		{
			name: "missing intent id",
			msg: func(t *testing.T) kafka.Message {
				event := sampleEvent()
				event.IntentID = ""
				return eventMessage(t, event, events.TypeReconciliationRequired)
			},
			wantType: kafka.ErrorTypePermanent,
		},
		{
			name: "storage failure",
			msg: func(t *testing.T) kafka.Message {
				return eventMessage(t, sampleEvent(), events.TypeReconciliationRequired)
			},
			repoErr:  errors.New("server selection timeout"),
			wantType: kafka.ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := NewRecorder(&mockRepository{err: tt.repoErr}, testLogger())

			err := recorder.HandleMessage(context.Background(), tt.msg(t))
			var handlerErr *kafka.HandlerError
			require.ErrorAs(t, err, &handlerErr)
			assert.Equal(t, tt.wantType, handlerErr.Type)
		})
	}
}

func TestRecorder_SkipsOtherEventTypes(t *testing.T) {
	repo := &mockRepository{}
	recorder := NewRecorder(repo, testLogger())

	err := recorder.HandleMessage(context.Background(), eventMessage(t, sampleEvent(), events.TypeBookingCreated))
	require.NoError(t, err)
	assert.Empty(t, repo.records)
}

func TestReporter_PublishesEvent(t *testing.T) {
	publisher := &mockPublisher{}
	repo := &mockRepository{}
	reporter := NewReporter(publisher, NewRecorder(repo, testLogger()), testLogger())

	require.NoError(t, reporter.ReconciliationRequired(context.Background(), sampleEvent()))
	assert.Len(t, publisher.published, 1)
	assert.Empty(t, repo.records)
}

func TestReporter_FallsBackToDirectWrite(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("broker unavailable")}
	repo := &mockRepository{}
	reporter := NewReporter(publisher, NewRecorder(repo, testLogger()), testLogger())

	require.NoError(t, reporter.ReconciliationRequired(context.Background(), sampleEvent()))
	assert.Contains(t, repo.records, "intent-1")
}

func TestReporter_BothPathsFail(t *testing.T) {
	pubErr := errors.New("broker unavailable")
	repoErr := errors.New("mongo unavailable")
	reporter := NewReporter(&mockPublisher{err: pubErr}, NewRecorder(&mockRepository{err: repoErr}, testLogger()), testLogger())

	err := reporter.ReconciliationRequired(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, pubErr)
	assert.ErrorIs(t, err, repoErr)
}
