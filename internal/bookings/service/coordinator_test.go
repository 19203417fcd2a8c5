package service

import (
	bookingserrors "abclisting/internal/bookings/errors"
	"abclisting/internal/bookings/validator"
	"abclisting/pkg/availability"
	"abclisting/pkg/model"
	"abclisting/pkg/payments"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testListingID = "65a000000000000000000001"
	testHostID    = "host-1"
	testTenantID  = "tenant-1"
)

type coordinatorFixture struct {
	coordinator *Coordinator
	bookings    *mockBookingRepository
	listings    *mockListingRepository
	users       *mockUserRepository
	charger     *mockCharger
	reporter    *mockReporter
}

func newCoordinatorFixture(price int64, hostWallet string) *coordinatorFixture {
	f := &coordinatorFixture{
		bookings: &mockBookingRepository{},
		listings: newMockListingRepository(&model.Listing{
			ID:    testListingID,
			Host:  testHostID,
			Title: "Cozy loft",
			Price: price,
		}),
		users: newMockUserRepository(
			&model.User{ID: testHostID, WalletID: hostWallet},
			&model.User{ID: testTenantID},
		),
		charger:  &mockCharger{},
		reporter: &mockReporter{},
	}
	f.coordinator = NewCoordinator(f.bookings, f.listings, f.users, f.charger, f.reporter, newTestConfig())
	f.coordinator.newIntentID = func() string { return "intent-1" }
	return f
}

func (f *coordinatorFixture) commit(t *testing.T, checkIn, checkOut string) (*model.Booking, error) {
	t.Helper()
	ctx := context.Background()
	listing, err := f.listings.FindByID(ctx, testListingID)
	require.NoError(t, err)
	tenant, err := f.users.FindByID(ctx, testTenantID)
	require.NoError(t, err)
	host, err := f.users.FindByID(ctx, testHostID)
	require.NoError(t, err)

	stay := validator.Stay{CheckIn: date(t, checkIn), CheckOut: date(t, checkOut)}
	return f.coordinator.Commit(ctx, listing, tenant, host, "tok_visa", stay)
}

func TestCommit_ChargesAndPersists(t *testing.T) {
	f := newCoordinatorFixture(50, "acct_host")

	booking, err := f.commit(t, "2024-01-10", "2024-01-12")
	require.NoError(t, err)

	assert.Equal(t, int64(150), booking.TotalPrice)
	assert.Equal(t, "intent-1", booking.IntentID)
	assert.Equal(t, "ch_intent-1", booking.ChargeID)
	assert.NotEmpty(t, booking.ID)

	require.Equal(t, 1, f.charger.calls())
	req := f.charger.requests[0]
	assert.Equal(t, int64(150), req.Amount)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, "tok_visa", req.Source)
	assert.Equal(t, "acct_host", req.Destination)
	assert.Equal(t, "intent-1", req.IdempotencyKey)

	listing := f.listings.listings[testListingID]
	assert.Equal(t, []string{"2024-01-10", "2024-01-11", "2024-01-12"}, listing.BookingsIndex.Keys())
	assert.Equal(t, []string{booking.ID}, listing.Bookings)

	assert.Equal(t, int64(150), f.users.users[testHostID].Income)
	assert.Equal(t, []string{booking.ID}, f.users.users[testTenantID].Bookings)
	assert.Empty(t, f.reporter.events)
}

func TestCommit_TotalPriceCountsBothEnds(t *testing.T) {
	tests := []struct {
		name      string
		price     int64
		checkIn   string
		checkOut  string
		wantTotal int64
	}{
		{"three nights", 100, "2024-03-01", "2024-03-03", 300},
		{"same day", 100, "2024-03-01", "2024-03-01", 100},
		{"across month end", 70, "2024-01-30", "2024-02-02", 280},
		{"across leap day", 10, "2024-02-28", "2024-03-01", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCoordinatorFixture(tt.price, "acct_host")
			booking, err := f.commit(t, tt.checkIn, tt.checkOut)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, booking.TotalPrice)
			assert.Equal(t, tt.wantTotal, f.charger.requests[0].Amount)
		})
	}
}

func TestCommit_OverlapIsRejectedBeforeCharging(t *testing.T) {
	f := newCoordinatorFixture(50, "acct_host")

	_, err := f.commit(t, "2024-01-10", "2024-01-12")
	require.NoError(t, err)

	_, err = f.commit(t, "2024-01-11", "2024-01-13")
	require.Error(t, err)
	assert.ErrorIs(t, err, bookingserrors.ErrDateConflict)

	var creationErr *bookingserrors.CreationFailedError
	assert.ErrorAs(t, err, &creationErr)
	var conflict *availability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "2024-01-11", conflict.Day.String())

	assert.Equal(t, 1, f.charger.calls())
	assert.Len(t, f.bookings.created, 1)
	assert.Equal(t, int64(50*3), f.users.users[testHostID].Income)
}

func TestCommit_AdjacentStaysDoNotConflict(t *testing.T) {
	f := newCoordinatorFixture(50, "acct_host")

	_, err := f.commit(t, "2024-01-10", "2024-01-12")
	require.NoError(t, err)
	_, err = f.commit(t, "2024-01-13", "2024-01-14")
	require.NoError(t, err)

	keys := f.listings.listings[testListingID].BookingsIndex.Keys()
	assert.Equal(t, []string{"2024-01-10", "2024-01-11", "2024-01-12", "2024-01-13", "2024-01-14"}, keys)
	assert.Len(t, f.listings.listings[testListingID].Bookings, 2)
}

func TestCommit_HostWithoutWallet(t *testing.T) {
	f := newCoordinatorFixture(50, "")

	_, err := f.commit(t, "2024-01-10", "2024-01-12")
	require.Error(t, err)
	assert.ErrorIs(t, err, bookingserrors.ErrHostNotPayable)
	assert.Zero(t, f.charger.calls())
	assert.Empty(t, f.bookings.created)
	assert.Zero(t, f.listings.listings[testListingID].BookingsIndex.Len())
}

func TestCommit_PaymentFailureWritesNothing(t *testing.T) {
	f := newCoordinatorFixture(50, "acct_host")
	f.charger.chargeFunc = func(ctx context.Context, req payments.ChargeRequest) (*payments.Charge, error) {
		return nil, payments.ErrChargeDeclined
	}

	_, err := f.commit(t, "2024-01-10", "2024-01-12")
	require.Error(t, err)
	assert.ErrorIs(t, err, bookingserrors.ErrPaymentFailed)
	assert.ErrorIs(t, err, payments.ErrChargeDeclined)

	assert.Empty(t, f.bookings.created)
	assert.Zero(t, f.listings.appendCalls)
	assert.Zero(t, f.users.users[testHostID].Income)
	assert.Empty(t, f.users.users[testTenantID].Bookings)
	assert.Empty(t, f.reporter.events)
}

func TestCommit_PersistFailureAfterChargeIsReported(t *testing.T) {
	f := newCoordinatorFixture(50, "acct_host")
	dbErr := errors.New("write concern timeout")
	f.users.incrementIncomeFunc = func(ctx context.Context, id string, amount int64) error {
		return dbErr
	}

	_, err := f.commit(t, "2024-01-10", "2024-01-12")
	require.Error(t, err)
	assert.ErrorIs(t, err, bookingserrors.ErrPersistAfterCharge)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 1, f.charger.calls())

	require.Len(t, f.reporter.events, 1)
	event := f.reporter.events[0]
	assert.Equal(t, "intent-1", event.IntentID)
	assert.Equal(t, "ch_intent-1", event.ChargeID)
	assert.Equal(t, testListingID, event.ListingID)
	assert.Equal(t, testTenantID, event.TenantID)
	assert.Equal(t, testHostID, event.HostID)
	assert.Equal(t, int64(150), event.Amount)
	assert.Contains(t, event.Cause, "write concern timeout")
}

func TestCommit_ReporterFailureKeepsPersistError(t *testing.T) {
	f := newCoordinatorFixture(50, "acct_host")
	f.reporter.err = errors.New("broker unavailable")
	f.listings.appendBookingFunc = func(ctx context.Context, id string, index availability.Index, newDays []availability.Date, bookingID string) error {
		return errors.New("listing write failed")
	}

	_, err := f.commit(t, "2024-01-10", "2024-01-12")
	assert.ErrorIs(t, err, bookingserrors.ErrPersistAfterCharge)
	assert.Len(t, f.reporter.events, 1)
}

func TestCommit_InvertedRange(t *testing.T) {
	f := newCoordinatorFixture(50, "acct_host")

	_, err := f.commit(t, "2024-01-12", "2024-01-10")
	assert.ErrorIs(t, err, bookingserrors.ErrInvertedRange)
	assert.Zero(t, f.charger.calls())
}
