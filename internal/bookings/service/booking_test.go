package service

import (
	bookingserrors "abclisting/internal/bookings/errors"
	"abclisting/internal/bookings/validator"
	apperrors "abclisting/pkg/errors"
	"abclisting/pkg/model"
	"abclisting/pkg/payments"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type serviceFixture struct {
	*coordinatorFixture
	locks     *mockLockRepository
	publisher *mockEventPublisher
	service   *bookingService
}

func newServiceFixture(t *testing.T, price int64, hostWallet string) *serviceFixture {
	t.Helper()
	cf := newCoordinatorFixture(price, hostWallet)
	cfg := newTestConfig()
	f := &serviceFixture{
		coordinatorFixture: cf,
		locks:              &mockLockRepository{},
		publisher:          &mockEventPublisher{},
	}
	svc := NewBookingService(
		cf.bookings,
		f.locks,
		cf.listings,
		cf.users,
		validator.NewBookingValidator(cfg.Log, cfg.BookingWindowDays),
		cf.coordinator,
		f.publisher,
		cfg,
	).(*bookingService)
	svc.now = func() time.Time { return time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC) }
	f.service = svc
	return f
}

func bookingRequest(checkIn, checkOut string) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		ListingID: testListingID,
		Source:    "tok_visa",
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	}
}

func requireAppError(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.HTTPStatus, "unexpected status for %v", err)
	return appErr
}

func TestCreate_Success(t *testing.T) {
	f := newServiceFixture(t, 50, "acct_host")

	booking, err := f.service.Create(context.Background(), testTenantID, bookingRequest("2024-01-10", "2024-01-12"))
	require.NoError(t, err)

	assert.Equal(t, int64(150), booking.TotalPrice)
	assert.Equal(t, testTenantID, booking.Tenant)
	assert.Equal(t, testListingID, booking.Listing)
	assert.Len(t, f.publisher.bookings, 1)
	assert.Empty(t, f.locks.held, "lock must be released")
	assert.Equal(t, 1, f.locks.deleted)
}

func TestCreate_PublishFailureDoesNotFailBooking(t *testing.T) {
	f := newServiceFixture(t, 50, "acct_host")
	f.publisher.err = errors.New("broker down")

	_, err := f.service.Create(context.Background(), testTenantID, bookingRequest("2024-01-10", "2024-01-12"))
	require.NoError(t, err)
}

func TestCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		viewer     string
		hostWallet string
		req        *model.CreateBookingRequest
		setup      func(f *serviceFixture)
		wantStatus int
		wantErr    error
	}{
		{
			name:       "own listing",
			viewer:     testHostID,
			hostWallet: "acct_host",
			req:        bookingRequest("2024-01-10", "2024-01-12"),
			wantStatus: http.StatusForbidden,
			wantErr:    bookingserrors.ErrOwnListing,
		},
		{
			name:       "beyond window",
			viewer:     testTenantID,
			hostWallet: "acct_host",
			req:        bookingRequest("2024-04-01", "2024-04-02"),
			wantStatus: http.StatusUnprocessableEntity,
			wantErr:    bookingserrors.ErrWindowExceeded,
		},
		{
			name:       "inverted range",
			viewer:     testTenantID,
			hostWallet: "acct_host",
			req:        bookingRequest("2024-01-12", "2024-01-10"),
			wantStatus: http.StatusUnprocessableEntity,
			wantErr:    bookingserrors.ErrInvertedRange,
		},
		{
			name:       "host not payable",
			viewer:     testTenantID,
			hostWallet: "",
			req:        bookingRequest("2024-01-10", "2024-01-12"),
			wantStatus: http.StatusPaymentRequired,
			wantErr:    bookingserrors.ErrHostNotPayable,
		},
		{
			name:       "payment failed",
			viewer:     testTenantID,
			hostWallet: "acct_host",
			req:        bookingRequest("2024-01-10", "2024-01-12"),
			setup: func(f *serviceFixture) {
				f.charger.chargeFunc = func(ctx context.Context, req payments.ChargeRequest) (*payments.Charge, error) {
					return nil, payments.ErrChargeFailed
				}
			},
			wantStatus: http.StatusBadGateway,
			wantErr:    bookingserrors.ErrPaymentFailed,
		},
		{
			name:       "persist after charge",
			viewer:     testTenantID,
			hostWallet: "acct_host",
			req:        bookingRequest("2024-01-10", "2024-01-12"),
			setup: func(f *serviceFixture) {
				f.bookings.createFunc = func(ctx context.Context, booking *model.Booking) error {
					return errors.New("insert failed")
				}
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    bookingserrors.ErrPersistAfterCharge,
		},
		{
			name:       "listing locked",
			viewer:     testTenantID,
			hostWallet: "acct_host",
			req:        bookingRequest("2024-01-10", "2024-01-12"),
			setup: func(f *serviceFixture) {
				f.locks.createFunc = func(ctx context.Context, lock *model.BookingLock) error {
					return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}}}
				}
			},
			wantStatus: http.StatusConflict,
			wantErr:    bookingserrors.ErrSlotLocked,
		},
		{
			name:       "unknown viewer",
			viewer:     "ghost",
			hostWallet: "acct_host",
			req:        bookingRequest("2024-01-10", "2024-01-12"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed date",
			viewer:     testTenantID,
			hostWallet: "acct_host",
			req:        bookingRequest("10/01/2024", "2024-01-12"),
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, 50, tt.hostWallet)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.service.Create(context.Background(), tt.viewer, tt.req)
			appErr := requireAppError(t, err, tt.wantStatus)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				var creationErr *bookingserrors.CreationFailedError
				assert.ErrorAs(t, appErr.Err, &creationErr)
			}
			assert.Empty(t, f.publisher.bookings)
		})
	}
}

func TestCreate_ConflictReportsDate(t *testing.T) {
	f := newServiceFixture(t, 50, "acct_host")
	ctx := context.Background()

	_, err := f.service.Create(ctx, testTenantID, bookingRequest("2024-01-10", "2024-01-12"))
	require.NoError(t, err)

	_, err = f.service.Create(ctx, testTenantID, bookingRequest("2024-01-12", "2024-01-14"))
	appErr := requireAppError(t, err, http.StatusConflict)
	assert.ErrorIs(t, err, bookingserrors.ErrDateConflict)
	assert.Equal(t, "2024-01-12", appErr.Details["date"])
	assert.Equal(t, 1, f.charger.calls())
	assert.Empty(t, f.locks.held)
}

func TestCreate_RereadsListingUnderLock(t *testing.T) {
	f := newServiceFixture(t, 50, "acct_host")
	ctx := context.Background()

	// Simulate a competing booking landing between the first read and the lock.
	f.locks.createFunc = func(ctx context.Context, lock *model.BookingLock) error {
		f.locks.createFunc = nil
		other := newCoordinatorFixture(50, "acct_host")
		other.listings = f.listings
		other.coordinator.listings = f.listings
		_, err := other.commit(t, "2024-01-11", "2024-01-11")
		return err
	}

	_, err := f.service.Create(ctx, testTenantID, bookingRequest("2024-01-10", "2024-01-12"))
	requireAppError(t, err, http.StatusConflict)
	assert.ErrorIs(t, err, bookingserrors.ErrDateConflict)
	assert.Zero(t, f.charger.calls())
}

func TestGetByID_Visibility(t *testing.T) {
	f := newServiceFixture(t, 50, "acct_host")
	stored := &model.Booking{ID: "65b000000000000000000001", Listing: testListingID, Tenant: testTenantID}
	f.bookings.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		if id == stored.ID {
			return stored, nil
		}
		return nil, bookingserrors.ErrNotFound
	}

	ctx := context.Background()

	got, err := f.service.GetByID(ctx, testTenantID, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)

	got, err = f.service.GetByID(ctx, testHostID, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)

	_, err = f.service.GetByID(ctx, "stranger", stored.ID)
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.service.GetByID(ctx, testTenantID, "65b000000000000000000099")
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.service.GetByID(ctx, testTenantID, "")
	requireAppError(t, err, http.StatusBadRequest)
}

func TestListByTenant(t *testing.T) {
	f := newServiceFixture(t, 50, "acct_host")
	var gotLimit int
	var gotOffset int64
	f.bookings.findByTenant = func(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Booking, error) {
		gotLimit, gotOffset = limit, offset
		time.Sleep(5 * time.Millisecond)
		return []*model.Booking{{ID: "b-1", Tenant: tenantID}}, nil
	}
	f.bookings.countByTenant = func(ctx context.Context, tenantID string) (int64, error) {
		time.Sleep(5 * time.Millisecond)
		return 7, nil
	}

	for i := 0; i < 10; i++ {
		bookings, count, err := f.service.ListByTenant(context.Background(), testTenantID, 10, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.Len(t, bookings, 1)
	}
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, int64(20), gotOffset)

	f.bookings.countByTenant = func(ctx context.Context, tenantID string) (int64, error) {
		return 0, errors.New("count failed")
	}
	_, _, err := f.service.ListByTenant(context.Background(), testTenantID, 10, 0)
	requireAppError(t, err, http.StatusInternalServerError)

	_, _, err = f.service.ListByTenant(context.Background(), "", 10, 0)
	requireAppError(t, err, http.StatusUnauthorized)
}
