package service

import (
	bookingserrors "abclisting/internal/bookings/errors"
	"abclisting/internal/bookings/repository"
	"abclisting/internal/bookings/validator"
	listingserrors "abclisting/internal/listings/errors"
	listingsrepo "abclisting/internal/listings/repository"
	userserrors "abclisting/internal/users/errors"
	usersrepo "abclisting/internal/users/repository"
	"abclisting/pkg/availability"
	"abclisting/pkg/config"
	apperrors "abclisting/pkg/errors"
	"abclisting/pkg/model"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventPublisher announces committed bookings.
type EventPublisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking, hostID string) error
}

type BookingService interface {
	Create(ctx context.Context, viewerID string, req *model.CreateBookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, viewerID string, id string) (*model.Booking, error)
	ListByTenant(ctx context.Context, viewerID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo        repository.BookingRepository
	lockRepo    repository.BookingLockRepository
	listings    listingsrepo.ListingRepository
	users       usersrepo.UserRepository
	validator   *validator.BookingValidator
	coordinator *Coordinator
	publisher   EventPublisher
	cfg         *config.Config
	now         func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	listings listingsrepo.ListingRepository,
	users usersrepo.UserRepository,
	validator *validator.BookingValidator,
	coordinator *Coordinator,
	publisher EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:        repo,
		lockRepo:    lockRepo,
		listings:    listings,
		users:       users,
		validator:   validator,
		coordinator: coordinator,
		publisher:   publisher,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, viewerID string, req *model.CreateBookingRequest) (*model.Booking, error) {
	if viewerID == "" {
		return nil, apperrors.Unauthorized("Viewer cannot be found")
	}

	stay, err := s.validator.ValidateInput(req)
	if err != nil {
		s.cfg.Log.Warn("Booking input validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	viewer, err := s.findUser(ctx, viewerID, "Viewer")
	if err != nil {
		return nil, err
	}
	listing, err := s.findListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(stay, listing, viewer, s.now()); err != nil {
		s.cfg.Log.Info("Booking request rejected",
			"listing_id", listing.ID,
			"viewer_id", viewer.ID,
			"check_in", stay.CheckIn,
			"check_out", stay.CheckOut,
			"reason", err,
		)
		return nil, toAppError(bookingserrors.CreationFailed(err))
	}

	lockID, owner, err := s.acquireListingLock(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
		defer cancel()
		if releaseErr := s.lockRepo.Delete(releaseCtx, lockID, owner); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	// Another booking may have committed between the first read and the lock.
	listing, err = s.findListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	host, err := s.findUser(ctx, listing.Host, "Host")
	if err != nil {
		return nil, err
	}

	booking, err := s.coordinator.Commit(ctx, listing, viewer, host, req.Source, stay)
	if err != nil {
		return nil, toAppError(err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"listing_id", booking.Listing,
		"tenant_id", booking.Tenant,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
		"total_price", booking.TotalPrice,
		"intent_id", booking.IntentID,
	)

	if s.publisher != nil {
		if err := s.publisher.BookingCreated(ctx, booking, host.ID); err != nil {
			s.cfg.Log.Warn("Failed to publish booking created event", "id", booking.ID, "error", err)
		}
	}
	return booking, nil
}

// GetByID returns the booking to its tenant or to the host of its listing.
func (s *bookingService) GetByID(ctx context.Context, viewerID string, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if booking.Tenant == viewerID {
		return booking, nil
	}
	listing, err := s.listings.FindByID(ctx, booking.Listing)
	if err == nil && listing.Host == viewerID {
		return booking, nil
	}
	if err != nil && !errors.Is(err, listingserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to retrieve listing", err)
	}
	// Not revealing that the booking exists.
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (s *bookingService) ListByTenant(ctx context.Context, viewerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if viewerID == "" {
		return nil, 0, apperrors.Unauthorized("Viewer cannot be found")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByTenant(ctx, viewerID)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "tenant_id", viewerID, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByTenant(ctx, viewerID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings", "tenant_id", viewerID, "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// --- Helpers ---

func (s *bookingService) findListing(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}
		if errors.Is(err, listingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid listing ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve listing", err)
	}
	return listing, nil
}

func (s *bookingService) findUser(ctx context.Context, id string, role string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID(role, id)
		}
		return nil, apperrors.Internal(fmt.Sprintf("Failed to retrieve %s", role), err)
	}
	return user, nil
}

// acquireListingLock serializes booking attempts on one listing. The lock
// expires on its own after BookingLockTTL if this process dies holding it.
func (s *bookingService) acquireListingLock(ctx context.Context, listingID string) (string, string, error) {
	lockID := "listing_lock_" + listingID
	owner := uuid.NewString()

	lock := &model.BookingLock{
		ID:        lockID,
		Owner:     owner,
		ExpiresAt: s.now().UTC().Add(s.cfg.BookingLockTTL),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", "", apperrors.Wrap(bookingserrors.CreationFailed(bookingserrors.ErrSlotLocked),
				apperrors.CodeConflict,
				"This listing is currently being booked by another request. Please try again.",
				409,
			)
		}
		return "", "", apperrors.Internal("Failed to acquire booking lock", err)
	}
	return lockID, owner, nil
}

// toAppError maps a booking failure onto the API error taxonomy. err keeps
// the CreationFailedError so callers can still inspect the cause.
func toAppError(err error) *apperrors.AppError {
	var conflict *availability.ConflictError

	switch {
	case errors.Is(err, bookingserrors.ErrOwnListing):
		return apperrors.Wrap(err, apperrors.CodeForbidden, "Viewer can't book own listing", 403)
	case errors.Is(err, bookingserrors.ErrWindowExceeded), errors.Is(err, bookingserrors.ErrInvertedRange):
		appErr := apperrors.Validation(err.Error(), nil)
		appErr.Err = err
		return appErr
	case errors.As(err, &conflict):
		return apperrors.Wrap(err, apperrors.CodeConflict, bookingserrors.ErrDateConflict.Error(), 409).
			WithDetails(map[string]any{"date": conflict.Day.String()})
	case errors.Is(err, bookingserrors.ErrDateConflict):
		return apperrors.Wrap(err, apperrors.CodeConflict, bookingserrors.ErrDateConflict.Error(), 409)
	case errors.Is(err, bookingserrors.ErrHostNotPayable):
		return apperrors.PaymentRequired("The host is not connected with Stripe and can't receive payments", err)
	case errors.Is(err, bookingserrors.ErrPaymentFailed):
		return apperrors.PaymentFailed("Failed to charge the payment source", err)
	case errors.Is(err, bookingserrors.ErrPersistAfterCharge):
		return apperrors.ReconciliationRequired("Payment was taken but the booking could not be saved. It has been flagged for manual reconciliation.", err)
	default:
		return apperrors.Internal("Failed to create booking", err)
	}
}
