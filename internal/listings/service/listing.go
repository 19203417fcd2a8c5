package service

import (
	listingserrors "abclisting/internal/listings/errors"
	"abclisting/internal/listings/repository"
	"abclisting/internal/listings/validator"
	userserrors "abclisting/internal/users/errors"
	usersrepo "abclisting/internal/users/repository"
	"abclisting/pkg/availability"
	"abclisting/pkg/config"
	apperrors "abclisting/pkg/errors"
	"abclisting/pkg/model"
	"abclisting/pkg/sanitizer"
	"abclisting/pkg/storage"
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
)

type ListingService interface {
	Create(ctx context.Context, viewerID string, req *model.CreateListingRequest) (*model.Listing, error)
	GetByID(ctx context.Context, viewerID string, id string) (*model.Listing, error)
	Search(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.Listing, int64, error)
}

type listingService struct {
	repo      repository.ListingRepository
	users     usersrepo.UserRepository
	images    storage.ImageStore
	validator *validator.ListingValidator
	cfg       *config.Config
}

func NewListingService(
	repo repository.ListingRepository,
	users usersrepo.UserRepository,
	images storage.ImageStore,
	validator *validator.ListingValidator,
	cfg *config.Config,
) ListingService {
	return &listingService{
		repo:      repo,
		users:     users,
		images:    images,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *listingService) Create(ctx context.Context, viewerID string, req *model.CreateListingRequest) (*model.Listing, error) {
	if viewerID == "" {
		return nil, apperrors.Unauthorized("Viewer cannot be found")
	}

	s.sanitize(req)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Listing validation failed", "viewer_id", viewerID, "error", err)
		return nil, apperrors.Validation("Listing validation failed", map[string]any{"error": err.Error()})
	}

	host, err := s.users.FindByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Viewer cannot be found")
		}
		return nil, apperrors.Internal("Failed to retrieve viewer", err)
	}
	if !host.HasWallet() {
		return nil, apperrors.Wrap(listingserrors.ErrHostNotConnected, apperrors.CodeForbidden,
			"Viewer must be connected with Stripe to host a listing", 403)
	}

	imageURL, err := s.images.Upload(ctx, req.Image)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidDataURI) || errors.Is(err, storage.ErrUnsupportedImageType) || errors.Is(err, storage.ErrImageTooLarge) {
			return nil, apperrors.Validation("Listing validation failed", map[string]any{"image": err.Error()})
		}
		s.cfg.Log.Error("Failed to upload listing image", "viewer_id", viewerID, "error", err)
		return nil, apperrors.Internal("Failed to upload listing image", errors.Join(listingserrors.ErrImageUpload, err))
	}

	listing := &model.Listing{
		Host:          host.ID,
		Title:         req.Title,
		Description:   req.Description,
		Image:         imageURL,
		Type:          req.Type,
		Address:       req.Address,
		Country:       req.Country,
		Admin:         req.Admin,
		City:          req.City,
		NumOfGuests:   req.NumOfGuests,
		Price:         req.Price,
		BookingsIndex: availability.NewIndex(),
		Bookings:      []string{},
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		listing.ID = ""
		if err := s.repo.Create(sessCtx, listing); err != nil {
			return err
		}
		return s.users.AppendListing(sessCtx, host.ID, listing.ID)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create listing", "viewer_id", viewerID, "image", imageURL, "error", err)
		s.discardImage(ctx, imageURL)
		return nil, apperrors.Internal("Failed to create listing", err)
	}

	s.cfg.Log.Info("Listing created successfully",
		"id", listing.ID,
		"host_id", listing.Host,
		"city", listing.City,
		"price", listing.Price,
	)
	return listing, nil
}

// GetByID hides the booking ids from everyone but the host. The index stays
// visible so clients can grey out booked days.
func (s *listingService) GetByID(ctx context.Context, viewerID string, id string) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, listingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}
		if errors.Is(err, listingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid listing ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve listing", err)
	}

	if listing.Host != viewerID {
		listing.Bookings = nil
	}
	return listing, nil
}

func (s *listingService) Search(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.Listing, int64, error) {
	switch filter.Sort {
	case repository.SortNewest, repository.SortPriceLowHigh, repository.SortPriceHighLow:
	default:
		return nil, 0, apperrors.InvalidInput("sort must be one of: price_asc, price_desc")
	}
	filter.City = sanitizer.NormalizeCity(filter.City)
	filter.Country = sanitizer.NormalizeCity(filter.Country)

	var count int64
	var listings []*model.Listing
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count listings", "error", err)
			errCount = apperrors.Internal("Failed to count listings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		listings, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search listings", "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve listings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	for _, l := range listings {
		l.Bookings = nil
	}
	return listings, count, nil
}

// discardImage removes an upload no listing points at. A failed delete is
// logged with the URL so the object can be cleaned up by hand.
func (s *listingService) discardImage(ctx context.Context, imageURL string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.images.Delete(ctx, imageURL); err != nil {
		s.cfg.Log.Error("Orphaned listing image", "image", imageURL, "error", err)
	}
}

func (s *listingService) sanitize(req *model.CreateListingRequest) {
	req.Title = sanitizer.NormalizeTitle(req.Title)
	req.Description = sanitizer.NormalizeDescription(req.Description)
	req.Address = sanitizer.NormalizeAddress(req.Address)
	req.City = sanitizer.NormalizeCity(req.City)
	req.Country = sanitizer.NormalizeCity(req.Country)
	req.Admin = sanitizer.NormalizeCity(req.Admin)
}
