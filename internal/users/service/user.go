package service

import (
	userserrors "abclisting/internal/users/errors"
	"abclisting/internal/users/repository"
	"abclisting/pkg/config"
	apperrors "abclisting/pkg/errors"
	"abclisting/pkg/model"
	"abclisting/pkg/sanitizer"
	"context"
	"errors"
)

// Identity is what the session token says about the viewer.
type Identity struct {
	ID      string
	Name    string
	Avatar  string
	Contact string
}

type UserService interface {
	// SignIn creates the user on first sight and refreshes the profile
	// fields from the token afterwards.
	SignIn(ctx context.Context, identity Identity) (*model.Viewer, error)
	GetProfile(ctx context.Context, viewerID string, id string) (*model.Profile, error)
}

type userService struct {
	repo repository.UserRepository
	cfg  *config.Config
}

func NewUserService(repo repository.UserRepository, cfg *config.Config) UserService {
	return &userService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *userService) SignIn(ctx context.Context, identity Identity) (*model.Viewer, error) {
	if identity.ID == "" {
		return nil, apperrors.Unauthorized("Viewer cannot be found")
	}

	user, err := s.repo.Upsert(ctx, &model.User{
		ID:      identity.ID,
		Name:    sanitizer.NormalizeTitle(identity.Name),
		Avatar:  identity.Avatar,
		Contact: identity.Contact,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to sign in viewer", "viewer_id", identity.ID, "error", err)
		return nil, apperrors.Internal("Failed to sign in", err)
	}

	s.cfg.Log.Info("Viewer signed in", "viewer_id", user.ID)
	return user.Viewer(), nil
}

func (s *userService) GetProfile(ctx context.Context, viewerID string, id string) (*model.Profile, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Profile(viewerID), nil
}

func (s *userService) find(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return user, nil
}
