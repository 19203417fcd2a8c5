package service

import (
	userserrors "abclisting/internal/users/errors"
	usersrepo "abclisting/internal/users/repository"
	"abclisting/pkg/config"
	apperrors "abclisting/pkg/errors"
	"abclisting/pkg/model"
	"abclisting/pkg/payments"
	"context"
	"errors"
	"net/http"
	"strings"
)

type WalletService interface {
	Connect(ctx context.Context, viewerID string, code string) (*model.Viewer, error)
	Disconnect(ctx context.Context, viewerID string) (*model.Viewer, error)
}

type walletService struct {
	users     usersrepo.UserRepository
	connector payments.Connector
	cfg       *config.Config
}

func NewWalletService(users usersrepo.UserRepository, connector payments.Connector, cfg *config.Config) WalletService {
	return &walletService{
		users:     users,
		connector: connector,
		cfg:       cfg,
	}
}

// Connect exchanges a Stripe Connect authorization code for the account id
// and stores it as the viewer's wallet.
func (s *walletService) Connect(ctx context.Context, viewerID string, code string) (*model.Viewer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.Validation("Wallet validation failed", map[string]any{"code": "code is required"})
	}
	if _, err := s.viewer(ctx, viewerID); err != nil {
		return nil, err
	}

	walletID, err := s.connector.Connect(ctx, code)
	if err != nil {
		s.cfg.Log.Warn("Stripe connect failed", "viewer_id", viewerID, "error", err)
		return nil, providerError("Failed to connect with Stripe", err)
	}

	user, err := s.users.SetWallet(ctx, viewerID, walletID)
	if err != nil {
		s.cfg.Log.Error("Failed to store wallet", "viewer_id", viewerID, "wallet_id", walletID, "error", err)
		return nil, apperrors.Internal("Viewer could not be updated", err)
	}

	s.cfg.Log.Info("Wallet connected", "viewer_id", viewerID, "wallet_id", walletID)
	return user.Viewer(), nil
}

func (s *walletService) Disconnect(ctx context.Context, viewerID string) (*model.Viewer, error) {
	user, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !user.HasWallet() {
		return nil, apperrors.Wrap(userserrors.ErrNoWallet, apperrors.CodeConflict, "Viewer is not connected with Stripe", http.StatusConflict)
	}

	if err := s.connector.Disconnect(ctx, user.WalletID); err != nil {
		s.cfg.Log.Warn("Stripe disconnect failed", "viewer_id", viewerID, "wallet_id", user.WalletID, "error", err)
		return nil, providerError("Failed to disconnect from Stripe", err)
	}

	updated, err := s.users.SetWallet(ctx, viewerID, "")
	if err != nil {
		s.cfg.Log.Error("Failed to clear wallet", "viewer_id", viewerID, "error", err)
		return nil, apperrors.Internal("Viewer could not be updated", err)
	}

	s.cfg.Log.Info("Wallet disconnected", "viewer_id", viewerID)
	return updated.Viewer(), nil
}

func (s *walletService) viewer(ctx context.Context, viewerID string) (*model.User, error) {
	if viewerID == "" {
		return nil, apperrors.Unauthorized("Viewer cannot be found")
	}
	user, err := s.users.FindByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Viewer cannot be found")
		}
		return nil, apperrors.Internal("Failed to retrieve viewer", err)
	}
	return user, nil
}

func providerError(message string, err error) *apperrors.AppError {
	switch {
	case errors.Is(err, payments.ErrNotConfigured):
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "Payments are not configured", http.StatusServiceUnavailable)
	case errors.Is(err, payments.ErrConnectFailed):
		return apperrors.Wrap(err, apperrors.CodeBadRequest, message, http.StatusBadRequest)
	default:
		return apperrors.PaymentFailed(message, err)
	}
}
