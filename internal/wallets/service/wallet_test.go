package service

import (
	userserrors "abclisting/internal/users/errors"
	"abclisting/pkg/config"
	apperrors "abclisting/pkg/errors"
	"abclisting/pkg/logger"
	"abclisting/pkg/model"
	"abclisting/pkg/payments"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserRepository struct {
	users         map[string]*model.User
	setWalletFunc func(ctx context.Context, id string, walletID string) (*model.User, error)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	return user, nil
}

func (m *mockUserRepository) IncrementIncome(ctx context.Context, id string, amount int64) error {
	return nil
}

func (m *mockUserRepository) AppendBooking(ctx context.Context, id string, bookingID string) error {
	return nil
}

func (m *mockUserRepository) AppendListing(ctx context.Context, id string, listingID string) error {
	return nil
}

func (m *mockUserRepository) SetWallet(ctx context.Context, id string, walletID string) (*model.User, error) {
	if m.setWalletFunc != nil {
		return m.setWalletFunc(ctx, id, walletID)
	}
	u, ok := m.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	u.WalletID = walletID
	return u, nil
}

type mockConnector struct {
	connectFunc  func(ctx context.Context, code string) (string, error)
	disconnected []string
	disconnErr   error
}

func (m *mockConnector) Connect(ctx context.Context, code string) (string, error) {
	if m.connectFunc != nil {
		return m.connectFunc(ctx, code)
	}
	return "acct_" + code, nil
}

func (m *mockConnector) Disconnect(ctx context.Context, walletID string) error {
	m.disconnected = append(m.disconnected, walletID)
	return m.disconnErr
}

func newTestService(users *mockUserRepository, connector *mockConnector) WalletService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewWalletService(users, connector, &config.Config{Log: log})
}

func statusOf(err error) int {
	return apperrors.AsAppError(err).HTTPStatus
}

func TestConnect(t *testing.T) {
	users := &mockUserRepository{users: map[string]*model.User{"host-1": {ID: "host-1"}}}
	svc := newTestService(users, &mockConnector{})

	viewer, err := svc.Connect(context.Background(), "host-1", " abc123 ")
	require.NoError(t, err)
	assert.True(t, viewer.HasWallet)
	assert.Equal(t, "acct_abc123", users.users["host-1"].WalletID)
}

func TestConnect_Errors(t *testing.T) {
	tests := []struct {
		name       string
		viewer     string
		code       string
		connectErr error
		storeErr   error
		wantStatus int
	}{
		{name: "empty code", viewer: "host-1", code: "  ", wantStatus: http.StatusUnprocessableEntity},
		{name: "no viewer", viewer: "", code: "abc", wantStatus: http.StatusUnauthorized},
		{name: "unknown viewer", viewer: "ghost", code: "abc", wantStatus: http.StatusUnauthorized},
		{name: "bad grant", viewer: "host-1", code: "abc", connectErr: fmt.Errorf("%w: invalid_grant", payments.ErrConnectFailed), wantStatus: http.StatusBadRequest},
		{name: "not configured", viewer: "host-1", code: "abc", connectErr: payments.ErrNotConfigured, wantStatus: http.StatusServiceUnavailable},
		{name: "stripe outage", viewer: "host-1", code: "abc", connectErr: errors.New("EOF"), wantStatus: http.StatusBadGateway},
		{name: "store fails", viewer: "host-1", code: "abc", storeErr: errors.New("mongo down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUserRepository{users: map[string]*model.User{"host-1": {ID: "host-1"}}}
			if tt.storeErr != nil {
				users.setWalletFunc = func(ctx context.Context, id string, walletID string) (*model.User, error) {
					return nil, tt.storeErr
				}
			}
			connector := &mockConnector{}
			if tt.connectErr != nil {
				connector.connectFunc = func(ctx context.Context, code string) (string, error) { return "", tt.connectErr }
			}

			_, err := newTestService(users, connector).Connect(context.Background(), tt.viewer, tt.code)
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, statusOf(err))
		})
	}
}

func TestDisconnect(t *testing.T) {
	users := &mockUserRepository{users: map[string]*model.User{"host-1": {ID: "host-1", WalletID: "acct_1"}}}
	connector := &mockConnector{}
	svc := newTestService(users, connector)

	viewer, err := svc.Disconnect(context.Background(), "host-1")
	require.NoError(t, err)
	assert.False(t, viewer.HasWallet)
	assert.Equal(t, []string{"acct_1"}, connector.disconnected)
	assert.Empty(t, users.users["host-1"].WalletID)

	_, err = svc.Disconnect(context.Background(), "host-1")
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.ErrorIs(t, err, userserrors.ErrNoWallet)
}

func TestDisconnect_ProviderFailureKeepsWallet(t *testing.T) {
	users := &mockUserRepository{users: map[string]*model.User{"host-1": {ID: "host-1", WalletID: "acct_1"}}}
	connector := &mockConnector{disconnErr: errors.New("stripe down")}

	_, err := newTestService(users, connector).Disconnect(context.Background(), "host-1")
	assert.Equal(t, http.StatusBadGateway, statusOf(err))
	assert.Equal(t, "acct_1", users.users["host-1"].WalletID)
}
