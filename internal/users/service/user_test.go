package service

import (
	userserrors "abclisting/internal/users/errors"
	"abclisting/pkg/config"
	apperrors "abclisting/pkg/errors"
	"abclisting/pkg/logger"
	"abclisting/pkg/model"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserRepository struct {
	users      map[string]*model.User
	upsertFunc func(ctx context.Context, user *model.User) (*model.User, error)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, user)
	}
	existing, ok := m.users[user.ID]
	if !ok {
		user.Bookings, user.Listings = []string{}, []string{}
		m.users[user.ID] = user
		return user, nil
	}
	existing.Name, existing.Avatar, existing.Contact = user.Name, user.Avatar, user.Contact
	return existing, nil
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
	return nil, nil
}

func newTestService(repo *mockUserRepository) UserService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewUserService(repo, &config.Config{Log: log})
}

func TestSignIn_CreatesThenRefreshes(t *testing.T) {
	repo := &mockUserRepository{users: map[string]*model.User{}}
	svc := newTestService(repo)
	ctx := context.Background()

	viewer, err := svc.SignIn(ctx, Identity{ID: "google-1", Name: "  Ada   Lovelace ", Avatar: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", viewer.Name)
	assert.False(t, viewer.HasWallet)

	repo.users["google-1"].Income = 500
	repo.users["google-1"].WalletID = "acct_1"

	viewer, err = svc.SignIn(ctx, Identity{ID: "google-1", Name: "Ada", Avatar: "b.png"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", viewer.Name)
	assert.Equal(t, "b.png", viewer.Avatar)
	assert.Equal(t, int64(500), viewer.Income, "income survives sign in")
	assert.True(t, viewer.HasWallet)
}

func TestSignIn_Errors(t *testing.T) {
	repo := &mockUserRepository{
		users: map[string]*model.User{},
		upsertFunc: func(ctx context.Context, user *model.User) (*model.User, error) {
			return nil, errors.New("mongo down")
		},
	}
	svc := newTestService(repo)

	_, err := svc.SignIn(context.Background(), Identity{})
	assert.Equal(t, http.StatusUnauthorized, apperrors.AsAppError(err).HTTPStatus)

	_, err = svc.SignIn(context.Background(), Identity{ID: "google-1"})
	assert.Equal(t, http.StatusInternalServerError, apperrors.AsAppError(err).HTTPStatus)
}

func TestGetProfile_HidesPrivateFields(t *testing.T) {
	repo := &mockUserRepository{users: map[string]*model.User{
		"host-1": {ID: "host-1", Name: "Host", Income: 900, Bookings: []string{"b-1"}, Listings: []string{"l-1"}},
	}}
	svc := newTestService(repo)
	ctx := context.Background()

	own, err := svc.GetProfile(ctx, "host-1", "host-1")
	require.NoError(t, err)
	require.NotNil(t, own.Income)
	assert.Equal(t, int64(900), *own.Income)
	assert.Equal(t, []string{"b-1"}, own.Bookings)

	other, err := svc.GetProfile(ctx, "tenant-1", "host-1")
	require.NoError(t, err)
	assert.Nil(t, other.Income)
	assert.Nil(t, other.Bookings)
	assert.Equal(t, []string{"l-1"}, other.Listings)

	_, err = svc.GetProfile(ctx, "tenant-1", "nobody")
	assert.Equal(t, http.StatusNotFound, apperrors.AsAppError(err).HTTPStatus)
}
