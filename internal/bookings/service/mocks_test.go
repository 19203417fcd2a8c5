package service

import (
	"abclisting/internal/bookings/events"
	listingserrors "abclisting/internal/listings/errors"
	listingsrepo "abclisting/internal/listings/repository"
	userserrors "abclisting/internal/users/errors"
	"abclisting/pkg/availability"
	"abclisting/pkg/config"
	mongotx "abclisting/pkg/db/mongo"
	"abclisting/pkg/logger"
	"abclisting/pkg/model"
	"abclisting/pkg/payments"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:               log,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		BookingWindowDays: 90,
		BookingLockTTL:    30 * time.Second,
		Currency:          "usd",
	}
}

func date(t *testing.T, s string) availability.Date {
	t.Helper()
	d, err := availability.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

type mockBookingRepository struct {
	mu            sync.Mutex
	created       []*model.Booking
	createFunc    func(ctx context.Context, booking *model.Booking) error
	findByIDFunc  func(ctx context.Context, id string) (*model.Booking, error)
	findByTenant  func(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Booking, error)
	countByTenant func(ctx context.Context, tenantID string) (int64, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, booking); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if booking.ID == "" {
		booking.ID = fmt.Sprintf("65b00000000000000000%04d", len(m.created)+1)
	}
	m.created = append(m.created, booking)
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockBookingRepository) FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByTenant != nil {
		return m.findByTenant(ctx, tenantID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	if m.countByTenant != nil {
		return m.countByTenant(ctx, tenantID)
	}
	return 0, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	mu         sync.Mutex
	held       map[string]string
	createFunc func(ctx context.Context, lock *model.BookingLock) error
	deleted    int
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, lock); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = map[string]string{}
	}
	m.held[lock.ID] = lock.Owner
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[lockID] == owner {
		delete(m.held, lockID)
	}
	m.deleted++
	return nil
}

// mockListingRepository keeps listings in memory so tests can observe writes.
type mockListingRepository struct {
	mu                sync.Mutex
	listings          map[string]*model.Listing
	appendBookingFunc func(ctx context.Context, id string, index availability.Index, newDays []availability.Date, bookingID string) error
	appendCalls       int
}

func newMockListingRepository(listings ...*model.Listing) *mockListingRepository {
	m := &mockListingRepository{listings: map[string]*model.Listing{}}
	for _, l := range listings {
		m.listings[l.ID] = l
	}
	return m
}

func (m *mockListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[listing.ID] = listing
	return nil
}

func (m *mockListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, listingserrors.ErrNotFound
	}
	clone := *l
	clone.Bookings = append([]string(nil), l.Bookings...)
	return &clone, nil
}

func (m *mockListingRepository) AppendBooking(ctx context.Context, id string, index availability.Index, newDays []availability.Date, bookingID string) error {
	m.mu.Lock()
	m.appendCalls++
	m.mu.Unlock()
	if m.appendBookingFunc != nil {
		if err := m.appendBookingFunc(ctx, id, index, newDays, bookingID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return listingserrors.ErrNotFound
	}
	for _, d := range newDays {
		if l.BookingsIndex.Contains(d) {
			return listingserrors.ErrIndexChanged
		}
	}
	l.BookingsIndex = index
	l.Bookings = append(l.Bookings, bookingID)
	return nil
}

func (m *mockListingRepository) FindAll(ctx context.Context, filter listingsrepo.Filter, limit int, offset int64) ([]*model.Listing, error) {
	return []*model.Listing{}, nil
}

func (m *mockListingRepository) Count(ctx context.Context, filter listingsrepo.Filter) (int64, error) {
	return int64(len(m.listings)), nil
}

func (m *mockListingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockUserRepository struct {
	mu                  sync.Mutex
	users               map[string]*model.User
	incrementIncomeFunc func(ctx context.Context, id string, amount int64) error
}

func newMockUserRepository(users ...*model.User) *mockUserRepository {
	m := &mockUserRepository{users: map[string]*model.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return user, nil
}

func (m *mockUserRepository) IncrementIncome(ctx context.Context, id string, amount int64) error {
	if m.incrementIncomeFunc != nil {
		if err := m.incrementIncomeFunc(ctx, id, amount); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return userserrors.ErrNotFound
	}
	u.Income += amount
	return nil
}

func (m *mockUserRepository) AppendBooking(ctx context.Context, id string, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return userserrors.ErrNotFound
	}
	u.Bookings = append(u.Bookings, bookingID)
	return nil
}

func (m *mockUserRepository) AppendListing(ctx context.Context, id string, listingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return userserrors.ErrNotFound
	}
	u.Listings = append(u.Listings, listingID)
	return nil
}

func (m *mockUserRepository) SetWallet(ctx context.Context, id string, walletID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	u.WalletID = walletID
	return u, nil
}

type mockCharger struct {
	mu         sync.Mutex
	requests   []payments.ChargeRequest
	chargeFunc func(ctx context.Context, req payments.ChargeRequest) (*payments.Charge, error)
}

func (m *mockCharger) Charge(ctx context.Context, req payments.ChargeRequest) (*payments.Charge, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.chargeFunc != nil {
		return m.chargeFunc(ctx, req)
	}
	return &payments.Charge{ID: "ch_" + req.IdempotencyKey, Amount: req.Amount, Status: "succeeded"}, nil
}

func (m *mockCharger) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockReporter struct {
	mu     sync.Mutex
	events []events.ReconciliationRequired
	err    error
}

func (m *mockReporter) ReconciliationRequired(ctx context.Context, event events.ReconciliationRequired) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

type mockEventPublisher struct {
	mu       sync.Mutex
	bookings []*model.Booking
	err      error
}

func (m *mockEventPublisher) BookingCreated(ctx context.Context, booking *model.Booking, hostID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, booking)
	return m.err
}
