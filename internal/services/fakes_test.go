package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"event-ticketing-manager/internal/clock"
	"event-ticketing-manager/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory implementation of the three repositories used
// by the service tests. Records are copied in and out so callers cannot
// mutate stored state behind the store's back.
type memStore struct {
	mu      sync.Mutex
	events  []*models.Event
	users   []*models.User
	tickets []*models.Ticket
}

func newMemStore() *memStore {
	return &memStore{}
}

type memEvents struct{ s *memStore }
type memUsers struct{ s *memStore }
type memTickets struct{ s *memStore }

func (m *memStore) Events() *memEvents   { return &memEvents{m} }
func (m *memStore) Users() *memUsers     { return &memUsers{m} }
func (m *memStore) Tickets() *memTickets { return &memTickets{m} }

func (r *memEvents) FindByID(_ context.Context, id string) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memEvents) FindAll(_ context.Context) ([]*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memEvents) Insert(_ context.Context, event *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.Code == event.Code {
			return models.ErrDuplicateCode
		}
	}
	cp := *event
	r.s.events = append(r.s.events, &cp)
	return nil
}

func (r *memEvents) Update(ctx context.Context, event *models.Event) error {
	return r.update(event, nil)
}

func (r *memEvents) UpdateIfStatus(_ context.Context, event *models.Event, expected models.EventStatus) error {
	return r.update(event, &expected)
}

func (r *memEvents) update(event *models.Event, expected *models.EventStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, e := range r.s.events {
		if e.ID != event.ID {
			continue
		}
		if expected != nil && e.Status != *expected {
			return models.ErrStatusConflict
		}
		cp := *event
		r.s.events[i] = &cp
		return nil
	}
	return models.ErrRecordNotFound
}

func (r *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUsers) FindAll(_ context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memUsers) Insert(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *user
	r.s.users = append(r.s.users, &cp)
	return nil
}

func (r *memUsers) Update(_ context.Context, user *models.User) error {
	return r.update(user, nil)
}

func (r *memUsers) UpdateIfStatus(_ context.Context, user *models.User, expected models.UserStatus) error {
	return r.update(user, &expected)
}

func (r *memUsers) update(user *models.User, expected *models.UserStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, u := range r.s.users {
		if u.ID != user.ID {
			continue
		}
		if expected != nil && u.Status != *expected {
			return models.ErrStatusConflict
		}
		cp := *user
		r.s.users[i] = &cp
		return nil
	}
	return models.ErrRecordNotFound
}

func (r *memTickets) FindByID(_ context.Context, id string) (*models.Ticket, error) {
	return r.findOne(func(t *models.Ticket) bool { return t.ID == id }), nil
}

func (r *memTickets) FindByCode(_ context.Context, code string) (*models.Ticket, error) {
	return r.findOne(func(t *models.Ticket) bool { return t.Code == code }), nil
}

func (r *memTickets) FindAll(_ context.Context) ([]*models.Ticket, error) {
	return r.filter(func(*models.Ticket) bool { return true }), nil
}

func (r *memTickets) FindByEventID(_ context.Context, eventID string) ([]*models.Ticket, error) {
	return r.filter(func(t *models.Ticket) bool { return t.EventID == eventID }), nil
}

func (r *memTickets) FindByUserID(_ context.Context, userID string) ([]*models.Ticket, error) {
	return r.filter(func(t *models.Ticket) bool { return t.UserID == userID }), nil
}

func (r *memTickets) findOne(match func(*models.Ticket) bool) *models.Ticket {
	found := r.filter(match)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

func (r *memTickets) filter(match func(*models.Ticket) bool) []*models.Ticket {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Ticket{}
	for _, t := range r.s.tickets {
		if match(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (r *memTickets) Insert(_ context.Context, ticket *models.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tickets {
		if t.Code == ticket.Code {
			return models.ErrDuplicateCode
		}
	}
	cp := *ticket
	r.s.tickets = append(r.s.tickets, &cp)
	return nil
}

func (r *memTickets) Update(_ context.Context, ticket *models.Ticket) error {
	return r.update(ticket, nil)
}

func (r *memTickets) UpdateIfStatus(_ context.Context, ticket *models.Ticket, expected models.TicketStatus) error {
	return r.update(ticket, &expected)
}

func (r *memTickets) update(ticket *models.Ticket, expected *models.TicketStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, t := range r.s.tickets {
		if t.ID != ticket.ID {
			continue
		}
		if expected != nil && t.Status != *expected {
			return models.ErrStatusConflict
		}
		cp := *ticket
		r.s.tickets[i] = &cp
		return nil
	}
	return models.ErrRecordNotFound
}

// MockTicketRepository is a testify mock used to inject store failures
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByCode(ctx context.Context, code string) (*models.Ticket, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindAll(ctx context.Context) ([]*models.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByEventID(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Insert(ctx context.Context, ticket *models.Ticket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	return m.Called(ctx, ticket).Error(0)
}

func (m *MockTicketRepository) UpdateIfStatus(ctx context.Context, ticket *models.Ticket, expected models.TicketStatus) error {
	return m.Called(ctx, ticket, expected).Error(0)
}

// scriptedCodes hands out suffixes in order and repeats the last one.
type scriptedCodes struct {
	mu       sync.Mutex
	suffixes []string
	calls    int
}

func (g *scriptedCodes) NewCode(prefix string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := min(g.calls, len(g.suffixes)-1)
	g.calls++
	return prefix + "-" + g.suffixes[i], nil
}

// recordingMetrics keeps every observation for assertions.
type recordingMetrics struct {
	mu           sync.Mutex
	reservations []string
	transitions  []string
	sweeps       []SweepResult
	lockWaits    int
}

func (m *recordingMetrics) ObserveReservation(outcome string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations = append(m.reservations, outcome)
}

func (m *recordingMetrics) ObserveTransition(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, operation+":"+outcome)
}

func (m *recordingMetrics) ObserveSweep(result SweepResult, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps = append(m.sweeps, result)
}

func (m *recordingMetrics) ObserveLockWait(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockWaits++
}

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// testEnv wires every service over one in-memory store and a fake clock.
type testEnv struct {
	store   *memStore
	clock   *clock.FakeClock
	metrics *recordingMetrics
	events  *EventService
	tickets *TicketService
	users   *UserService
	sweep   *SweepService
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	store := newMemStore()
	clk := clock.Fake(baseTime)
	metrics := &recordingMetrics{}
	opts = append([]Option{WithMetrics(metrics)}, opts...)
	return &testEnv{
		store:   store,
		clock:   clk,
		metrics: metrics,
		events:  NewEventService(store.Events(), store.Tickets(), clk, opts...),
		tickets: NewTicketService(store.Tickets(), store.Events(), store.Users(), clk, opts...),
		users:   NewUserService(store.Users(), clk, opts...),
		sweep:   NewSweepService(store.Tickets(), store.Events(), clk, opts...),
	}
}

func (e *testEnv) createEvent(t *testing.T, name string, startIn time.Duration, capacity int) *models.Event {
	t.Helper()
	event, err := e.events.CreateEvent(context.Background(), &models.EventCreateRequest{
		Name:          name,
		StartTime:     e.clock.Now().Add(startIn),
		TotalCapacity: capacity,
	})
	require.NoError(t, err)
	return event
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), &models.UserCreateRequest{
		Name:      "Ana",
		Surname:   "Gomez",
		BirthDate: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Email:     email,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) reserve(t *testing.T, eventID, userID string, quantity int) *models.Ticket {
	t.Helper()
	ticket, err := e.tickets.Reserve(context.Background(), &models.TicketReserveRequest{
		EventID:  eventID,
		UserID:   userID,
		Quantity: quantity,
	})
	require.NoError(t, err)
	return ticket
}
