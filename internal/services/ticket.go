package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"event-ticketing-manager/internal/clock"
	"event-ticketing-manager/internal/models"
	"event-ticketing-manager/internal/utils"
)

const outcomeOK = "ok"

// TicketService handles the ticket lifecycle: reservation, payment and
// validation, plus the read side of the ticket store.
type TicketService struct {
	tickets TicketRepository
	events  EventRepository
	users   UserRepository
	clock   clock.Clock
	opts    serviceOptions
	logger  *slog.Logger
}

// NewTicketService creates a new ticket service
func NewTicketService(
	tickets TicketRepository,
	events EventRepository,
	users UserRepository,
	clk clock.Clock,
	opts ...Option,
) *TicketService {
	o := newServiceOptions(opts)
	return &TicketService{
		tickets: tickets,
		events:  events,
		users:   users,
		clock:   clk,
		opts:    o,
		logger:  o.logger.With("component", "tickets"),
	}
}

// Policy returns the lifecycle policy in effect.
func (s *TicketService) Policy() LifecyclePolicy {
	return s.opts.policy
}

// Reserve creates a NEW ticket for req.Quantity places. The capacity check
// and the insert run while holding the event's lock, so concurrent
// reservations for one event cannot overbook it.
func (s *TicketService) Reserve(ctx context.Context, req *models.TicketReserveRequest) (*models.Ticket, error) {
	waitStart := time.Now()
	unlock, err := s.opts.locker.Lock(ctx, eventLockKey(req.EventID))
	if err != nil {
		s.opts.metrics.ObserveReservation(models.CodeOf(err), req.Quantity)
		return nil, models.WrapPersistence("lock event", err)
	}
	defer unlock()
	s.opts.metrics.ObserveLockWait(time.Since(waitStart))

	ticket, err := s.reserveLocked(ctx, req)
	if err != nil {
		s.opts.metrics.ObserveReservation(models.CodeOf(err), req.Quantity)
		s.logger.Info("reservation rejected",
			"event_id", req.EventID, "user_id", req.UserID, "quantity", req.Quantity, "reason", models.CodeOf(err))
		return nil, err
	}

	s.opts.metrics.ObserveReservation(outcomeOK, ticket.Quantity)
	s.logger.Info("ticket reserved",
		"ticket_id", ticket.ID, "code", ticket.Code, "event_id", ticket.EventID, "quantity", ticket.Quantity)
	return ticket, nil
}

func (s *TicketService) reserveLocked(ctx context.Context, req *models.TicketReserveRequest) (*models.Ticket, error) {
	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		return nil, models.WrapPersistence("find event", err)
	}
	if event == nil {
		return nil, models.ErrEventNotFound
	}
	if !event.IsActive() {
		return nil, models.ErrEventNotActive
	}

	now := s.clock.Now()
	if s.opts.policy.EnforceReservationWindow && !now.Before(event.CertificationOpensAt(s.opts.policy.CertificationLead)) {
		return nil, models.ErrReservationWindowClosed
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, models.WrapPersistence("find user", err)
	}
	if user == nil || !user.IsActive() {
		return nil, models.ErrInvalidUser
	}

	if req.Quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}

	existing, err := s.tickets.FindByEventID(ctx, event.ID)
	if err != nil {
		return nil, models.WrapPersistence("find event tickets", err)
	}
	available := event.TotalCapacity - sumPlaces(existing, (*models.Ticket).HoldsReservation)
	if req.Quantity > available {
		return nil, &models.CapacityError{Requested: req.Quantity, Remaining: max(available, 0)}
	}

	ticket := &models.Ticket{
		ID:         s.opts.ids.NewID(),
		EventID:    event.ID,
		UserID:     user.ID,
		Quantity:   req.Quantity,
		Status:     models.TicketNew,
		ReservedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = insertWithCode(s.opts.codes, utils.TicketCodePrefix, func(code string) error {
		ticket.Code = code
		return s.tickets.Insert(ctx, ticket)
	})
	if err != nil {
		return nil, models.WrapPersistence("insert ticket", err)
	}
	return ticket, nil
}

// Pay simulates payment of a NEW ticket, moving it to ACTIVE.
func (s *TicketService) Pay(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.pay(ctx, ticketID)
	recordTransition(s.opts.metrics, "pay", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket paid", "ticket_id", ticket.ID, "code", ticket.Code)
	return ticket, nil
}

func (s *TicketService) pay(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, models.WrapPersistence("find ticket", err)
	}
	if ticket == nil {
		return nil, models.ErrTicketNotFound
	}
	if !ticket.Status.CanTransitionTo(models.TicketActive) {
		return nil, models.ErrInvalidTicketState
	}

	event, err := s.events.FindByID(ctx, ticket.EventID)
	if err != nil {
		return nil, models.WrapPersistence("find event", err)
	}
	if event == nil {
		return nil, models.ErrEventNotFound
	}
	if !event.IsActive() {
		return nil, models.ErrEventNotActive
	}

	now := s.clock.Now()
	if s.opts.policy.EnforcePaymentWindow && !event.StartTime.After(now) {
		return nil, models.ErrEventAlreadyOccurred
	}

	paid := *ticket
	paid.Status = models.TicketActive
	paid.PaidAt = &now
	paid.UpdatedAt = now

	if err := s.transition(ctx, &paid, models.TicketNew); err != nil {
		return nil, err
	}
	return &paid, nil
}

// Validate redeems an ACTIVE ticket at the door, moving it to USED.
func (s *TicketService) Validate(ctx context.Context, code string) (*models.Ticket, error) {
	ticket, err := s.validate(ctx, code)
	recordTransition(s.opts.metrics, "validate", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket validated", "ticket_id", ticket.ID, "code", ticket.Code)
	return ticket, nil
}

func (s *TicketService) validate(ctx context.Context, code string) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByCode(ctx, code)
	if err != nil {
		return nil, models.WrapPersistence("find ticket", err)
	}
	if ticket == nil {
		return nil, models.ErrTicketNotFound
	}
	if !ticket.Status.CanTransitionTo(models.TicketUsed) {
		return nil, models.ErrInvalidTicketState
	}

	event, err := s.events.FindByID(ctx, ticket.EventID)
	if err != nil {
		return nil, models.WrapPersistence("find event", err)
	}
	if event == nil {
		return nil, models.ErrEventNotFound
	}
	if event.Status == models.EventCancelled {
		return nil, models.ErrEventCancelled
	}

	now := s.clock.Now()
	if s.opts.policy.EnforceValidationWindow && now.Before(event.CertificationOpensAt(s.opts.policy.CertificationLead)) {
		return nil, models.ErrValidationWindowNotOpen
	}

	used := *ticket
	used.Status = models.TicketUsed
	used.UsedAt = &now
	used.UpdatedAt = now

	if err := s.transition(ctx, &used, models.TicketActive); err != nil {
		return nil, err
	}
	return &used, nil
}

// transition writes ticket only if the stored copy is still in from.
func (s *TicketService) transition(ctx context.Context, ticket *models.Ticket, from models.TicketStatus) error {
	err := s.tickets.UpdateIfStatus(ctx, ticket, from)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrStatusConflict):
		return models.ErrInvalidTicketState
	case errors.Is(err, models.ErrRecordNotFound):
		return models.ErrTicketNotFound
	default:
		return models.WrapPersistence("update ticket", err)
	}
}

func recordTransition(m MetricsRecorder, operation string, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = models.CodeOf(err)
	}
	m.ObserveTransition(operation, outcome)
}

// ListAll returns every ticket
func (s *TicketService) ListAll(ctx context.Context) ([]*models.Ticket, error) {
	tickets, err := s.tickets.FindAll(ctx)
	return tickets, models.WrapPersistence("list tickets", err)
}

// GetByID returns the ticket or nil when it does not exist
func (s *TicketService) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	return ticket, models.WrapPersistence("find ticket", err)
}

// GetByCode returns the ticket with the code or nil
func (s *TicketService) GetByCode(ctx context.Context, code string) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByCode(ctx, code)
	return ticket, models.WrapPersistence("find ticket by code", err)
}

// ListByUser returns the tickets owned by a user
func (s *TicketService) ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	tickets, err := s.tickets.FindByUserID(ctx, userID)
	return tickets, models.WrapPersistence("list user tickets", err)
}

// ListByEvent returns the tickets reserved against an event
func (s *TicketService) ListByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	tickets, err := s.tickets.FindByEventID(ctx, eventID)
	return tickets, models.WrapPersistence("list event tickets", err)
}

func eventLockKey(eventID string) string {
	return fmt.Sprintf("event:%s", eventID)
}

// sumPlaces adds up the quantity of the tickets matching counts.
func sumPlaces(tickets []*models.Ticket, counts func(*models.Ticket) bool) int {
	total := 0
	for _, t := range tickets {
		if counts(t) {
			total += t.Quantity
		}
	}
	return total
}
