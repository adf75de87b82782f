package services

import (
	"context"
	"errors"
	"log/slog"

	"event-ticketing-manager/internal/clock"
	"event-ticketing-manager/internal/models"
	"event-ticketing-manager/internal/utils"
)

// EventService handles event-related business logic
type EventService struct {
	events  EventRepository
	tickets TicketRepository
	clock   clock.Clock
	opts    serviceOptions
	logger  *slog.Logger
}

// NewEventService creates a new event service
func NewEventService(events EventRepository, tickets TicketRepository, clk clock.Clock, opts ...Option) *EventService {
	o := newServiceOptions(opts)
	return &EventService{
		events:  events,
		tickets: tickets,
		clock:   clk,
		opts:    o,
		logger:  o.logger.With("component", "events"),
	}
}

// CreateEvent publishes a new ACTIVE event
func (s *EventService) CreateEvent(ctx context.Context, req *models.EventCreateRequest) (*models.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	event := &models.Event{
		ID:            s.opts.ids.NewID(),
		Name:          req.Name,
		StartTime:     req.StartTime,
		TotalCapacity: req.TotalCapacity,
		Status:        models.EventActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := insertWithCode(s.opts.codes, utils.EventCodePrefix, func(code string) error {
		event.Code = code
		return s.events.Insert(ctx, event)
	})
	if err != nil {
		return nil, models.WrapPersistence("insert event", err)
	}

	s.logger.Info("event created",
		"event_id", event.ID, "code", event.Code, "start_time", event.StartTime, "capacity", event.TotalCapacity)
	return event, nil
}

// GetEvent returns the event or nil when it does not exist
func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	return event, models.WrapPersistence("find event", err)
}

// ListEvents returns every event in store order
func (s *EventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	events, err := s.events.FindAll(ctx)
	return events, models.WrapPersistence("list events", err)
}

// CancelEvent moves an ACTIVE event to CANCELLED. Its open tickets are
// cancelled out by the next sweep once the start time passes.
func (s *EventService) CancelEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.cancel(ctx, id)
	recordTransition(s.opts.metrics, "cancel_event", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("event cancelled", "event_id", event.ID, "code", event.Code)
	return event, nil
}

func (s *EventService) cancel(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, models.WrapPersistence("find event", err)
	}
	if event == nil {
		return nil, models.ErrEventNotFound
	}
	if !event.Status.CanTransitionTo(models.EventCancelled) {
		return nil, models.ErrEventNotActive
	}

	cancelled := *event
	cancelled.Status = models.EventCancelled
	cancelled.UpdatedAt = s.clock.Now()

	err = s.events.UpdateIfStatus(ctx, &cancelled, models.EventActive)
	switch {
	case err == nil:
		return &cancelled, nil
	case errors.Is(err, models.ErrStatusConflict):
		return nil, models.ErrEventNotActive
	case errors.Is(err, models.ErrRecordNotFound):
		return nil, models.ErrEventNotFound
	default:
		return nil, models.WrapPersistence("update event", err)
	}
}

// Availability reports how many places of an event are taken. Unlike the
// reservation check, USED tickets count as occupied here.
func (s *EventService) Availability(ctx context.Context, id string) (*models.EventAvailability, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, models.WrapPersistence("find event", err)
	}
	if event == nil {
		return nil, models.ErrEventNotFound
	}

	tickets, err := s.tickets.FindByEventID(ctx, id)
	if err != nil {
		return nil, models.WrapPersistence("find event tickets", err)
	}

	occupied := sumPlaces(tickets, (*models.Ticket).OccupiesPlace)
	return &models.EventAvailability{
		EventID:   event.ID,
		Capacity:  event.TotalCapacity,
		Occupied:  occupied,
		Available: max(event.TotalCapacity-occupied, 0),
	}, nil
}
