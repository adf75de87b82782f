package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"event-ticketing-manager/internal/clock"
	"event-ticketing-manager/internal/models"
)

// SweepResult counts the transitions applied by one sweep.
type SweepResult struct {
	ReservationsExpired int `json:"reservations_expired"`
	EventsCancelledOut  int `json:"events_cancelled_out"`
	EventsFinalized     int `json:"events_finalized"`
	// Failed counts records whose update hit a persistence failure and were
	// left for the next run.
	Failed int `json:"failed"`
}

// Total returns the number of records the sweep moved.
func (r SweepResult) Total() int {
	return r.ReservationsExpired + r.EventsCancelledOut + r.EventsFinalized
}

// SweepService drives tickets and events toward their terminal states:
// unpaid reservations expire, open tickets of past events are cancelled and
// finished events are finalized.
type SweepService struct {
	tickets TicketRepository
	events  EventRepository
	clock   clock.Clock
	opts    serviceOptions
	logger  *slog.Logger
}

// NewSweepService creates a new reconciliation sweep
func NewSweepService(tickets TicketRepository, events EventRepository, clk clock.Clock, opts ...Option) *SweepService {
	o := newServiceOptions(opts)
	return &SweepService{
		tickets: tickets,
		events:  events,
		clock:   clk,
		opts:    o,
		logger:  o.logger.With("component", "sweep"),
	}
}

// Run performs one sweep. Only failures to read the stores abort it; a
// failed update of one record is logged and counted and the sweep moves on.
func (s *SweepService) Run(ctx context.Context) (SweepResult, error) {
	started := time.Now()
	now := s.clock.Now()
	var result SweepResult

	tickets, err := s.tickets.FindAll(ctx)
	if err != nil {
		return result, models.WrapPersistence("list tickets", err)
	}
	events, err := s.events.FindAll(ctx)
	if err != nil {
		return result, models.WrapPersistence("list events", err)
	}

	byID := make(map[string]*models.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	for _, t := range tickets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !t.Status.CanTransitionTo(models.TicketCancelled) {
			continue
		}
		event, ok := byID[t.EventID]
		if !ok {
			s.logger.Warn("ticket references missing event", "ticket_id", t.ID, "event_id", t.EventID)
			continue
		}

		switch {
		case t.ReservationExpired(now, s.opts.policy.ReservationTTL):
			if s.cancelTicket(ctx, t, now, "reservation_expired", &result.Failed) {
				result.ReservationsExpired++
			}
		case event.HasStarted(now):
			if s.cancelTicket(ctx, t, now, "event_over", &result.Failed) {
				result.EventsCancelledOut++
			}
		}
	}

	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !e.Status.CanTransitionTo(models.EventFinalized) || !now.After(e.EndsAt(s.opts.policy.EventDuration)) {
			continue
		}
		if s.finalizeEvent(ctx, e, now, &result.Failed) {
			result.EventsFinalized++
		}
	}

	s.opts.metrics.ObserveSweep(result, time.Since(started))
	s.logger.Info("sweep completed",
		"reservations_expired", result.ReservationsExpired,
		"events_cancelled_out", result.EventsCancelledOut,
		"events_finalized", result.EventsFinalized,
		"failed", result.Failed,
		"duration", time.Since(started))
	return result, nil
}

func (s *SweepService) cancelTicket(ctx context.Context, t *models.Ticket, now time.Time, reason string, failed *int) bool {
	cancelled := *t
	cancelled.Status = models.TicketCancelled
	cancelled.UpdatedAt = now

	err := s.tickets.UpdateIfStatus(ctx, &cancelled, t.Status)
	return s.applied(err, failed, "ticket", t.ID, reason)
}

func (s *SweepService) finalizeEvent(ctx context.Context, e *models.Event, now time.Time, failed *int) bool {
	finalized := *e
	finalized.Status = models.EventFinalized
	finalized.UpdatedAt = now

	err := s.events.UpdateIfStatus(ctx, &finalized, models.EventActive)
	return s.applied(err, failed, "event", e.ID, "event_finished")
}

// applied reports whether an update went through. Records changed or
// removed since they were read are skipped without counting a failure.
func (s *SweepService) applied(err error, failed *int, kind, id, reason string) bool {
	switch {
	case err == nil:
		s.logger.Debug("sweep transition applied", "kind", kind, "id", id, "reason", reason)
		return true
	case errors.Is(err, models.ErrStatusConflict), errors.Is(err, models.ErrRecordNotFound):
		s.logger.Debug("sweep transition skipped", "kind", kind, "id", id, "reason", reason, "error", err)
		return false
	default:
		*failed++
		s.logger.Error("sweep transition failed", "kind", kind, "id", id, "reason", reason, "error", err)
		return false
	}
}
