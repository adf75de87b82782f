package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"event-ticketing-manager/internal/models"
	"event-ticketing-manager/internal/services"
)

// EventHandler handles event endpoints
type EventHandler struct {
	eventService  services.EventServiceInterface
	ticketService services.TicketServiceInterface
	logger        *slog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService services.EventServiceInterface, ticketService services.TicketServiceInterface, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		eventService:  eventService,
		ticketService: ticketService,
		logger:        logger,
	}
}

// CreateEvent publishes a new event
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents returns every event
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent returns one event
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventService.GetEvent(r.Context(), chi.URLParam(r, "id"))
	writeFound(w, r, h.logger, event, err, models.ErrEventNotFound)
}

// Availability returns the occupancy of an event
func (h *EventHandler) Availability(w http.ResponseWriter, r *http.Request) {
	avail, err := h.eventService.Availability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

// CancelEvent cancels an active event
func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventService.CancelEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// EventTickets lists the tickets issued for an event
func (h *EventHandler) EventTickets(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event, err := h.eventService.GetEvent(r.Context(), id)
	if err != nil || event == nil {
		writeFound(w, r, h.logger, event, err, models.ErrEventNotFound)
		return
	}

	tickets, err := h.ticketService.ListByEvent(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}
