package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"event-ticketing-manager/internal/middleware"
	"event-ticketing-manager/internal/models"
	"event-ticketing-manager/internal/services"
)

// TicketHandler handles ticket lifecycle endpoints
type TicketHandler struct {
	ticketService services.TicketServiceInterface
	sweepService  services.SweepServiceInterface
	logger        *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketService services.TicketServiceInterface, sweepService services.SweepServiceInterface, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		sweepService:  sweepService,
		logger:        logger,
	}
}

// Reserve holds places for a user. Without user_id the reservation is made
// for the caller.
func (h *TicketHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req models.TicketReserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.UserID == "" {
		if caller := middleware.GetUserFromContext(r.Context()); caller != nil {
			req.UserID = caller.ID
		}
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ticket, err := h.ticketService.Reserve(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// Pay confirms payment of a reserved ticket
func (h *TicketHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.ticketService.Pay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// Validate redeems a paid ticket at the door
func (h *TicketHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.ticketService.Validate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// Sweep runs the reconciliation sweep on demand
func (h *TicketHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweepService.Run(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListTickets returns every ticket, or the tickets of one user with
// ?user_id=.
func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	var (
		tickets []*models.Ticket
		err     error
	)
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		tickets, err = h.ticketService.ListByUser(r.Context(), userID)
	} else {
		tickets, err = h.ticketService.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.ticketService.GetByID(r.Context(), chi.URLParam(r, "id"))
	writeFound(w, r, h.logger, ticket, err, models.ErrTicketNotFound)
}

func (h *TicketHandler) GetTicketByCode(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.ticketService.GetByCode(r.Context(), chi.URLParam(r, "code"))
	writeFound(w, r, h.logger, ticket, err, models.ErrTicketNotFound)
}
