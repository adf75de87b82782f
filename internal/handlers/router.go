package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"event-ticketing-manager/internal/middleware"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	Events  *EventHandler
	Users   *UserHandler
	Tickets *TicketHandler
	Auth    *middleware.AuthMiddleware
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter mounts the JSON API, /health and /metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Auth.LoadUser)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", cfg.Events.ListEvents)
			r.With(middleware.RequireAdmin).Post("/", cfg.Events.CreateEvent)
			r.Get("/{id}", cfg.Events.GetEvent)
			r.Get("/{id}/availability", cfg.Events.Availability)
			r.Get("/{id}/tickets", cfg.Events.EventTickets)
			r.With(middleware.RequireAdmin).Post("/{id}/cancel", cfg.Events.CancelEvent)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.Users.ListUsers)
			r.Post("/", cfg.Users.CreateUser)
			r.Get("/{id}", cfg.Users.GetUser)
			r.With(middleware.RequireAdmin).Delete("/{id}", cfg.Users.DeleteUser)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", cfg.Tickets.ListTickets)
			r.Post("/reserve", cfg.Tickets.Reserve)
			r.Get("/code/{code}", cfg.Tickets.GetTicketByCode)
			r.Get("/{id}", cfg.Tickets.GetTicket)
			r.Post("/{id}/pay", cfg.Tickets.Pay)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/validate/{code}", cfg.Tickets.Validate)
				r.Post("/sweep", cfg.Tickets.Sweep)
			})
		})
	})

	return r
}
