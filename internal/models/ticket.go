package models

import (
	"time"
)

// TicketStatus represents the status of a ticket
type TicketStatus string

const (
	TicketNew       TicketStatus = "NEW"
	TicketActive    TicketStatus = "ACTIVE"
	TicketUsed      TicketStatus = "USED"
	TicketCancelled TicketStatus = "CANCELLED"
)

// TicketStatuses lists every ticket status.
var TicketStatuses = []TicketStatus{TicketNew, TicketActive, TicketUsed, TicketCancelled}

// ticketTransitions is the complete ticket state machine.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketNew:    {TicketActive, TicketCancelled},
	TicketActive: {TicketUsed, TicketCancelled},
}

// Ticket is a reservation for a number of places at one event.
type Ticket struct {
	ID         string       `json:"id" db:"id"`
	Code       string       `json:"code" db:"code"`
	EventID    string       `json:"event_id" db:"event_id"`
	UserID     string       `json:"user_id" db:"user_id"`
	Quantity   int          `json:"quantity" db:"quantity"`
	Status     TicketStatus `json:"status" db:"status"`
	ReservedAt time.Time    `json:"reserved_at" db:"reserved_at"`
	PaidAt     *time.Time   `json:"paid_at,omitempty" db:"paid_at"`
	UsedAt     *time.Time   `json:"used_at,omitempty" db:"used_at"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// TicketReserveRequest represents a request to reserve places at an event.
// Quantity is checked by the ticket service so that its rejection keeps its
// place in the precondition order.
type TicketReserveRequest struct {
	EventID  string `json:"event_id" validate:"notblank"`
	UserID   string `json:"user_id" validate:"notblank"`
	Quantity int    `json:"quantity"`
}

// Validate validates the reservation request identifiers
func (req *TicketReserveRequest) Validate() error {
	return validateStruct(req)
}

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	_, ok := ticketTransitions[s]
	return ok || s == TicketUsed || s == TicketCancelled
}

// CanTransitionTo reports whether a ticket may move from s to next.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsReservation reports whether the ticket counts against capacity when
// a new reservation is admitted.
func (t *Ticket) HoldsReservation() bool {
	return t.Status == TicketNew || t.Status == TicketActive
}

// OccupiesPlace reports whether the ticket counts as occupied in the
// availability view. Unlike HoldsReservation it includes used tickets.
func (t *Ticket) OccupiesPlace() bool {
	return t.HoldsReservation() || t.Status == TicketUsed
}

// ReservationExpired reports whether an unpaid reservation outlived ttl.
func (t *Ticket) ReservationExpired(now time.Time, ttl time.Duration) bool {
	return t.Status == TicketNew && now.After(t.ReservedAt.Add(ttl))
}
