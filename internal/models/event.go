package models

import (
	"time"
)

// EventStatus represents the status of an event
type EventStatus string

const (
	EventActive    EventStatus = "ACTIVE"
	EventCancelled EventStatus = "CANCELLED"
	EventFinalized EventStatus = "FINALIZED"
)

// EventStatuses lists every event status.
var EventStatuses = []EventStatus{EventActive, EventCancelled, EventFinalized}

// Event is a scheduled happening with a fixed number of places.
type Event struct {
	ID            string      `json:"id" db:"id"`
	Code          string      `json:"code" db:"code"`
	Name          string      `json:"name" db:"name"`
	StartTime     time.Time   `json:"start_time" db:"start_time"`
	TotalCapacity int         `json:"total_capacity" db:"total_capacity"`
	Status        EventStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// EventCreateRequest represents the data needed to create a new event
type EventCreateRequest struct {
	Name          string    `json:"name" validate:"notblank,max=200"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	TotalCapacity int       `json:"total_capacity" validate:"gt=0"`
}

// EventAvailability is the occupancy view of an event as shown to users.
type EventAvailability struct {
	EventID   string `json:"event_id"`
	Capacity  int    `json:"capacity"`
	Occupied  int    `json:"occupied"`
	Available int    `json:"available"`
}

// Validate validates the event creation data
func (req *EventCreateRequest) Validate() error {
	return validateStruct(req)
}

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventActive, EventCancelled, EventFinalized:
		return true
	}
	return false
}

// CanTransitionTo reports whether an event may move from s to next.
// ACTIVE is the only status with outgoing transitions.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	return s == EventActive && (next == EventCancelled || next == EventFinalized)
}

// IsActive checks if the event accepts reservations and payments.
func (e *Event) IsActive() bool {
	return e.Status == EventActive
}

// HasStarted reports whether the event start is strictly before now.
func (e *Event) HasStarted(now time.Time) bool {
	return e.StartTime.Before(now)
}

// CertificationOpensAt returns the instant, lead before the start, from
// which tickets may be validated and after which reservations close.
func (e *Event) CertificationOpensAt(lead time.Duration) time.Time {
	return e.StartTime.Add(-lead)
}

// EndsAt returns the assumed end of the event.
func (e *Event) EndsAt(duration time.Duration) time.Time {
	return e.StartTime.Add(duration)
}
