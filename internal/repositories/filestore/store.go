// Package filestore implements the repositories on flat JSON files, one
// file per entity.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"event-ticketing-manager/internal/models"
)

const (
	EventsFile  = "events.json"
	UsersFile   = "users.json"
	TicketsFile = "tickets.json"
)

// Store owns the three JSON collections under one directory. A directory
// must be opened by a single Store at a time.
type Store struct {
	events  *collection[models.Event]
	users   *collection[models.User]
	tickets *collection[models.Ticket]
}

// Open loads the collections under dir, creating dir when missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	events, err := openCollection(filepath.Join(dir, EventsFile), func(e *models.Event) string { return e.ID },
		func(e *models.Event) string { return e.Code })
	if err != nil {
		return nil, err
	}
	users, err := openCollection(filepath.Join(dir, UsersFile), func(u *models.User) string { return u.ID },
		func(u *models.User) string { return u.Code })
	if err != nil {
		return nil, err
	}
	tickets, err := openCollection(filepath.Join(dir, TicketsFile), func(t *models.Ticket) string { return t.ID },
		func(t *models.Ticket) string { return t.Code })
	if err != nil {
		return nil, err
	}

	return &Store{events: events, users: users, tickets: tickets}, nil
}

func (s *Store) Events() *EventRepository   { return &EventRepository{c: s.events} }
func (s *Store) Users() *UserRepository     { return &UserRepository{c: s.users} }
func (s *Store) Tickets() *TicketRepository { return &TicketRepository{c: s.tickets} }

// EventRepository handles event data operations
type EventRepository struct {
	c *collection[models.Event]
}

func (r *EventRepository) FindByID(_ context.Context, id string) (*models.Event, error) {
	return r.c.find(func(e *models.Event) bool { return e.ID == id }), nil
}

func (r *EventRepository) FindAll(_ context.Context) ([]*models.Event, error) {
	return r.c.filter(func(*models.Event) bool { return true }), nil
}

func (r *EventRepository) Insert(_ context.Context, event *models.Event) error {
	if !event.Status.Valid() {
		return fmt.Errorf("event status %q: %w", event.Status, models.ErrInvalidEnumValue)
	}
	return r.c.insert(event)
}

func (r *EventRepository) Update(_ context.Context, event *models.Event) error {
	if !event.Status.Valid() {
		return fmt.Errorf("event status %q: %w", event.Status, models.ErrInvalidEnumValue)
	}
	return r.c.replace(event, nil)
}

func (r *EventRepository) UpdateIfStatus(_ context.Context, event *models.Event, expected models.EventStatus) error {
	if !event.Status.Valid() {
		return fmt.Errorf("event status %q: %w", event.Status, models.ErrInvalidEnumValue)
	}
	return r.c.replace(event, func(current *models.Event) error {
		if current.Status != expected {
			return models.ErrStatusConflict
		}
		return nil
	})
}

// UserRepository handles user data operations
type UserRepository struct {
	c *collection[models.User]
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	return r.c.find(func(u *models.User) bool { return u.ID == id }), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) ([]*models.User, error) {
	return r.c.filter(func(u *models.User) bool { return u.Email == email }), nil
}

func (r *UserRepository) FindAll(_ context.Context) ([]*models.User, error) {
	return r.c.filter(func(*models.User) bool { return true }), nil
}

func (r *UserRepository) Insert(_ context.Context, user *models.User) error {
	if err := validUser(user); err != nil {
		return err
	}
	return r.c.insert(user)
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	if err := validUser(user); err != nil {
		return err
	}
	return r.c.replace(user, nil)
}

func (r *UserRepository) UpdateIfStatus(_ context.Context, user *models.User, expected models.UserStatus) error {
	if err := validUser(user); err != nil {
		return err
	}
	return r.c.replace(user, func(current *models.User) error {
		if current.Status != expected {
			return models.ErrStatusConflict
		}
		return nil
	})
}

func validUser(u *models.User) error {
	if !u.Role.Valid() {
		return fmt.Errorf("user role %q: %w", u.Role, models.ErrInvalidEnumValue)
	}
	if !u.Status.Valid() {
		return fmt.Errorf("user status %q: %w", u.Status, models.ErrInvalidEnumValue)
	}
	return nil
}

// TicketRepository handles ticket data operations
type TicketRepository struct {
	c *collection[models.Ticket]
}

func (r *TicketRepository) FindByID(_ context.Context, id string) (*models.Ticket, error) {
	return r.c.find(func(t *models.Ticket) bool { return t.ID == id }), nil
}

func (r *TicketRepository) FindByCode(_ context.Context, code string) (*models.Ticket, error) {
	return r.c.find(func(t *models.Ticket) bool { return t.Code == code }), nil
}

func (r *TicketRepository) FindAll(_ context.Context) ([]*models.Ticket, error) {
	return r.c.filter(func(*models.Ticket) bool { return true }), nil
}

func (r *TicketRepository) FindByEventID(_ context.Context, eventID string) ([]*models.Ticket, error) {
	return r.c.filter(func(t *models.Ticket) bool { return t.EventID == eventID }), nil
}

func (r *TicketRepository) FindByUserID(_ context.Context, userID string) ([]*models.Ticket, error) {
	return r.c.filter(func(t *models.Ticket) bool { return t.UserID == userID }), nil
}

func (r *TicketRepository) Insert(_ context.Context, ticket *models.Ticket) error {
	if !ticket.Status.Valid() {
		return fmt.Errorf("ticket status %q: %w", ticket.Status, models.ErrInvalidEnumValue)
	}
	return r.c.insert(ticket)
}

func (r *TicketRepository) Update(_ context.Context, ticket *models.Ticket) error {
	if !ticket.Status.Valid() {
		return fmt.Errorf("ticket status %q: %w", ticket.Status, models.ErrInvalidEnumValue)
	}
	return r.c.replace(ticket, nil)
}

func (r *TicketRepository) UpdateIfStatus(_ context.Context, ticket *models.Ticket, expected models.TicketStatus) error {
	if !ticket.Status.Valid() {
		return fmt.Errorf("ticket status %q: %w", ticket.Status, models.ErrInvalidEnumValue)
	}
	return r.c.replace(ticket, func(current *models.Ticket) error {
		if current.Status != expected {
			return models.ErrStatusConflict
		}
		return nil
	})
}
