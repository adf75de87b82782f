package services

import (
	"context"
	"time"

	"event-ticketing-manager/internal/models"
)

// Repository contract shared by every store:
//   - Find* methods return (nil, nil) when nothing matches.
//   - Update replaces the whole record and fails with models.ErrRecordNotFound
//     when no record has the id.
//   - UpdateIfStatus behaves like Update but only applies while the stored
//     record still has the expected status; otherwise it fails with
//     models.ErrStatusConflict.

// EventRepository interface for event data operations
type EventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindAll(ctx context.Context) ([]*models.Event, error)
	Insert(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	UpdateIfStatus(ctx context.Context, event *models.Event, expected models.EventStatus) error
}

// UserRepository interface for user data operations
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindByEmail returns every user, deleted ones included, registered
	// with the email.
	FindByEmail(ctx context.Context, email string) ([]*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateIfStatus(ctx context.Context, user *models.User, expected models.UserStatus) error
}

// TicketRepository interface for ticket data operations
type TicketRepository interface {
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
	FindByCode(ctx context.Context, code string) (*models.Ticket, error)
	FindAll(ctx context.Context) ([]*models.Ticket, error)
	FindByEventID(ctx context.Context, eventID string) ([]*models.Ticket, error)
	FindByUserID(ctx context.Context, userID string) ([]*models.Ticket, error)
	Insert(ctx context.Context, ticket *models.Ticket) error
	Update(ctx context.Context, ticket *models.Ticket) error
	UpdateIfStatus(ctx context.Context, ticket *models.Ticket, expected models.TicketStatus) error
}

// Locker serializes work on a key. The returned unlock func must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MetricsRecorder receives lifecycle outcomes. Outcome is "ok" or the
// error code of the failure.
type MetricsRecorder interface {
	ObserveReservation(outcome string, quantity int)
	ObserveTransition(operation, outcome string)
	ObserveSweep(result SweepResult, duration time.Duration)
	ObserveLockWait(duration time.Duration)
}

// EventServiceInterface defines the interface for event services
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, req *models.EventCreateRequest) (*models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	CancelEvent(ctx context.Context, id string) (*models.Event, error)
	Availability(ctx context.Context, id string) (*models.EventAvailability, error)
}

// TicketServiceInterface defines the interface for ticket services
type TicketServiceInterface interface {
	Reserve(ctx context.Context, req *models.TicketReserveRequest) (*models.Ticket, error)
	Pay(ctx context.Context, ticketID string) (*models.Ticket, error)
	Validate(ctx context.Context, code string) (*models.Ticket, error)
	ListAll(ctx context.Context) ([]*models.Ticket, error)
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	GetByCode(ctx context.Context, code string) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error)
}

// UserServiceInterface defines the interface for user services
type UserServiceInterface interface {
	CreateUser(ctx context.Context, req *models.UserCreateRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) (*models.User, error)
}

// SweepServiceInterface defines the interface for the reconciliation sweep
type SweepServiceInterface interface {
	Run(ctx context.Context) (SweepResult, error)
}
