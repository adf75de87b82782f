package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"event-ticketing-manager/internal/models"
)

const ticketColumns = `id, code, event_id, user_id, quantity, status_id, reserved_at, paid_at, used_at, created_at, updated_at`

// TicketRepository handles ticket data operations
type TicketRepository struct {
	s *Store
}

func (r *TicketRepository) scan(row scanner) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	var statusID int
	var paidAt, usedAt sql.NullTime
	err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.EventID,
		&ticket.UserID,
		&ticket.Quantity,
		&statusID,
		&ticket.ReservedAt,
		&paidAt,
		&usedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}

	if ticket.Status, err = r.s.enums.ticketStatus.Value(statusID); err != nil {
		return nil, err
	}
	ticket.ReservedAt = utc(ticket.ReservedAt)
	ticket.PaidAt = timePtr(paidAt)
	ticket.UsedAt = timePtr(usedAt)
	ticket.CreatedAt = utc(ticket.CreatedAt)
	ticket.UpdatedAt = utc(ticket.UpdatedAt)
	return ticket, nil
}

func (r *TicketRepository) findOne(ctx context.Context, where string, arg any) (*models.Ticket, error) {
	rows, err := r.s.query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return first(rows, r.scan)
}

func (r *TicketRepository) findMany(ctx context.Context, where string, args ...any) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return collect(rows, r.scan)
}

// FindByID retrieves a ticket by ID
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	return r.findOne(ctx, `id = ?`, id)
}

// FindByCode retrieves a ticket by its code
func (r *TicketRepository) FindByCode(ctx context.Context, code string) (*models.Ticket, error) {
	return r.findOne(ctx, `code = ?`, code)
}

// FindAll retrieves every ticket
func (r *TicketRepository) FindAll(ctx context.Context) ([]*models.Ticket, error) {
	return r.findMany(ctx, "")
}

// FindByEventID retrieves the tickets of an event
func (r *TicketRepository) FindByEventID(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	return r.findMany(ctx, `event_id = ?`, eventID)
}

// FindByUserID retrieves the tickets of a user
func (r *TicketRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Ticket, error) {
	return r.findMany(ctx, `user_id = ?`, userID)
}

// Insert stores a new ticket
func (r *TicketRepository) Insert(ctx context.Context, ticket *models.Ticket) error {
	statusID, err := r.s.enums.ticketStatus.ID(ticket.Status)
	if err != nil {
		return err
	}

	_, err = r.s.exec(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.ID,
		ticket.Code,
		ticket.EventID,
		ticket.UserID,
		ticket.Quantity,
		statusID,
		utc(ticket.ReservedAt),
		nullTime(ticket.PaidAt),
		nullTime(ticket.UsedAt),
		utc(ticket.CreatedAt),
		utc(ticket.UpdatedAt),
	)
	if err != nil {
		return insertFailed("ticket", err)
	}
	return nil
}

// Update replaces the stored ticket
func (r *TicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	return r.update(ctx, ticket, nil)
}

// UpdateIfStatus replaces the stored ticket while its status is expected
func (r *TicketRepository) UpdateIfStatus(ctx context.Context, ticket *models.Ticket, expected models.TicketStatus) error {
	return r.update(ctx, ticket, &expected)
}

func (r *TicketRepository) update(ctx context.Context, ticket *models.Ticket, expected *models.TicketStatus) error {
	statusID, err := r.s.enums.ticketStatus.ID(ticket.Status)
	if err != nil {
		return err
	}

	// event_id and user_id never change after creation.
	query := `
		UPDATE tickets
		SET code = ?, quantity = ?, status_id = ?, reserved_at = ?, paid_at = ?, used_at = ?, updated_at = ?
		WHERE id = ?`
	args := []any{
		ticket.Code,
		ticket.Quantity,
		statusID,
		utc(ticket.ReservedAt),
		nullTime(ticket.PaidAt),
		nullTime(ticket.UsedAt),
		utc(ticket.UpdatedAt),
		ticket.ID,
	}
	if expected != nil {
		expectedID, err := r.s.enums.ticketStatus.ID(*expected)
		if err != nil {
			return err
		}
		query += ` AND status_id = ?`
		args = append(args, expectedID)
	}

	res, err := r.s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	return r.s.updateResult(ctx, res, "tickets", ticket.ID, expected != nil)
}
