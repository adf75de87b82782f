package sqlstore

import (
	"context"
	"fmt"

	"event-ticketing-manager/internal/models"
)

const eventColumns = `id, code, name, start_time, total_capacity, status_id, created_at, updated_at`

// EventRepository handles event data operations
type EventRepository struct {
	s *Store
}

func (r *EventRepository) scan(row scanner) (*models.Event, error) {
	event := &models.Event{}
	var statusID int
	err := row.Scan(
		&event.ID,
		&event.Code,
		&event.Name,
		&event.StartTime,
		&event.TotalCapacity,
		&statusID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	if event.Status, err = r.s.enums.eventStatus.Value(statusID); err != nil {
		return nil, err
	}
	event.StartTime = utc(event.StartTime)
	event.CreatedAt = utc(event.CreatedAt)
	event.UpdatedAt = utc(event.UpdatedAt)
	return event, nil
}

// FindByID retrieves an event by ID
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	rows, err := r.s.query(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return first(rows, r.scan)
}

// FindAll retrieves every event
func (r *EventRepository) FindAll(ctx context.Context) ([]*models.Event, error) {
	rows, err := r.s.query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return collect(rows, r.scan)
}

// Insert stores a new event
func (r *EventRepository) Insert(ctx context.Context, event *models.Event) error {
	statusID, err := r.s.enums.eventStatus.ID(event.Status)
	if err != nil {
		return err
	}

	_, err = r.s.exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Code,
		event.Name,
		utc(event.StartTime),
		event.TotalCapacity,
		statusID,
		utc(event.CreatedAt),
		utc(event.UpdatedAt),
	)
	if err != nil {
		return insertFailed("event", err)
	}
	return nil
}

// Update replaces the stored event
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.update(ctx, event, nil)
}

// UpdateIfStatus replaces the stored event while its status is expected
func (r *EventRepository) UpdateIfStatus(ctx context.Context, event *models.Event, expected models.EventStatus) error {
	return r.update(ctx, event, &expected)
}

func (r *EventRepository) update(ctx context.Context, event *models.Event, expected *models.EventStatus) error {
	statusID, err := r.s.enums.eventStatus.ID(event.Status)
	if err != nil {
		return err
	}

	query := `
		UPDATE events
		SET code = ?, name = ?, start_time = ?, total_capacity = ?, status_id = ?, updated_at = ?
		WHERE id = ?`
	args := []any{
		event.Code,
		event.Name,
		utc(event.StartTime),
		event.TotalCapacity,
		statusID,
		utc(event.UpdatedAt),
		event.ID,
	}
	if expected != nil {
		expectedID, err := r.s.enums.eventStatus.ID(*expected)
		if err != nil {
			return err
		}
		query += ` AND status_id = ?`
		args = append(args, expectedID)
	}

	res, err := r.s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return r.s.updateResult(ctx, res, "events", event.ID, expected != nil)
}
