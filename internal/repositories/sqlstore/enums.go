package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"event-ticketing-manager/internal/models"
)

// enumMapping translates one enumeration between its semantic value and the
// small integer key of its lookup table. A mapping is total: every variant
// has exactly one id.
type enumMapping[T ~string] struct {
	table  string
	toID   map[T]int
	fromID map[int]T
}

func newEnumMapping[T ~string](table string, variants []T, ids map[T]int) (*enumMapping[T], error) {
	m := &enumMapping[T]{
		table:  table,
		toID:   make(map[T]int, len(ids)),
		fromID: make(map[int]T, len(ids)),
	}

	for _, v := range variants {
		id, ok := ids[v]
		if !ok {
			return nil, fmt.Errorf("%s: no id for %q: %w", table, v, models.ErrInvalidEnumValue)
		}
		if prev, dup := m.fromID[id]; dup {
			return nil, fmt.Errorf("%s: id %d used by both %q and %q: %w", table, id, prev, v, models.ErrInvalidEnumValue)
		}
		m.toID[v] = id
		m.fromID[id] = v
	}
	if len(ids) != len(variants) {
		return nil, fmt.Errorf("%s: mapping has %d entries for %d variants: %w", table, len(ids), len(variants), models.ErrInvalidEnumValue)
	}
	return m, nil
}

// ID returns the lookup key of v. Unknown values are a programming error
// and fail with models.ErrInvalidEnumValue.
func (m *enumMapping[T]) ID(v T) (int, error) {
	id, ok := m.toID[v]
	if !ok {
		return 0, fmt.Errorf("%s: unknown value %q: %w", m.table, v, models.ErrInvalidEnumValue)
	}
	return id, nil
}

// Value returns the variant stored under id.
func (m *enumMapping[T]) Value(id int) (T, error) {
	v, ok := m.fromID[id]
	if !ok {
		return "", fmt.Errorf("%s: unknown id %d: %w", m.table, id, models.ErrInvalidEnumValue)
	}
	return v, nil
}

// verify checks that the lookup table holds exactly the mapped rows.
func (m *enumMapping[T]) verify(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "SELECT id, name FROM "+m.table)
	if err != nil {
		return fmt.Errorf("failed to read lookup table %s: %w", m.table, err)
	}
	defer rows.Close()

	seen := 0
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("failed to scan lookup table %s: %w", m.table, err)
		}
		v, ok := m.fromID[id]
		if !ok || string(v) != name {
			return fmt.Errorf("%s: row (%d, %q) does not match the mapping: %w", m.table, id, name, models.ErrInvalidEnumValue)
		}
		seen++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read lookup table %s: %w", m.table, err)
	}
	if seen != len(m.fromID) {
		return fmt.Errorf("%s: table has %d rows, mapping has %d: %w", m.table, seen, len(m.fromID), models.ErrInvalidEnumValue)
	}
	return nil
}

// enums holds the mapping of every enumeration stored by the SQL backend.
type enums struct {
	eventStatus  *enumMapping[models.EventStatus]
	userStatus   *enumMapping[models.UserStatus]
	userRole     *enumMapping[models.UserRole]
	ticketStatus *enumMapping[models.TicketStatus]
}

func newEnums() (*enums, error) {
	eventStatus, err := newEnumMapping("event_statuses", models.EventStatuses, map[models.EventStatus]int{
		models.EventActive:    1,
		models.EventCancelled: 2,
		models.EventFinalized: 3,
	})
	if err != nil {
		return nil, err
	}

	userStatus, err := newEnumMapping("user_statuses", models.UserStatuses, map[models.UserStatus]int{
		models.UserActive:  1,
		models.UserDeleted: 2,
	})
	if err != nil {
		return nil, err
	}

	userRole, err := newEnumMapping("user_roles", models.UserRoles, map[models.UserRole]int{
		models.UserRoleNormal: 1,
		models.UserRoleAdmin:  2,
	})
	if err != nil {
		return nil, err
	}

	ticketStatus, err := newEnumMapping("ticket_statuses", models.TicketStatuses, map[models.TicketStatus]int{
		models.TicketNew:       1,
		models.TicketActive:    2,
		models.TicketUsed:      3,
		models.TicketCancelled: 4,
	})
	if err != nil {
		return nil, err
	}

	return &enums{
		eventStatus:  eventStatus,
		userStatus:   userStatus,
		userRole:     userRole,
		ticketStatus: ticketStatus,
	}, nil
}

func (e *enums) verify(ctx context.Context, db *sql.DB) error {
	if err := e.eventStatus.verify(ctx, db); err != nil {
		return err
	}
	if err := e.userStatus.verify(ctx, db); err != nil {
		return err
	}
	if err := e.userRole.verify(ctx, db); err != nil {
		return err
	}
	return e.ticketStatus.verify(ctx, db)
}
