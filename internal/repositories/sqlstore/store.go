// Package sqlstore implements the repositories on database/sql. PostgreSQL
// and SQLite share the queries; placeholders are rebound per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"event-ticketing-manager/internal/database"
	"event-ticketing-manager/internal/models"
)

// Store groups the SQL repositories sharing one connection pool.
type Store struct {
	db      *sql.DB
	dialect database.Dialect
	enums   *enums
}

// New creates a store over db. It fails when an enum mapping is incomplete.
func New(db *sql.DB, dialect database.Dialect) (*Store, error) {
	e, err := newEnums()
	if err != nil {
		return nil, fmt.Errorf("invalid enum mapping: %w", err)
	}
	return &Store{db: db, dialect: dialect, enums: e}, nil
}

// VerifyLookupTables checks that the lookup tables in the database hold
// exactly the enum ids the store writes.
func (s *Store) VerifyLookupTables(ctx context.Context) error {
	return s.enums.verify(ctx, s.db)
}

func (s *Store) Events() *EventRepository   { return &EventRepository{s} }
func (s *Store) Users() *UserRepository     { return &UserRepository{s} }
func (s *Store) Tickets() *TicketRepository { return &TicketRepository{s} }

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

// updateResult turns the outcome of a guarded UPDATE into the repository
// contract. When nothing matched it looks the row up to tell a missing
// record from a changed status.
func (s *Store) updateResult(ctx context.Context, res sql.Result, table, id string, guarded bool) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if !guarded {
		return models.ErrRecordNotFound
	}

	var exists int
	err = s.db.QueryRowContext(ctx, s.dialect.Rebind("SELECT 1 FROM "+table+" WHERE id = ?"), id).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.ErrRecordNotFound
	case err != nil:
		return fmt.Errorf("failed to check %s %s: %w", table, id, err)
	default:
		return models.ErrStatusConflict
	}
}

// insertFailed wraps an INSERT error. A unique violation on a code column
// is reported as models.ErrDuplicateCode.
func insertFailed(entity string, err error) error {
	if isCodeConflict(err) {
		return fmt.Errorf("failed to create %s: %w", entity, models.ErrDuplicateCode)
	}
	return fmt.Errorf("failed to create %s: %w", entity, err)
}

func isCodeConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.HasSuffix(pqErr.Constraint, "_code_key")
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique && strings.HasSuffix(liteErr.Error(), ".code")
	}
	return false
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

type scanner interface {
	Scan(dest ...any) error
}

// collect reads every row with scan.
func collect[T any](rows *sql.Rows, scan func(scanner) (*T, error)) ([]*T, error) {
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}

// first returns the single row of rows or nil.
func first[T any](rows *sql.Rows, scan func(scanner) (*T, error)) (*T, error) {
	items, err := collect(rows, scan)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}
