package sqlstore

import (
	"context"
	"fmt"

	"event-ticketing-manager/internal/models"
)

const userColumns = `id, code, name, surname, birth_date, email, role_id, status_id, created_at, updated_at`

// UserRepository handles user data operations
type UserRepository struct {
	s *Store
}

func (r *UserRepository) scan(row scanner) (*models.User, error) {
	user := &models.User{}
	var roleID, statusID int
	err := row.Scan(
		&user.ID,
		&user.Code,
		&user.Name,
		&user.Surname,
		&user.BirthDate,
		&user.Email,
		&roleID,
		&statusID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if user.Role, err = r.s.enums.userRole.Value(roleID); err != nil {
		return nil, err
	}
	if user.Status, err = r.s.enums.userStatus.Value(statusID); err != nil {
		return nil, err
	}
	user.BirthDate = utc(user.BirthDate)
	user.CreatedAt = utc(user.CreatedAt)
	user.UpdatedAt = utc(user.UpdatedAt)
	return user, nil
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	rows, err := r.s.query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return first(rows, r.scan)
}

// FindByEmail retrieves every user registered with the email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) ([]*models.User, error) {
	rows, err := r.s.query(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? ORDER BY created_at, id`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by email: %w", err)
	}
	return collect(rows, r.scan)
}

// FindAll retrieves every user
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	rows, err := r.s.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return collect(rows, r.scan)
}

// Insert stores a new user
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	roleID, err := r.s.enums.userRole.ID(user.Role)
	if err != nil {
		return err
	}
	statusID, err := r.s.enums.userStatus.ID(user.Status)
	if err != nil {
		return err
	}

	_, err = r.s.exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Code,
		user.Name,
		user.Surname,
		utc(user.BirthDate),
		user.Email,
		roleID,
		statusID,
		utc(user.CreatedAt),
		utc(user.UpdatedAt),
	)
	if err != nil {
		return insertFailed("user", err)
	}
	return nil
}

// Update replaces the stored user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.update(ctx, user, nil)
}

// UpdateIfStatus replaces the stored user while its status is expected
func (r *UserRepository) UpdateIfStatus(ctx context.Context, user *models.User, expected models.UserStatus) error {
	return r.update(ctx, user, &expected)
}

func (r *UserRepository) update(ctx context.Context, user *models.User, expected *models.UserStatus) error {
	roleID, err := r.s.enums.userRole.ID(user.Role)
	if err != nil {
		return err
	}
	statusID, err := r.s.enums.userStatus.ID(user.Status)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET name = ?, surname = ?, birth_date = ?, email = ?, role_id = ?, status_id = ?, updated_at = ?
		WHERE id = ?`
	args := []any{
		user.Name,
		user.Surname,
		utc(user.BirthDate),
		user.Email,
		roleID,
		statusID,
		utc(user.UpdatedAt),
		user.ID,
	}
	if expected != nil {
		expectedID, err := r.s.enums.userStatus.ID(*expected)
		if err != nil {
			return err
		}
		query += ` AND status_id = ?`
		args = append(args, expectedID)
	}

	res, err := r.s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return r.s.updateResult(ctx, res, "users", user.ID, expected != nil)
}
