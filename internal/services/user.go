package services

import (
	"context"
	"errors"
	"log/slog"

	"event-ticketing-manager/internal/clock"
	"event-ticketing-manager/internal/models"
	"event-ticketing-manager/internal/utils"
)

// UserService handles the user directory
type UserService struct {
	users  UserRepository
	clock  clock.Clock
	opts   serviceOptions
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserRepository, clk clock.Clock, opts ...Option) *UserService {
	o := newServiceOptions(opts)
	return &UserService{
		users:  users,
		clock:  clk,
		opts:   o,
		logger: o.logger.With("component", "users"),
	}
}

// CreateUser registers a new ACTIVE user. The email must not belong to
// another ACTIVE user; deleted users free their email.
func (s *UserService) CreateUser(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Serialize on the email so two concurrent registrations cannot both
	// pass the uniqueness check.
	unlock, err := s.opts.locker.Lock(ctx, "email:"+req.Email)
	if err != nil {
		return nil, models.WrapPersistence("lock email", err)
	}
	defer unlock()

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, models.WrapPersistence("find user by email", err)
	}
	for _, u := range existing {
		if u.IsActive() {
			return nil, models.ErrEmailInUse
		}
	}

	role := req.Role
	if role == "" {
		role = models.UserRoleNormal
	}

	now := s.clock.Now()
	user := &models.User{
		ID:        s.opts.ids.NewID(),
		Name:      req.Name,
		Surname:   req.Surname,
		BirthDate: req.BirthDate,
		Email:     req.Email,
		Role:      role,
		Status:    models.UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = insertWithCode(s.opts.codes, utils.UserCodePrefix, func(code string) error {
		user.Code = code
		return s.users.Insert(ctx, user)
	})
	if err != nil {
		return nil, models.WrapPersistence("insert user", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "code", user.Code, "role", user.Role)
	return user, nil
}

// EnsureUser stores user exactly as given unless a user with its id
// already exists. It reports whether the user was inserted and fails with
// ErrEmailInUse when another ACTIVE user holds the email.
func (s *UserService) EnsureUser(ctx context.Context, user *models.User) (bool, error) {
	unlock, err := s.opts.locker.Lock(ctx, "email:"+user.Email)
	if err != nil {
		return false, models.WrapPersistence("lock email", err)
	}
	defer unlock()

	existing, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return false, models.WrapPersistence("find user", err)
	}
	if existing != nil {
		return false, nil
	}

	sameEmail, err := s.users.FindByEmail(ctx, user.Email)
	if err != nil {
		return false, models.WrapPersistence("find user by email", err)
	}
	for _, u := range sameEmail {
		if u.IsActive() {
			return false, models.ErrEmailInUse
		}
	}

	cp := *user
	if err := s.users.Insert(ctx, &cp); err != nil {
		return false, models.WrapPersistence("insert user", err)
	}
	s.logger.Info("user registered", "user_id", cp.ID, "code", cp.Code, "role", cp.Role)
	return true, nil
}

// GetUser returns the user or nil when it does not exist
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	return user, models.WrapPersistence("find user", err)
}

// ListUsers returns every user, deleted ones included
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.FindAll(ctx)
	return users, models.WrapPersistence("list users", err)
}

// DeleteUser soft-deletes an ACTIVE user.
func (s *UserService) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, models.WrapPersistence("find user", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	if !user.IsActive() {
		return nil, models.ErrUserNotActive
	}

	deleted := *user
	deleted.Status = models.UserDeleted
	deleted.UpdatedAt = s.clock.Now()

	err = s.users.UpdateIfStatus(ctx, &deleted, models.UserActive)
	recordTransition(s.opts.metrics, "delete_user", err)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrStatusConflict):
		return nil, models.ErrUserNotActive
	case errors.Is(err, models.ErrRecordNotFound):
		return nil, models.ErrUserNotFound
	default:
		return nil, models.WrapPersistence("update user", err)
	}

	s.logger.Info("user deleted", "user_id", deleted.ID, "code", deleted.Code)
	return &deleted, nil
}
