package services

import (
	"context"
	"testing"
	"time"

	"event-ticketing-manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newUserRequest(email string) *models.UserCreateRequest {
	return &models.UserCreateRequest{
		Name:      "Juan",
		Surname:   "Perez",
		BirthDate: time.Date(1985, 1, 20, 0, 0, 0, 0, time.UTC),
		Email:     email,
	}
}

func TestUserService_CreateUser(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.CreateUser(context.Background(), newUserRequest("  Juan@Example.COM "))
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Regexp(t, `^USR-[A-Z0-9]{6}$`, user.Code)
	assert.Equal(t, "juan@example.com", user.Email)
	assert.Equal(t, models.UserRoleNormal, user.Role)
	assert.Equal(t, models.UserActive, user.Status)
	assert.Equal(t, baseTime, user.CreatedAt)
}

func TestUserService_CreateUser_Admin(t *testing.T) {
	env := newTestEnv(t)
	req := newUserRequest("boss@example.com")
	req.Role = models.UserRoleAdmin

	user, err := env.users.CreateUser(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
}

func TestUserService_CreateUser_Invalid(t *testing.T) {
	env := newTestEnv(t)

	req := newUserRequest("not-an-email")
	req.Role = "ROOT"
	_, err := env.users.CreateUser(context.Background(), req)

	var valErr *models.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "email")
	assert.Contains(t, valErr.Fields, "role")
}

func TestUserService_CreateUser_EmailInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.users.CreateUser(ctx, newUserRequest("dup@example.com"))
	require.NoError(t, err)

	_, err = env.users.CreateUser(ctx, newUserRequest("DUP@example.com"))
	assert.ErrorIs(t, err, models.ErrEmailInUse)

	// A deleted user frees the email.
	_, err = env.users.DeleteUser(ctx, first.ID)
	require.NoError(t, err)

	second, err := env.users.CreateUser(ctx, newUserRequest("dup@example.com"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	users, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserService_CreateUser_ConcurrentSameEmail(t *testing.T) {
	env := newTestEnv(t)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, _ = env.users.CreateUser(context.Background(), newUserRequest("race@example.com"))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	users, err := env.users.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_DeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "bye@example.com")

	env.clock.Advance(time.Hour)
	deleted, err := env.users.DeleteUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserDeleted, deleted.Status)
	assert.Equal(t, baseTime.Add(time.Hour), deleted.UpdatedAt)

	stored, err := env.users.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.UserDeleted, stored.Status)

	_, err = env.users.DeleteUser(ctx, user.ID)
	assert.ErrorIs(t, err, models.ErrUserNotActive)

	_, err = env.users.DeleteUser(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	missing, err := env.users.GetUser(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserService_EnsureUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fixed := &models.User{
		ID: "fixed-1", Code: "USR-FIXED1", Name: "Juan", Surname: "Perez",
		BirthDate: time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC), Email: "juan@example.com",
		Role: models.UserRoleNormal, Status: models.UserActive, CreatedAt: baseTime, UpdatedAt: baseTime,
	}

	inserted, err := env.users.EnsureUser(ctx, fixed)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = env.users.EnsureUser(ctx, fixed)
	require.NoError(t, err)
	assert.False(t, inserted)

	stored, err := env.users.GetUser(ctx, "fixed-1")
	require.NoError(t, err)
	assert.Equal(t, fixed, stored)

	env.createUser(t, "taken@example.com")
	other := *fixed
	other.ID, other.Code, other.Email = "fixed-2", "USR-FIXED2", "taken@example.com"
	_, err = env.users.EnsureUser(ctx, &other)
	assert.ErrorIs(t, err, models.ErrEmailInUse)

	all, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
