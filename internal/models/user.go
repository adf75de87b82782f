package models

import (
	"strings"
	"time"
)

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleNormal UserRole = "NORMAL"
	UserRoleAdmin  UserRole = "ADMIN"
)

// UserStatus represents whether a user account is usable
type UserStatus string

const (
	UserActive  UserStatus = "ACTIVE"
	UserDeleted UserStatus = "DELETED"
)

// UserRoles and UserStatuses list every variant of their enum.
var (
	UserRoles    = []UserRole{UserRoleNormal, UserRoleAdmin}
	UserStatuses = []UserStatus{UserActive, UserDeleted}
)

// User represents a user in the system
type User struct {
	ID        string     `json:"id" db:"id"`
	Code      string     `json:"code" db:"code"`
	Name      string     `json:"name" db:"name"`
	Surname   string     `json:"surname" db:"surname"`
	BirthDate time.Time  `json:"birth_date" db:"birth_date"`
	Email     string     `json:"email" db:"email"`
	Role      UserRole   `json:"role" db:"role"`
	Status    UserStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// UserCreateRequest represents the data needed to create a new user
type UserCreateRequest struct {
	Name      string    `json:"name" validate:"notblank,max=100"`
	Surname   string    `json:"surname" validate:"notblank,max=100"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Role      UserRole  `json:"role" validate:"omitempty,oneof=NORMAL ADMIN"`
}

// Validate validates the user creation data
func (req *UserCreateRequest) Validate() error {
	req.Email = NormalizeEmail(req.Email)
	return validateStruct(req)
}

// NormalizeEmail lowercases and trims an email address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == UserRoleNormal || r == UserRoleAdmin
}

// Valid reports whether s is a known user status.
func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserDeleted
}

// IsActive checks if the user account is active
func (u *User) IsActive() bool {
	return u.Status == UserActive
}

// IsAdmin checks if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// FullName returns the user's full name
func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}
