package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"event-ticketing-manager/internal/models"
)

type contextKey string

const (
	UserContextKey contextKey = "user"

	sessionName = "session"
	adminKey    = "is_admin"
)

var mockCreated = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// MockNormalUser and MockAdminUser are the two fixed callers the mock
// session can resolve to.
var (
	MockNormalUser = models.User{
		ID:        "c4a77a7f-0b9d-4309-83e9-1fba79246083",
		Code:      "USR-NRG3KG",
		Name:      "Juan",
		Surname:   "Pérez",
		BirthDate: time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC),
		Email:     "juan.perez@example.com",
		Role:      models.UserRoleNormal,
		Status:    models.UserActive,
		CreatedAt: mockCreated,
		UpdatedAt: mockCreated,
	}
	MockAdminUser = models.User{
		ID:        "a58d6f81-7502-464e-be2c-144c9a8df4ab",
		Code:      "USR-ADMIN1",
		Name:      "Admin",
		Surname:   "Sistema",
		BirthDate: time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC),
		Email:     "admin@example.com",
		Role:      models.UserRoleAdmin,
		Status:    models.UserActive,
		CreatedAt: mockCreated,
		UpdatedAt: mockCreated,
	}
)

// MockUsers returns copies of the fixed callers. They must exist in the
// user directory for reservations made on the caller's behalf.
func MockUsers() []models.User {
	return []models.User{MockNormalUser, MockAdminUser}
}

// AuthMiddleware resolves the caller from a session flag. There is no
// login: ?admin=true or ?admin=false flips the flag and every request
// carries one of the two mock users.
type AuthMiddleware struct {
	store  sessions.Store
	logger *slog.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(store sessions.Store, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{store: store, logger: logger}
}

// NewCookieStore builds the session store used by the mock user middleware
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// LoadUser middleware puts the mock caller into the request context
func (m *AuthMiddleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, sessionName)
		if err != nil {
			// A cookie signed with an old secret decodes to a fresh session
			m.logger.Debug("discarding unreadable session", "error", err)
		}
		if session == nil {
			session = sessions.NewSession(m.store, sessionName)
		}

		switch r.URL.Query().Get("admin") {
		case "true":
			session.Values[adminKey] = true
			m.save(w, r, session)
		case "false":
			session.Values[adminKey] = false
			m.save(w, r, session)
		}

		user := MockNormalUser
		if isAdmin, _ := session.Values[adminKey].(bool); isAdmin {
			user = MockAdminUser
		}

		ctx := context.WithValue(r.Context(), UserContextKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) save(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	if err := session.Save(r, w); err != nil {
		m.logger.Warn("failed to save session", "error", err)
	}
}

// RequireAdmin middleware ensures the caller is an administrator
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		if !user.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext extracts user from request context
func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}
