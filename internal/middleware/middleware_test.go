package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-ticketing-manager/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(string(user.Role)))
	})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rr := httptest.NewRecorder()

	RequestLogger(logger)(handler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/api/events", entry["path"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(len("created")), entry["bytes"])
	assert.Equal(t, "127.0.0.1:12345", entry["remote"])
}

func TestRequestLogger_ServerErrorsLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	RequestLogger(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	Recoverer(logger)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic in handler")
	assert.Contains(t, buf.String(), "boom")
}

func TestLoadUser_DefaultsToNormalUser(t *testing.T) {
	auth := NewAuthMiddleware(NewCookieStore("test-secret", false), discardLogger())

	rr := httptest.NewRecorder()
	auth.LoadUser(whoAmI()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, string(models.UserRoleNormal), rr.Body.String())
	assert.Empty(t, rr.Result().Cookies())
}

func TestLoadUser_AdminFlagPersistsInSession(t *testing.T) {
	auth := NewAuthMiddleware(NewCookieStore("test-secret", false), discardLogger())
	handler := auth.LoadUser(whoAmI())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?admin=true", nil))
	assert.Equal(t, string(models.UserRoleAdmin), rr.Body.String())

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	// Later requests without the query parameter keep the flag
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, string(models.UserRoleAdmin), rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/?admin=false", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, string(models.UserRoleNormal), rr.Body.String())
}

func TestLoadUser_ForeignCookieFallsBackToNormal(t *testing.T) {
	issuer := NewAuthMiddleware(NewCookieStore("old-secret", false), discardLogger())
	rr := httptest.NewRecorder()
	issuer.LoadUser(whoAmI()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?admin=true", nil))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	auth := NewAuthMiddleware(NewCookieStore("new-secret", false), discardLogger())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	auth.LoadUser(whoAmI()).ServeHTTP(rr, req)

	assert.Equal(t, string(models.UserRoleNormal), rr.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	auth := NewAuthMiddleware(NewCookieStore("test-secret", false), discardLogger())
	protected := auth.LoadUser(RequireAdmin(whoAmI()))

	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "FORBIDDEN")

	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/?admin=true", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, string(models.UserRoleAdmin), rr.Body.String())

	rr = httptest.NewRecorder()
	RequireAdmin(whoAmI()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMockUsersAreDistinct(t *testing.T) {
	assert.True(t, MockAdminUser.IsAdmin())
	assert.False(t, MockNormalUser.IsAdmin())
	assert.True(t, MockNormalUser.IsActive())
	assert.NotEqual(t, MockAdminUser.ID, MockNormalUser.ID)
}
