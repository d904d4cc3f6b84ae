package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/cardialink/portal-api/internal/http/middleware"
)

func newAuthRouter(t *testing.T) chi.Router {
	t.Helper()
	svc, _, _ := newTestService(t)
	h := NewHandler(svc, nil)

	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.SessionAuth(svc))
		pr.Post("/auth/logout", h.Logout)
		pr.Get("/auth/me", h.Me)
		pr.Patch("/auth/me", h.UpdateMe)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     "ada@example.com",
		"password":  "s3cret-pass",
		"full_name": "Ada Lovelace",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterEndpointReturnsTokenAndDefaults(t *testing.T) {
	router := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     "ada@example.com",
		"password":  "s3cret-pass",
		"full_name": "Ada Lovelace",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "en", resp.User.Preferences.Language)
	require.True(t, resp.User.Preferences.Notifications.Appointments)
}

func TestRegisterEndpointDuplicateEmailIsOpaque(t *testing.T) {
	router := newAuthRouter(t)
	registerAndLogin(t, router)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": "another-pass",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotContains(t, rec.Body.String(), "already", "must not confirm the email exists")
}

func TestRegisterEndpointMissingEmailIsBadRequest(t *testing.T) {
	router := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "valid email is required")
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	router := newAuthRouter(t)
	registerAndLogin(t, router)

	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-pass",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid email or password")
}

func TestMeEndpointRoundTrip(t *testing.T) {
	router := newAuthRouter(t)
	token := registerAndLogin(t, router)

	rec := doJSON(t, router, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	require.Equal(t, "ada@example.com", user.Email)
}

func TestMeEndpointRequiresToken(t *testing.T) {
	router := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMeEndpoint(t *testing.T) {
	router := newAuthRouter(t)
	token := registerAndLogin(t, router)

	prefs := DefaultPreferences()
	prefs.DarkMode = true
	rec := doJSON(t, router, http.MethodPatch, "/auth/me", token, Update{Preferences: &prefs})
	require.Equal(t, http.StatusOK, rec.Code)

	var user User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	require.True(t, user.Preferences.DarkMode)
}

func TestLogoutEndpointRevokesSession(t *testing.T) {
	router := newAuthRouter(t)
	token := registerAndLogin(t, router)

	rec := doJSON(t, router, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
