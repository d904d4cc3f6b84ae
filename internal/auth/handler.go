package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cardialink/portal-api/internal/http/middleware"
	"github.com/cardialink/portal-api/pkg/logging"
)

// Handler exposes account routes over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an auth handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

func writeAuthResponse(w http.ResponseWriter, status int, user *User, token string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token": token,
		"user":  user,
	})
}

// Register creates an account and returns a session token.
// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	user, token, err := h.service.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			// The response must not confirm whether an email is registered.
			http.Error(w, `{"error": "registration failed"}`, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmail):
			http.Error(w, `{"error": "a valid email is required"}`, http.StatusBadRequest)
		case errors.Is(err, ErrWeakPassword):
			http.Error(w, `{"error": "password must be at least 8 characters"}`, http.StatusBadRequest)
		default:
			h.logger.Error("registration failed", "error", err)
			http.Error(w, `{"error": "registration failed"}`, http.StatusInternalServerError)
		}
		return
	}

	writeAuthResponse(w, http.StatusCreated, user, token)
}

// Login verifies credentials and returns a session token.
// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, `{"error": "invalid email or password"}`, http.StatusUnauthorized)
			return
		}
		h.logger.Error("login failed", "error", err)
		http.Error(w, `{"error": "login failed"}`, http.StatusInternalServerError)
		return
	}

	writeAuthResponse(w, http.StatusOK, user, token)
}

// Logout tears down the caller's session.
// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), session.SessionID); err != nil {
		h.logger.Error("logout failed", "user_id", session.UserID, "error", err)
		http.Error(w, `{"error": "logout failed"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller's account and preferences.
// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetUser(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, `{"error": "user not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load user", "user_id", session.UserID, "error", err)
		http.Error(w, `{"error": "failed to load user"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

// UpdateMe applies a partial update to the caller's name or preferences.
// PATCH /auth/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), session.UserID, update)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, `{"error": "user not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update user", "user_id", session.UserID, "error", err)
		http.Error(w, `{"error": "failed to update user"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}
