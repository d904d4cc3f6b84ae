package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardialink/portal-api/internal/http/middleware"
	"github.com/cardialink/portal-api/pkg/logging"
)

// Handler exposes the booking stub over HTTP.
type Handler struct {
	scheduler *Scheduler
	logger    *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(scheduler *Scheduler, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{scheduler: scheduler, logger: logger}
}

// Routes returns a chi router with booking routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Schedule)
	return r
}

// ConsultationRoutes returns a chi router with consultation routes.
func (h *Handler) ConsultationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ScheduleConsultation)
	return r
}

// Schedule books an appointment with a doctor.
// POST /appointments
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	var req struct {
		Doctor string `json:"doctor"`
		Date   string `json:"date"`
		Time   string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	confirmation, err := h.scheduler.Schedule(r.Context(), req.Doctor, req.Date, req.Time)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			http.Error(w, `{"error": "doctor, date and time are required"}`, http.StatusBadRequest)
			return
		}
		h.logger.Error("appointment scheduling failed", "user_id", session.UserID, "error", err)
		http.Error(w, `{"error": "scheduling failed"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment scheduled", "user_id", session.UserID, "doctor", req.Doctor, "date", req.Date)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"confirmation": confirmation}); err != nil {
		h.logger.Error("failed to encode confirmation", "error", err)
	}
}

// ScheduleConsultation books a remote consultation.
// POST /consultations
func (h *Handler) ScheduleConsultation(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	var req struct {
		Type string `json:"type"`
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	confirmation, err := h.scheduler.ScheduleConsultation(r.Context(), req.Type, req.Date, req.Time)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			http.Error(w, `{"error": "type, date and time are required"}`, http.StatusBadRequest)
			return
		}
		h.logger.Error("consultation scheduling failed", "user_id", session.UserID, "error", err)
		http.Error(w, `{"error": "scheduling failed"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("consultation scheduled", "user_id", session.UserID, "type", req.Type, "date", req.Date)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"confirmation": confirmation}); err != nil {
		h.logger.Error("failed to encode confirmation", "error", err)
	}
}
