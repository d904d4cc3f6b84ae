package files

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardialink/portal-api/internal/http/middleware"
	"github.com/cardialink/portal-api/internal/observability/metrics"
	"github.com/cardialink/portal-api/pkg/logging"
)

// maxUploadBytes caps multipart memory use; larger files spill to disk.
const maxUploadBytes = 32 << 20

// Handler provides HTTP endpoints for file upload and listing. All routes
// require an authenticated session: uploads are namespaced by the caller.
type Handler struct {
	store   *Store
	metrics *metrics.PortalMetrics
	logger  *logging.Logger
}

// NewHandler creates a file upload handler.
func NewHandler(store *Store, m *metrics.PortalMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, metrics: m, logger: logger}
}

// Routes returns a chi router with file routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Get("/", h.List)
	return r
}

// Upload stores a multipart file under the caller's namespace.
// POST /files
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, `{"error": "invalid multipart body"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error": "file field is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	rec, err := h.store.Upload(r.Context(), session.UserID, header.Filename, file)
	if errors.Is(err, ErrUnsupportedFileType) {
		h.metrics.ObserveUpload("rejected")
		http.Error(w, `{"error": "unsupported file type"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.metrics.ObserveUpload("error")
		h.logger.Error("file upload failed", "user_id", session.UserID, "error", err)
		http.Error(w, `{"error": "upload failed, please try again"}`, http.StatusBadGateway)
		return
	}

	h.metrics.ObserveUpload("success")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		h.logger.Error("failed to encode upload record", "error", err)
	}
}

// List returns the caller's uploads.
// GET /files
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	records, err := h.store.List(r.Context(), session.UserID)
	if err != nil {
		h.logger.Error("file listing failed", "user_id", session.UserID, "error", err)
		http.Error(w, `{"error": "listing failed, please try again"}`, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"files": records,
		"total": len(records),
	}); err != nil {
		h.logger.Error("failed to encode file list", "error", err)
	}
}
