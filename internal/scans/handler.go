package scans

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cardialink/portal-api/internal/http/middleware"
	"github.com/cardialink/portal-api/internal/observability/metrics"
	"github.com/cardialink/portal-api/pkg/logging"
)

const maxScanBytes = 32 << 20

// Predictor calls the remote inference endpoint.
type Predictor interface {
	Predict(ctx context.Context, filename string, scan io.Reader, includeGradcam bool) (*Result, error)
}

// ResultStore persists and loads scan results.
type ResultStore interface {
	Save(ctx context.Context, id string, result *Result) error
	Get(ctx context.Context, id string) (*Result, error)
}

// Handler orchestrates the scan pipeline: one in-flight submission per
// user, persisted results keyed by a fresh identifier, pure reads for
// rendering.
type Handler struct {
	predictor      Predictor
	store          ResultStore
	includeGradcam bool
	metrics        *metrics.PortalMetrics
	logger         *logging.Logger
	newID          func() string

	mu       sync.Mutex
	inFlight map[string]struct{} // userID -> submitting
}

// NewHandler creates a scan pipeline handler.
func NewHandler(predictor Predictor, store ResultStore, includeGradcam bool, m *metrics.PortalMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		predictor:      predictor,
		store:          store,
		includeGradcam: includeGradcam,
		metrics:        m,
		logger:         logger,
		newID:          uuid.NewString,
		inFlight:       make(map[string]struct{}),
	}
}

// SubmitRoutes returns the authenticated submission route.
func (h *Handler) SubmitRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	return r
}

// tryAcquire marks the user as submitting. Returns false if a submission
// is already in flight for them.
func (h *Handler) tryAcquire(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inFlight[userID]; busy {
		return false
	}
	h.inFlight[userID] = struct{}{}
	return true
}

func (h *Handler) release(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inFlight, userID)
}

// Submit accepts a multipart scan image, calls the inference endpoint,
// persists the result under a fresh identifier and returns it.
// POST /scans
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxScanBytes); err != nil {
		http.Error(w, `{"error": "invalid multipart body"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("scan")
	if err != nil {
		// No file selected: never issue an inference call.
		http.Error(w, `{"error": "scan file is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !h.tryAcquire(session.UserID) {
		http.Error(w, `{"error": "a scan analysis is already in progress"}`, http.StatusConflict)
		return
	}
	defer h.release(session.UserID)

	start := time.Now()
	result, err := h.predictor.Predict(r.Context(), header.Filename, file, h.includeGradcam)
	if err != nil {
		h.metrics.ObservePrediction("error", time.Since(start).Seconds())
		h.logger.Error("scan analysis failed", "user_id", session.UserID, "error", err)
		http.Error(w, `{"error": "prediction failed, please try again"}`, http.StatusBadGateway)
		return
	}
	h.metrics.ObservePrediction("success", time.Since(start).Seconds())

	scanID := h.newID()
	if err := h.store.Save(r.Context(), scanID, result); err != nil {
		h.logger.Error("failed to persist scan result", "scan_id", scanID, "error", err)
		http.Error(w, `{"error": "failed to store result, please try again"}`, http.StatusBadGateway)
		return
	}

	h.logger.Info("scan analyzed",
		"user_id", session.UserID,
		"scan_id", scanID,
		"class_name", result.ClassName,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"scan_id":    scanID,
		"result_url": "/results/" + scanID,
		"result":     result,
	}); err != nil {
		h.logger.Error("failed to encode scan response", "scan_id", scanID, "error", err)
	}
}

// ResultRoutes returns the public result-rendering route. Results are
// shareable reads keyed by an opaque identifier.
func (h *Handler) ResultRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{scanID}", h.GetResult)
	return r
}

// GetResult renders a persisted result. A missing identifier is an empty
// state, not an error.
// GET /results/{scanID}
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	result, err := h.store.Get(r.Context(), scanID)
	if errors.Is(err, ErrNotFound) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"found":   false,
			"message": "No scan result available. Upload a scan to get instant AI-powered results and recommendations.",
		}); err != nil {
			h.logger.Error("failed to encode empty state", "scan_id", scanID, "error", err)
		}
		return
	}
	if err != nil {
		h.logger.Error("failed to load scan result", "scan_id", scanID, "error", err)
		http.Error(w, `{"error": "failed to load result, please try again"}`, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"found":  true,
		"result": result,
		"view":   Render(result),
	}); err != nil {
		h.logger.Error("failed to encode scan result", "scan_id", scanID, "error", err)
	}
}
