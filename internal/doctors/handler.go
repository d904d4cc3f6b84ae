package doctors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardialink/portal-api/pkg/logging"
)

// Handler serves the specialist directory.
type Handler struct {
	directory []Doctor
	logger    *logging.Logger
}

// NewHandler creates a directory handler over the given records. Pass
// Seed() in production wiring.
func NewHandler(directory []Doctor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{directory: directory, logger: logger}
}

// Routes returns a chi router with directory routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/filters", h.Filters)
	return r
}

// List returns directory entries, optionally narrowed by specialty and
// location query parameters.
// GET /doctors?specialty=&location=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	specialty := r.URL.Query().Get("specialty")
	location := r.URL.Query().Get("location")

	matched := Filter(h.directory, specialty, location)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"doctors": matched,
		"total":   len(matched),
	}); err != nil {
		h.logger.Error("failed to encode doctor list", "error", err)
	}
}

// Filters returns the distinct specialty and location values available for
// filtering, in directory order.
// GET /doctors/filters
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"specialties": Specialties(h.directory),
		"locations":   Locations(h.directory),
	}); err != nil {
		h.logger.Error("failed to encode directory filters", "error", err)
	}
}
