package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cardialink/portal-api/internal/observability/metrics"
	"github.com/cardialink/portal-api/pkg/logging"
)

// fallbackReply is appended when the chat endpoint is unreachable, so the
// widget always has something to show.
const fallbackReply = "Sorry, I'm having trouble connecting to the server."

// Sender relays one message to the chat endpoint.
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// Handler forwards widget messages and maintains transcripts.
type Handler struct {
	sender     Sender
	transcript *TranscriptStore
	metrics    *metrics.PortalMetrics
	logger     *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(sender Sender, transcript *TranscriptStore, m *metrics.PortalMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{sender: sender, transcript: transcript, metrics: m, logger: logger}
}

// Routes returns a chi router with chat routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Send)
	r.Get("/{sessionID}", h.History)
	return r
}

// Send relays a message and appends both sides to the transcript. A relay
// failure still yields a 200 with the fallback reply: the widget renders
// it inline like any assistant message.
// POST /chat
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, `{"error": "message is required"}`, http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	h.transcript.Append(req.SessionID, Message{Content: req.Message, Role: RoleUser})

	reply, err := h.sender.Send(r.Context(), req.Message)
	if err != nil {
		h.metrics.ObserveChatMessage("error")
		h.logger.Error("chat relay failed", "session_id", req.SessionID, "error", err)
		reply = fallbackReply
	} else {
		h.metrics.ObserveChatMessage("success")
	}

	h.transcript.Append(req.SessionID, Message{Content: reply, Role: RoleAssistant})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"session_id":     req.SessionID,
		"response":       reply,
		"transcript_len": len(h.transcript.List(req.SessionID)),
	}); err != nil {
		h.logger.Error("failed to encode chat reply", "session_id", req.SessionID, "error", err)
	}
}

// History returns the transcript for a session.
// GET /chat/{sessionID}
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"messages": h.transcript.List(sessionID),
	}); err != nil {
		h.logger.Error("failed to encode chat history", "session_id", sessionID, "error", err)
	}
}
