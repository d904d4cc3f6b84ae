package chat

import "sync"

// Role values for transcript messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a chat transcript.
type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// TranscriptStore keeps per-session transcripts in memory. Transcripts are
// append-only and scoped to the widget session; they are not persisted
// across restarts.
type TranscriptStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewTranscriptStore creates an empty transcript store.
func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{sessions: make(map[string][]Message)}
}

// Append adds a message to the session's transcript.
func (t *TranscriptStore) Append(sessionID string, msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sessionID] = append(t.sessions[sessionID], msg)
}

// List returns a copy of the session's transcript in append order.
func (t *TranscriptStore) List(sessionID string) []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	msgs := t.sessions[sessionID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
