package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session is absent or expired.
var ErrSessionNotFound = errors.New("auth: session not found")

// SessionRecord is what a live session stores in Redis.
type SessionRecord struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps live sessions in Redis. A session is created at login,
// checked on every authenticated request, and deleted at logout; the TTL
// matches the token lifetime so orphaned sessions expire on their own.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) key(sessionID string) string {
	return fmt.Sprintf("session_%s", sessionID)
}

// Create stores a new session.
func (s *SessionStore) Create(ctx context.Context, sessionID, userID string) error {
	payload, err := json.Marshal(SessionRecord{UserID: userID, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("auth: store session: %w", err)
	}
	return nil
}

// Get returns the session record if the session is live.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("auth: load session: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("auth: decode session: %w", err)
	}
	return &rec, nil
}

// Delete tears down a session. Deleting an absent session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}
