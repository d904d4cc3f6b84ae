package scans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no result is stored under an identifier.
// Callers render an empty state rather than failing.
var ErrNotFound = errors.New("scans: result not found")

// Store persists scan results in Redis. Results are written once, read
// many times, and never deleted; each identifier has exactly one writer.
type Store struct {
	redis *redis.Client
}

// NewStore creates a scan result store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(id string) string {
	return fmt.Sprintf("scan_result_%s", id)
}

// Save persists a result under the given identifier with no expiry.
func (s *Store) Save(ctx context.Context, id string, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("scans: marshal result: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(id), data, 0).Err(); err != nil {
		return fmt.Errorf("scans: save result %s: %w", id, err)
	}
	return nil
}

// Get retrieves the result stored under id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Result, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scans: get result %s: %w", id, err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("scans: unmarshal result %s: %w", id, err)
	}
	return &result, nil
}
