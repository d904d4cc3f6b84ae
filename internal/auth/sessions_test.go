package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionStore(client, time.Hour), mr
}

func TestSessionLifecycle(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "sess-1", "u-1"))
	require.True(t, mr.Exists("session_sess-1"))

	rec, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "u-1", rec.UserID)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpiresWithTTL(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "sess-2", "u-1"))
	require.Equal(t, time.Hour, mr.TTL("session_sess-2"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "sess-2")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteAbsentSessionIsNoop(t *testing.T) {
	store, _ := newTestSessionStore(t)
	require.NoError(t, store.Delete(context.Background(), "never-existed"))
}
