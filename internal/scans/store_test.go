package scans

import (
	"context"
	"errors"
	"reflect"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStoreRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client), mr
}

func TestSaveGetRoundTrip(t *testing.T) {
	store, _ := newTestStoreRedis(t)
	ctx := context.Background()

	original := &Result{
		ClassName:   "abnormal",
		Confidence:  0.89,
		Explanation: strPtr("reduced ejection fraction"),
		Findings: []Finding{
			{Type: "MR", Severity: strPtr("mild"), Description: "regurgitation", Confidence: f64Ptr(72)},
		},
		HeartRate:       f64Ptr(95),
		Recommendations: []string{"follow up in 3 months"},
	}

	if err := store.Save(ctx, "scan-1", original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Get(ctx, "scan-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(original, loaded) {
		t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", original, loaded)
	}
}

func TestSaveUsesScanResultKey(t *testing.T) {
	store, mr := newTestStoreRedis(t)

	if err := store.Save(context.Background(), "abc123", &Result{ClassName: "healthy", Confidence: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("scan_result_abc123") {
		t.Fatal("expected key scan_result_abc123 to exist")
	}
	// No expiry: results accumulate until explicitly removed.
	if ttl := mr.TTL("scan_result_abc123"); ttl != 0 {
		t.Errorf("expected no TTL, got %s", ttl)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	store, _ := newTestStoreRedis(t)

	_, err := store.Get(context.Background(), "never-stored")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
