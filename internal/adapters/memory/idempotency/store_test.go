package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/idempotency"
)

func TestStore_PutThenGet(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Hour)
	fp := idempotency.Fingerprint{
		Key:      "k1",
		Method:   "POST",
		Route:    "/applications",
		BodyHash: "abc123",
	}
	rec := idempotency.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"ok":true}`),
	}

	if err := s.Put(context.Background(), fp, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if !ok {
		t.Fatalf("Get() ok=false, want true")
	}
	if got.StatusCode != rec.StatusCode || got.ContentType != rec.ContentType || string(got.Body) != string(rec.Body) {
		t.Fatalf("Get()=%+v, want %+v", got, rec)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not stamped")
	}
}

func TestStore_ExpiredRecordsAreMissing(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(time.Minute)
	s.now = func() time.Time { return now }

	fp := idempotency.Fingerprint{Key: "k1", Method: "POST", Route: "/applications"}
	if err := s.Put(context.Background(), fp, idempotency.Record{StatusCode: 201, CreatedAt: now}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, err := s.Get(context.Background(), fp); err != nil || ok {
		t.Fatalf("Get() ok=%v err=%v, want expired", ok, err)
	}

	other := idempotency.Fingerprint{Key: "k2", Method: "POST", Route: "/applications"}
	if err := s.Put(context.Background(), other, idempotency.Record{StatusCode: 201}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.m[fp]; ok {
		t.Fatalf("expired record not pruned")
	}
}
