package quoter

import (
	"context"
	"testing"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

func TestRandom_ScalesUnitInterval(t *testing.T) {
	t.Parallel()

	r := NewRandom()
	r.float = func() float64 { return 0.25 }
	got, err := r.Quote(context.Background(), domain.Application{})
	if err != nil {
		t.Fatalf("Quote() err=%v", err)
	}
	if got != 250 {
		t.Fatalf("Quote()=%v want=250", got)
	}
}

func TestRandom_Range(t *testing.T) {
	t.Parallel()

	r := NewRandom()
	for i := 0; i < 100; i++ {
		got, err := r.Quote(context.Background(), domain.Application{})
		if err != nil {
			t.Fatalf("Quote() err=%v", err)
		}
		if got < 0 || got >= 1000 {
			t.Fatalf("Quote()=%v out of [0,1000)", got)
		}
	}
}

func TestRandom_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRandom().Quote(ctx, domain.Application{}); err == nil {
		t.Fatalf("Quote() err=nil, want context error")
	}
}

func TestRandom_ZeroValueUsesDefaultSource(t *testing.T) {
	t.Parallel()

	r := &Random{Scale: 10}
	got, err := r.Quote(context.Background(), domain.Application{})
	if err != nil {
		t.Fatalf("Quote() err=%v", err)
	}
	if got < 0 || got >= 10 {
		t.Fatalf("Quote()=%v out of [0,10)", got)
	}
}
