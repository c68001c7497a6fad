package idempotency

import (
	"testing"

	"github.com/BennettSmith/insurance-intake-api/internal/adapters/contracttest"
	idempotencyport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/idempotency"
)

func TestContract_IdempotencyStore(t *testing.T) {
	contracttest.RunIdempotencyStore(t, func(t *testing.T) (idempotencyport.Store, func()) {
		t.Helper()
		return NewStore(0), nil
	})
}
