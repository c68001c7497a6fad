package idempotency

import (
	"testing"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/adapters/contracttest"
	"github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres/testutil"
	idempotencyport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/idempotency"
)

func TestContract_PostgresIdempotencyStore(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunIdempotencyStore(t, func(t *testing.T) (idempotencyport.Store, func()) {
		t.Helper()
		return NewStore(pool, 24*time.Hour), nil
	})
}
