package applicationrepo

import (
	"testing"

	"github.com/BennettSmith/insurance-intake-api/internal/adapters/contracttest"
	"github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres/testutil"
	applicationrepoport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
)

func TestContract_PostgresApplicationRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunApplicationRepo(t, func(t *testing.T) (applicationrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(pool), nil
	})
}
