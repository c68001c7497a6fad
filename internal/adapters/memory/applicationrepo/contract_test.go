package applicationrepo

import (
	"testing"

	"github.com/BennettSmith/insurance-intake-api/internal/adapters/contracttest"
	applicationrepoport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
)

func TestContract_ApplicationRepo(t *testing.T) {
	contracttest.RunApplicationRepo(t, func(t *testing.T) (applicationrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
