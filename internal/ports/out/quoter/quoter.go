package quoter

import (
	"context"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

// Quoter prices a submitted application.
type Quoter interface {
	Quote(ctx context.Context, a domain.Application) (float64, error)
}
