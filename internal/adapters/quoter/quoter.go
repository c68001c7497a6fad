// Package quoter holds stand-in pricing strategies. Real rating is out of scope;
// these only produce a number for the submit response.
package quoter

import (
	"context"
	"math/rand/v2"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
)

// Random returns a uniformly distributed quote in [0, Scale).
type Random struct {
	Scale float64
	float func() float64
}

func NewRandom() *Random {
	return &Random{Scale: 1000, float: rand.Float64}
}

func (r *Random) Quote(ctx context.Context, a domain.Application) (float64, error) {
	_ = a
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	float := r.float
	if float == nil {
		float = rand.Float64
	}
	return float() * r.Scale, nil
}

// Fixed always returns the same quote.
type Fixed float64

func (f Fixed) Quote(ctx context.Context, a domain.Application) (float64, error) {
	_ = ctx
	_ = a
	return float64(f), nil
}
