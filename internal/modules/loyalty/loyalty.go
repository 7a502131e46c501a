// README: Loyalty accrual rule and rate providers.
package loyalty

import (
	"context"
	"math"
)

// DefaultRate is the fallback points-per-currency-unit when no override
// is configured.
const DefaultRate = 35

// Points computes the points earned for a completed order. Floor, not
// round: 10.02857 * 35 = 350.99995 earns 350.
func Points(totalPrice float64, rate int) int {
	if totalPrice <= 0 || rate <= 0 {
		return 0
	}
	return int(math.Floor(totalPrice * float64(rate)))
}

// RateProvider supplies the current points-per-currency-unit setting.
// The production implementation reads a hot-reloadable value from Redis;
// tests use StaticRate.
type RateProvider interface {
	Rate(ctx context.Context) int
}

// StaticRate is a fixed-rate provider.
type StaticRate int

func (r StaticRate) Rate(context.Context) int {
	return int(r)
}
