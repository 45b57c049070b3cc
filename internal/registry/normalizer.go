package registry

import (
	"math/big"

	"github.com/selivandex/agent-registry/pkg/models"
)

// priceScale is 10^8, the canonical fixed-point scale shared by
// normalized oracle prices and stored trigger prices.
var priceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(models.PriceScaleDecimals), nil)

// NormalizePrice converts a raw oracle (mantissa, exponent) pair into
// the canonical 1e8 fixed-point representation.
//
// For a negative exponent the mantissa is rescaled by 10^8 / 10^(-expo);
// for a non-negative exponent it is divided by 10^expo. Division
// truncates toward zero, no rounding: feeds whose exponent forces a
// division lose sub-unit precision silently, so callers needing that
// accuracy must pick feeds with expo <= -8.
//
// The mantissa's sign is not validated. A negative mantissa is coerced
// through unsigned arithmetic, yielding a huge positive price. None of
// the feeds in scope report negative values; a feed that can go
// negative must not be wired to this registry.
func NormalizePrice(mantissa int64, expo int32) *big.Int {
	// Any 64-bit mantissa truncates to zero past this magnitude, so
	// absurd exponents never reach pow10. Also keeps -expo inside
	// int32 range (MinInt32 has no in-range negation).
	if expo < -maxUsefulExpo || expo > maxUsefulExpo {
		return new(big.Int)
	}

	v := new(big.Int).SetUint64(uint64(mantissa))

	if expo < 0 {
		v.Mul(v, priceScale)
		return v.Div(v, pow10(uint(-expo)))
	}
	return v.Div(v, pow10(uint(expo)))
}

const maxUsefulExpo = 38

func pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(uint64(n)), nil)
}

// ConditionMet evaluates the trigger comparison at canonical scale:
// above-triggers fire at price >= trigger, below-triggers at price <= trigger.
func ConditionMet(price, trigger *big.Int, triggerAbove bool) bool {
	cmp := price.Cmp(trigger)
	if triggerAbove {
		return cmp >= 0
	}
	return cmp <= 0
}
