// Package price defines the decimal price type shared by orders, the
// matcher, the depth cache and the instrument-info cache, plus the tick
// and bound checks the validator runs against it.
//
// Prices are arbitrary-precision decimals (github.com/shopspring/decimal)
// rather than fixed-point cents: a venue-configurable tick size makes an
// implicit "minor unit" assumption wrong for some instruments, and
// decimal.Decimal sidesteps float rounding without hard-coding a scale.
package price

import "github.com/shopspring/decimal"

// Price is a venue price. The zero value is not a valid price; use
// decimal.Zero explicitly where "no price" (market order) needs a
// distinguishable absence — callers should prefer *Price / optional
// wrappers over a sentinel.
type Price = decimal.Decimal

// Zero is the additive identity, convenient for comparisons.
var Zero = decimal.Zero

// RespectsTick reports whether p is a positive multiple of tick.
// A non-positive tick means "no tick configured" and always respects it.
func RespectsTick(p Price, tick Price) bool {
	if tick.Sign() <= 0 {
		return true
	}
	return p.Sign() > 0 && p.Mod(tick).IsZero()
}

// Mid returns (low+high)/2. Per the venue's long-standing and
// deliberately un-"fixed" behavior, the result is not rounded back onto
// a tick boundary even when low/high both are.
func Mid(low, high Price) Price {
	return low.Add(high).Div(decimal.NewFromInt(2))
}
