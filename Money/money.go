package Money

import (
	"github.com/shopspring/decimal"
)

// All currency amounts in the system carry exactly two fraction digits.
// Every calculation that can produce more precision (interest, schedule
// division, percentage penalties) must pass through Round before it is
// stored, so repeated add/subtract over a loan's lifetime never drifts.

var (
	Zero    = decimal.Zero
	Hundred = decimal.NewFromInt(100)
)

// Round normalizes an amount to 2 decimal places, rounding half up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromFloat converts a float amount (as received in JSON payloads) to a
// rounded 2dp decimal.
func FromFloat(f float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(f))
}

// ApplyRate returns amount * (1 + ratePercent/100), rounded.
func ApplyRate(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(Hundred.Add(ratePercent)).Div(Hundred))
}

// Percent returns ratePercent% of amount, rounded.
func Percent(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(ratePercent).Div(Hundred))
}

// SplitEvenly divides total across n parts. Every part except the last is
// total/n rounded down to the cent; the last part absorbs the remainder so
// the parts always sum back to total exactly.
func SplitEvenly(total decimal.Decimal, n int) (part decimal.Decimal, last decimal.Decimal) {
	if n <= 0 {
		return decimal.Zero, decimal.Zero
	}
	part = total.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	last = total.Sub(part.Mul(decimal.NewFromInt(int64(n - 1))))
	return part, last
}

// IsPositive reports whether the amount is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}
