// Explicit portable rounding for price arithmetic.
package econ

import "github.com/shopspring/decimal"

// RoundHalfUp rounds a non-negative quantity to the nearest integer,
// ties upward. The decimal round is exact on the base-10 representation,
// so the result does not depend on a runtime's float-to-int coercion or
// on banker's rounding.
func RoundHalfUp(x float64) int {
	return int(decimal.NewFromFloat(x).Round(0).IntPart())
}
