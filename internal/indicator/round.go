package indicator

import (
	"math"

	"github.com/shopspring/decimal"
)

// exactExponent is low enough for NewFromFloatWithExponent to keep every
// binary digit of a float64.
const exactExponent = -1100

// Round rounds v to places decimals using the exact binary value of v, with
// exact ties going to the even digit. round(0.125, 2) is 0.12 and
// round(2.675, 2) is 2.67, as in Python. Vendors use it to normalise prices.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloatWithExponent(v, exactExponent).RoundBank(places).InexactFloat64()
}
