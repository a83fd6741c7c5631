package crawler

import (
	"time"

	"github.com/navid-fn/momentum/internal/indicator"
	"github.com/navid-fn/momentum/internal/models"
)

// Decimal places vendors round prices to.
const (
	CryptoPricePlaces int32 = 8
	EquityPricePlaces int32 = 2
)

// Price rounds a vendor price. Zero means the vendor had no value and maps to nil.
func Price(v float64, places int32) *float64 {
	if v == 0 {
		return nil
	}
	r := indicator.Round(v, places)
	return &r
}

// PricePtr is Price for nullable vendor fields.
func PricePtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	return Price(*v, places)
}

// Day formats t as a catalog date in UTC.
func Day(t time.Time) string {
	return t.UTC().Format(models.DateLayout)
}

// Within reports whether date falls between from and to (inclusive, by calendar day).
func Within(date string, from, to time.Time) bool {
	return date >= from.Format(models.DateLayout) && date <= to.Format(models.DateLayout)
}
