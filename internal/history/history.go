// Package history merges freshly fetched candles into an instrument's stored series.
package history

import (
	"sort"

	"github.com/navid-fn/momentum/internal/models"
)

// Upsert replaces the candle with the same date in place, or appends c.
// It does not sort: an appended candle may be older than existing ones.
// Applying the same candle twice gives the same result as applying it once.
func Upsert(history []models.Candle, c models.Candle) []models.Candle {
	for i := range history {
		if history[i].Date == c.Date {
			history[i] = c
			return history
		}
	}
	return append(history, c)
}

// UpsertAll upserts every candle in order, so the last duplicate date wins.
func UpsertAll(history []models.Candle, candles []models.Candle) []models.Candle {
	for _, c := range candles {
		history = Upsert(history, c)
	}
	return history
}

// SortByDate orders history ascending by date. Dates are YYYY-MM-DD so
// string order is chronological.
func SortByDate(history []models.Candle) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date < history[j].Date
	})
}

// Merge returns a new slice holding history with candles upserted and sorted.
// The backing array of history is never written to.
func Merge(history []models.Candle, candles []models.Candle) []models.Candle {
	merged := make([]models.Candle, len(history), len(history)+len(candles))
	copy(merged, history)
	merged = UpsertAll(merged, candles)
	SortByDate(merged)
	return merged
}

// Dedupe collapses candles sharing a date, keeping the last one, and sorts the result.
func Dedupe(candles []models.Candle) []models.Candle {
	return Merge(nil, candles)
}
