package coingecko

import (
	"fmt"
	"sort"
	"time"

	"github.com/navid-fn/momentum/internal/crawler"
	"github.com/navid-fn/momentum/internal/models"
)

// ohlcRow is one row of /coins/{id}/ohlc: [timestamp_ms, open, high, low, close].
type ohlcRow []float64

func (r ohlcRow) valid() bool { return len(r) >= 5 }

func (r ohlcRow) time() time.Time { return time.UnixMilli(int64(r[0])).UTC() }

// daily collapses intraday rows into one candle per UTC date:
// first open, highest high, lowest low, last close. CoinGecko has no volume.
func daily(rows []ohlcRow) ([]models.Candle, error) {
	valid := make([]ohlcRow, 0, len(rows))
	for _, r := range rows {
		if !r.valid() {
			return nil, fmt.Errorf("malformed ohlc row %v", r)
		}
		valid = append(valid, r)
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i][0] < valid[j][0] })

	var (
		candles []models.Candle
		day     string
		open    float64
		high    float64
		low     float64
		last    float64
	)
	flush := func() {
		if day == "" {
			return
		}
		candles = append(candles, models.Candle{
			Date:  day,
			Open:  crawler.Price(open, crawler.CryptoPricePlaces),
			High:  crawler.Price(high, crawler.CryptoPricePlaces),
			Low:   crawler.Price(low, crawler.CryptoPricePlaces),
			Close: crawler.Price(last, crawler.CryptoPricePlaces),
		})
	}

	for _, r := range valid {
		d := crawler.Day(r.time())
		if d != day {
			flush()
			day, open, high, low, last = d, r[1], r[2], r[3], r[4]
			continue
		}
		high = max(high, r[2])
		low = min(low, r[3])
		last = r[4]
	}
	flush()

	return candles, nil
}
