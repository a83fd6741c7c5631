package models

// Candle represents one trading-day observation of an instrument in the catalog document.
// Prices and volume are pointers because vendors omit them; a nil value is written as null.
type Candle struct {
	// Date is the calendar day of the observation (YYYY-MM-DD), unique within a series.
	Date string `json:"date"`

	// Open is the opening price of the day.
	Open *float64 `json:"open"`

	// High is the highest price during the day.
	High *float64 `json:"high"`

	// Low is the lowest price during the day.
	Low *float64 `json:"low"`

	// Close is the closing price of the day.
	Close *float64 `json:"close"`

	// Volume is the traded volume. CoinGecko does not provide one.
	Volume *float64 `json:"volume"`

	// RSI is the 14 period Wilder RSI. Only set on the latest candle of a series.
	RSI *float64 `json:"rsi"`

	// EMA20Diff is the percent distance of close from its 20 period EMA.
	EMA20Diff *float64 `json:"ema20_diff"`

	// EMA50Diff is the percent distance of close from its 50 period EMA.
	EMA50Diff *float64 `json:"ema50_diff"`

	// EMA120Diff is the percent distance of close from its 120 period EMA.
	EMA120Diff *float64 `json:"ema120_diff"`

	// EMA200Diff is the percent distance of close from its 200 period EMA.
	EMA200Diff *float64 `json:"ema200_diff"`

	// VolumeRatio90d is the latest volume over the max volume of the last 90 observations.
	VolumeRatio90d *float64 `json:"volume_ratio_90d"`

	// VolumeRatioAlltime is the latest volume over the max volume of the indicator window.
	VolumeRatioAlltime *float64 `json:"volume_ratio_alltime"`
}

// Indicators holds the derived fields written onto the latest candle of a series.
type Indicators struct {
	RSI                *float64
	EMA20Diff          *float64
	EMA50Diff          *float64
	EMA120Diff         *float64
	EMA200Diff         *float64
	VolumeRatio90d     *float64
	VolumeRatioAlltime *float64
}

// ApplyIndicators overwrites the derived fields of c.
func (c *Candle) ApplyIndicators(ind Indicators) {
	c.RSI = ind.RSI
	c.EMA20Diff = ind.EMA20Diff
	c.EMA50Diff = ind.EMA50Diff
	c.EMA120Diff = ind.EMA120Diff
	c.EMA200Diff = ind.EMA200Diff
	c.VolumeRatio90d = ind.VolumeRatio90d
	c.VolumeRatioAlltime = ind.VolumeRatioAlltime
}

// Indicators returns the derived fields currently stored on c.
func (c Candle) Indicators() Indicators {
	return Indicators{
		RSI:                c.RSI,
		EMA20Diff:          c.EMA20Diff,
		EMA50Diff:          c.EMA50Diff,
		EMA120Diff:         c.EMA120Diff,
		EMA200Diff:         c.EMA200Diff,
		VolumeRatio90d:     c.VolumeRatio90d,
		VolumeRatioAlltime: c.VolumeRatioAlltime,
	}
}

// Float returns a pointer to v. Vendors build candles with it.
func Float(v float64) *float64 {
	return &v
}
