package indicator

// EMA returns the exponential moving average of prices, rounded to 8 decimals.
// It is seeded with the first price, not with an SMA warmup, so values differ
// from a textbook EMA until the seed has decayed. Consumers of the catalog
// depend on this seeding.
func EMA(prices []float64, period int) *float64 {
	if len(prices) == 0 || period <= 0 {
		return nil
	}

	k := 2 / (float64(period) + 1)
	ema := prices[0]
	for _, price := range prices[1:] {
		ema = price*k + ema*(1-k)
	}

	v := Round(ema, 8)
	return &v
}

// Deviation returns (price-ema)/ema*100 rounded to 2 decimals,
// or nil when ema is missing or zero.
func Deviation(price float64, ema *float64) *float64 {
	if ema == nil || *ema == 0 {
		return nil
	}
	v := Round((price-*ema) / *ema * 100, 2)
	return &v
}
