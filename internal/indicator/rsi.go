package indicator

// RSI returns the Wilder relative strength index of prices, rounded to 2 decimals.
// The first averages are the plain mean of the first period changes; the rest
// are smoothed with avg = (avg*(period-1) + value) / period.
// It returns nil when there are fewer than period+1 prices.
func RSI(prices []float64, period int) *float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}
	p := float64(period)
	avgGain /= p
	avgLoss /= p

	for i := period + 1; i < len(prices); i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		v := 100.0
		return &v
	}

	rs := avgGain / avgLoss
	v := Round(100-(100/(1+rs)), 2)
	return &v
}

// split returns the gain and loss magnitude of one price change.
func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}
