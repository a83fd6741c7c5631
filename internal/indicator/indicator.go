// Package indicator computes the derived fields of the latest candle of a series:
// Wilder RSI, EMA deviations and volume ratios over a trailing window.
//
// Every function here is pure. Inputs are read and never reordered.
package indicator

import "github.com/navid-fn/momentum/internal/models"

const (
	// WindowSize is how many trailing candles feed the indicator math.
	WindowSize = 250

	// MinObservations is the minimum number of closes before anything is computed.
	MinObservations = 14

	// RSIPeriod is the Wilder RSI lookback.
	RSIPeriod = 14

	// VolumeLookback is the window of the short volume ratio.
	VolumeLookback = 90
)

// EMAPeriods are the EMA lookbacks reported as deviations, in field order.
var EMAPeriods = []int{20, 50, 120, 200}

// Window returns the trailing WindowSize candles of history without copying.
func Window(history []models.Candle) []models.Candle {
	if len(history) > WindowSize {
		return history[len(history)-WindowSize:]
	}
	return history
}

// Compute derives the indicators of the last candle of history.
// history must be ascending by date. Candles without a close are ignored.
func Compute(history []models.Candle) models.Indicators {
	window := Window(history)

	closes := make([]float64, 0, len(window))
	volumes := make([]float64, 0, len(window))
	for _, c := range window {
		if c.Close != nil {
			closes = append(closes, *c.Close)
		}
		if c.Volume != nil && *c.Volume > 0 {
			volumes = append(volumes, *c.Volume)
		}
	}

	if len(closes) < MinObservations {
		return models.Indicators{}
	}

	current := closes[len(closes)-1]
	diffs := make([]*float64, len(EMAPeriods))
	for i, period := range EMAPeriods {
		if len(closes) < period {
			continue
		}
		diffs[i] = Deviation(current, EMA(closes, period))
	}

	ratio90, ratioAll := VolumeRatios(volumes)

	return models.Indicators{
		RSI:                RSI(closes, RSIPeriod),
		EMA20Diff:          diffs[0],
		EMA50Diff:          diffs[1],
		EMA120Diff:         diffs[2],
		EMA200Diff:         diffs[3],
		VolumeRatio90d:     ratio90,
		VolumeRatioAlltime: ratioAll,
	}
}

// Apply computes the indicators of history and stores them on its last candle.
// Earlier candles, the length and the order of history are left as they are.
func Apply(history []models.Candle) {
	if len(history) == 0 {
		return
	}
	history[len(history)-1].ApplyIndicators(Compute(history))
}
