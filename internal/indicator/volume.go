package indicator

// VolumeRatios compares the latest volume with the maximum of the last
// VolumeLookback volumes and with the maximum of all given volumes.
// volumes must hold only positive values, oldest first. Ratios are rounded
// to 3 decimals and are nil when there is no volume data.
func VolumeRatios(volumes []float64) (ratio90, ratioAll *float64) {
	if len(volumes) == 0 {
		return nil, nil
	}
	current := volumes[len(volumes)-1]

	recent := volumes
	if len(volumes) >= VolumeLookback {
		recent = volumes[len(volumes)-VolumeLookback:]
	}

	return ratio(current, maxOf(recent)), ratio(current, maxOf(volumes))
}

func ratio(current, peak float64) *float64 {
	if peak == 0 {
		return nil
	}
	v := Round(current/peak, 3)
	return &v
}

func maxOf(values []float64) float64 {
	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	return peak
}
