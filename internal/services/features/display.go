package features

// DisplayRSI is the dashboard RSI series: same indicator as the feature
// column, with warm-up positions shown as 0 instead of filled.
func DisplayRSI(prices []float64) []float64 {
	out := RSI(prices, RSIPeriod)
	for i, v := range out {
		if isUndefined(v) {
			out[i] = 0
		}
	}
	return out
}

// DailyReturns returns one-step percent changes (x100); the first value is 0.
func DailyReturns(prices []float64) []float64 {
	out := PctChange(prices, 1)
	for i, v := range out {
		if isUndefined(v) {
			out[i] = 0
			continue
		}
		out[i] = v * 100
	}
	return out
}

// LastChangePercent returns the percent change between the last two prices.
// ok is false when fewer than two prices are available.
func LastChangePercent(prices []float64) (pct float64, ok bool) {
	n := len(prices)
	if n < 2 || prices[n-2] == 0 {
		return 0, false
	}
	return (prices[n-1] - prices[n-2]) / prices[n-2] * 100, true
}
