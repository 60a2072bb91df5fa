package optionlab

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SampleMeanLogReturn is the mean daily log return ln(S_N/S_1)/(N−1).
func SampleMeanLogReturn(series PriceSeries) (float64, error) {
	if err := series.Validate(); err != nil {
		return 0, err
	}
	return math.Log(series.Last()/series[0]) / float64(len(series)-1), nil
}

// HistoricalVolatility estimates the annualized volatility of the log
// return from daily closes:
//
//	sqrt(D · Σ (ln(S_i/S_{i−1}) − m)² / (N − 2))
//
// where m is SampleMeanLogReturn and D is cfg.TradingDaysPerYear.
func HistoricalVolatility(series PriceSeries, cfg *Config) (float64, error) {
	cfg = orDefault(cfg)
	if len(series) < 3 {
		return 0, invalidParameterf("Historical volatility needs at least 3 prices, got %d.", len(series))
	}
	m, err := SampleMeanLogReturn(series)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, r := range series.LogReturns() {
		total += (r - m) * (r - m)
	}
	return math.Sqrt(float64(cfg.TradingDaysPerYear) * total / float64(len(series)-2)), nil
}

// ExcessKurtosis of the daily log returns. A normal distribution has 0; daily
// stock returns are usually well above it.
func ExcessKurtosis(series PriceSeries) (float64, error) {
	if len(series) < 5 {
		return 0, invalidParameterf("Kurtosis needs at least 5 prices, got %d.", len(series))
	}
	if err := series.Validate(); err != nil {
		return 0, err
	}
	return stat.ExKurtosis(series.LogReturns(), nil), nil
}

// EmpiricalExpectedValue values a call with window trading days to expiry
// by replaying every historical window of that length:
//
//	e^(−r·window/D) · mean_i max(spot·S_{i+window}/S_i − K, 0)
//
// where D is cfg.TradingDaysPerYear.
func EmpiricalExpectedValue(
	series PriceSeries,
	window int,
	spot float64,
	strike float64,
	rate float64,
	cfg *Config) (float64, error) {

	cfg = orDefault(cfg)
	if err := series.Validate(); err != nil {
		return 0, err
	}
	if window < 1 || window >= len(series) {
		return 0, invalidParameterf("Window %d must be in [1, %d).", window, len(series))
	}
	if !(spot > 0) || !(strike > 0) {
		return 0, invalidParameterf("Spot %v and strike %v must be positive.", spot, strike)
	}

	values := make([]float64, 0, len(series)-window)
	for i := 0; i+window < len(series); i++ {
		values = append(values, payoff(Call, spot*series[i+window]/series[i], strike))
	}
	discount := math.Exp(-rate * float64(window) / float64(cfg.TradingDaysPerYear))
	return discount * stat.Mean(values, nil), nil
}

// HedgedExcessReturn is the one day paper profit of holding one call and
// shorting its hedge ratio in the underlying, net of the financing of the
// position:
//
//	(W_f − W_i) − Δ(S_f − S_i) − (W_f − Δ·S_f)(e^(r/D) − 1)
//
// W_i and Δ are valued on prev, W_f on next. D is cfg.TradingDaysPerYear.
func HedgedExcessReturn(prev OptionParameters, next OptionParameters, cfg *Config) (float64, error) {
	cfg = orDefault(cfg)
	wi, err := CallPrice(prev)
	if err != nil {
		return 0, err
	}
	wf, err := CallPrice(next)
	if err != nil {
		return 0, err
	}
	delta, err := HedgeRatio(prev)
	if err != nil {
		return 0, err
	}
	financing := math.Exp(prev.Rate/float64(cfg.TradingDaysPerYear)) - 1
	return (wf - wi) - delta*(next.Spot-prev.Spot) - (wf-delta*next.Spot)*financing, nil
}
