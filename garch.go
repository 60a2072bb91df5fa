package optionlab

import (
	"fmt"
	"math"

	"github.com/golang/glog"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// GarchParameters are the coefficients of the GARCH(1,1) recurrence
//
//	v_i = ω + α·u_{i−1}² + β·v_{i−1}
type GarchParameters struct {
	Omega float64
	Alpha float64
	Beta  float64
}

func (g GarchParameters) String() string {
	return fmt.Sprintf("omega=%.4g alpha=%.4f beta=%.4f", g.Omega, g.Alpha, g.Beta)
}

// Validate checks the bounds ω ≥ 0, 0 ≤ α < 1 and 0 ≤ β < 1.
// Stationarity is checked separately by LongRunVariance.
func (g GarchParameters) Validate() error {
	if !(g.Omega >= 0) || math.IsInf(g.Omega, 0) {
		return invalidParameterf("GARCH omega %v must be a non-negative number.", g.Omega)
	}
	if !(g.Alpha >= 0 && g.Alpha < 1) {
		return invalidParameterf("GARCH alpha %v must be in [0, 1).", g.Alpha)
	}
	if !(g.Beta >= 0 && g.Beta < 1) {
		return invalidParameterf("GARCH beta %v must be in [0, 1).", g.Beta)
	}
	return nil
}

// Persistence is α + β.
func (g GarchParameters) Persistence() float64 {
	return g.Alpha + g.Beta
}

// Stationary reports whether α + β < 1.
func (g GarchParameters) Stationary() bool {
	return g.Persistence() < 1
}

// LongRunVariance is Vl = ω/(1 − α − β). A non-stationary process has no
// long-run variance and yields ErrNumericalDegenerate.
func (g GarchParameters) LongRunVariance() (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	if !g.Stationary() {
		return 0, degeneratef(
			"GARCH process with alpha+beta=%v is not stationary. %s", g.Persistence(), g)
	}
	return g.Omega / (1 - g.Persistence()), nil
}

// VarianceSeries returns the conditional variances aligned with returns.
// v[0] = u[0]² seeds the recurrence and v[k] = ω + α·u[k−1]² + β·v[k−1],
// so v[k] only uses returns before u[k].
func VarianceSeries(g GarchParameters, returns []float64) []float64 {
	if len(returns) == 0 {
		return nil
	}
	v := make([]float64, len(returns))
	v[0] = returns[0] * returns[0]
	for k := 1; k < len(returns); k++ {
		v[k] = g.Omega + g.Alpha*returns[k-1]*returns[k-1] + g.Beta*v[k-1]
	}
	return v
}

// dayLikelihood is −ln(v) − u²/v, or 0 when v is not positive.
func dayLikelihood(u float64, v float64) float64 {
	if v <= 0 {
		return 0
	}
	return -math.Log(v) - u*u/v
}

// returnsLikelihood sums dayLikelihood over the pairs (u[k], v[k]) for
// k ≥ 1. The seed pair does not depend on the parameters and is left out.
func returnsLikelihood(g GarchParameters, returns []float64) float64 {
	v := VarianceSeries(g, returns)
	sum := 0.0
	for k := 1; k < len(returns); k++ {
		sum += dayLikelihood(returns[k], v[k])
	}
	return sum
}

// LogLikelihood scores g against the daily returns of series. Higher is
// better.
func LogLikelihood(g GarchParameters, series PriceSeries) (float64, error) {
	if err := series.Validate(); err != nil {
		return 0, err
	}
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return returnsLikelihood(g, series.Returns()), nil
}

// nextVariance is the recurrence applied one day past the last return.
func nextVariance(g GarchParameters, returns []float64) float64 {
	v := VarianceSeries(g, returns)
	last := len(returns) - 1
	return g.Omega + g.Alpha*returns[last]*returns[last] + g.Beta*v[last]
}

// NextDayVariance is v_0, the daily variance forecast for the day after the
// last price of series.
func NextDayVariance(g GarchParameters, series PriceSeries) (float64, error) {
	if err := series.Validate(); err != nil {
		return 0, err
	}
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return nextVariance(g, series.Returns()), nil
}

// DailyVarianceForecast is the expected daily variance h days after the
// next day: Vl + (α+β)^h·(v_0 − Vl). h = 0 gives NextDayVariance.
func DailyVarianceForecast(g GarchParameters, series PriceSeries, h int) (float64, error) {
	if h < 0 {
		return 0, invalidParameterf("Forecast horizon %d cannot be negative.", h)
	}
	vl, err := g.LongRunVariance()
	if err != nil {
		return 0, err
	}
	v0, err := NextDayVariance(g, series)
	if err != nil {
		return 0, err
	}
	return vl + math.Pow(g.Persistence(), float64(h))*(v0-vl), nil
}

// AnnualizedAverageVariance is the time average of the daily variance
// forecast over the next h trading days, annualized:
//
//	D·(Vl + ((1 − e^(−ah))/(ah))·(v_0 − Vl)),  a = ln(1/(α+β))
//
// where D is cfg.TradingDaysPerYear. Its square root is the volatility to
// use for an option with h trading days to expiry.
func AnnualizedAverageVariance(
	g GarchParameters,
	series PriceSeries,
	h int,
	cfg *Config) (float64, error) {

	cfg = orDefault(cfg)
	if h < 1 {
		return 0, invalidParameterf("Average variance horizon must be at least 1 day, got %d.", h)
	}
	vl, err := g.LongRunVariance()
	if err != nil {
		return 0, err
	}
	v0, err := NextDayVariance(g, series)
	if err != nil {
		return 0, err
	}

	ah := math.Log(1/g.Persistence()) * float64(h)
	weight := (1 - math.Exp(-ah)) / ah
	average := float64(cfg.TradingDaysPerYear) * (vl + weight*(v0-vl))
	glog.V(2).Infof("GARCH %s average variance over %d days: %v", g, h, average)
	return average, nil
}

// ForecastVariance returns the annualized average variance over horizonDays
// when annualized is set and the daily variance horizonDays ahead otherwise.
func ForecastVariance(
	g GarchParameters,
	series PriceSeries,
	horizonDays int,
	annualized bool,
	cfg *Config) (float64, error) {

	if annualized {
		return AnnualizedAverageVariance(g, series, horizonDays, cfg)
	}
	return DailyVarianceForecast(g, series, horizonDays)
}

// GarchVolatility is the square root of AnnualizedAverageVariance, the
// volatility input for an option with h trading days to expiry.
func GarchVolatility(g GarchParameters, series PriceSeries, h int, cfg *Config) (float64, error) {
	variance, err := AnnualizedAverageVariance(g, series, h, cfg)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(variance), nil
}

func annualizedVolatility(dailyVariance float64, cfg *Config) float64 {
	return math.Sqrt(float64(cfg.TradingDaysPerYear) * dailyVariance)
}

// SimulatePrices generates n+1 prices starting at start whose simple returns
// follow g: v_1 = Vl, u_i = √v_i·z_i and the recurrence above.
func SimulatePrices(g GarchParameters, start float64, n int, rng *rand.Rand) (PriceSeries, error) {
	vl, err := g.LongRunVariance()
	if err != nil {
		return nil, err
	}
	if !(start > 0) || n < 1 {
		return nil, invalidParameterf("Cannot simulate %d prices from %v.", n, start)
	}
	if rng == nil {
		return nil, invalidParameterf("Simulating prices needs a random stream.")
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	series := make(PriceSeries, n+1)
	series[0] = start
	v, u := vl, 0.0
	for i := 1; i <= n; i++ {
		if i > 1 {
			v = g.Omega + g.Alpha*u*u + g.Beta*v
		}
		u = math.Sqrt(v) * normal.Rand()
		series[i] = series[i-1] * (1 + u)
	}
	return series, nil
}
