package optionlab

import (
	"fmt"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Autocorrelation is the sample autocovariance of values at lag divided by
// their sample variance, both taken around the full sample mean.
func Autocorrelation(values []float64, lag int) (float64, error) {
	n := len(values)
	if lag < 0 || lag >= n {
		return 0, invalidParameterf("Lag %d must be in [0, %d).", lag, n)
	}
	mean := stat.Mean(values, nil)
	var num, den float64
	for i, x := range values {
		d := x - mean
		den += d * d
		if i+lag < n {
			num += d * (values[i+lag] - mean)
		}
	}
	if den == 0 {
		return 0, degeneratef("Autocorrelation of a constant series is undefined.")
	}
	return num / den, nil
}

// LjungBox is the portmanteau statistic N(N+2)·Σ_{k=1}^{maxLag} ρ_k²/(N−k).
// It also returns ρ_1..ρ_maxLag.
func LjungBox(values []float64, maxLag int) (float64, []float64, error) {
	n := len(values)
	if maxLag < 1 || maxLag >= n {
		return 0, nil, invalidParameterf("Ljung-Box max lag %d must be in [1, %d).", maxLag, n)
	}
	rhos := make([]float64, maxLag)
	sum := 0.0
	for k := 1; k <= maxLag; k++ {
		rho, err := Autocorrelation(values, k)
		if err != nil {
			return 0, nil, err
		}
		rhos[k-1] = rho
		sum += rho * rho / float64(n-k)
	}
	return float64(n) * float64(n+2) * sum, rhos, nil
}

// LjungBoxPValue is 1 − F(statistic) for the chi-square distribution with
// maxLag degrees of freedom.
func LjungBoxPValue(statistic float64, maxLag int) float64 {
	return 1 - distuv.ChiSquared{K: float64(maxLag)}.CDF(statistic)
}

// DiagnosticsReport summarizes the autocorrelation left in the squared
// standardized residuals u_i²/v_i of a fitted GARCH model. A small PValue
// means the model has not explained the volatility clustering.
type DiagnosticsReport struct {
	Params           GarchParameters
	MaxLag           int
	Observations     int
	Autocorrelations []float64
	Statistic        float64
	PValue           float64
}

func (r *DiagnosticsReport) String() string {
	return fmt.Sprintf("Ljung-Box(%d) over %d residuals: Q=%.4f p=%.4f",
		r.MaxLag, r.Observations, r.Statistic, r.PValue)
}

// SquaredResiduals returns u_k²/v_k for k ≥ 1 with the same pairing
// LogLikelihood scores. Days with a non-positive variance are skipped.
func SquaredResiduals(g GarchParameters, series PriceSeries) ([]float64, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	returns := series.Returns()
	v := VarianceSeries(g, returns)
	residuals := make([]float64, 0, len(returns))
	for k := 1; k < len(returns); k++ {
		if v[k] <= 0 {
			continue
		}
		residuals = append(residuals, returns[k]*returns[k]/v[k])
	}
	return residuals, nil
}

// Diagnose runs the Ljung-Box test up to maxLag on the squared standardized
// residuals of g over series.
func Diagnose(g GarchParameters, series PriceSeries, maxLag int) (*DiagnosticsReport, error) {
	residuals, err := SquaredResiduals(g, series)
	if err != nil {
		return nil, err
	}
	statistic, rhos, err := LjungBox(residuals, maxLag)
	if err != nil {
		return nil, err
	}
	report := &DiagnosticsReport{
		Params:           g,
		MaxLag:           maxLag,
		Observations:     len(residuals),
		Autocorrelations: rhos,
		Statistic:        statistic,
		PValue:           LjungBoxPValue(statistic, maxLag),
	}
	glog.V(1).Infof("GARCH diagnostics %s: %s", g, report)
	return report, nil
}
