package optionlab

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"github.com/golang/glog"
)

// Quote is one observed call option together with what is needed to value
// it.
type Quote struct {
	Symbol          string
	Spot            float64
	Strike          float64
	Rate            float64
	LastPrice       float64
	TradingDaysLeft int
	// PVDividends is the present value of the dividends going ex before
	// expiry.
	PVDividends float64
	// LastExDivDays is the number of trading days to the last ex-dividend
	// date before expiry, 0 when there is none.
	LastExDivDays int
	// PVBeforeLastExDiv is the present value of the dividends going ex
	// before that date.
	PVBeforeLastExDiv float64
}

// Valuation compares the model values of a Quote. Fields that could not be
// computed are NaN.
type Valuation struct {
	Quote Quote

	HistoricalVol float64
	GarchVol      float64

	BlackScholes    float64
	WithDividends   float64
	BlackAmerican   float64
	WithGarch       float64
	EmpiricalValue  float64
	ImpliedVol      ImpliedVolatility
	ImpliedVolError error
}

// Value prices q with historical and GARCH volatility estimated from
// series, both with and without the dividend corrections, and backs out the
// implied volatility of the last price.
func Value(q Quote, series PriceSeries, g GarchParameters, cfg *Config) (*Valuation, error) {
	cfg = orDefault(cfg)
	if q.TradingDaysLeft < 1 {
		return nil, invalidParameterf("%s has %d trading days left.", q.Symbol, q.TradingDaysLeft)
	}
	days := float64(cfg.TradingDaysPerYear)
	maturity := float64(q.TradingDaysLeft) / days

	histVol, err := HistoricalVolatility(series, cfg)
	if err != nil {
		return nil, err
	}
	garchVol, err := GarchVolatility(g, series, q.TradingDaysLeft, cfg)
	if err != nil {
		return nil, err
	}
	p, err := NewOptionParameters(q.Spot, q.Strike, q.Rate, maturity, histVol)
	if err != nil {
		return nil, err
	}

	v := &Valuation{
		Quote:          q,
		HistoricalVol:  histVol,
		GarchVol:       garchVol,
		EmpiricalValue: math.NaN(),
	}
	if v.BlackScholes, err = CallPrice(p); err != nil {
		return nil, err
	}
	adjusted, err := DividendAdjusted(p, q.PVDividends)
	if err != nil {
		return nil, err
	}
	if v.WithDividends, err = CallPrice(adjusted); err != nil {
		return nil, err
	}
	if v.WithGarch, err = CallPrice(adjusted.WithVolatility(garchVol)); err != nil {
		return nil, err
	}

	if q.LastExDivDays > 0 {
		exDiv := float64(q.LastExDivDays) / days
		v.BlackAmerican, err = BlackApproximation(p, q.PVDividends, exDiv, q.PVBeforeLastExDiv)
		if err != nil {
			return nil, err
		}
		v.ImpliedVol, v.ImpliedVolError = ImpliedVolatilityBlack(
			q.LastPrice, p, q.PVDividends, exDiv, q.PVBeforeLastExDiv, cfg)
	} else {
		v.BlackAmerican = v.WithDividends
		v.ImpliedVol, v.ImpliedVolError = ImpliedVolatilityWithDividends(
			q.LastPrice, p, q.PVDividends, cfg)
	}
	if v.ImpliedVolError != nil && !errors.Is(v.ImpliedVolError, ErrUnmeasurableVolatility) {
		return nil, v.ImpliedVolError
	}

	if q.TradingDaysLeft < len(series) {
		v.EmpiricalValue, err = EmpiricalExpectedValue(
			series, q.TradingDaysLeft, q.Spot, q.Strike, q.Rate, cfg)
		if err != nil {
			return nil, err
		}
	}
	glog.V(1).Infof("Valued %s: bs=%.3f implied=%s", q.Symbol, v.BlackScholes, v.ImpliedVol.Status)
	return v, nil
}

func formatNumber(x float64) string {
	if math.IsNaN(x) {
		return "N/A"
	}
	return fmt.Sprintf("%.3f", x)
}

// PrintTable writes one line per valuation. The model value closest to the
// last price is highlighted, and an unmeasurable implied volatility is
// printed as N/A.
func PrintTable(w io.Writer, rows []*Valuation) {
	// Print table headers
	fmt.Fprintf(w, "%-10s %-6s %-9s %-6s %-9s %-9s %-9s %-9s %-9s %-7s %-7s %-7s %-9s\n",
		"Symbol", "Days", "Last", "Rate", "BS", "BSDiv", "BSAmer", "BSGarch",
		"ExpVal", "VolHist", "VolGar", "VolImp", "Dividends")

	yellowColor := color.New(color.FgYellow).SprintFunc()
	defaultColor := color.New(color.FgBlue).SprintFunc()
	redColor := color.New(color.FgRed).SprintFunc()

	for _, row := range rows {
		q := row.Quote
		models := []float64{row.BlackScholes, row.WithDividends, row.BlackAmerican, row.WithGarch}
		closest := 0
		for i, m := range models {
			if math.Abs(m-q.LastPrice) < math.Abs(models[closest]-q.LastPrice) {
				closest = i
			}
		}
		cells := make([]string, len(models))
		for i, m := range models {
			cell := fmt.Sprintf("%-9s", formatNumber(m))
			if i == closest {
				cells[i] = yellowColor(cell)
			} else {
				cells[i] = defaultColor(cell)
			}
		}

		implied := fmt.Sprintf("%-7s", "N/A")
		if row.ImpliedVol.Measurable() {
			implied = fmt.Sprintf("%-7.3f", row.ImpliedVol.Sigma)
		} else {
			implied = redColor(implied)
		}

		fmt.Fprintf(w, "%-10s %-6d %-9.3f %-6.4f %s %s %s %s %-9s %-7.3f %-7.3f %s %-9.3f\n",
			q.Symbol, q.TradingDaysLeft, q.LastPrice, q.Rate,
			cells[0], cells[1], cells[2], cells[3],
			formatNumber(row.EmpiricalValue), row.HistoricalVol, row.GarchVol,
			implied, q.PVDividends)
	}
}

// PrintSimulations writes the statistics of each simulation next to the
// reference value, marking runs whose interval misses it.
func PrintSimulations(w io.Writer, reference float64, results []*SimulationResult) {
	fmt.Fprintf(w, "%-28s %-9s %-9s %-9s %-21s %s\n",
		"Method", "Mean", "StdDev", "StdErr", "Interval", "Covers")

	greenColor := color.New(color.FgGreen).SprintFunc()
	redColor := color.New(color.FgRed).SprintFunc()
	for _, r := range results {
		covers := greenColor("yes")
		if !r.Contains(reference) {
			covers = redColor("no")
		}
		fmt.Fprintf(w, "%-28s %-9.4f %-9.4f %-9.4f [%-8.4f, %-8.4f] %s\n",
			r.Method, r.Mean, r.StdDev, r.StdErr, r.Lower, r.Upper, covers)
	}
	fmt.Fprintf(w, "\nReference value: %-10.4f\n", reference)
}
