package optionlab

import (
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/golang/glog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ConvergencePoint is one lattice resolution of a convergence study.
type ConvergencePoint struct {
	Steps            int
	CRR              float64
	EqualProbability float64
}

// LatticeConvergence prices p on both lattices for every entry of steps.
func LatticeConvergence(p OptionParameters, right OptionRight, steps []int) ([]ConvergencePoint, error) {
	points := make([]ConvergencePoint, 0, len(steps))
	for _, n := range steps {
		crr, err := LatticePrice(p, right, LatticeCRR, n)
		if err != nil {
			return nil, err
		}
		equal, err := LatticePrice(p, right, LatticeEqualProbability, n)
		if err != nil {
			return nil, err
		}
		points = append(points, ConvergencePoint{Steps: n, CRR: crr, EqualProbability: equal})
	}
	return points, nil
}

// RenderConvergenceChart writes an HTML line chart of both lattice prices
// against the number of steps, with the European value as a reference line.
func RenderConvergenceChart(w io.Writer, p OptionParameters, right OptionRight, steps []int) error {
	points, err := LatticeConvergence(p, right, steps)
	if err != nil {
		return err
	}
	european, err := EuropeanPrice(p, right)
	if err != nil {
		return err
	}

	xAxis := make([]string, 0, len(points))
	crr := make([]opts.LineData, 0, len(points))
	equal := make([]opts.LineData, 0, len(points))
	reference := make([]opts.LineData, 0, len(points))
	for _, point := range points {
		xAxis = append(xAxis, strconv.Itoa(point.Steps))
		crr = append(crr, opts.LineData{Value: point.CRR})
		equal = append(equal, opts.LineData{Value: point.EqualProbability})
		reference = append(reference, opts.LineData{Value: european})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Lattice convergence",
			Subtitle: right.String() + " " + p.String(),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "steps"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "price"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
	)
	line.SetXAxis(xAxis).
		AddSeries(LatticeCRR.String(), crr).
		AddSeries(LatticeEqualProbability.String(), equal).
		AddSeries("european", reference)

	if err := line.Render(w); err != nil {
		glog.Errorf("Rendering convergence chart failed. %v", err)
		return err
	}
	return nil
}

// RenderVarianceForecast writes a PNG of the annualized GARCH volatility
// forecast sqrt(D·forecast) for horizons 0..days.
func RenderVarianceForecast(
	w io.Writer,
	g GarchParameters,
	series PriceSeries,
	days int,
	cfg *Config) error {

	cfg = orDefault(cfg)
	if days < 1 {
		return invalidParameterf("Forecast chart needs at least 1 day, got %d.", days)
	}
	pts := make(plotter.XYs, days+1)
	for h := 0; h <= days; h++ {
		v, err := DailyVarianceForecast(g, series, h)
		if err != nil {
			return err
		}
		pts[h].X = float64(h)
		pts[h].Y = annualizedVolatility(v, cfg)
	}
	vl, err := g.LongRunVariance()
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "GARCH(1,1) volatility forecast"
	p.X.Label.Text = "Trading days ahead"
	p.Y.Label.Text = "Annualized volatility"
	p.Add(plotter.NewGrid())

	forecast, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	forecast.Color = color.RGBA{B: 200, A: 255}

	longRun, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: annualizedVolatility(vl, cfg)},
		{X: float64(days), Y: annualizedVolatility(vl, cfg)},
	})
	if err != nil {
		return err
	}
	longRun.Color = color.RGBA{R: 200, A: 255}
	longRun.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(forecast, longRun)
	p.Legend.Add("forecast", forecast)
	p.Legend.Add("long run", longRun)
	return writePlot(w, p, 8*vg.Inch, 5*vg.Inch)
}

// RenderPayoffHistogram writes a PNG histogram of the discounted payoffs of
// a simulation.
func RenderPayoffHistogram(w io.Writer, result *SimulationResult, bins int) error {
	if len(result.Payoffs) == 0 {
		return invalidParameterf("Simulation has no payoffs to plot.")
	}
	p := plot.New()
	p.Title.Text = "Discounted payoff, " + result.Method.String()
	p.X.Label.Text = "Payoff"

	h, err := plotter.NewHist(plotter.Values(result.Payoffs), bins)
	if err != nil {
		return err
	}
	h.Normalize(1)
	p.Add(h)
	return writePlot(w, p, 6*vg.Inch, 4*vg.Inch)
}

func writePlot(w io.Writer, p *plot.Plot, width vg.Length, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		glog.Errorf("Encoding plot failed. %v", err)
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
