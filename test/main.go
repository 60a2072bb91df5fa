package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/joshi-prasad/optionlab"
)

var (
	configPath = flag.String("config", "", "YAML config file, defaults when empty")
	pricesPath = flag.String("prices", "", "CSV of daily closes, a simulated series when empty")
	column     = flag.String("column", optionlab.DefaultPriceColumn, "price column of -prices")
	seed       = flag.Uint64("seed", 1, "seed of the random stream")
	chartPath  = flag.String("chart", "", "write the lattice convergence chart to this HTML file")
	plotPath   = flag.String("plot", "", "write the GARCH forecast plot to this PNG file")
)

func loadConfig() (*optionlab.Config, error) {
	if *configPath == "" {
		return optionlab.DefaultConfig(), nil
	}
	return optionlab.LoadConfig(*configPath)
}

func loadSeries(cfg *optionlab.Config) (optionlab.PriceSeries, error) {
	if *pricesPath != "" {
		return optionlab.ReadPriceSeriesFile(*pricesPath, *column)
	}
	generating := optionlab.GarchParameters{Omega: 2e-6, Alpha: 0.09, Beta: 0.89}
	return optionlab.SimulatePrices(generating, 42, 3*cfg.TradingDaysPerYear, optionlab.NewStream(*seed))
}

func main() {
	flag.Set("alsologtostderr", "true")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		glog.Error("Failed to load config.", err)
		os.Exit(1)
	}

	p, err := optionlab.NewOptionParameters(42, 40, 0.1, 0.5, 0.2)
	if err != nil {
		glog.Error("Bad option parameters.", err)
		os.Exit(1)
	}

	fmt.Println("==============================================")
	fmt.Println("Parameters ", p)
	for _, req := range []optionlab.PriceRequest{
		{Params: p, Method: optionlab.MethodAnalytic},
		{Params: p, Method: optionlab.MethodLatticeCRR, Resolution: optionlab.Resolution{Steps: 200}},
		{Params: p, Method: optionlab.MethodLatticeEqualProbability, Resolution: optionlab.Resolution{Steps: 200}},
		{Params: p, Method: optionlab.MethodPDE, Resolution: optionlab.Resolution{PriceIntervals: 40, TimeIntervals: 20}},
		{Params: p, Method: optionlab.MethodMonteCarlo, Rng: optionlab.NewStream(*seed),
			Resolution: optionlab.Resolution{Samples: 100000, Sampling: optionlab.SampleAntitheticMomentMatching}},
	} {
		value, err := optionlab.Price(req, cfg)
		if err != nil {
			glog.Errorf("Pricing with %s failed. %v", req.Method, err)
			continue
		}
		fmt.Printf("%-28s %.4f\n", req.Method, value)
	}
	greeks, err := optionlab.ComputeGreeks(p, optionlab.Call)
	if err == nil {
		fmt.Println("Greeks ", greeks)
	}
	fmt.Println("==============================================")

	european, _ := optionlab.CallPrice(p)
	rng := optionlab.NewStream(*seed)
	var results []*optionlab.SimulationResult
	for _, method := range []optionlab.SamplingMethod{
		optionlab.SamplePlain,
		optionlab.SampleAntithetic,
		optionlab.SampleMomentMatching,
		optionlab.SampleAntitheticMomentMatching,
		optionlab.SampleStratified,
		optionlab.SampleMultiStep,
		optionlab.SampleCRR,
		optionlab.SampleEqualProbability,
	} {
		result, err := optionlab.Simulate(p, optionlab.SimulationSpec{
			Method:     method,
			Samples:    20000,
			Steps:      50,
			Confidence: 0.95,
		}, rng, cfg)
		if err != nil {
			glog.Errorf("Simulation %s failed. %v", method, err)
			continue
		}
		results = append(results, result)
	}
	optionlab.PrintSimulations(os.Stdout, european, results)
	fmt.Println("==============================================")

	series, err := loadSeries(cfg)
	if err != nil {
		glog.Error("Failed to load prices.", err)
		os.Exit(1)
	}
	fit, err := optionlab.FitVolatility(series, optionlab.FitBounded, nil, cfg)
	if err != nil {
		glog.Error("GARCH fit failed.", err)
		os.Exit(1)
	}
	fmt.Println("GARCH ", fit)
	report, err := optionlab.Diagnose(fit.Params, series, 15)
	if err == nil {
		fmt.Println("Diagnostics ", report)
	}

	quote := optionlab.Quote{
		Symbol:          "DEMO",
		Spot:            series.Last(),
		Strike:          series.Last(),
		Rate:            0.05,
		LastPrice:       0.06 * series.Last(),
		TradingDaysLeft: 63,
		PVDividends:     0.01 * series.Last(),
	}
	valuation, err := optionlab.Value(quote, series, fit.Params, cfg)
	if err != nil {
		glog.Error("Valuation failed.", err)
		os.Exit(1)
	}
	optionlab.PrintTable(os.Stdout, []*optionlab.Valuation{valuation})

	if *chartPath != "" {
		writeFile(*chartPath, func(f *os.File) error {
			return optionlab.RenderConvergenceChart(f, p, optionlab.Call, []int{10, 20, 50, 100, 200, 500})
		})
	}
	if *plotPath != "" {
		writeFile(*plotPath, func(f *os.File) error {
			return optionlab.RenderVarianceForecast(f, fit.Params, series, 252, cfg)
		})
	}
}

func writeFile(path string, render func(f *os.File) error) {
	f, err := os.Create(path)
	if err != nil {
		glog.Errorf("Creating %s failed. %v", path, err)
		return
	}
	defer f.Close()
	if err := render(f); err != nil {
		glog.Errorf("Writing %s failed. %v", path, err)
	}
}
