package optionlab

import (
	"fmt"

	"github.com/golang/glog"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// FitStrategy selects how GARCH(1,1) parameters are estimated.
type FitStrategy int

const (
	// FitBounded maximizes the likelihood with a Nelder-Mead simplex
	// restricted to ω ≥ 0, 0 ≤ α, β < 1 and α + β < 1.
	FitBounded FitStrategy = iota
	// FitStochastic runs a randomized hill climb with restarts.
	FitStochastic
)

func (s FitStrategy) String() string {
	switch s {
	case FitBounded:
		return "bounded-optimizer"
	case FitStochastic:
		return "stochastic-search"
	}
	return fmt.Sprintf("FitStrategy(%d)", int(s))
}

// FitStatus tells how the returned parameters were obtained.
type FitStatus int

const (
	// FitConverged means the returned parameters are the strategy's own
	// result and beat the initial guess.
	FitConverged FitStatus = iota
	// FitClamped means the optimizer result had a negative component that
	// was raised to zero.
	FitClamped
	// FitFellBack means nothing better than the initial guess was found and
	// the initial guess is returned.
	FitFellBack
)

func (s FitStatus) String() string {
	switch s {
	case FitConverged:
		return "converged"
	case FitClamped:
		return "clamped"
	case FitFellBack:
		return "fell-back"
	}
	return fmt.Sprintf("FitStatus(%d)", int(s))
}

// GarchFit is the result of FitVolatility.
type GarchFit struct {
	Params            GarchParameters
	Likelihood        float64
	InitialLikelihood float64
	Status            FitStatus
	Strategy          FitStrategy
	// Evaluations counts likelihood evaluations.
	Evaluations int
}

func (f *GarchFit) String() string {
	return fmt.Sprintf("%s %s: %s ll=%.4f (initial %.4f, %d evaluations)",
		f.Strategy, f.Status, f.Params, f.Likelihood, f.InitialLikelihood, f.Evaluations)
}

// FitVolatility estimates GARCH(1,1) parameters for series starting from
// cfg.Garch.InitialGuess(). rng is only used by FitStochastic and may be nil
// for FitBounded.
func FitVolatility(
	series PriceSeries,
	strategy FitStrategy,
	rng *rand.Rand,
	cfg *Config) (*GarchFit, error) {

	cfg = orDefault(cfg)
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if len(series) < 3 {
		return nil, invalidParameterf("GARCH fit needs at least 3 prices, got %d.", len(series))
	}
	guess := cfg.Garch.InitialGuess()
	if err := guess.Validate(); err != nil {
		return nil, err
	}
	if !guess.Stationary() {
		return nil, invalidParameterf("Initial GARCH guess %s is not stationary.", guess)
	}

	returns := series.Returns()
	var fit *GarchFit
	var err error
	switch strategy {
	case FitBounded:
		fit, err = fitBounded(returns, guess, cfg.Garch)
	case FitStochastic:
		if rng == nil {
			return nil, invalidParameterf("Stochastic GARCH search needs a random stream.")
		}
		fit = fitStochastic(returns, guess, rng, cfg.Garch)
	default:
		return nil, invalidParameterf("Unknown GARCH fit strategy %d.", int(strategy))
	}
	if err != nil {
		return nil, err
	}

	fit.Strategy = strategy
	glog.Infof("GARCH fit %s", fit)
	return fit, nil
}

// omegaScale brings ω to the order of magnitude of α and β inside the
// simplex.
const omegaScale = 1e-6

// infeasiblePenalty is the objective outside the admissible region. It is
// finite so the simplex can still rank infeasible vertices.
const infeasiblePenalty = 1e10

func toSimplex(g GarchParameters) []float64 {
	return []float64{g.Omega / omegaScale, g.Alpha, g.Beta}
}

func fromSimplex(x []float64) GarchParameters {
	return GarchParameters{Omega: x[0] * omegaScale, Alpha: x[1], Beta: x[2]}
}

// feasible reports whether g lies in the region searched by FitBounded.
func feasible(g GarchParameters) bool {
	return g.Validate() == nil && g.Stationary()
}

func fitBounded(returns []float64, guess GarchParameters, cfg GarchConfig) (*GarchFit, error) {
	evaluations := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			evaluations++
			g := fromSimplex(x)
			if !feasible(g) {
				return infeasiblePenalty
			}
			return -returnsLikelihood(g, returns)
		},
	}
	settings := &optimize.Settings{FuncEvaluations: cfg.MaxEvaluations}

	fit := &GarchFit{
		Params:            guess,
		InitialLikelihood: returnsLikelihood(guess, returns),
		Status:            FitFellBack,
	}
	fit.Likelihood = fit.InitialLikelihood

	result, err := optimize.Minimize(problem, toSimplex(guess), settings, &optimize.NelderMead{})
	fit.Evaluations = evaluations
	if result == nil {
		glog.Warningf("GARCH optimizer failed, keeping the initial guess. %v", err)
		return fit, nil
	}
	if err != nil {
		glog.Warningf("GARCH optimizer stopped with status %v. %v", result.Status, err)
	}

	params := fromSimplex(result.X)
	status := FitConverged
	if params.Omega < 0 {
		params.Omega = 0
		status = FitClamped
	}
	if params.Alpha < 0 {
		params.Alpha = 0
		status = FitClamped
	}
	if params.Beta < 0 {
		params.Beta = 0
		status = FitClamped
	}
	if !feasible(params) {
		glog.Warningf("GARCH optimizer ended outside the admissible region at %s.", params)
		return fit, nil
	}

	likelihood := returnsLikelihood(params, returns)
	if likelihood < fit.InitialLikelihood {
		glog.Warningf("GARCH optimizer result %s (ll=%v) is worse than the initial guess (ll=%v).",
			params, likelihood, fit.InitialLikelihood)
		return fit, nil
	}

	fit.Params = params
	fit.Likelihood = likelihood
	fit.Status = status
	return fit, nil
}

// neighbors returns g with parameter idx scaled by (1 + pct) and (1 − pct).
// The upward α or β stays below one, the downward move stays at or above
// zero.
func neighbors(g GarchParameters, idx int, pct float64) (GarchParameters, GarchParameters) {
	up, down := g, g
	switch idx {
	case 0:
		up.Omega = g.Omega * (1 + pct)
		down.Omega = MaxFloat(0, g.Omega*(1-pct))
	case 1:
		up.Alpha = clampUnit(g.Alpha * (1 + pct))
		down.Alpha = MaxFloat(0, g.Alpha*(1-pct))
	default:
		up.Beta = clampUnit(g.Beta * (1 + pct))
		down.Beta = MaxFloat(0, g.Beta*(1-pct))
	}
	return up, down
}

// fitStochastic runs cfg.Restarts hill climbs of cfg.Steps steps each from
// guess. Every step perturbs one randomly chosen parameter by a uniformly
// drawn percentage in both directions and keeps the better neighbor if it
// improves the likelihood. Neighbors with α + β ≥ 1 are never accepted.
func fitStochastic(
	returns []float64,
	guess GarchParameters,
	rng *rand.Rand,
	cfg GarchConfig) *GarchFit {

	perturbation := distuv.Uniform{
		Min: cfg.MinPerturbation,
		Max: cfg.MaxPerturbation,
		Src: rng,
	}
	evaluations := 0
	score := func(g GarchParameters) (float64, bool) {
		if !feasible(g) {
			return 0, false
		}
		evaluations++
		return returnsLikelihood(g, returns), true
	}

	initial, _ := score(guess)
	best, bestLikelihood := guess, initial

	for restart := 0; restart < cfg.Restarts; restart++ {
		current, currentLikelihood := guess, initial
		for step := 0; step < cfg.Steps; step++ {
			idx := rng.Intn(3)
			up, down := neighbors(current, idx, perturbation.Rand())

			upLikelihood, upOk := score(up)
			downLikelihood, downOk := score(down)
			if upOk && upLikelihood > currentLikelihood &&
				(!downOk || upLikelihood >= downLikelihood) {
				current, currentLikelihood = up, upLikelihood
			} else if downOk && downLikelihood > currentLikelihood {
				current, currentLikelihood = down, downLikelihood
			}
		}
		glog.V(2).Infof("GARCH restart %d ended at %s (ll=%v)", restart, current, currentLikelihood)
		if currentLikelihood > bestLikelihood {
			best, bestLikelihood = current, currentLikelihood
		}
	}

	status := FitConverged
	if best == guess {
		status = FitFellBack
	}
	return &GarchFit{
		Params:            best,
		Likelihood:        bestLikelihood,
		InitialLikelihood: initial,
		Status:            status,
		Evaluations:       evaluations,
	}
}
