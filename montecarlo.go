package optionlab

import (
	"fmt"
	"math"

	"github.com/golang/glog"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SamplingMethod selects how terminal prices are generated.
type SamplingMethod int

const (
	// SamplePlain draws one independent normal per sample and jumps
	// straight to maturity.
	SamplePlain SamplingMethod = iota
	// SampleAntithetic averages the payoffs of Z and −Z for every draw.
	SampleAntithetic
	// SampleMomentMatching rescales the whole batch of draws to sample mean
	// 0 and sample standard deviation 1.
	SampleMomentMatching
	// SampleAntitheticMomentMatching moment matches the batch, then pairs
	// every matched draw with its negation.
	SampleAntitheticMomentMatching
	// SampleStratified replaces random draws with Φ⁻¹(i/(n+1)), i = 1..n.
	SampleStratified
	// SampleMultiStep walks the GBM over Steps sub-intervals.
	SampleMultiStep
	// SampleCRR walks Steps up/down moves with Cox-Ross-Rubinstein
	// parameters.
	SampleCRR
	// SampleEqualProbability walks Steps up/down moves with p = 0.5.
	SampleEqualProbability
)

var samplingMethodNames = map[SamplingMethod]string{
	SamplePlain:                    "plain",
	SampleAntithetic:               "antithetic",
	SampleMomentMatching:           "moment-matching",
	SampleAntitheticMomentMatching: "antithetic-moment-matching",
	SampleStratified:               "stratified",
	SampleMultiStep:                "multi-step",
	SampleCRR:                      "crr",
	SampleEqualProbability:         "equal-probability",
}

func (m SamplingMethod) String() string {
	if name, ok := samplingMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SamplingMethod(%d)", int(m))
}

func (m SamplingMethod) walksPath() bool {
	return m == SampleMultiStep || m == SampleCRR || m == SampleEqualProbability
}

// SimulationSpec describes one Monte Carlo run.
type SimulationSpec struct {
	Method SamplingMethod
	Right  OptionRight
	// Samples is the number of normal draws, and of entries in Payoffs.
	// The antithetic methods evaluate every draw at Z and −Z and store the
	// pair average, so they price 2·Samples terminal values at the draw
	// cost of Samples plain samples.
	Samples int
	// Steps is the number of sub-intervals for the path walking methods.
	Steps int
	// Confidence is the two-tailed level of the reported interval, e.g.
	// 0.95.
	Confidence float64
}

// SimulationResult holds the discounted payoff of every sample and the
// statistics derived from them.
type SimulationResult struct {
	Method     SamplingMethod
	Payoffs    []float64
	Mean       float64
	StdDev     float64
	StdErr     float64
	Confidence float64
	Lower      float64
	Upper      float64
}

// ConfidenceInterval returns mean ± z·StdErr where z = Φ⁻¹((1+level)/2).
func (r *SimulationResult) ConfidenceInterval(level float64) (float64, float64, error) {
	if !(level > 0 && level < 1) {
		return 0, 0, invalidParameterf("Confidence level %v must be in (0, 1).", level)
	}
	z := distuv.UnitNormal.Quantile((1 + level) / 2)
	return r.Mean - z*r.StdErr, r.Mean + z*r.StdErr, nil
}

// Contains reports whether value lies inside [Lower, Upper].
func (r *SimulationResult) Contains(value float64) bool {
	return r.Lower <= value && value <= r.Upper
}

func (r *SimulationResult) String() string {
	return fmt.Sprintf("%s n=%d mean=%.4f sd=%.4f se=%.4f ci%.0f%%=[%.4f, %.4f]",
		r.Method, len(r.Payoffs), r.Mean, r.StdDev, r.StdErr,
		r.Confidence*100, r.Lower, r.Upper)
}

// StandardError is the sample standard deviation over √n.
func StandardError(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	_, sd := stat.MeanStdDev(values, nil)
	return sd / math.Sqrt(float64(len(values)))
}

// Simulate runs the Monte Carlo engine. Every sample is the discounted
// payoff e^(−rt)·max(0, S_T − K) (or the put analogue), floored for every
// sample without exception. rng is the only source of randomness; the same
// seed gives the same result regardless of cfg.MonteCarlo.Workers.
func Simulate(
	p OptionParameters,
	spec SimulationSpec,
	rng *rand.Rand,
	cfg *Config) (*SimulationResult, error) {

	cfg = orDefault(cfg)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if spec.Samples < 2 {
		return nil, invalidParameterf("Monte Carlo needs at least 2 samples, got %d.", spec.Samples)
	}
	if !(spec.Confidence > 0 && spec.Confidence < 1) {
		return nil, invalidParameterf("Confidence level %v must be in (0, 1).", spec.Confidence)
	}
	if spec.Method.walksPath() && spec.Steps < 1 {
		return nil, invalidParameterf("Method %s needs at least one step, got %d.", spec.Method, spec.Steps)
	}
	if spec.Method != SampleStratified && rng == nil {
		return nil, invalidParameterf("Method %s needs a random stream.", spec.Method)
	}

	var payoffs []float64
	var err error
	switch spec.Method {
	case SamplePlain, SampleAntithetic, SampleMomentMatching,
		SampleAntitheticMomentMatching, SampleStratified:
		payoffs, err = simulateOneStep(p, spec, rng, cfg)
	case SampleMultiStep, SampleCRR, SampleEqualProbability:
		payoffs, err = simulatePaths(p, spec, rng, cfg)
	default:
		return nil, invalidParameterf("Unknown sampling method %d.", int(spec.Method))
	}
	if err != nil {
		return nil, err
	}

	result := &SimulationResult{
		Method:     spec.Method,
		Payoffs:    payoffs,
		Confidence: spec.Confidence,
	}
	result.Mean, result.StdDev = stat.MeanStdDev(payoffs, nil)
	result.StdErr = result.StdDev / math.Sqrt(float64(len(payoffs)))
	result.Lower, result.Upper, _ = result.ConfidenceInterval(spec.Confidence)

	glog.V(1).Infof("Monte Carlo %s", result)
	return result, nil
}

// CheckValue runs a plain one-step simulation of cfg.MonteCarlo.CheckSamples
// samples and reports whether estimate falls inside its confidence
// interval. This is a statistical acceptance test: a correct estimate is
// rejected with probability 1 − level.
func CheckValue(
	estimate float64,
	p OptionParameters,
	right OptionRight,
	level float64,
	rng *rand.Rand,
	cfg *Config) (bool, *SimulationResult, error) {

	cfg = orDefault(cfg)
	result, err := Simulate(p, SimulationSpec{
		Method:     SamplePlain,
		Right:      right,
		Samples:    cfg.MonteCarlo.CheckSamples,
		Confidence: level,
	}, rng, cfg)
	if err != nil {
		return false, nil, err
	}
	return result.Contains(estimate), result, nil
}

// draws returns the transformed standard normal draws of a one-step run.
func draws(spec SimulationSpec, rng *rand.Rand) []float64 {
	n := spec.Samples
	z := make([]float64, n)
	if spec.Method == SampleStratified {
		for i := range z {
			z[i] = distuv.UnitNormal.Quantile(float64(i+1) / float64(n+1))
		}
		return z
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	for i := range z {
		z[i] = normal.Rand()
	}
	if spec.Method == SampleMomentMatching || spec.Method == SampleAntitheticMomentMatching {
		matchMoments(z)
	}
	return z
}

// matchMoments rescales z in place to sample mean 0 and sample standard
// deviation 1.
func matchMoments(z []float64) {
	mean, sd := stat.MeanStdDev(z, nil)
	floats.AddConst(-mean, z)
	if sd > 0 {
		floats.Scale(1/sd, z)
	}
}

func simulateOneStep(
	p OptionParameters,
	spec SimulationSpec,
	rng *rand.Rand,
	cfg *Config) ([]float64, error) {

	z := draws(spec, rng)
	drift := (p.Rate - p.Volatility*p.Volatility/2) * p.Maturity
	vol := p.Volatility * math.Sqrt(p.Maturity)
	discount := math.Exp(-p.Rate * p.Maturity)
	antithetic := spec.Method == SampleAntithetic || spec.Method == SampleAntitheticMomentMatching

	terminalPayoff := func(z float64) float64 {
		return discount * payoff(spec.Right, p.Spot*math.Exp(drift+vol*z), p.Strike)
	}

	payoffs := make([]float64, len(z))
	err := forEachChunk(len(z), cfg, func(chunk, begin, end int) error {
		for i := begin; i < end; i++ {
			if antithetic {
				payoffs[i] = (terminalPayoff(z[i]) + terminalPayoff(-z[i])) / 2
			} else {
				payoffs[i] = terminalPayoff(z[i])
			}
		}
		return nil
	})
	return payoffs, err
}

func simulatePaths(
	p OptionParameters,
	spec SimulationSpec,
	rng *rand.Rand,
	cfg *Config) ([]float64, error) {

	var next func(r *rand.Rand, s float64) float64
	switch spec.Method {
	case SampleMultiStep:
		dt := p.Maturity / float64(spec.Steps)
		drift := (p.Rate - p.Volatility*p.Volatility/2) * dt
		vol := p.Volatility * math.Sqrt(dt)
		next = func(r *rand.Rand, s float64) float64 {
			return s * math.Exp(drift+vol*r.NormFloat64())
		}
	default:
		kind := LatticeCRR
		if spec.Method == SampleEqualProbability {
			kind = LatticeEqualProbability
		}
		ls, err := NewLatticeStep(p, kind, spec.Steps)
		if err != nil {
			return nil, err
		}
		next = func(r *rand.Rand, s float64) float64 {
			if r.Float64() < ls.ProbUp {
				return s * ls.Up
			}
			return s * ls.Down
		}
	}

	discount := math.Exp(-p.Rate * p.Maturity)
	chunks := chunkCount(spec.Samples, cfg.MonteCarlo.ChunkSize)
	streams := substreams(rng, chunks)

	payoffs := make([]float64, spec.Samples)
	err := forEachChunk(spec.Samples, cfg, func(chunk, begin, end int) error {
		r := streams[chunk]
		for i := begin; i < end; i++ {
			s := p.Spot
			for step := 0; step < spec.Steps; step++ {
				s = next(r, s)
			}
			payoffs[i] = discount * payoff(spec.Right, s, p.Strike)
		}
		return nil
	})
	return payoffs, err
}

func chunkCount(n int, size int) int {
	return (n + size - 1) / size
}

// forEachChunk splits [0, n) into cfg.MonteCarlo.ChunkSize pieces and runs
// fn on at most cfg.workers() goroutines. Chunk boundaries depend only on n
// and the chunk size.
func forEachChunk(n int, cfg *Config, fn func(chunk, begin, end int) error) error {
	size := cfg.MonteCarlo.ChunkSize
	var g errgroup.Group
	g.SetLimit(cfg.workers())
	for chunk := 0; chunk < chunkCount(n, size); chunk++ {
		chunk := chunk
		begin := chunk * size
		end := begin + size
		if end > n {
			end = n
		}
		g.Go(func() error {
			return fn(chunk, begin, end)
		})
	}
	return g.Wait()
}
