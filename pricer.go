package optionlab

import (
	"fmt"

	"github.com/golang/glog"
	"golang.org/x/exp/rand"
)

// Method selects the pricing engine used by Price.
type Method int

const (
	MethodAnalytic Method = iota
	MethodLatticeCRR
	MethodLatticeEqualProbability
	MethodPDE
	MethodMonteCarlo
)

func (m Method) String() string {
	switch m {
	case MethodAnalytic:
		return "analytic"
	case MethodLatticeCRR:
		return "lattice-crr"
	case MethodLatticeEqualProbability:
		return "lattice-equal-probability"
	case MethodPDE:
		return "pde"
	case MethodMonteCarlo:
		return "monte-carlo"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// American reports whether the engine values early exercise.
func (m Method) American() bool {
	return m == MethodLatticeCRR || m == MethodLatticeEqualProbability || m == MethodPDE
}

// Resolution carries the method specific sizes. Only the fields of the
// selected method are read.
type Resolution struct {
	// Steps is the number of lattice periods, or of sub-intervals for the
	// path walking Monte Carlo schemes.
	Steps int
	// PriceIntervals and TimeIntervals size the PDE grid.
	PriceIntervals int
	TimeIntervals  int
	// Samples and Sampling configure the Monte Carlo run.
	Samples  int
	Sampling SamplingMethod
}

// PriceRequest bundles the inputs of Price.
type PriceRequest struct {
	Params     OptionParameters
	Right      OptionRight
	Method     Method
	Resolution Resolution
	// Rng feeds MethodMonteCarlo and is ignored by the other methods.
	Rng *rand.Rand
}

// Price values one option with the requested engine. The analytic and
// Monte Carlo engines value the European option; lattice and PDE value the
// American one.
func Price(req PriceRequest, cfg *Config) (float64, error) {
	cfg = orDefault(cfg)
	var value float64
	var err error
	switch req.Method {
	case MethodAnalytic:
		value, err = EuropeanPrice(req.Params, req.Right)
	case MethodLatticeCRR:
		value, err = LatticePrice(req.Params, req.Right, LatticeCRR, req.Resolution.Steps)
	case MethodLatticeEqualProbability:
		value, err = LatticePrice(req.Params, req.Right, LatticeEqualProbability, req.Resolution.Steps)
	case MethodPDE:
		value, err = PDEPrice(req.Params, req.Right,
			req.Resolution.PriceIntervals, req.Resolution.TimeIntervals, cfg)
	case MethodMonteCarlo:
		var result *SimulationResult
		result, err = Simulate(req.Params, SimulationSpec{
			Method:     req.Resolution.Sampling,
			Right:      req.Right,
			Samples:    req.Resolution.Samples,
			Steps:      req.Resolution.Steps,
			Confidence: 0.95,
		}, req.Rng, cfg)
		if err == nil {
			value = result.Mean
		}
	default:
		return 0, invalidParameterf("Unknown pricing method %d.", int(req.Method))
	}
	if err != nil {
		return 0, err
	}
	glog.V(1).Infof("Price %s %s [%s] = %v", req.Method, req.Right, req.Params, value)
	return value, nil
}
