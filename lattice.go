package optionlab

import (
	"fmt"
	"math"

	"github.com/golang/glog"
)

// LatticeKind selects how the binomial up/down multipliers and the up
// probability are derived.
type LatticeKind int

const (
	// LatticeCRR is the Cox-Ross-Rubinstein risk-neutral tree:
	// u = e^(σ√Δt), d = 1/u, p = (e^(rΔt) − d)/(u − d).
	LatticeCRR LatticeKind = iota
	// LatticeEqualProbability uses p = 0.5 and
	// u, d = e^((r − σ²/2)Δt ± σ√Δt).
	LatticeEqualProbability
)

func (k LatticeKind) String() string {
	switch k {
	case LatticeCRR:
		return "crr"
	case LatticeEqualProbability:
		return "equal-probability"
	}
	return fmt.Sprintf("LatticeKind(%d)", int(k))
}

// MinLatticeSteps is the smallest tree accepted: a root and two leaves
// after one collapse.
const MinLatticeSteps = 2

// LatticeStep holds the per-period multipliers of a binomial tree. The
// Monte Carlo engine samples paths from the same quantities.
type LatticeStep struct {
	Dt       float64
	Up       float64
	Down     float64
	ProbUp   float64
	Discount float64
}

// NewLatticeStep derives the per-period parameters for kind over steps
// periods. It fails with ErrNumericalDegenerate when the up probability
// falls outside [0, 1], which happens for the CRR tree when Δt is too
// coarse for the rate.
func NewLatticeStep(p OptionParameters, kind LatticeKind, steps int) (LatticeStep, error) {
	if err := p.Validate(); err != nil {
		return LatticeStep{}, err
	}
	if steps < 1 {
		return LatticeStep{}, invalidParameterf("Lattice needs at least one period, got %d.", steps)
	}

	dt := p.Maturity / float64(steps)
	ls := LatticeStep{Dt: dt, Discount: math.Exp(-p.Rate * dt)}
	switch kind {
	case LatticeCRR:
		ls.Up = math.Exp(p.Volatility * math.Sqrt(dt))
		ls.Down = 1 / ls.Up
		ls.ProbUp = (math.Exp(p.Rate*dt) - ls.Down) / (ls.Up - ls.Down)
	case LatticeEqualProbability:
		drift := (p.Rate - p.Volatility*p.Volatility/2) * dt
		vol := p.Volatility * math.Sqrt(dt)
		ls.Up = math.Exp(drift + vol)
		ls.Down = math.Exp(drift - vol)
		ls.ProbUp = 0.5
	default:
		return LatticeStep{}, invalidParameterf("Unknown lattice kind %d.", int(kind))
	}

	if !(ls.ProbUp >= 0 && ls.ProbUp <= 1) {
		return LatticeStep{}, degeneratef(
			"Lattice %s probability %v outside [0, 1] for %s and %d steps.",
			kind, ls.ProbUp, p, steps)
	}
	return ls, nil
}

// LatticePrice values an American option by backward induction through a
// recombining binomial tree with steps periods. Each node takes the larger
// of its intrinsic value and its discounted expectation.
func LatticePrice(
	p OptionParameters,
	right OptionRight,
	kind LatticeKind,
	steps int) (float64, error) {

	if steps < MinLatticeSteps {
		return 0, invalidParameterf(
			"Lattice needs at least %d steps, got %d.", MinLatticeSteps, steps)
	}
	ls, err := NewLatticeStep(p, kind, steps)
	if err != nil {
		return 0, err
	}

	// Two fixed buffers swapped after each collapse.
	current := make([]float64, steps+1)
	next := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		s := nodePrice(p.Spot, ls, steps, i)
		current[i] = payoff(right, s, p.Strike)
	}

	q := 1 - ls.ProbUp
	for level := steps - 1; level >= 0; level-- {
		for i := 0; i <= level; i++ {
			hold := (ls.ProbUp*current[i] + q*current[i+1]) * ls.Discount
			exercise := intrinsic(right, nodePrice(p.Spot, ls, level, i), p.Strike)
			value := MaxFloat(hold, exercise)
			if value < 0 || !isFinite(value) {
				return 0, degeneratef(
					"Lattice node (%d, %d) has value %v for %s.", level, i, value, p)
			}
			next[i] = value
		}
		current, next = next, current
	}

	glog.V(2).Infof("Lattice %s %s with %d steps: %v", kind, right, steps, current[0])
	return current[0], nil
}

// nodePrice is the underlying price at node i (counted from the top, i down
// moves) of the given level.
func nodePrice(spot float64, ls LatticeStep, level int, i int) float64 {
	return spot * math.Pow(ls.Up, float64(level-i)) * math.Pow(ls.Down, float64(i))
}
