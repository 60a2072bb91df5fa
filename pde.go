package optionlab

import (
	"math"

	"github.com/golang/glog"
)

// pdeCoefficients are the explicit-scheme weights of one price level j:
//
//	a_j = (−½ r j Δt + ½ σ² j² Δt) / (1 + rΔt)
//	b_j = (1 − σ² j² Δt) / (1 + rΔt)
//	c_j = ( ½ r j Δt + ½ σ² j² Δt) / (1 + rΔt)
type pdeCoefficients struct {
	a, b, c []float64
}

// pdeNegativeTolerance is the fraction of the strike a continuation value
// may fall below zero before the grid counts as oscillating.
const pdeNegativeTolerance = 0.01

func newPDECoefficients(p OptionParameters, m int, dt float64) pdeCoefficients {
	coef := pdeCoefficients{
		a: make([]float64, m+1),
		b: make([]float64, m+1),
		c: make([]float64, m+1),
	}
	sigma2 := p.Volatility * p.Volatility
	denom := 1 + p.Rate*dt
	for j := 0; j <= m; j++ {
		fj := float64(j)
		coef.a[j] = (-0.5*p.Rate*fj*dt + 0.5*sigma2*fj*fj*dt) / denom
		coef.b[j] = (1 - sigma2*fj*fj*dt) / denom
		coef.c[j] = (0.5*p.Rate*fj*dt + 0.5*sigma2*fj*fj*dt) / denom
	}
	return coef
}

// PDEPrice values an American option with the explicit finite-difference
// scheme on a grid of m price intervals over [0, 2·max(S, K)] and n time
// intervals over [0, t]. Interior nodes are floored at their exercise value
// at every step. The value at price index ⌊S/ΔS⌋ is returned.
//
// An unstable grid makes the scheme oscillate with growing amplitude. A
// continuation value below −pdeNegativeTolerance·K, or any node above its
// upper bound, is reported as ErrNumericalDegenerate. With
// cfg.PDE.StrictStability the grid is also rejected up front when
// σ²m²Δt > 1, which is the condition for every b_j to be non-negative.
func PDEPrice(
	p OptionParameters,
	right OptionRight,
	m int,
	n int,
	cfg *Config) (float64, error) {

	cfg = orDefault(cfg)
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if m < 2 {
		return 0, invalidParameterf("PDE grid needs at least 2 price intervals, got %d.", m)
	}
	if n < 1 {
		return 0, invalidParameterf("PDE grid needs at least 1 time interval, got %d.", n)
	}

	sMax := 2 * math.Max(p.Spot, p.Strike)
	dt := p.Maturity / float64(n)
	ds := sMax / float64(m)

	courant := p.Volatility * p.Volatility * float64(m) * float64(m) * dt
	if courant > 1 {
		if cfg.PDE.StrictStability {
			return 0, degeneratef(
				"PDE grid m=%d n=%d is unstable for %s (sigma^2 m^2 dt = %.4f > 1).",
				m, n, p, courant)
		}
		glog.V(1).Infof("PDE grid m=%d n=%d has sigma^2 m^2 dt = %.4f.", m, n, courant)
	}

	lowerBoundary, upperBoundary := 0.0, sMax-p.Strike
	ceiling := sMax
	if right == Put {
		lowerBoundary, upperBoundary = p.Strike, 0
		ceiling = p.Strike
	}

	coef := newPDECoefficients(p, m, dt)
	exercise := make([]float64, m+1)
	current := make([]float64, m+1)
	next := make([]float64, m+1)
	for j := 0; j <= m; j++ {
		exercise[j] = payoff(right, float64(j)*ds, p.Strike)
		current[j] = exercise[j]
	}

	for step := n - 1; step >= 0; step-- {
		next[0] = lowerBoundary
		next[m] = upperBoundary
		for j := 1; j < m; j++ {
			f := coef.a[j]*current[j-1] + coef.b[j]*current[j] + coef.c[j]*current[j+1]
			if f < -pdeNegativeTolerance*p.Strike {
				return 0, degeneratef(
					"PDE grid m=%d n=%d oscillated at time step %d, price level %d (value %v) for %s.",
					m, n, step, j, f, p)
			}
			f = MaxFloat(f, exercise[j])
			if !isFinite(f) || f > ceiling {
				return 0, degeneratef(
					"PDE grid m=%d n=%d diverged at time step %d, price level %d (value %v) for %s.",
					m, n, step, j, f, p)
			}
			next[j] = f
		}
		current, next = next, current
	}

	idx := nearestIndex(p.Spot, ds, m)
	glog.V(2).Infof("PDE %s m=%d n=%d: %v at index %d", right, m, n, current[idx], idx)
	return current[idx], nil
}
