package optionlab

import (
	"fmt"
	"math"
)

// calendarDaysPerYear converts the annual theta into a per day decay.
const calendarDaysPerYear = 365

// Greeks are the Black-Scholes-Merton sensitivities of a European option.
type Greeks struct {
	Delta float64
	// Gamma is the same for a call and a put on the same strike.
	Gamma float64
	// Vega is the price change for a one point (1%) move in volatility.
	Vega float64
	// Theta is the time decay per calendar day.
	Theta float64
	// Rho is the price change for a one point (1%) move in the rate.
	Rho float64
}

func (g Greeks) String() string {
	return fmt.Sprintf("delta=%.4f gamma=%.4f vega=%.4f theta=%.4f rho=%.4f",
		g.Delta, g.Gamma, g.Vega, g.Theta, g.Rho)
}

// ComputeGreeks returns the sensitivities of the option selected by right.
//
// Delta is Φ(d1) for a call and −Φ(−d1) for a put. The call delta is the
// hedge ratio: the number of shares to short against one long call.
//
// Gamma φ(d1)/(Sσ√t) measures how fast delta moves with the underlying.
//
// Theta combines the decay of the volatility term −Sφ(d1)σ/(2√t) with the
// carry on the strike, −rKe^(−rt)Φ(d2) for a call and +rKe^(−rt)Φ(−d2) for
// a put.
//
// Rho is Kte^(−rt)Φ(d2) for a call and −Kte^(−rt)Φ(−d2) for a put.
func ComputeGreeks(p OptionParameters, right OptionRight) (Greeks, error) {
	if err := p.Validate(); err != nil {
		return Greeks{}, err
	}
	d1, d2 := d1d2(p)
	sqrtT := math.Sqrt(p.Maturity)
	discount := math.Exp(-p.Rate * p.Maturity)
	density := NormPdf(d1)

	g := Greeks{
		Gamma: density / (p.Spot * p.Volatility * sqrtT),
		Vega:  p.Spot * density * sqrtT / 100,
	}
	decay := -p.Spot * density * p.Volatility / (2 * sqrtT)
	if right == Put {
		g.Delta = -NormCdf(-d1)
		g.Theta = (decay + p.Rate*p.Strike*discount*NormCdf(-d2)) / calendarDaysPerYear
		g.Rho = -p.Strike * p.Maturity * discount * NormCdf(-d2) / 100
	} else {
		g.Delta = NormCdf(d1)
		g.Theta = (decay - p.Rate*p.Strike*discount*NormCdf(d2)) / calendarDaysPerYear
		g.Rho = p.Strike * p.Maturity * discount * NormCdf(d2) / 100
	}
	return g, nil
}
