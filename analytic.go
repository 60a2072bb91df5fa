package optionlab

import (
	"fmt"
	"math"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/stat/distuv"
)

// NormCdf is the cumulative distribution function of the standard normal
// distribution.
func NormCdf(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPdf is the density of the standard normal distribution.
func NormPdf(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// d1d2 returns the two Black-Scholes-Merton arguments
//
//	d1 = (ln(S/K) + t(r + σ²/2)) / (σ√t)
//	d2 = d1 - σ√t
//
// The caller must have validated p.
func d1d2(p OptionParameters) (float64, float64) {
	a := p.Volatility * math.Sqrt(p.Maturity)
	d1 := (math.Log(p.Spot/p.Strike) +
		p.Maturity*(p.Rate+p.Volatility*p.Volatility/2)) / a
	return d1, d1 - a
}

// CallPrice is the Black-Scholes-Merton value of a European call on one
// share: S·Φ(d1) − K·e^(−rt)·Φ(d2).
func CallPrice(p OptionParameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return callPrice(p), nil
}

// PutPrice is the Black-Scholes-Merton value of a European put on one share:
// K·e^(−rt)·Φ(−d2) − S·Φ(−d1).
func PutPrice(p OptionParameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return putPrice(p), nil
}

// EuropeanPrice dispatches on right.
func EuropeanPrice(p OptionParameters, right OptionRight) (float64, error) {
	if right == Put {
		return PutPrice(p)
	}
	return CallPrice(p)
}

func callPrice(p OptionParameters) float64 {
	d1, d2 := d1d2(p)
	return p.Spot*NormCdf(d1) - p.Strike*math.Exp(-p.Rate*p.Maturity)*NormCdf(d2)
}

func putPrice(p OptionParameters) float64 {
	d1, d2 := d1d2(p)
	return p.Strike*math.Exp(-p.Rate*p.Maturity)*NormCdf(-d2) - p.Spot*NormCdf(-d1)
}

// HedgeRatio is Φ(d1), the number of shares of the underlying to short
// against one long call.
func HedgeRatio(p OptionParameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	d1, _ := d1d2(p)
	return NormCdf(d1), nil
}

// PutCallParityGap returns C − P − S + K·e^(−rt). It is zero for a
// consistent pair of European prices.
func PutCallParityGap(call float64, put float64, p OptionParameters) float64 {
	return call - put - p.Spot + p.Strike*math.Exp(-p.Rate*p.Maturity)
}

// DividendAdjusted lowers the spot by the present value of the dividends
// whose ex-dividend date falls before expiry.
func DividendAdjusted(p OptionParameters, pvDividends float64) (OptionParameters, error) {
	if pvDividends < 0 {
		return p, invalidParameterf("Dividend present value %v cannot be negative.", pvDividends)
	}
	if p.Spot-pvDividends <= 0 {
		return p, invalidParameterf(
			"Dividend present value %v exceeds the spot price %v.", pvDividends, p.Spot)
	}
	return p.WithSpot(p.Spot - pvDividends), nil
}

// BlackApproximation values an American call on a dividend paying stock as
// the larger of two European calls: one held to expiry on S minus every
// dividend, and one exercised just before the last ex-dividend date
// (lastExDivTime years from now) on S minus the dividends paid before it.
func BlackApproximation(
	p OptionParameters,
	pvAll float64,
	lastExDivTime float64,
	pvBeforeLast float64) (float64, error) {

	if lastExDivTime <= 0 || lastExDivTime > p.Maturity {
		return 0, invalidParameterf(
			"Last ex-dividend time %v must be in (0, %v].", lastExDivTime, p.Maturity)
	}
	held, err := DividendAdjusted(p, pvAll)
	if err != nil {
		return 0, err
	}
	early, err := DividendAdjusted(p.WithMaturity(lastExDivTime), pvBeforeLast)
	if err != nil {
		return 0, err
	}
	heldValue, err := CallPrice(held)
	if err != nil {
		return 0, err
	}
	earlyValue, err := CallPrice(early)
	if err != nil {
		return 0, err
	}
	return MaxFloat(heldValue, earlyValue), nil
}

// VolatilityStatus tells whether an implied volatility search produced a
// usable estimate.
type VolatilityStatus int

const (
	VolatilityMeasured VolatilityStatus = iota
	// VolatilityBelowRange means the market price is below the model price
	// at the lower search bound.
	VolatilityBelowRange
	// VolatilityAboveRange means the market price is above the model price
	// at the upper search bound.
	VolatilityAboveRange
)

func (s VolatilityStatus) String() string {
	switch s {
	case VolatilityMeasured:
		return "measured"
	case VolatilityBelowRange:
		return "below-range"
	case VolatilityAboveRange:
		return "above-range"
	}
	return fmt.Sprintf("VolatilityStatus(%d)", int(s))
}

// ImpliedVolatility is the outcome of a bisection search. Sigma is only
// meaningful when Status is VolatilityMeasured.
type ImpliedVolatility struct {
	Sigma      float64
	Status     VolatilityStatus
	Iterations int
}

// Measurable reports whether the search converged inside its bounds.
func (iv ImpliedVolatility) Measurable() bool {
	return iv.Status == VolatilityMeasured
}

// ImpliedVolatilityCall inverts CallPrice for σ. The Volatility field of p
// is ignored. A search that never moves off one of its bounds yields a
// result with the matching status and an error wrapping
// ErrUnmeasurableVolatility.
func ImpliedVolatilityCall(
	marketPrice float64,
	p OptionParameters,
	cfg *Config) (ImpliedVolatility, error) {

	if err := p.validateWithoutVolatility(); err != nil {
		return ImpliedVolatility{}, err
	}
	return impliedVolatility(marketPrice, func(sigma float64) float64 {
		return callPrice(p.WithVolatility(sigma))
	}, orDefault(cfg).ImpliedVol)
}

// ImpliedVolatilityWithDividends is ImpliedVolatilityCall on the dividend
// adjusted spot.
func ImpliedVolatilityWithDividends(
	marketPrice float64,
	p OptionParameters,
	pvDividends float64,
	cfg *Config) (ImpliedVolatility, error) {

	if err := p.validateWithoutVolatility(); err != nil {
		return ImpliedVolatility{}, err
	}
	adjusted, err := DividendAdjusted(p, pvDividends)
	if err != nil {
		return ImpliedVolatility{}, err
	}
	return impliedVolatility(marketPrice, func(sigma float64) float64 {
		return callPrice(adjusted.WithVolatility(sigma))
	}, orDefault(cfg).ImpliedVol)
}

// ImpliedVolatilityBlack inverts BlackApproximation for σ.
func ImpliedVolatilityBlack(
	marketPrice float64,
	p OptionParameters,
	pvAll float64,
	lastExDivTime float64,
	pvBeforeLast float64,
	cfg *Config) (ImpliedVolatility, error) {

	if err := p.validateWithoutVolatility(); err != nil {
		return ImpliedVolatility{}, err
	}
	// Validate the dividend inputs once with a placeholder σ.
	if _, err := BlackApproximation(p.WithVolatility(1), pvAll, lastExDivTime, pvBeforeLast); err != nil {
		return ImpliedVolatility{}, err
	}
	return impliedVolatility(marketPrice, func(sigma float64) float64 {
		value, _ := BlackApproximation(p.WithVolatility(sigma), pvAll, lastExDivTime, pvBeforeLast)
		return value
	}, orDefault(cfg).ImpliedVol)
}

// impliedVolatility runs a bisection over [cfg.Lower, cfg.Upper]. The model
// price must increase monotonically in σ.
func impliedVolatility(
	marketPrice float64,
	price func(sigma float64) float64,
	cfg ImpliedVolConfig) (ImpliedVolatility, error) {

	if marketPrice < 0 || !isFinite(marketPrice) {
		return ImpliedVolatility{}, invalidParameterf(
			"Market price %v must be a non-negative number.", marketPrice)
	}

	lowerBound := cfg.Lower
	upperBound := cfg.Upper
	lowerMoved := false
	upperMoved := false
	iterations := 0

	for upperBound-lowerBound > cfg.Tolerance {
		iterations++
		guess := (lowerBound + upperBound) / 2
		guessPrice := price(guess)
		if guessPrice < marketPrice {
			lowerBound = guess
			lowerMoved = true
		} else if guessPrice > marketPrice {
			upperBound = guess
			upperMoved = true
		} else {
			return ImpliedVolatility{Sigma: guess, Iterations: iterations}, nil
		}
	}

	iv := ImpliedVolatility{
		Sigma:      (lowerBound + upperBound) / 2,
		Iterations: iterations,
	}
	switch {
	case !lowerMoved:
		iv.Status = VolatilityBelowRange
	case !upperMoved:
		iv.Status = VolatilityAboveRange
	default:
		return iv, nil
	}

	glog.Warningf("Implied volatility for price %v saturated (%s) at %v.",
		marketPrice, iv.Status, iv.Sigma)
	return iv, fmt.Errorf("%w: market price %v is %s of [%v, %v]",
		ErrUnmeasurableVolatility, marketPrice, iv.Status, cfg.Lower, cfg.Upper)
}
