package optionlab

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// OptionRight selects the payoff of an option.
type OptionRight int

const (
	Call OptionRight = iota
	Put
)

func (r OptionRight) String() string {
	switch r {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return fmt.Sprintf("OptionRight(%d)", int(r))
}

// OptionParameters is the immutable bundle every pricer works on.
//
// Spot and Strike are in currency units, Rate is the continuously
// compounded annual risk free rate, Maturity is the time to expiry in years
// and Volatility is the annualized standard deviation of the log return of
// the underlying.
type OptionParameters struct {
	Spot       float64 `validate:"gt=0"`
	Strike     float64 `validate:"gt=0"`
	Rate       float64
	Maturity   float64 `validate:"gt=0"`
	Volatility float64 `validate:"gt=0"`
}

var validate = validator.New()

// NewOptionParameters builds and validates an OptionParameters value.
func NewOptionParameters(
	spot float64,
	strike float64,
	rate float64,
	maturity float64,
	volatility float64) (OptionParameters, error) {

	p := OptionParameters{
		Spot:       spot,
		Strike:     strike,
		Rate:       rate,
		Maturity:   maturity,
		Volatility: volatility,
	}
	return p, p.Validate()
}

// Validate checks every field, including Volatility.
func (p OptionParameters) Validate() error {
	return checkStruct(p, validate.Struct(p))
}

// validateWithoutVolatility is used by the implied volatility search, where
// σ is the unknown.
func (p OptionParameters) validateWithoutVolatility() error {
	return checkStruct(p, validate.StructExcept(p, "Volatility"))
}

// WithVolatility returns a copy of p using sigma.
func (p OptionParameters) WithVolatility(sigma float64) OptionParameters {
	p.Volatility = sigma
	return p
}

// WithSpot returns a copy of p using spot.
func (p OptionParameters) WithSpot(spot float64) OptionParameters {
	p.Spot = spot
	return p
}

// WithMaturity returns a copy of p using maturity.
func (p OptionParameters) WithMaturity(maturity float64) OptionParameters {
	p.Maturity = maturity
	return p
}

func (p OptionParameters) String() string {
	return fmt.Sprintf("S=%.4f K=%.4f r=%.4f t=%.4f sigma=%.4f",
		p.Spot, p.Strike, p.Rate, p.Maturity, p.Volatility)
}

func checkStruct(p OptionParameters, err error) error {
	if err == nil {
		for _, v := range []float64{p.Spot, p.Strike, p.Rate, p.Maturity} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidParameterf("Option parameters must be finite. %s", p)
			}
		}
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		field := verrs[0]
		return invalidParameterf("Option parameter %s=%v failed rule %s=%s.",
			field.Field(), field.Value(), field.Tag(), field.Param())
	}
	return invalidParameterf("Option parameters %s are invalid. %v", p, err)
}
