package optionlab

import (
	"errors"
	"math"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestPrice(t *testing.T) {
	convey.Convey("TestPrice", t, func() {
		p := hullCall(t)
		analytic, _ := CallPrice(p)

		requests := []PriceRequest{
			{Method: MethodAnalytic},
			{Method: MethodLatticeCRR, Resolution: Resolution{Steps: 500}},
			{Method: MethodLatticeEqualProbability, Resolution: Resolution{Steps: 500}},
			{Method: MethodPDE, Resolution: Resolution{PriceIntervals: 40, TimeIntervals: 20}},
			{Method: MethodMonteCarlo, Resolution: Resolution{
				Samples: 200000, Sampling: SampleAntithetic,
			}, Rng: NewStream(3)},
		}
		for _, req := range requests {
			req.Params = p
			req.Right = Call
			value, err := Price(req, nil)
			convey.So(err, convey.ShouldBeNil)
			// Without dividends the American call equals the European one.
			convey.So(math.Abs(value-analytic), convey.ShouldBeLessThan, 0.05)
		}

		convey.So(MethodPDE.American(), convey.ShouldBeTrue)
		convey.So(MethodMonteCarlo.American(), convey.ShouldBeFalse)
		convey.So(MethodLatticeCRR.String(), convey.ShouldEqual, "lattice-crr")

		convey.Convey("Unknown methods and missing sizes are rejected", func() {
			_, err := Price(PriceRequest{Params: p, Method: Method(42)}, nil)
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

			_, err = Price(PriceRequest{Params: p, Method: MethodLatticeCRR}, nil)
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

			_, err = Price(PriceRequest{Params: p, Method: MethodMonteCarlo,
				Resolution: Resolution{Samples: 100}}, nil)
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)
		})
	})
}
