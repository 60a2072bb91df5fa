package optionlab

import (
	"errors"
	"math"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func hullPut(t *testing.T) OptionParameters {
	p, err := NewOptionParameters(50, 50, 0.1, 0.4167, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPDEAmericanPut(t *testing.T) {
	convey.Convey("TestPDEAmericanPut", t, func() {
		p := hullPut(t)
		european, _ := PutPrice(p)

		convey.Convey("The 20x10 grid is reproducible", func() {
			first, err := PDEPrice(p, Put, 20, 10, nil)
			convey.So(err, convey.ShouldBeNil)
			second, err := PDEPrice(p, Put, 20, 10, nil)
			convey.So(err, convey.ShouldBeNil)

			convey.So(first, convey.ShouldEqual, second)
			convey.So(first, convey.ShouldAlmostEqual, 4.256947449912636, 1e-9)
			convey.So(first, convey.ShouldBeGreaterThanOrEqualTo, european)
		})

		convey.Convey("The premium vanishes without interest", func() {
			zeroRate := p
			zeroRate.Rate = 0
			american, err := PDEPrice(zeroRate, Put, 100, 1000, nil)
			convey.So(err, convey.ShouldBeNil)
			analytic, _ := PutPrice(zeroRate)
			convey.So(math.Abs(american-analytic), convey.ShouldBeLessThan, 0.01)
		})

		convey.Convey("The American put is worth at least the European one", func() {
			american, err := PDEPrice(p, Put, 100, 1000, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(american, convey.ShouldBeGreaterThanOrEqualTo, european)
		})
	})
}

func TestPDECall(t *testing.T) {
	convey.Convey("TestPDECall", t, func() {
		p := hullCall(t)
		value, err := PDEPrice(p, Call, 40, 20, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(value, convey.ShouldAlmostEqual, 4.739608724792999, 1e-9)
	})
}

func TestPDEStability(t *testing.T) {
	convey.Convey("TestPDEStability", t, func() {
		p := hullPut(t)

		convey.Convey("A diverging grid is reported", func() {
			_, err := PDEPrice(p, Put, 100, 10, nil)
			convey.So(errors.Is(err, ErrNumericalDegenerate), convey.ShouldBeTrue)

			_, err = PDEPrice(p, Put, 40, 10, nil)
			convey.So(errors.Is(err, ErrNumericalDegenerate), convey.ShouldBeTrue)
		})

		convey.Convey("A grid oscillating below zero is reported", func() {
			// The floor at exercise value would otherwise hide the negative
			// swings and return a value under the European put.
			for _, m := range []int{22, 24, 26} {
				value, err := PDEPrice(p, Put, m, 10, nil)
				convey.So(errors.Is(err, ErrNumericalDegenerate), convey.ShouldBeTrue)
				convey.So(value, convey.ShouldEqual, 0)
			}

			value, err := PDEPrice(p, Put, 20, 10, nil)
			convey.So(err, convey.ShouldBeNil)
			european, _ := PutPrice(p)
			convey.So(value, convey.ShouldBeGreaterThanOrEqualTo, european)
		})

		convey.Convey("Strict mode rejects grids that break the stability bound", func() {
			cfg := DefaultConfig()
			cfg.PDE.StrictStability = true
			_, err := PDEPrice(p, Put, 20, 10, cfg)
			convey.So(errors.Is(err, ErrNumericalDegenerate), convey.ShouldBeTrue)

			_, err = PDEPrice(p, Put, 20, 200, cfg)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("Grid sizes are validated", func() {
			_, err := PDEPrice(p, Put, 1, 10, nil)
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)
			_, err = PDEPrice(p, Put, 20, 0, nil)
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)
		})
	})
}
