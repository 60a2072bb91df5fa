package optionlab

import (
	"bytes"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestLatticeConvergenceChart(t *testing.T) {
	convey.Convey("TestLatticeConvergenceChart", t, func() {
		p := hullCall(t)
		steps := []int{10, 50, 200}

		points, err := LatticeConvergence(p, Call, steps)
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(points), convey.ShouldEqual, 3)
		convey.So(points[2].Steps, convey.ShouldEqual, 200)

		var buf bytes.Buffer
		convey.So(RenderConvergenceChart(&buf, p, Call, steps), convey.ShouldBeNil)
		convey.So(buf.String(), convey.ShouldContainSubstring, "Lattice convergence")

		_, err = LatticeConvergence(p, Call, []int{1})
		convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)
	})
}

func TestPlots(t *testing.T) {
	convey.Convey("TestPlots", t, func() {
		png := []byte("\x89PNG")

		series := syntheticSeries(t, generating, 300, 8)
		var forecast bytes.Buffer
		convey.So(RenderVarianceForecast(&forecast, generating, series, 60, nil), convey.ShouldBeNil)
		convey.So(bytes.HasPrefix(forecast.Bytes(), png), convey.ShouldBeTrue)

		err := RenderVarianceForecast(&forecast, generating, series, 0, nil)
		convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

		result := simulate(t, hullCall(t), SampleAntithetic, 2000, 4, nil)
		var hist bytes.Buffer
		convey.So(RenderPayoffHistogram(&hist, result, 30), convey.ShouldBeNil)
		convey.So(bytes.HasPrefix(hist.Bytes(), png), convey.ShouldBeTrue)

		err = RenderPayoffHistogram(&hist, &SimulationResult{}, 30)
		convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)
	})
}
