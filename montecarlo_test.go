package optionlab

import (
	"errors"
	"math"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func simulate(t *testing.T, p OptionParameters, method SamplingMethod, samples int, seed uint64, cfg *Config) *SimulationResult {
	result, err := Simulate(p, SimulationSpec{
		Method:     method,
		Samples:    samples,
		Steps:      100,
		Confidence: 0.95,
	}, NewStream(seed), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestSimulateMethods(t *testing.T) {
	convey.Convey("TestSimulateMethods", t, func() {
		p := hullCall(t)
		analytic, _ := CallPrice(p)

		for _, method := range []SamplingMethod{
			SamplePlain,
			SampleAntithetic,
			SampleMomentMatching,
			SampleAntitheticMomentMatching,
			SampleMultiStep,
		} {
			result := simulate(t, p, method, 50000, 7, nil)
			convey.So(len(result.Payoffs), convey.ShouldEqual, 50000)
			convey.So(math.Abs(result.Mean-analytic), convey.ShouldBeLessThan, 5*result.StdErr)
			convey.So(result.Lower, convey.ShouldBeLessThan, result.Mean)
			convey.So(result.Upper, convey.ShouldBeGreaterThan, result.Mean)
		}

		convey.Convey("Discrete schemes converge to their lattice", func() {
			for _, method := range []SamplingMethod{SampleCRR, SampleEqualProbability} {
				result := simulate(t, p, method, 50000, 11, nil)
				convey.So(math.Abs(result.Mean-analytic), convey.ShouldBeLessThan, 5*result.StdErr+0.01)
			}
		})

		convey.Convey("Stratified sampling is deterministic", func() {
			result, err := Simulate(p, SimulationSpec{
				Method:     SampleStratified,
				Samples:    10000,
				Confidence: 0.95,
			}, nil, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(result.Mean, convey.ShouldAlmostEqual, analytic, 0.005)
		})
	})
}

func TestSimulatePayoffFloor(t *testing.T) {
	convey.Convey("TestSimulatePayoffFloor", t, func() {
		// Far out of the money, most samples expire worthless.
		p, _ := NewOptionParameters(40, 60, 0.05, 0.25, 0.2)
		for _, method := range []SamplingMethod{SamplePlain, SampleCRR, SampleStratified} {
			result := simulate(t, p, method, 5001, 3, nil)
			convey.So(floats.Min(result.Payoffs), convey.ShouldBeGreaterThanOrEqualTo, 0)
			convey.So(result.Payoffs[len(result.Payoffs)-1], convey.ShouldBeGreaterThanOrEqualTo, 0)
		}
	})
}

func TestSimulateVarianceReduction(t *testing.T) {
	convey.Convey("TestSimulateVarianceReduction", t, func() {
		p := hullCall(t)
		plain := simulate(t, p, SamplePlain, 20000, 5, nil)
		antithetic := simulate(t, p, SampleAntithetic, 20000, 5, nil)
		convey.So(antithetic.StdErr, convey.ShouldBeLessThan, plain.StdErr)

		convey.Convey("Antithetic samples are pair averages of the same draws", func() {
			result := simulate(t, p, SampleAntithetic, 10, 21, nil)
			convey.So(len(result.Payoffs), convey.ShouldEqual, 10)

			normal := distuv.Normal{Mu: 0, Sigma: 1, Src: NewStream(21)}
			drift := (p.Rate - p.Volatility*p.Volatility/2) * p.Maturity
			vol := p.Volatility * math.Sqrt(p.Maturity)
			discount := math.Exp(-p.Rate * p.Maturity)
			for i := 0; i < 10; i++ {
				z := normal.Rand()
				up := discount * math.Max(0, p.Spot*math.Exp(drift+vol*z)-p.Strike)
				down := discount * math.Max(0, p.Spot*math.Exp(drift-vol*z)-p.Strike)
				convey.So(result.Payoffs[i], convey.ShouldAlmostEqual, (up+down)/2, 1e-12)
			}
		})

		z := []float64{0.3, -1.2, 2.5, 0.1, 0.9, -0.4}
		matchMoments(z)
		mean, sd := stat.MeanStdDev(z, nil)
		convey.So(mean, convey.ShouldAlmostEqual, 0, 1e-12)
		convey.So(sd, convey.ShouldAlmostEqual, 1, 1e-12)
	})
}

func TestSimulateDeterminism(t *testing.T) {
	convey.Convey("TestSimulateDeterminism", t, func() {
		p := hullCall(t)
		serial := DefaultConfig()
		serial.MonteCarlo.Workers = 1
		serial.MonteCarlo.ChunkSize = 1000
		parallel := DefaultConfig()
		parallel.MonteCarlo.Workers = 8
		parallel.MonteCarlo.ChunkSize = 1000

		for _, method := range []SamplingMethod{SamplePlain, SampleMultiStep, SampleCRR} {
			a := simulate(t, p, method, 12345, 99, serial)
			b := simulate(t, p, method, 12345, 99, parallel)
			convey.So(a.Payoffs, convey.ShouldResemble, b.Payoffs)
			convey.So(a.Mean, convey.ShouldEqual, b.Mean)
		}

		c := simulate(t, p, SamplePlain, 12345, 100, serial)
		d := simulate(t, p, SamplePlain, 12345, 99, serial)
		convey.So(c.Mean, convey.ShouldNotEqual, d.Mean)
	})
}

func TestSimulateErrors(t *testing.T) {
	convey.Convey("TestSimulateErrors", t, func() {
		p := hullCall(t)
		rng := NewStream(1)

		_, err := Simulate(p, SimulationSpec{Method: SamplePlain, Samples: 0, Confidence: 0.95}, rng, nil)
		convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

		_, err = Simulate(p, SimulationSpec{Method: SamplePlain, Samples: 100, Confidence: 1.5}, rng, nil)
		convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

		_, err = Simulate(p, SimulationSpec{Method: SampleMultiStep, Samples: 100, Confidence: 0.95}, rng, nil)
		convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

		_, err = Simulate(p, SimulationSpec{Method: SamplePlain, Samples: 100, Confidence: 0.95}, nil, nil)
		convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

		convey.So(math.IsNaN(StandardError([]float64{1})), convey.ShouldBeTrue)
		convey.So(StandardError([]float64{1, 3}), convey.ShouldAlmostEqual, 1, 1e-12)
	})
}

func TestConfidenceIntervalCoverage(t *testing.T) {
	if testing.Short() {
		t.Skip("coverage study runs 100 simulations")
	}
	convey.Convey("TestConfidenceIntervalCoverage", t, func() {
		p := hullCall(t)
		analytic, _ := CallPrice(p)
		rng := NewStream(2024)

		const runs = 100
		covered := 0
		for i := 0; i < runs; i++ {
			inside, result, err := CheckValue(analytic, p, Call, 0.95, rng, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(result.Payoffs), convey.ShouldEqual, 100000)
			if inside {
				covered++
			}
		}
		convey.So(float64(covered)/runs, convey.ShouldBeGreaterThanOrEqualTo, 0.88)
	})
}

func TestCheckValue(t *testing.T) {
	convey.Convey("TestCheckValue", t, func() {
		p := hullCall(t)
		analytic, _ := CallPrice(p)

		inside, result, err := CheckValue(analytic+1, p, Call, 0.95, NewStream(8), nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(inside, convey.ShouldBeFalse)

		lower, upper, err := result.ConfidenceInterval(0.99)
		convey.So(err, convey.ShouldBeNil)
		convey.So(lower, convey.ShouldBeLessThan, result.Lower)
		convey.So(upper, convey.ShouldBeGreaterThan, result.Upper)

		put, _ := PutPrice(p)
		accepted := 0
		rng := NewStream(9)
		for i := 0; i < 20; i++ {
			inside, _, err := CheckValue(put, p, Put, 0.95, rng, nil)
			convey.So(err, convey.ShouldBeNil)
			if inside {
				accepted++
			}
		}
		convey.So(accepted, convey.ShouldBeGreaterThanOrEqualTo, 15)
	})
}
