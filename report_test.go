package optionlab

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/smartystreets/goconvey/convey"
)

func TestValue(t *testing.T) {
	color.NoColor = true
	convey.Convey("TestValue", t, func() {
		series := syntheticSeries(t, generating, 1000, 41)
		spot := series.Last()
		market, _ := CallPrice(OptionParameters{
			Spot: spot, Strike: spot, Rate: 0.05, Maturity: 30.0 / 252, Volatility: 0.25,
		})
		q := Quote{
			Symbol:          "SYN",
			Spot:            spot,
			Strike:          spot,
			Rate:            0.05,
			LastPrice:       market,
			TradingDaysLeft: 30,
		}

		v, err := Value(q, series, generating, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(v.ImpliedVolError, convey.ShouldBeNil)
		convey.So(v.ImpliedVol.Sigma, convey.ShouldAlmostEqual, 0.25, 0.002)
		convey.So(v.WithDividends, convey.ShouldEqual, v.BlackScholes)
		convey.So(v.BlackAmerican, convey.ShouldEqual, v.WithDividends)
		convey.So(math.IsNaN(v.EmpiricalValue), convey.ShouldBeFalse)
		convey.So(v.HistoricalVol, convey.ShouldAlmostEqual, math.Sqrt(252*4e-5), 0.02)

		convey.Convey("Dividends lower the value", func() {
			q := q
			q.PVDividends = 1
			q.LastExDivDays = 10
			q.PVBeforeLastExDiv = 0
			d, err := Value(q, series, generating, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(d.WithDividends, convey.ShouldBeLessThan, v.BlackScholes)
			convey.So(d.BlackAmerican, convey.ShouldBeGreaterThanOrEqualTo, d.WithDividends)
		})

		convey.Convey("A price below every model value has no implied volatility", func() {
			q := q
			q.Symbol = "CHEAP"
			q.LastPrice = 0.1
			cheap, err := Value(q, series, generating, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(errors.Is(cheap.ImpliedVolError, ErrUnmeasurableVolatility), convey.ShouldBeTrue)
			convey.So(cheap.ImpliedVol.Status, convey.ShouldEqual, VolatilityBelowRange)

			var buf bytes.Buffer
			PrintTable(&buf, []*Valuation{v, cheap})
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			convey.So(len(lines), convey.ShouldEqual, 3)
			convey.So(lines[0], convey.ShouldStartWith, "Symbol")
			convey.So(lines[1], convey.ShouldStartWith, "SYN")
			convey.So(lines[1], convey.ShouldContainSubstring, formatNumber(v.BlackScholes))
			convey.So(lines[2], convey.ShouldContainSubstring, "N/A")
		})

		convey.Convey("A long window has no empirical value", func() {
			q := q
			q.TradingDaysLeft = 2000
			long, err := Value(q, series, generating, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(math.IsNaN(long.EmpiricalValue), convey.ShouldBeTrue)
			convey.So(formatNumber(long.EmpiricalValue), convey.ShouldEqual, "N/A")
		})

		q.TradingDaysLeft = 0
		_, err = Value(q, series, generating, nil)
		convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)
	})
}

func TestPrintSimulations(t *testing.T) {
	color.NoColor = true
	convey.Convey("TestPrintSimulations", t, func() {
		p := hullCall(t)
		analytic, _ := CallPrice(p)
		results := []*SimulationResult{
			simulate(t, p, SamplePlain, 20000, 1, nil),
			{Method: SampleCRR, Mean: 1, Lower: 0.9, Upper: 1.1},
		}

		var buf bytes.Buffer
		PrintSimulations(&buf, analytic, results)
		out := buf.String()
		convey.So(out, convey.ShouldContainSubstring, "plain")
		convey.So(out, convey.ShouldContainSubstring, "crr")
		convey.So(out, convey.ShouldContainSubstring, " no")
		convey.So(out, convey.ShouldContainSubstring, "Reference value: 4.7594")
	})
}
