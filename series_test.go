package optionlab

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const pricesCSV = `Date, Open, Close
2023-01-02, 99.5, 100
2023-01-03, 100.2, 102
2023-01-04, 101.9, 101
`

func TestReadPriceSeries(t *testing.T) {
	convey.Convey("TestReadPriceSeries", t, func() {
		series, err := ReadPriceSeries(strings.NewReader(pricesCSV), "")
		convey.So(err, convey.ShouldBeNil)
		convey.So(series, convey.ShouldResemble, PriceSeries{100, 102, 101})

		opens, err := ReadPriceSeries(strings.NewReader(pricesCSV), "open")
		convey.So(err, convey.ShouldBeNil)
		convey.So(opens[0], convey.ShouldEqual, 99.5)

		convey.Convey("Bad input is rejected", func() {
			_, err := ReadPriceSeries(strings.NewReader(pricesCSV), "Volume")
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

			_, err = ReadPriceSeries(strings.NewReader("Close\n100\nabc\n"), "")
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

			_, err = ReadPriceSeries(strings.NewReader("Close\n100\n-3\n"), "")
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)

			_, err = ReadPriceSeries(strings.NewReader("Close\n100\n"), "")
			convey.So(errors.Is(err, ErrInvalidParameter), convey.ShouldBeTrue)
		})

		convey.Convey("Files are read by path", func() {
			path := filepath.Join(t.TempDir(), "prices.csv")
			convey.So(os.WriteFile(path, []byte(pricesCSV), 0o644), convey.ShouldBeNil)
			series, err := ReadPriceSeriesFile(path, "close")
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(series), convey.ShouldEqual, 3)

			_, err = ReadPriceSeriesFile(filepath.Join(t.TempDir(), "missing.csv"), "")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestPriceSeriesReturns(t *testing.T) {
	convey.Convey("TestPriceSeriesReturns", t, func() {
		series := PriceSeries{100, 110, 99}

		returns := series.Returns()
		convey.So(len(returns), convey.ShouldEqual, 2)
		convey.So(returns[0], convey.ShouldAlmostEqual, 0.1, 1e-12)
		convey.So(returns[1], convey.ShouldAlmostEqual, -0.1, 1e-12)

		logs := series.LogReturns()
		convey.So(logs[0], convey.ShouldAlmostEqual, math.Log(1.1), 1e-12)
		convey.So(logs[1], convey.ShouldAlmostEqual, math.Log(0.9), 1e-12)

		convey.So(series.Last(), convey.ShouldEqual, 99)
		convey.So(PriceSeries{1}.Returns(), convey.ShouldBeNil)
		convey.So(PriceSeries{1, math.Inf(1)}.Validate(), convey.ShouldNotBeNil)
	})
}
