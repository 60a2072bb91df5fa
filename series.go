package optionlab

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// DefaultPriceColumn is the column ReadPriceSeries takes prices from when no
// column is named.
const DefaultPriceColumn = "Close"

// PriceSeries is an ordered list of daily closing prices, oldest first.
type PriceSeries []float64

// Validate checks that the series has at least two points and that every
// price is a positive finite number.
func (s PriceSeries) Validate() error {
	if len(s) < 2 {
		return invalidParameterf("Price series needs at least 2 points, got %d.", len(s))
	}
	for i, v := range s {
		if !(v > 0) || math.IsInf(v, 0) {
			return invalidParameterf("Price %v at index %d must be a positive number.", v, i)
		}
	}
	return nil
}

// Returns are the simple daily returns u_i = (S_i − S_{i−1})/S_{i−1}. The
// result has len(s)−1 elements; element k is u_{k+1}.
func (s PriceSeries) Returns() []float64 {
	if len(s) < 2 {
		return nil
	}
	returns := make([]float64, len(s)-1)
	for i := 1; i < len(s); i++ {
		returns[i-1] = (s[i] - s[i-1]) / s[i-1]
	}
	return returns
}

// LogReturns are ln(S_i/S_{i−1}).
func (s PriceSeries) LogReturns() []float64 {
	if len(s) < 2 {
		return nil
	}
	returns := make([]float64, len(s)-1)
	for i := 1; i < len(s); i++ {
		returns[i-1] = math.Log(s[i] / s[i-1])
	}
	return returns
}

// Last returns the most recent price.
func (s PriceSeries) Last() float64 {
	return s[len(s)-1]
}

// ReadPriceSeries parses a headered CSV and returns the values of column.
// An empty column selects DefaultPriceColumn. Column names are matched
// after trimming spaces and ignoring case.
func ReadPriceSeries(r io.Reader, column string) (PriceSeries, error) {
	if column == "" {
		column = DefaultPriceColumn
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Read the header row
	header, err := reader.Read()
	if err != nil {
		glog.Errorf("Reading price header failed. %v", err)
		return nil, err
	}

	// Map the column names to their indices
	indices := make(map[string]int)
	for i, col := range header {
		indices[strings.ToLower(strings.TrimSpace(col))] = i
	}
	idx, ok := indices[strings.ToLower(column)]
	if !ok {
		return nil, invalidParameterf("Price column %q not found in header %v.", column, header)
	}

	series := PriceSeries{}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			glog.Errorf("Reading price row %d failed. %v", line, err)
			return nil, err
		}
		if idx >= len(row) {
			return nil, invalidParameterf("Row %d has no %q column.", line, column)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return nil, invalidParameterf("Row %d: %q is not a price. %v", line, row[idx], err)
		}
		series = append(series, value)
	}

	glog.V(1).Infof("Read %d prices from column %s", len(series), column)
	return series, series.Validate()
}

// ReadPriceSeriesFile opens path and calls ReadPriceSeries.
func ReadPriceSeriesFile(path string, column string) (PriceSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		glog.Errorf("Opening %s failed. %v", path, err)
		return nil, err
	}
	defer file.Close()

	series, err := ReadPriceSeries(file, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}
