package optionlab

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

var (
	// ErrInvalidParameter is returned when an input is outside the domain
	// of the model (σ≤0, t≤0, too few lattice/grid steps, empty sample
	// counts, malformed GARCH parameters). Inputs are never substituted.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNumericalDegenerate is returned when a computation cannot produce a
	// meaningful number: a non-stationary GARCH process, a lattice
	// probability outside [0, 1] or an unstable finite-difference grid.
	ErrNumericalDegenerate = errors.New("numerical degenerate")

	// ErrUnmeasurableVolatility is returned when the implied volatility
	// search saturates at one of its bounds.
	ErrUnmeasurableVolatility = errors.New("unmeasurable implied volatility")
)

func invalidParameterf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	glog.Error(msg)
	return fmt.Errorf("%w: %s", ErrInvalidParameter, msg)
}

func degeneratef(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	glog.Error(msg)
	return fmt.Errorf("%w: %s", ErrNumericalDegenerate, msg)
}
