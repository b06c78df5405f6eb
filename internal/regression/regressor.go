// Package regression fits one-dimensional models mapping a day index to a
// price.
package regression

import (
	"errors"
	"fmt"
	"strings"
)

// Regressor is a deterministic one-feature regression model.
type Regressor interface {
	// Fit trains the model on paired samples. It may be called again to refit.
	Fit(x, y []float64) error
	// Predict returns the model output for x. Calling it before Fit returns 0.
	Predict(x float64) float64
	// Name identifies the model kind, e.g. "svr".
	Name() string
}

// Params holds the hyperparameters shared by the model constructors.
type Params struct {
	C       float64
	Epsilon float64
	Tol     float64
	MaxIter int
}

// DefaultParams returns the default SVR hyperparameters.
func DefaultParams() Params {
	return Params{C: 1.0, Epsilon: 0.1, Tol: 1e-6, MaxIter: 1000}
}

// New builds a regressor by kind. An empty kind selects "svr".
func New(kind string, p Params) (Regressor, error) {
	switch strings.ToLower(kind) {
	case "", "svr", "linear_svr":
		return NewLinearSVR(p), nil
	case "ols", "linear":
		return &OLS{}, nil
	default:
		return nil, fmt.Errorf("unknown regression model %q", kind)
	}
}

var (
	errNoSamples      = errors.New("no training samples")
	errLengthMismatch = errors.New("x and y lengths differ")
)

func checkSamples(x, y []float64) error {
	if len(x) != len(y) {
		return errLengthMismatch
	}
	if len(x) == 0 {
		return errNoSamples
	}
	return nil
}

func mean(v []float64) float64 {
	sum := 0.0
	for _, f := range v {
		sum += f
	}
	return sum / float64(len(v))
}
