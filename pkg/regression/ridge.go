// Package regression solves the regularized least-squares system of the
// potential fit.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var ErrIllConditioned = errors.New("design matrix is singular or ill-conditioned")

// maxCondition is the largest accepted ratio of singular values of the
// augmented system.
const maxCondition = 1e12

// Ridge computes argmin |design*x - target|^2 + lambda*|x|^2 through the SVD
// of the sqrt(lambda)-augmented system, never an explicit inverse. A singular
// or poorly conditioned system is reported as ErrIllConditioned together with
// the condition estimate; a degenerate coefficient vector is never returned.
func Ridge(design *mat.Dense, target *mat.VecDense, lambda float64) (*mat.VecDense, error) {
	rows, cols := design.Dims()
	if target.Len() != rows {
		return nil, fmt.Errorf("design has %d rows but target has %d entries", rows, target.Len())
	}
	if lambda < 0 {
		return nil, fmt.Errorf("lambda must be non-negative, got %g", lambda)
	}

	a := design
	b := target
	if lambda > 0 {
		// stack sqrt(lambda)*I under the design, zeros under the target
		aug := mat.NewDense(rows+cols, cols, nil)
		aug.Slice(0, rows, 0, cols).(*mat.Dense).Copy(design)
		s := math.Sqrt(lambda)
		for i := 0; i < cols; i++ {
			aug.Set(rows+i, i, s)
		}
		bt := mat.NewVecDense(rows+cols, nil)
		bt.SliceVec(0, rows).(*mat.VecDense).CopyVec(target)
		a, b = aug, bt
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, fmt.Errorf("%w: SVD failed to converge", ErrIllConditioned)
	}
	values := svd.Values(nil)
	smallest := values[len(values)-1]
	if smallest <= 0 {
		return nil, fmt.Errorf("%w: rank %d of %d", ErrIllConditioned, rank(values), cols)
	}
	cond := values[0] / smallest
	if cond > maxCondition {
		return nil, fmt.Errorf("%w: condition estimate %.3e", ErrIllConditioned, cond)
	}

	var x mat.VecDense
	svd.SolveVecTo(&x, b, len(values))
	return &x, nil
}

func rank(values []float64) int {
	tol := float64(len(values)) * values[0] * 1e-15
	n := 0
	for _, v := range values {
		if v > tol {
			n++
		}
	}
	return n
}
