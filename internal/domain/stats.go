package domain

import (
	"errors"
	"math"
)

var ErrEmptySample = errors.New("empty sample")

type Histogram struct {
	Bins []float64
	Vals []int
	Len  int
}

// Hist calculates the histogram of the values within a specified range.
// Passing min == max derives the range from the data.
func Hist(values []float64, min, max float64, n int) (Histogram, error) {
	if len(values) == 0 || n < 2 {
		return Histogram{}, ErrEmptySample
	}

	if min == max {
		min = math.Inf(1)
		max = math.Inf(-1)
		for _, value := range values {
			if value < min {
				min = value
			}
			if value > max {
				max = value
			}
		}
	}
	binWidth := (max - min) / float64(n-1)
	if binWidth == 0 {
		binWidth = 1
	}
	histogram := make([]int, n)
	bins := make([]float64, n)

	for i := range n {
		bins[i] = min + float64(i)*binWidth
	}

	for _, value := range values {
		if value < min {
			value = min
		} else if value > max {
			value = max
		}
		binIndex := int((value - min) / binWidth)
		if binIndex >= n {
			binIndex = n - 1
		}
		histogram[binIndex]++
	}

	return Histogram{
		Bins: bins,
		Vals: histogram,
		Len:  n,
	}, nil
}

// RMSE returns the root-mean-square deviation between reference and
// predicted values.
func RMSE(reference, predicted []float64) (float64, error) {
	if len(reference) == 0 || len(reference) != len(predicted) {
		return 0, ErrEmptySample
	}
	var s float64
	for i := range reference {
		d := predicted[i] - reference[i]
		s += d * d
	}
	return math.Sqrt(s / float64(len(reference))), nil
}

// MaxAbs returns the largest absolute deviation between reference and
// predicted values.
func MaxAbs(reference, predicted []float64) (float64, error) {
	if len(reference) == 0 || len(reference) != len(predicted) {
		return 0, ErrEmptySample
	}
	var m float64
	for i := range reference {
		if d := math.Abs(predicted[i] - reference[i]); d > m {
			m = d
		}
	}
	return m, nil
}
