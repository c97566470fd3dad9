// Package kernel builds the similarity and force-derivative matrices of the
// descriptor-based potential. The supported kernel set is closed by design:
// linear and gaussian.
package kernel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
)

var ErrUnsupportedKernel = errors.New("kernel is not supported")

// LinearSimilarity returns the matrix of inner products between the
// descriptor rows of d1 and d2: entry (a,b) = d1[a] . d2[b].
func LinearSimilarity(d1, d2 *mat.Dense) *mat.Dense {
	r1, _ := d1.Dims()
	r2, _ := d2.Dims()
	k := mat.NewDense(r1, r2, nil)
	k.Mul(d1, d2.T())
	return k
}

// GaussianSimilarity returns the matrix with entry
// (a,b) = exp(-|d1[a]-d2[b]|^2 / (2 sigma^2)). The diagonal of
// GaussianSimilarity(d, d, sigma) is identically 1.
func GaussianSimilarity(d1, d2 *mat.Dense, sigma float64) *mat.Dense {
	r1, _ := d1.Dims()
	r2, _ := d2.Dims()
	k := mat.NewDense(r1, r2, nil)
	for a := 0; a < r1; a++ {
		ra := d1.RawRowView(a)
		for b := 0; b < r2; b++ {
			d := floats.Distance(ra, d2.RawRowView(b), 2)
			k.Set(a, b, math.Exp(-d*d/(2*sigma*sigma)))
		}
	}
	return k
}

// GradientPrefactor returns the matrix P with P[j][k] = q_k cos(q_k dr[j])
// over an array of neighbor distances, the scalar factor arising from
// differentiating sin(q r) with respect to r.
func GradientPrefactor(qs, dr []float64) *mat.Dense {
	p := mat.NewDense(len(dr), len(qs), nil)
	for j, d := range dr {
		for k, q := range qs {
			p.Set(j, k, q*math.Cos(q*d))
		}
	}
	return p
}

// EnergyRow collapses one similarity block into one energy design row:
// row[a] = sum over ions i of sim[i][a].
func EnergyRow(sim *mat.Dense) []float64 {
	n, m := sim.Dims()
	row := make([]float64, m)
	for a := 0; a < m; a++ {
		for i := 0; i < n; i++ {
			row[a] += sim.At(i, a)
		}
	}
	return row
}

// Kernel is the tagged (similarity-builder, force-submatrix-builder) pair
// selected once from the closed set. Callers never branch on the variant.
type Kernel struct {
	name           string
	similarity     func(d1, d2 *mat.Dense) *mat.Dense
	forceSubmatrix func(qs []float64, conf *domain.Configuration, train *mat.Dense) (*mat.Dense, error)
}

// New selects a kernel variant. For the gaussian kernel a sigma > 0 has to
// be supplied.
func New(cfg domain.KernelConfig) (*Kernel, error) {
	switch cfg.Type {
	case "linear":
		return &Kernel{
			name:           "linear",
			similarity:     LinearSimilarity,
			forceSubmatrix: LinearForceSubmatrix,
		}, nil
	case "gaussian":
		if cfg.Sigma <= 0 {
			return nil, fmt.Errorf("%w: gaussian kernel needs sigma > 0", ErrUnsupportedKernel)
		}
		sigma := cfg.Sigma
		return &Kernel{
			name: "gaussian",
			similarity: func(d1, d2 *mat.Dense) *mat.Dense {
				return GaussianSimilarity(d1, d2, sigma)
			},
			forceSubmatrix: func(qs []float64, conf *domain.Configuration, train *mat.Dense) (*mat.Dense, error) {
				return GaussianForceSubmatrix(qs, conf, train, sigma)
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKernel, cfg.Type)
	}
}

// Name returns the variant tag.
func (k *Kernel) Name() string {
	return k.name
}

// Similarity builds the similarity matrix between two descriptor arrays.
func (k *Kernel) Similarity(d1, d2 *mat.Dense) *mat.Dense {
	return k.similarity(d1, d2)
}

// ForceSubmatrix builds the 3N x M force design block of one configuration
// against the stacked training descriptors.
func (k *Kernel) ForceSubmatrix(qs []float64, conf *domain.Configuration, train *mat.Dense) (*mat.Dense, error) {
	return k.forceSubmatrix(qs, conf, train)
}
