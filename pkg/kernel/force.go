package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
)

// pairWeights fills dst[a] with the combined kernel weight of the ordered
// neighbor pair: sum over k of p[k] * (dK(D_i,T_a)/dD_i[k] + dK(D_l,T_a)/dD_l[k]).
// p is the gradient prefactor row of the pair, tp the precomputed train*p.
type pairWeights func(i, l int, p, tp, dst []float64)

// LinearForceSubmatrix builds the 3N x M force design block of one
// configuration for the linear kernel. Row 3i+c is the force on ion i along
// component c; column a addresses training descriptor a. The block is the
// negative gradient of the energy row with respect to the ion positions,
// chained through the minimum-image displacement: the pair (i, l) contributes
// through ion i's own descriptor and through the neighbor's, and the
// contribution on ion i carries the direction of differences[i][l].
//
// Requires InitNeighbors and InitDescriptors to have run on conf; row/column
// ordering here must match the assembly of the global target vector exactly.
func LinearForceSubmatrix(qs []float64, conf *domain.Configuration, train *mat.Dense) (*mat.Dense, error) {
	weights := func(_, _ int, _, tp, dst []float64) {
		for a := range dst {
			// both descriptor derivatives carry the same training weight
			dst[a] = 2 * tp[a]
		}
	}
	return forceSubmatrix(qs, conf, train, weights)
}

// GaussianForceSubmatrix is the gaussian counterpart of
// LinearForceSubmatrix. The kernel weight of each descriptor derivative
// depends on the descriptor itself, so the two pair terms no longer coincide.
func GaussianForceSubmatrix(qs []float64, conf *domain.Configuration, train *mat.Dense, sigma float64) (*mat.Dense, error) {
	desc, err := conf.Descriptors()
	if err != nil {
		return nil, err
	}
	sim := GaussianSimilarity(desc, train, sigma)
	inv := 1 / (sigma * sigma)
	weights := func(i, l int, p, tp, dst []float64) {
		dip := floats.Dot(desc.RawRowView(i), p)
		dlp := floats.Dot(desc.RawRowView(l), p)
		for a := range dst {
			dst[a] = inv * (sim.At(i, a)*(tp[a]-dip) + sim.At(l, a)*(tp[a]-dlp))
		}
	}
	return forceSubmatrix(qs, conf, train, weights)
}

func forceSubmatrix(qs []float64, conf *domain.Configuration, train *mat.Dense, weights pairWeights) (*mat.Dense, error) {
	desc, err := conf.Descriptors()
	if err != nil {
		return nil, err
	}
	m, nq := train.Dims()
	if _, dq := desc.Dims(); dq != nq || nq != len(qs) {
		return nil, fmt.Errorf("%w: %d wavevectors, descriptor width %d, training width %d",
			domain.ErrShapeMismatch, len(qs), dq, nq)
	}

	n := conf.NIons()
	f := mat.NewDense(3*n, m, nil)
	tp := make([]float64, m)
	w := make([]float64, m)
	tpVec := mat.NewVecDense(m, tp)

	for i := 0; i < n; i++ {
		nbrs, err := conf.Neighbors(i)
		if err != nil {
			return nil, err
		}
		dists, _ := conf.NeighborDistances(i)
		diffs, _ := conf.NeighborDifferences(i)
		pref := GradientPrefactor(qs, dists)

		for idx, l := range nbrs {
			p := pref.RawRowView(idx)
			tpVec.MulVec(train, mat.NewVecDense(len(p), p))
			weights(i, l, p, tp, w)

			u := diffs[idx].Scale(1 / dists[idx])
			for a := 0; a < m; a++ {
				// force is the negative energy gradient
				f.Set(3*i+0, a, f.At(3*i+0, a)-u.X*w[a])
				f.Set(3*i+1, a, f.At(3*i+1, a)-u.Y*w[a])
				f.Set(3*i+2, a, f.At(3*i+2, a)-u.Z*w[a])
			}
		}
	}
	return f, nil
}
