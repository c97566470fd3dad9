package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Configuration is one simulation snapshot: ion positions in fractional
// coordinates, the total energy, and per-ion forces. Forces are nil for
// prediction-only configurations. Positions, energy and forces are never
// mutated after construction; the derived neighbor and descriptor tables are
// computed on demand and cached for the lifetime of the instance.
type Configuration struct {
	Positions []r3.Vec
	Energy    float64
	Forces    []r3.Vec

	// neighbor tables, valid once initNeighbors has run
	differences [][]r3.Vec
	distances   *mat.SymDense
	nnList      [][]int
	nbrDists    [][]float64
	nbrDiffs    [][]r3.Vec
	cutoff      float64
	latConst    float64
	nnReady     bool

	// descriptors, valid once initDescriptors has run
	descriptors *mat.Dense
	qs          []float64
}

// NewConfiguration builds a snapshot from parsed data. Forces may be nil;
// when supplied their length must match the positions or construction fails
// with ErrShapeMismatch. Energy is only meaningful for training snapshots.
func NewConfiguration(positions []r3.Vec, energy float64, forces []r3.Vec) (*Configuration, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrShapeMismatch)
	}
	if forces != nil && len(forces) != len(positions) {
		return nil, fmt.Errorf("%w: %d positions but %d forces",
			ErrShapeMismatch, len(positions), len(forces))
	}
	return &Configuration{
		Positions: positions,
		Energy:    energy,
		Forces:    forces,
	}, nil
}

// Labeled reports whether the snapshot carries forces and can serve as a
// training configuration.
func (c *Configuration) Labeled() bool {
	return c.Forces != nil
}

// NIons returns the number of ions in the snapshot.
func (c *Configuration) NIons() int {
	return len(c.Positions)
}

// InitNeighbors fills the dense displacement and distance tables and the
// ragged per-ion neighbor lists under the minimum-image convention. The call
// is idempotent for unchanged cutoff and lattice.
//
// Precondition, assumed and not checked: cutoff < lattice.MinLength()/2. A
// larger cutoff can admit more than one periodic image of the same physical
// neighbor, corrupting the descriptor sums downstream.
func (c *Configuration) InitNeighbors(cutoff float64, lattice Lattice) {
	a := lattice.Constant()
	if c.nnReady && c.cutoff == cutoff && c.latConst == a {
		return
	}

	n := len(c.Positions)
	diffs := make([][]r3.Vec, n)
	dists := mat.NewSymDense(n, nil)
	nn := make([][]int, n)
	for i := range diffs {
		diffs[i] = make([]r3.Vec, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Difference(c.Positions[i], c.Positions[j], a)
			diffs[i][j] = d
			diffs[j][i] = r3.Scale(-1, d)
			r := r3.Norm(d)
			dists.SetSym(i, j, r)
			if r <= cutoff {
				nn[i] = append(nn[i], j)
				nn[j] = append(nn[j], i)
			}
		}
	}

	nbrDists := make([][]float64, n)
	nbrDiffs := make([][]r3.Vec, n)
	for i, js := range nn {
		nbrDists[i] = make([]float64, len(js))
		nbrDiffs[i] = make([]r3.Vec, len(js))
		for k, j := range js {
			nbrDists[i][k] = dists.At(i, j)
			nbrDiffs[i][k] = diffs[i][j]
		}
	}

	c.differences = diffs
	c.distances = dists
	c.nnList = nn
	c.nbrDists = nbrDists
	c.nbrDiffs = nbrDiffs
	c.cutoff = cutoff
	c.latConst = a
	c.nnReady = true
	c.descriptors = nil // stale against the new tables
	c.qs = nil
}

// Neighbors returns the indices of the ions within the cutoff of ion i.
func (c *Configuration) Neighbors(i int) ([]int, error) {
	if !c.nnReady {
		return nil, fmt.Errorf("%w: neighbors of ion %d", ErrStaleAccess, i)
	}
	return c.nnList[i], nil
}

// NeighborDistances returns the distances from ion i to its neighbors, in
// neighbor-list order.
func (c *Configuration) NeighborDistances(i int) ([]float64, error) {
	if !c.nnReady {
		return nil, fmt.Errorf("%w: neighbor distances of ion %d", ErrStaleAccess, i)
	}
	return c.nbrDists[i], nil
}

// NeighborDifferences returns the minimum-image displacements from ion i to
// its neighbors, in neighbor-list order.
func (c *Configuration) NeighborDifferences(i int) ([]r3.Vec, error) {
	if !c.nnReady {
		return nil, fmt.Errorf("%w: neighbor differences of ion %d", ErrStaleAccess, i)
	}
	return c.nbrDiffs[i], nil
}

// NeighborDistancesAll returns the full ragged distance collection.
func (c *Configuration) NeighborDistancesAll() ([][]float64, error) {
	if !c.nnReady {
		return nil, fmt.Errorf("%w: neighbor distances", ErrStaleAccess)
	}
	return c.nbrDists, nil
}

// NeighborDifferencesAll returns the full ragged displacement collection.
func (c *Configuration) NeighborDifferencesAll() ([][]r3.Vec, error) {
	if !c.nnReady {
		return nil, fmt.Errorf("%w: neighbor differences", ErrStaleAccess)
	}
	return c.nbrDiffs, nil
}

// InitDescriptors computes the per-ion descriptor matrix over the wavevector
// set qs: descriptors[i][k] = sum over neighbors j of sin(q_k * d_ij).
// Requires InitNeighbors to have run. Idempotent for an unchanged q set.
// Compatibility of qs with the cutoff is a caller-guaranteed precondition; an
// incompatible set silently yields an aliased descriptor, not an error.
func (c *Configuration) InitDescriptors(qs []float64) error {
	if !c.nnReady {
		return fmt.Errorf("%w: descriptors need neighbor tables", ErrStaleAccess)
	}
	if c.descriptors != nil && sameFloats(c.qs, qs) {
		return nil
	}

	n := len(c.Positions)
	desc := mat.NewDense(n, len(qs), nil)
	for i := 0; i < n; i++ {
		for k, q := range qs {
			var s float64
			for _, d := range c.nbrDists[i] {
				s += math.Sin(q * d)
			}
			desc.Set(i, k, s)
		}
	}

	c.descriptors = desc
	c.qs = append([]float64(nil), qs...)
	return nil
}

// Descriptors returns the cached N x K descriptor matrix.
func (c *Configuration) Descriptors() (*mat.Dense, error) {
	if c.descriptors == nil {
		return nil, fmt.Errorf("%w: descriptors", ErrStaleAccess)
	}
	return c.descriptors, nil
}

func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
