package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Difference returns the minimum-image displacement r1 - r2 in a periodic
// cell. Each component is wrapped into [-0.5, 0.5) of the cell by subtracting
// its nearest integer, then scaled by latticeConstant for the cartesian
// interpretation. Inputs outside [0, 1) wrap correctly; the convention is
// modular, so no range validation is performed.
func Difference(r1, r2 r3.Vec, latticeConstant float64) r3.Vec {
	d := r3.Sub(r1, r2)
	d.X -= math.Round(d.X)
	d.Y -= math.Round(d.Y)
	d.Z -= math.Round(d.Z)
	return r3.Scale(latticeConstant, d)
}

// Lattice holds the three direct basis vectors of the periodic simulation
// cell. It is externally supplied, immutable, and shared read-only by all
// configurations built from the same run.
type Lattice struct {
	Vectors [3]r3.Vec
}

// CubicLattice returns the lattice of a cubic cell with edge length a.
func CubicLattice(a float64) Lattice {
	return Lattice{Vectors: [3]r3.Vec{
		{X: a},
		{Y: a},
		{Z: a},
	}}
}

// Constant returns the cell scale factor used to convert fractional
// displacements to cartesian ones, the norm of the first basis vector.
func (l Lattice) Constant() float64 {
	return r3.Norm(l.Vectors[0])
}

// MinLength returns the shortest basis-vector norm. Callers must keep the
// neighbor cutoff strictly below MinLength()/2; the core does not check this.
func (l Lattice) MinLength() float64 {
	m := r3.Norm(l.Vectors[0])
	for _, v := range l.Vectors[1:] {
		if n := r3.Norm(v); n < m {
			m = n
		}
	}
	return m
}

// Wavevectors returns the nrModi allowed wavevectors q_n = n*pi/cutoff,
// n = 1..nrModi. Compatibility of q and cutoff is a caller-guaranteed
// precondition.
func Wavevectors(cutoff float64, nrModi int) []float64 {
	qs := make([]float64, nrModi)
	for n := range qs {
		qs[n] = float64(n+1) * math.Pi / cutoff
	}
	return qs
}
