package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewConfigurationShapeMismatch(t *testing.T) {
	positions := []r3.Vec{{}, {X: 0.5}}

	for _, n := range []int{1, 3, 5} {
		_, err := NewConfiguration(positions, -1.0, make([]r3.Vec, n))
		assert.ErrorIs(t, err, ErrShapeMismatch, "forces of length %d", n)
	}

	_, err := NewConfiguration(nil, 0, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	conf, err := NewConfiguration(positions, -1.0, make([]r3.Vec, 2))
	require.NoError(t, err)
	assert.True(t, conf.Labeled())

	conf, err = NewConfiguration(positions, 0, nil)
	require.NoError(t, err)
	assert.False(t, conf.Labeled())
}

func TestStaleAccessBeforeInit(t *testing.T) {
	conf, err := NewConfiguration([]r3.Vec{{}, {X: 0.5}}, 0, nil)
	require.NoError(t, err)

	_, err = conf.Neighbors(0)
	assert.ErrorIs(t, err, ErrStaleAccess)
	_, err = conf.NeighborDistances(0)
	assert.ErrorIs(t, err, ErrStaleAccess)
	_, err = conf.NeighborDifferences(0)
	assert.ErrorIs(t, err, ErrStaleAccess)
	_, err = conf.NeighborDistancesAll()
	assert.ErrorIs(t, err, ErrStaleAccess)
	_, err = conf.Descriptors()
	assert.ErrorIs(t, err, ErrStaleAccess)

	err = conf.InitDescriptors([]float64{1})
	assert.ErrorIs(t, err, ErrStaleAccess, "descriptors need neighbor tables first")
}

func TestInitNeighborsTwoIonCell(t *testing.T) {
	conf, err := NewConfiguration([]r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 0.5, Y: 0.5, Z: 0.5},
	}, 0, nil)
	require.NoError(t, err)

	conf.InitNeighbors(0.9, CubicLattice(1))

	nn0, err := conf.Neighbors(0)
	require.NoError(t, err)
	nn1, err := conf.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, nn0)
	assert.Equal(t, []int{0}, nn1)

	d0, err := conf.NeighborDistances(0)
	require.NoError(t, err)
	require.Len(t, d0, 1)
	assert.InDelta(t, math.Sqrt(0.75), d0[0], 1e-12)

	// antisymmetry of the cached displacements
	diff0, err := conf.NeighborDifferences(0)
	require.NoError(t, err)
	diff1, err := conf.NeighborDifferences(1)
	require.NoError(t, err)
	assert.InDelta(t, -diff1[0].X, diff0[0].X, 1e-15)
	assert.InDelta(t, -diff1[0].Y, diff0[0].Y, 1e-15)
	assert.InDelta(t, -diff1[0].Z, diff0[0].Z, 1e-15)
}

func TestInitNeighborsCutoffExcludes(t *testing.T) {
	conf, err := NewConfiguration([]r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 0.5, Y: 0.5, Z: 0.5},
	}, 0, nil)
	require.NoError(t, err)

	conf.InitNeighbors(0.5, CubicLattice(1))
	nn0, err := conf.Neighbors(0)
	require.NoError(t, err)
	assert.Empty(t, nn0)
}

func TestSymmetricIonsHaveEqualDescriptors(t *testing.T) {
	// both ions see the single same neighbor distance
	conf, err := NewConfiguration([]r3.Vec{
		{X: 0.1, Y: 0.1, Z: 0.1},
		{X: 0.4, Y: 0.1, Z: 0.1},
	}, 0, nil)
	require.NoError(t, err)

	conf.InitNeighbors(0.45, CubicLattice(1))
	qs := Wavevectors(0.45, 6)
	require.NoError(t, conf.InitDescriptors(qs))

	desc, err := conf.Descriptors()
	require.NoError(t, err)
	for k := range qs {
		assert.InDelta(t, desc.At(0, k), desc.At(1, k), 1e-13)
	}
}

func TestDescriptorValues(t *testing.T) {
	conf, err := NewConfiguration([]r3.Vec{
		{X: 0.1}, {X: 0.3}, {X: 0.6},
	}, 0, nil)
	require.NoError(t, err)

	conf.InitNeighbors(0.35, CubicLattice(1))
	qs := []float64{2, 5}
	require.NoError(t, conf.InitDescriptors(qs))
	desc, err := conf.Descriptors()
	require.NoError(t, err)

	// ion 1 sees ions 0 (d=0.2) and 2 (d=0.3); ion 0 also sees ion 2 via the
	// periodic image (d=0.5 > cutoff, excluded)
	for k, q := range qs {
		assert.InDelta(t, math.Sin(q*0.2)+math.Sin(q*0.3), desc.At(1, k), 1e-12)
		assert.InDelta(t, math.Sin(q*0.2), desc.At(0, k), 1e-12)
		assert.InDelta(t, math.Sin(q*0.3), desc.At(2, k), 1e-12)
	}
}

func TestInitIdempotency(t *testing.T) {
	conf, err := NewConfiguration([]r3.Vec{{}, {X: 0.5, Y: 0.5, Z: 0.5}}, 0, nil)
	require.NoError(t, err)

	conf.InitNeighbors(0.9, CubicLattice(1))
	qs := Wavevectors(0.9, 4)
	require.NoError(t, conf.InitDescriptors(qs))
	d1, err := conf.Descriptors()
	require.NoError(t, err)

	// same parameters: the cached instances survive
	conf.InitNeighbors(0.9, CubicLattice(1))
	require.NoError(t, conf.InitDescriptors(qs))
	d2, err := conf.Descriptors()
	require.NoError(t, err)
	assert.Same(t, d1, d2)

	// a new cutoff invalidates neighbors and descriptors
	conf.InitNeighbors(0.5, CubicLattice(1))
	_, err = conf.Descriptors()
	assert.ErrorIs(t, err, ErrStaleAccess)
}
