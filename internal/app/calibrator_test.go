package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
	"github.com/Sillyjunk96/LP-Machine-Learning/pkg/kernel"
	"github.com/Sillyjunk96/LP-Machine-Learning/pkg/regression"
)

func testConfig(lambda float64) *domain.Config {
	return &domain.Config{
		Cutoff:  0.45,
		NrModi:  8,
		Lambda:  lambda,
		Workers: 2,
		Kernel:  domain.KernelConfig{Type: "linear"},
	}
}

// two clusters of three ions each, mutually within the cutoff, with clearly
// different bond lengths so their descriptor rows stay independent
func trainingGeometries() [][]r3.Vec {
	return [][]r3.Vec{
		{
			{X: 0.10, Y: 0.10, Z: 0.10},
			{X: 0.35, Y: 0.15, Z: 0.10},
			{X: 0.15, Y: 0.40, Z: 0.15},
		},
		{
			{X: 0.50, Y: 0.50, Z: 0.50},
			{X: 0.65, Y: 0.55, Z: 0.52},
			{X: 0.55, Y: 0.68, Z: 0.60},
		},
	}
}

// synthesize builds labeled configurations whose energies and forces come
// from a known linear-kernel model over the stacked training descriptors.
func synthesize(t *testing.T, geometries [][]r3.Vec, cal *Calibrator, lattice domain.Lattice, alpha []float64) []*domain.Configuration {
	t.Helper()

	qs := cal.Wavevectors()
	prepared := make([]*domain.Configuration, len(geometries))
	for i, positions := range geometries {
		conf, err := domain.NewConfiguration(positions, 0, nil)
		require.NoError(t, err)
		conf.InitNeighbors(cal.config.Cutoff, lattice)
		require.NoError(t, conf.InitDescriptors(qs))
		prepared[i] = conf
	}

	// stack the training descriptors the same way Fit does
	total := 0
	for _, conf := range prepared {
		total += conf.NIons()
	}
	train := mat.NewDense(total, len(qs), nil)
	row := 0
	for _, conf := range prepared {
		desc, err := conf.Descriptors()
		require.NoError(t, err)
		for i := 0; i < conf.NIons(); i++ {
			train.SetRow(row, desc.RawRowView(i))
			row++
		}
	}
	require.Len(t, alpha, total)

	labeled := make([]*domain.Configuration, len(prepared))
	for i, conf := range prepared {
		desc, err := conf.Descriptors()
		require.NoError(t, err)
		energy := floats.Dot(kernel.EnergyRow(cal.kern.Similarity(desc, train)), alpha)

		fsub, err := cal.kern.ForceSubmatrix(qs, conf, train)
		require.NoError(t, err)
		var fv mat.VecDense
		fv.MulVec(fsub, mat.NewVecDense(len(alpha), alpha))

		forces := make([]r3.Vec, conf.NIons())
		for j := range forces {
			forces[j] = r3.Vec{X: fv.AtVec(3 * j), Y: fv.AtVec(3*j + 1), Z: fv.AtVec(3*j + 2)}
		}

		lc, err := domain.NewConfiguration(geometries[i], energy, forces)
		require.NoError(t, err)
		labeled[i] = lc
	}
	return labeled
}

func TestFitRoundTripLinearKernel(t *testing.T) {
	config := testConfig(0)
	kern, err := kernel.New(config.Kernel)
	require.NoError(t, err)
	cal := NewCalibrator(zap.NewNop(), config, kern)
	lattice := domain.CubicLattice(1)

	alpha := []float64{0.4, -1.2, 0.9, 0.3, -0.5, 1.7}
	configs := synthesize(t, trainingGeometries(), cal, lattice, alpha)

	model, err := cal.Fit(configs, lattice)
	require.NoError(t, err)

	for i, conf := range configs {
		energy, forces, err := cal.Predict(model, conf)
		require.NoError(t, err)

		tol := 1e-6 * max(1, abs(conf.Energy))
		assert.InDelta(t, conf.Energy, energy, tol, "energy of configuration %d", i)
		for j, ref := range conf.Forces {
			ftol := 1e-6 * max(1, abs(ref.X), abs(ref.Y), abs(ref.Z))
			assert.InDelta(t, ref.X, forces[j].X, ftol, "conf %d ion %d", i, j)
			assert.InDelta(t, ref.Y, forces[j].Y, ftol, "conf %d ion %d", i, j)
			assert.InDelta(t, ref.Z, forces[j].Z, ftol, "conf %d ion %d", i, j)
		}
	}
}

func TestFitLargeLambdaShrinksAlpha(t *testing.T) {
	config := testConfig(1e12)
	kern, err := kernel.New(config.Kernel)
	require.NoError(t, err)
	cal := NewCalibrator(zap.NewNop(), config, kern)
	lattice := domain.CubicLattice(1)

	alpha := []float64{0.4, -1.2, 0.9, 0.3, -0.5, 1.7}
	configs := synthesize(t, trainingGeometries(), cal, lattice, alpha)

	model, err := cal.Fit(configs, lattice)
	require.NoError(t, err)
	assert.Less(t, mat.Norm(model.Alpha, 2), 1e-6)
}

func TestFitRejectsUnlabeled(t *testing.T) {
	config := testConfig(0)
	kern, err := kernel.New(config.Kernel)
	require.NoError(t, err)
	cal := NewCalibrator(zap.NewNop(), config, kern)

	conf, err := domain.NewConfiguration(trainingGeometries()[0], 1.0, nil)
	require.NoError(t, err)

	_, err = cal.Fit([]*domain.Configuration{conf}, domain.CubicLattice(1))
	assert.ErrorIs(t, err, domain.ErrUnlabeled)

	_, err = cal.Fit(nil, domain.CubicLattice(1))
	assert.ErrorIs(t, err, domain.ErrUnlabeled)
}

func TestFitSurfacesIllConditionedSolve(t *testing.T) {
	// two symmetric ions produce identical descriptors, hence duplicate
	// design columns; at lambda = 0 the solve must report instability
	config := testConfig(0)
	config.Cutoff = 0.9
	kern, err := kernel.New(config.Kernel)
	require.NoError(t, err)
	cal := NewCalibrator(zap.NewNop(), config, kern)
	lattice := domain.CubicLattice(1)

	positions := []r3.Vec{{}, {X: 0.5, Y: 0.5, Z: 0.5}}
	conf, err := domain.NewConfiguration(positions, -3.0, make([]r3.Vec, 2))
	require.NoError(t, err)

	_, err = cal.Fit([]*domain.Configuration{conf}, lattice)
	assert.ErrorIs(t, err, regression.ErrIllConditioned)
}

func TestFitRoundTripGaussianKernel(t *testing.T) {
	config := testConfig(0)
	config.Kernel = domain.KernelConfig{Type: "gaussian", Sigma: 2.0}
	kern, err := kernel.New(config.Kernel)
	require.NoError(t, err)
	cal := NewCalibrator(zap.NewNop(), config, kern)
	lattice := domain.CubicLattice(1)

	alpha := []float64{1.1, -0.6, 0.2, -1.4, 0.8, 0.5}
	configs := synthesize(t, trainingGeometries(), cal, lattice, alpha)

	model, err := cal.Fit(configs, lattice)
	require.NoError(t, err)

	for i, conf := range configs {
		energy, forces, err := cal.Predict(model, conf)
		require.NoError(t, err)
		require.Len(t, forces, conf.NIons())

		tol := 1e-6 * max(1, abs(conf.Energy))
		assert.InDelta(t, conf.Energy, energy, tol, "energy of configuration %d", i)
		for j, ref := range conf.Forces {
			ftol := 1e-6 * max(1, abs(ref.X), abs(ref.Y), abs(ref.Z))
			assert.InDelta(t, ref.X, forces[j].X, ftol, "conf %d ion %d", i, j)
			assert.InDelta(t, ref.Y, forces[j].Y, ftol, "conf %d ion %d", i, j)
			assert.InDelta(t, ref.Z, forces[j].Z, ftol, "conf %d ion %d", i, j)
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max(vs ...float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
