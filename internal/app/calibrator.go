package app

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
	"github.com/Sillyjunk96/LP-Machine-Learning/pkg/kernel"
	"github.com/Sillyjunk96/LP-Machine-Learning/pkg/regression"
)

// Model is a fitted potential: the coefficient vector, the stacked training
// descriptors it was fit against, the kernel selection and the
// hyperparameters. New configurations handed to Predict must share the same
// lattice, cutoff and wavevector assumptions as training.
type Model struct {
	Alpha   *mat.VecDense
	Train   *mat.Dense
	Kern    *kernel.Kernel
	Qs      []float64
	Cutoff  float64
	Lambda  float64
	Lattice domain.Lattice
}

// Calibrator fits the potential on training configurations and predicts
// energies and forces of unseen ones.
type Calibrator struct {
	logger *zap.Logger
	config *domain.Config
	kern   *kernel.Kernel
	qs     []float64
}

func NewCalibrator(logger *zap.Logger, config *domain.Config, kern *kernel.Kernel) *Calibrator {
	return &Calibrator{
		logger: logger,
		config: config,
		kern:   kern,
		qs:     domain.Wavevectors(config.Cutoff, config.NrModi),
	}
}

// Wavevectors returns the q set the calibrator fits with.
func (c *Calibrator) Wavevectors() []float64 {
	return c.qs
}

// Fit preprocesses the training configurations, assembles the combined
// energy+force design system and solves the ridge regression.
func (c *Calibrator) Fit(configs []*domain.Configuration, lattice domain.Lattice) (*Model, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: no training configurations", domain.ErrUnlabeled)
	}
	for i, conf := range configs {
		if !conf.Labeled() {
			return nil, fmt.Errorf("%w: training configuration %d", domain.ErrUnlabeled, i)
		}
	}

	if err := c.preprocess(configs, lattice); err != nil {
		return nil, err
	}

	train := stackDescriptors(configs)
	mCols, _ := train.Dims()

	// per configuration: one energy row, then 3 force rows per ion
	// (ion-major, X/Y/Z minor); the target vector uses the same order
	rows := 0
	starts := make([]int, len(configs))
	for i, conf := range configs {
		starts[i] = rows
		rows += 1 + 3*conf.NIons()
	}

	design := mat.NewDense(rows, mCols, nil)
	target := mat.NewVecDense(rows, nil)

	c.logger.Info("Assembling design matrix",
		zap.Int("configurations", len(configs)),
		zap.Int("rows", rows),
		zap.Int("columns", mCols),
		zap.Int("workers", c.config.Workers))

	tasks := make(chan domain.AssemblyTask, c.config.Workers*2)
	results := make(chan *domain.PreprocessResult, len(configs))
	var wg sync.WaitGroup
	for i := range c.config.Workers {
		wg.Add(1)
		c.logger.Debug("Starting assembly worker", zap.Int("id", i))
		go c.assemblyWorker(design, target, train, tasks, results, &wg)
	}

	go func() {
		for i, conf := range configs {
			tasks <- domain.AssemblyTask{Index: i, Conf: conf, RowStart: starts[i]}
		}
		close(tasks)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("configuration %d: %w", res.Index, res.Err)
		}
	}

	alpha, err := regression.Ridge(design, target, c.config.Lambda)
	if err != nil {
		return nil, fmt.Errorf("fitting %d configurations (%d rows, %d coefficients): %w",
			len(configs), rows, mCols, err)
	}

	c.logger.Info("Fit complete",
		zap.String("kernel", c.kern.Name()),
		zap.Float64("lambda", c.config.Lambda),
		zap.Float64("alpha_norm", mat.Norm(alpha, 2)))

	return &Model{
		Alpha:   alpha,
		Train:   train,
		Kern:    c.kern,
		Qs:      c.qs,
		Cutoff:  c.config.Cutoff,
		Lambda:  c.config.Lambda,
		Lattice: lattice,
	}, nil
}

// Predict computes the energy and the per-ion forces of an unseen
// configuration from the fitted model.
func (c *Calibrator) Predict(model *Model, conf *domain.Configuration) (float64, []r3.Vec, error) {
	conf.InitNeighbors(model.Cutoff, model.Lattice)
	if err := conf.InitDescriptors(model.Qs); err != nil {
		return 0, nil, err
	}
	desc, err := conf.Descriptors()
	if err != nil {
		return 0, nil, err
	}

	sim := model.Kern.Similarity(desc, model.Train)
	energy := floats.Dot(kernel.EnergyRow(sim), model.Alpha.RawVector().Data)

	fsub, err := model.Kern.ForceSubmatrix(model.Qs, conf, model.Train)
	if err != nil {
		return 0, nil, err
	}
	var fv mat.VecDense
	fv.MulVec(fsub, model.Alpha)

	forces := make([]r3.Vec, conf.NIons())
	for i := range forces {
		forces[i] = r3.Vec{
			X: fv.AtVec(3*i + 0),
			Y: fv.AtVec(3*i + 1),
			Z: fv.AtVec(3*i + 2),
		}
	}
	return energy, forces, nil
}

// preprocess runs the neighbor and descriptor initialization of every
// configuration on the worker pool. Each worker writes only to its own
// configuration, so no locking is needed.
func (c *Calibrator) preprocess(configs []*domain.Configuration, lattice domain.Lattice) error {
	tasks := make(chan domain.PreprocessTask, c.config.Workers*2)
	results := make(chan *domain.PreprocessResult, len(configs))
	var wg sync.WaitGroup

	for i := range c.config.Workers {
		wg.Add(1)
		c.logger.Debug("Starting preprocess worker", zap.Int("id", i))
		go func() {
			defer wg.Done()
			for task := range tasks {
				task.Conf.InitNeighbors(c.config.Cutoff, lattice)
				err := task.Conf.InitDescriptors(c.qs)
				results <- &domain.PreprocessResult{Index: task.Index, Err: err}
			}
		}()
	}

	go func() {
		for i, conf := range configs {
			tasks <- domain.PreprocessTask{Index: i, Conf: conf}
		}
		close(tasks)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.Err != nil {
			return fmt.Errorf("preprocessing configuration %d: %w", res.Index, res.Err)
		}
	}
	return nil
}

// assemblyWorker fills the design-matrix rows and target entries of whole
// configurations; tasks address disjoint row ranges, so concurrent writes
// never overlap.
func (c *Calibrator) assemblyWorker(design *mat.Dense, target *mat.VecDense, train *mat.Dense,
	tasks <-chan domain.AssemblyTask, results chan<- *domain.PreprocessResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range tasks {
		err := c.assembleBlock(design, target, train, task)
		results <- &domain.PreprocessResult{Index: task.Index, Err: err}
	}
}

func (c *Calibrator) assembleBlock(design *mat.Dense, target *mat.VecDense, train *mat.Dense, task domain.AssemblyTask) error {
	conf := task.Conf
	desc, err := conf.Descriptors()
	if err != nil {
		return err
	}

	sim := c.kern.Similarity(desc, train)
	design.SetRow(task.RowStart, kernel.EnergyRow(sim))
	target.SetVec(task.RowStart, conf.Energy)

	fsub, err := c.kern.ForceSubmatrix(c.qs, conf, train)
	if err != nil {
		return err
	}
	fr, _ := fsub.Dims()
	for r := 0; r < fr; r++ {
		design.SetRow(task.RowStart+1+r, fsub.RawRowView(r))
	}
	for i, f := range conf.Forces {
		target.SetVec(task.RowStart+1+3*i+0, f.X)
		target.SetVec(task.RowStart+1+3*i+1, f.Y)
		target.SetVec(task.RowStart+1+3*i+2, f.Z)
	}
	return nil
}

// stackDescriptors concatenates the per-ion descriptor rows of all training
// configurations, configuration-major, ion-minor.
func stackDescriptors(configs []*domain.Configuration) *mat.Dense {
	total := 0
	var width int
	for _, conf := range configs {
		d, _ := conf.Descriptors()
		r, cW := d.Dims()
		total += r
		width = cW
	}
	train := mat.NewDense(total, width, nil)
	row := 0
	for _, conf := range configs {
		d, _ := conf.Descriptors()
		r, _ := d.Dims()
		for i := 0; i < r; i++ {
			train.SetRow(row, d.RawRowView(i))
			row++
		}
	}
	return train
}
