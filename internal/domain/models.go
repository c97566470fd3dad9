package domain

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// Config представляет конфигурацию приложения
type Config struct {
	FileIn          string       `yaml:"file_in"`
	StepSize        int          `yaml:"stepsize"`
	Cutoff          float64      `yaml:"cutoff"`
	NrModi          int          `yaml:"nr_modi"`
	Lambda          float64      `yaml:"lambda"`
	Kernel          KernelConfig `yaml:"Kernel"`
	Workers         int          `yaml:"workers"`
	LogLevel        string       `yaml:"log_level"`
	LogFile         string       `yaml:"log_file"`
	OutDir          string       `yaml:"out_dir"`
	DecimalsEnergy  int          `yaml:"decimals_energy"`
	DecimalsDefault int          `yaml:"decimals_default"`
}

// KernelConfig selects one variant of the closed kernel set. Sigma is
// required iff Type is "gaussian".
type KernelConfig struct {
	Type  string  `yaml:"type"`
	Sigma float64 `yaml:"sigma"`
}

// Snapshot is one parsed simulation frame: total energy plus per-ion
// positions and forces with matching lengths.
type Snapshot struct {
	Energy    float64
	Positions []r3.Vec
	Forces    []r3.Vec
}

// Simulation bundles everything extracted from one simulation-output file.
type Simulation struct {
	Lattice   Lattice
	IonCount  int
	Snapshots []Snapshot
}

var (
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrStaleAccess       = errors.New("accessed before initialization")
	ErrUnlabeled         = errors.New("configuration carries no forces")
)
