package infrastructure

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
)

type YAMLConfigReader struct {
	logger *zap.Logger
}

func NewYAMLConfigReader(logger *zap.Logger) *YAMLConfigReader {
	return &YAMLConfigReader{logger: logger}
}

func (r *YAMLConfigReader) ReadConfig(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config domain.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// Устанавливаем значения по умолчанию
	r.setDefaults(&config)

	if err := r.validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (r *YAMLConfigReader) setDefaults(config *domain.Config) {
	if config.StepSize == 0 {
		config.StepSize = 1
	}
	if config.NrModi == 0 {
		config.NrModi = 5
	}
	if config.Workers == 0 {
		config.Workers = max(1, runtime.NumCPU()-1)
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutDir == "" {
		config.OutDir = "."
	}
	if config.DecimalsEnergy == 0 {
		config.DecimalsEnergy = 6
	}
	if config.DecimalsDefault == 0 {
		config.DecimalsDefault = 4
	}
}

func (r *YAMLConfigReader) validate(config *domain.Config) error {
	if config.FileIn == "" {
		return fmt.Errorf("%w: file_in is required", domain.ErrInvalidConfig)
	}
	if config.StepSize < 1 {
		return fmt.Errorf("%w: stepsize must be >= 1, got %d", domain.ErrInvalidConfig, config.StepSize)
	}
	if config.Cutoff <= 0 {
		return fmt.Errorf("%w: cutoff must be > 0, got %g", domain.ErrInvalidConfig, config.Cutoff)
	}
	if config.NrModi < 1 {
		return fmt.Errorf("%w: nr_modi must be >= 1, got %d", domain.ErrInvalidConfig, config.NrModi)
	}
	if config.Lambda < 0 {
		return fmt.Errorf("%w: lambda must be >= 0, got %g", domain.ErrInvalidConfig, config.Lambda)
	}
	switch config.Kernel.Type {
	case "linear":
	case "gaussian":
		if config.Kernel.Sigma <= 0 {
			return fmt.Errorf("%w: gaussian kernel requires sigma > 0", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: kernel type %q is not supported", domain.ErrInvalidConfig, config.Kernel.Type)
	}
	return nil
}
