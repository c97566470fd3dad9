package main

import (
	"flag"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/app"
	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
	"github.com/Sillyjunk96/LP-Machine-Learning/internal/infrastructure"
	"github.com/Sillyjunk96/LP-Machine-Learning/pkg/kernel"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	stepSize := flag.Int("stepsize", 0, "Snapshot stride")
	cutoff := flag.Float64("cutoff", 0, "Neighbor cutoff radius")
	nrModi := flag.Int("nr-modi", 0, "Wavevector-set size")
	lambda := flag.Float64("lambda", 0, "Regularization strength")
	workers := flag.Int("workers", 0, "Number of workers")
	logLevel := flag.String("log-level", "", "Log level")
	flag.Parse()

	// Инициализация логгера
	logger := initLogger("info")
	defer logger.Sync()

	// Чтение конфигурации
	configReader := infrastructure.NewYAMLConfigReader(logger)
	config, err := configReader.ReadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to read config", zap.Error(err))
	}

	// Применяем аргументы командной строки
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stepsize":
			config.StepSize = *stepSize
		case "cutoff":
			config.Cutoff = *cutoff
		case "nr-modi":
			config.NrModi = *nrModi
		case "lambda":
			config.Lambda = *lambda
		case "workers":
			config.Workers = *workers
		case "log-level":
			config.LogLevel = *logLevel
		}
	})

	// Обновляем уровень логирования
	logger = initLogger(config.LogLevel, config.LogFile)

	// Чтение выходных данных моделирования
	reader := infrastructure.NewOutcarReader(logger)
	sim, err := reader.ReadSimulation(config.FileIn, config.StepSize)
	if err != nil {
		logger.Fatal("Failed to read simulation output",
			zap.String("file", config.FileIn),
			zap.Error(err))
	}

	// The core trusts the caller on this; check it once at the boundary.
	if 2*config.Cutoff > sim.Lattice.MinLength() {
		logger.Fatal("Cutoff cannot be bigger than half the lattice constants",
			zap.Float64("cutoff", config.Cutoff),
			zap.Float64("min_lattice_vector", sim.Lattice.MinLength()))
	}

	configurations := make([]*domain.Configuration, len(sim.Snapshots))
	for i, snap := range sim.Snapshots {
		conf, err := domain.NewConfiguration(snap.Positions, snap.Energy, snap.Forces)
		if err != nil {
			logger.Fatal("Failed to build configuration",
				zap.Int("snapshot", i),
				zap.Error(err))
		}
		configurations[i] = conf
	}

	kern, err := kernel.New(config.Kernel)
	if err != nil {
		logger.Fatal("Failed to select kernel", zap.Error(err))
	}

	logger.Info("Starting potential calibration",
		zap.Int("configurations", len(configurations)),
		zap.Int("ions", sim.IonCount),
		zap.String("kernel", kern.Name()),
		zap.Float64("cutoff", config.Cutoff),
		zap.Int("nr_modi", config.NrModi),
		zap.Float64("lambda", config.Lambda),
		zap.Int("workers", config.Workers))

	calibrator := app.NewCalibrator(logger, config, kern)
	model, err := calibrator.Fit(configurations, sim.Lattice)
	if err != nil {
		logger.Fatal("Fit failed", zap.Error(err))
	}

	// Self-prediction over the training set
	refEnergies := make([]float64, len(configurations))
	predEnergies := make([]float64, len(configurations))
	var forceResiduals []float64
	for i, conf := range configurations {
		energy, forces, err := calibrator.Predict(model, conf)
		if err != nil {
			logger.Fatal("Prediction failed", zap.Int("configuration", i), zap.Error(err))
		}
		refEnergies[i] = conf.Energy
		predEnergies[i] = energy
		for j, f := range forces {
			ref := conf.Forces[j]
			forceResiduals = append(forceResiduals,
				f.X-ref.X, f.Y-ref.Y, f.Z-ref.Z)
		}
	}

	energyRMSE, err := domain.RMSE(refEnergies, predEnergies)
	if err != nil {
		logger.Fatal("Failed to evaluate fit", zap.Error(err))
	}
	maxDev, _ := domain.MaxAbs(refEnergies, predEnergies)
	logger.Info("Training-set self-consistency",
		zap.Float64("energy_rmse", energyRMSE),
		zap.Float64("energy_max_abs", maxDev))

	fmtEnergy := func(val float64) string {
		return strconv.FormatFloat(val, 'f', config.DecimalsEnergy, 64)
	}

	reportWriter := infrastructure.NewTXTReportWriter(logger)
	energiesFile := filepath.Join(config.OutDir, "energies.txt")
	if err := reportWriter.WriteEnergies(energiesFile, refEnergies, predEnergies, fmtEnergy); err != nil {
		logger.Error("Failed to write energies", zap.String("file", energiesFile), zap.Error(err))
	} else {
		logger.Info("Successfully written result", zap.String("file", energiesFile))
	}

	hist, err := domain.Hist(forceResiduals, 0, 0, 30)
	if err != nil {
		logger.Error("Failed to build force-residual histogram", zap.Error(err))
	} else {
		histFile := filepath.Join(config.OutDir, "force_residuals.txt")
		if err := reportWriter.WriteHistogram(histFile, &hist); err != nil {
			logger.Error("Failed to write histogram", zap.String("file", histFile), zap.Error(err))
		} else {
			logger.Info("Successfully written result", zap.String("file", histFile))
		}
	}

	plotWriter := infrastructure.NewParityPlotWriter(logger)
	parityFile := filepath.Join(config.OutDir, "parity.png")
	if err := plotWriter.WriteParity(parityFile, refEnergies, predEnergies); err != nil {
		logger.Error("Failed to write parity plot", zap.String("file", parityFile), zap.Error(err))
	}

	logger.Info("Potential calibration completed successfully")
}

// initLogger initializes the logger with the specified level and log file name.
func initLogger(level string, logfileName ...string) *zap.Logger {
	config := zap.NewProductionConfig()

	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	outputPath := []string{"stderr"}
	for _, item := range logfileName {
		if item != "" {
			outputPath = append(outputPath, item)
		}
	}

	config.OutputPaths = outputPath
	config.ErrorOutputPaths = outputPath
	config.EncoderConfig.TimeKey = "t"
	config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	config.DisableCaller = false

	logger, _ := config.Build()
	return logger
}
