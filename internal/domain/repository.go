package domain

// SimulationReader интерфейс для чтения результатов моделирования
type SimulationReader interface {
	ReadSimulation(filename string, stride int) (*Simulation, error)
}

// ReportWriter интерфейс для записи результатов
type ReportWriter interface {
	WriteEnergies(filename string, reference, predicted []float64, formatter func(float64) string) error
	WriteHistogram(filename string, hist *Histogram) error
}

// ConfigReader интерфейс для чтения конфигурации
type ConfigReader interface {
	ReadConfig(path string) (*Config, error)
}
