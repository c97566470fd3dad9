package domain

// PreprocessTask задача подготовки одной конфигурации
type PreprocessTask struct {
	Index int
	Conf  *Configuration
}

type PreprocessResult struct {
	Index int
	Err   error
}

// AssemblyTask задача сборки блока матрицы дизайна одной конфигурации;
// RowStart адресует непересекающийся диапазон строк
type AssemblyTask struct {
	Index    int
	Conf     *Configuration
	RowStart int
}
