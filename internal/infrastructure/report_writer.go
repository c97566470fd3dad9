package infrastructure

import (
	"bufio"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
)

type FmtFunc = func(float64) string

type TXTReportWriter struct {
	logger *zap.Logger
}

func NewTXTReportWriter(logger *zap.Logger) *TXTReportWriter {
	return &TXTReportWriter{logger: logger}
}

// WriteEnergies writes the reference and predicted energies of every
// configuration as a tab-separated table.
func (w *TXTReportWriter) WriteEnergies(filename string, reference, predicted []float64, formatter FmtFunc) error {
	if len(reference) != len(predicted) {
		return fmt.Errorf("%w: %d reference but %d predicted energies",
			domain.ErrShapeMismatch, len(reference), len(predicted))
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	fmt.Fprintf(writer, "Conf\tE_ref\tE_pred\tE_diff\n")
	for i := range reference {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", i,
			formatter(reference[i]),
			formatter(predicted[i]),
			formatter(predicted[i]-reference[i]))
	}

	return nil
}

// WriteHistogram writes a histogram as an X/Y table.
func (w *TXTReportWriter) WriteHistogram(filename string, hist *domain.Histogram) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	fmt.Fprintf(writer, "X\tY\n")
	for i := range hist.Len {
		fmt.Fprintf(writer, "%.4e\t%10d\n", hist.Bins[i], hist.Vals[i])
	}

	return nil
}
