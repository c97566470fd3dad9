package infrastructure

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
)

func TestWriteEnergies(t *testing.T) {
	writer := NewTXTReportWriter(zap.NewNop())
	path := filepath.Join(t.TempDir(), "energies.txt")

	fmtE := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
	err := writer.WriteEnergies(path, []float64{-1.0, -2.0}, []float64{-1.5, -2.0}, fmtE)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Conf\tE_ref\tE_pred\tE_diff", lines[0])
	assert.Equal(t, "0\t-1.000\t-1.500\t-0.500", lines[1])
	assert.Equal(t, "1\t-2.000\t-2.000\t0.000", lines[2])
}

func TestWriteEnergiesShapeMismatch(t *testing.T) {
	writer := NewTXTReportWriter(zap.NewNop())
	path := filepath.Join(t.TempDir(), "energies.txt")

	err := writer.WriteEnergies(path, []float64{1}, []float64{1, 2}, nil)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestWriteHistogram(t *testing.T) {
	writer := NewTXTReportWriter(zap.NewNop())
	path := filepath.Join(t.TempDir(), "hist.txt")

	hist, err := domain.Hist([]float64{0, 0.5, 1}, 0, 1, 3)
	require.NoError(t, err)
	require.NoError(t, writer.WriteHistogram(path, &hist))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "X\tY", lines[0])
}

func TestWriteParityPlot(t *testing.T) {
	writer := NewParityPlotWriter(zap.NewNop())
	path := filepath.Join(t.TempDir(), "parity.png")

	err := writer.WriteParity(path, []float64{-1, -2, -3}, []float64{-1.1, -1.9, -3.0})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteParityPlotShapeMismatch(t *testing.T) {
	writer := NewParityPlotWriter(zap.NewNop())
	err := writer.WriteParity(filepath.Join(t.TempDir(), "parity.png"), []float64{1}, nil)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}
