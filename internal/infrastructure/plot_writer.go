package infrastructure

import (
	"fmt"
	"image/color"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Sillyjunk96/LP-Machine-Learning/internal/domain"
)

// ParityPlotWriter renders predicted-vs-reference energy scatter plots.
type ParityPlotWriter struct {
	logger *zap.Logger
}

func NewParityPlotWriter(logger *zap.Logger) *ParityPlotWriter {
	return &ParityPlotWriter{logger: logger}
}

// WriteParity saves a scatter of predicted over reference energies with the
// identity line to filename (format chosen by extension, e.g. .png).
func (w *ParityPlotWriter) WriteParity(filename string, reference, predicted []float64) error {
	if len(reference) == 0 || len(reference) != len(predicted) {
		return fmt.Errorf("%w: %d reference but %d predicted energies",
			domain.ErrShapeMismatch, len(reference), len(predicted))
	}

	p := plot.New()
	p.Title.Text = "Energy parity"
	p.X.Label.Text = "Reference energy (eV)"
	p.Y.Label.Text = "Predicted energy (eV)"

	pts := make(plotter.XYs, len(reference))
	lo, hi := reference[0], reference[0]
	for i := range reference {
		pts[i] = plotter.XY{X: reference[i], Y: predicted[i]}
		for _, v := range []float64{reference[i], predicted[i]} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(scatter)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return err
	}
	identity.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	identity.Width = vg.Points(1)
	p.Add(identity)
	p.Legend.Add("fit", scatter)
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(6*vg.Inch, 6*vg.Inch, filename); err != nil {
		return err
	}

	w.logger.Info("Parity plot written", zap.String("file", filename))
	return nil
}
