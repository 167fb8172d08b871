package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/forecast"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	linearColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	expColor    = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	boundsColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	actualColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// PlotFits renders one PNG per fit under dir/<view>/ showing the history,
// both projections, the expected envelope at the target date, and the
// actual value. It returns the paths written.
func PlotFits(dir string, view domain.View, fits []domain.FitResult, bounds forecast.Bounds) ([]string, error) {
	if len(fits) == 0 {
		return nil, nil
	}
	out := filepath.Join(dir, string(view))
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	paths := make([]string, 0, len(fits))
	for _, fit := range fits {
		p, err := fitPlot(fit, bounds)
		if err != nil {
			return paths, fmt.Errorf("plot %s: %w", fit.State, err)
		}
		path := filepath.Join(out, fitFileName(fit, ".png"))
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("save plot %s: %w", fit.State, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func fitPlot(fit domain.FitResult, bounds forecast.Bounds) (*plot.Plot, error) {
	verdict := forecast.Evaluate(fit, bounds)
	xt := float64(domain.DaysBetween(fit.Origin, fit.TargetDate))

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s positive cases, %s", fit.State, fit.TargetDate.Format("2006-01-02"))
	p.X.Label.Text = "days since " + fit.Origin.Format("2006-01-02")
	p.Y.Label.Text = "positive"
	p.Add(plotter.NewGrid())

	history := make(plotter.XYs, len(fit.Points))
	for i, pt := range fit.Points {
		history[i].X = float64(domain.DaysBetween(fit.Origin, pt.Date))
		history[i].Y = pt.Value
	}
	scatter, err := plotter.NewScatter(history)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}

	linear := plotter.NewFunction(func(x float64) float64 {
		return fit.LinearIntercept + fit.LinearSlope*x
	})
	linear.Color = linearColor
	linear.Width = vg.Points(1.5)

	exponential := plotter.NewFunction(func(x float64) float64 {
		return math.Exp(fit.ExpIntercept + fit.ExpSlope*x)
	})
	exponential.Color = expColor
	exponential.Width = vg.Points(1.5)
	exponential.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	envelope, err := plotter.NewLine(plotter.XYs{{X: xt, Y: verdict.Min}, {X: xt, Y: verdict.Max}})
	if err != nil {
		return nil, err
	}
	envelope.Color = boundsColor
	envelope.Width = vg.Points(6)

	actual, err := plotter.NewScatter(plotter.XYs{{X: xt, Y: fit.Actual}})
	if err != nil {
		return nil, err
	}
	actual.GlyphStyle.Color = actualColor
	actual.GlyphStyle.Shape = draw.CrossGlyph{}
	actual.GlyphStyle.Radius = vg.Points(4)

	p.Add(envelope, scatter, linear, exponential, actual)
	p.Legend.Add("history", scatter)
	p.Legend.Add("linear", linear)
	p.Legend.Add("exponential", exponential)
	p.Legend.Add("expected range", envelope)
	p.Legend.Add("actual", actual)
	p.Legend.Top = true
	p.Legend.Left = true

	p.X.Min = 0
	p.X.Max = xt + 1
	p.Y.Min = 0
	p.Y.Max = math.Max(verdict.Max, fit.Actual) * 1.1
	return p, nil
}
