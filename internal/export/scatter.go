package export

import (
	"image/color"
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/terrastat/lisa-cli/internal/model"
)

// WriteScatterPNG renders the Moran scatter plot for one variable:
// standardized values against their spatial lag, with zero reference lines
// separating the four cluster quadrants.
func WriteScatterPNG(path, variable string, units []model.UnitResult) error {
	p := plot.New()
	p.Title.Text = "Moran scatter: " + variable
	p.X.Label.Text = "standardized value (z)"
	p.Y.Label.Text = "spatial lag of z"

	pts := make(plotter.XYs, len(units))
	var maxAbs float64
	for i, u := range units {
		pts[i].X = u.Local.ZValue
		pts[i].Y = u.Local.Lag
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(pts[i].X), math.Abs(pts[i].Y)))
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return eris.Wrap(err, "export: build scatter")
	}

	hline, err := plotter.NewLine(plotter.XYs{{X: -maxAbs, Y: 0}, {X: maxAbs, Y: 0}})
	if err != nil {
		return eris.Wrap(err, "export: build horizontal axis line")
	}
	vline, err := plotter.NewLine(plotter.XYs{{X: 0, Y: -maxAbs}, {X: 0, Y: maxAbs}})
	if err != nil {
		return eris.Wrap(err, "export: build vertical axis line")
	}
	hline.Color = color.Gray{Y: 128}
	vline.Color = color.Gray{Y: 128}

	p.Add(plotter.NewGrid(), hline, vline, sc)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "export: save scatter %s", path)
	}
	return nil
}
