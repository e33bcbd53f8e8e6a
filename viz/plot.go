package viz

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// FitnessCurve plots per-generation best and mean fitness to a PNG file.
func FitnessCurve(best, mean []float64, title, outPath string) error {
	if len(best) != len(mean) {
		return fmt.Errorf("best and mean series differ in length: %d vs %d", len(best), len(mean))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	bestPts := make(plotter.XYs, len(best))
	meanPts := make(plotter.XYs, len(mean))
	for i := range best {
		bestPts[i].X = float64(i)
		bestPts[i].Y = best[i]
		meanPts[i].X = float64(i)
		meanPts[i].Y = mean[i]
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}

	p.Add(bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, outPath)
}
