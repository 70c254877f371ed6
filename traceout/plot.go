package traceout

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/mrrlab/ribmc/mcmc"
)

// series converts samples to points with iterations on the x axis.
func series(t *mcmc.Trace, vals []float64) plotter.XYs {
	pts := make(plotter.XYs, len(vals))
	for s, v := range vals {
		pts[s].X = float64(s * t.Thinning)
		pts[s].Y = v
	}
	return pts
}

func save(path, title, ylabel string, lines ...interface{}) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	if err := plotutil.AddLines(p, lines...); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// Plot saves trace plots of the log-likelihood, sPhi, mixture
// probabilities and partition functions as PNG files in dir.
func Plot(dir string, t *mcmc.Trace) error {
	n := t.Len()
	err := save(filepath.Join(dir, "logLikelihood.png"), "Log-likelihood", "logL",
		"logL", series(t, t.LogLikelihood[:n]))
	if err != nil {
		return err
	}
	err = save(filepath.Join(dir, "sPhi.png"), "Synthesis rate prior scale", "sPhi",
		"sPhi", series(t, t.SPhi[:n]))
	if err != nil {
		return err
	}

	var lines []interface{}
	for k := range t.MixtureProbability[0] {
		lines = append(lines, fmt.Sprintf("mixture %d", k), series(t, t.MixtureProbabilitySeries(k)))
	}
	err = save(filepath.Join(dir, "mixtureProbability.png"), "Mixture probabilities", "probability", lines...)
	if err != nil || t.PartitionFunction == nil {
		return err
	}

	lines = lines[:0]
	for k := range t.PartitionFunction[0] {
		lines = append(lines, fmt.Sprintf("mixture %d", k), series(t, t.PartitionFunctionSeries(k)))
	}
	return save(filepath.Join(dir, "partitionFunction.png"), "Partition functions", "Z", lines...)
}
