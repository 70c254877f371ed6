package mcmc

import (
	"errors"
	"fmt"
)

// Settings are settings of the sampler.
type Settings struct {
	// Samples is the number of trace samples (the trace has
	// Samples+1 entries including the initial state).
	Samples int
	// Thinning is the number of iterations per sample.
	Thinning int
	// AdaptiveWidth is the adaptation window in iterations.
	AdaptiveWidth int
	// AdaptUntil is the iteration after which proposal widths are
	// fixed; <= 0 means adapt during the whole run.
	AdaptUntil int

	EstimateCodonSpecific  bool
	EstimateHyperparameter bool
	EstimateSynthesisRate  bool
	// EstimateMixture enables redrawing mixture assignments and
	// probabilities during the synthesis rate update.
	EstimateMixture bool

	// Workers is the number of goroutines for per-gene
	// computations, GOMAXPROCS if <= 0.
	Workers int
	// DirichletPrior is added to every assignment count when mixture
	// probabilities are redrawn.
	DirichletPrior float64
	// ReportPeriod is the number of iterations between progress
	// messages, 0 disables them.
	ReportPeriod int
}

// NewSettings creates default settings.
func NewSettings() *Settings {
	return &Settings{
		Samples:                1000,
		Thinning:               10,
		AdaptiveWidth:          100,
		EstimateCodonSpecific:  true,
		EstimateHyperparameter: true,
		EstimateSynthesisRate:  true,
		EstimateMixture:        true,
		DirichletPrior:         1,
		ReportPeriod:           100,
	}
}

// Iterations returns the total number of iterations.
func (s *Settings) Iterations() int {
	return s.Samples * s.Thinning
}

// Validate checks the settings.
func (s *Settings) Validate() error {
	switch {
	case s.Samples < 1:
		return fmt.Errorf("number of samples should be >= 1, got %d", s.Samples)
	case s.Thinning < 1:
		return fmt.Errorf("thinning should be >= 1, got %d", s.Thinning)
	case s.AdaptiveWidth < 1:
		return fmt.Errorf("adaptive width should be >= 1, got %d", s.AdaptiveWidth)
	case !(s.DirichletPrior > 0):
		return errors.New("dirichlet prior should be > 0")
	case s.ReportPeriod < 0:
		return errors.New("report period should be >= 0")
	}
	return nil
}
