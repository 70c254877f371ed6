package main

import (
	"path/filepath"

	"github.com/mrrlab/ribmc/mcmc"
)

// runSettings stores settings of a single run.
type runSettings struct {
	model        string
	genomeFn     string
	countsFn     string
	configFn     string
	nMixtures    int
	mixtureState string

	restartInFn   string
	restartOutFn  string
	checkpointFn  string
	checkpointSec float64

	sampler *mcmc.Settings
	burnin  int
	seed    int64

	metricsAddr string
	outDir      string
	plot        bool
	simulate    string
}

// newRunSettings initializes runSettings from global variables
// (command-line arguments).
func newRunSettings(workers int) *runSettings {
	s := mcmc.NewSettings()
	s.Samples = *samples
	s.Thinning = *thinning
	s.AdaptiveWidth = *adaptive
	s.AdaptUntil = *adaptUntil
	s.DirichletPrior = *dirichlet
	s.EstimateCodonSpecific = !*noCodon
	s.EstimateHyperparameter = !*noHyper
	s.EstimateSynthesisRate = !*noPhi
	s.EstimateMixture = !*noMixture
	s.ReportPeriod = *report
	s.Workers = workers

	return &runSettings{
		model:         *modelName,
		genomeFn:      *genomeFn,
		countsFn:      *countsFn,
		configFn:      *configFn,
		nMixtures:     *nMixtures,
		mixtureState:  *mixtureState,
		restartInFn:   *restartInFn,
		restartOutFn:  *restartOutFn,
		checkpointFn:  *checkpointFn,
		checkpointSec: *checkpointSec,
		sampler:       s,
		burnin:        *burnin,
		seed:          *seed,
		metricsAddr:   *metricsAddr,
		outDir:        *outDir,
		plot:          *plot,
		simulate:      *simulate,
	}
}

// summaryBurnin returns the number of samples discarded in the
// summary; negative burnin means 20% of the samples.
func (rs *runSettings) summaryBurnin() int {
	if rs.burnin < 0 {
		return rs.sampler.Samples / 5
	}
	return rs.burnin
}

// checkpointKey identifies the run in the checkpoint database.
func (rs *runSettings) checkpointKey() []byte {
	return []byte(rs.model + "/" + filepath.Base(rs.genomeFn))
}
