package main

import (
	"github.com/mrrlab/ribmc/mcmc"
	"github.com/mrrlab/ribmc/parameter"
)

// RunSummary is storing ribmc run summary information.
type RunSummary struct {
	// RunID is a unique run identifier.
	RunID string `json:"runID"`
	// Version stores ribmc version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Model is the model name.
	Model string `json:"model"`
	// Genes is the number of genes.
	Genes int `json:"genes"`
	// Iterations is the total number of iterations.
	Iterations int `json:"iterations"`
	// LogLikelihood is the final log-likelihood.
	LogLikelihood float64 `json:"logLikelihood"`
	// Acceptance stores acceptance rates of the last adaptation
	// window by codon group and by hyperparameter.
	Acceptance map[string]float64 `json:"acceptance,omitempty"`
	// Posterior is the posterior summary after burnin.
	Posterior *mcmc.Summary `json:"posterior,omitempty"`
	// Time is the computations time in seconds.
	TotalTime float64 `json:"time"`
}

// lastRate returns the last recorded acceptance rate.
func lastRate(t *parameter.Tuner) (float64, bool) {
	if len(t.Rates) == 0 {
		return 0, false
	}
	return t.Rates[len(t.Rates)-1], true
}

// acceptance collects the last acceptance rates.
func acceptance(st *parameter.Store) map[string]float64 {
	acc := make(map[string]float64)
	for gi, g := range st.Groups() {
		if r, ok := lastRate(st.CodonTuner(gi)); ok {
			acc[g.Key] = r
		}
	}
	if r, ok := lastRate(st.HyperparameterTuner()); ok {
		acc["sPhi"] = r
	}
	if st.HasPartitionFunction() {
		if r, ok := lastRate(st.PartitionFunctionTuner()); ok {
			acc["partitionFunction"] = r
		}
	}
	return acc
}
