package mcmc

import (
	"golang.org/x/exp/rand"

	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/parameter"
)

// Ratio is the result of a per-gene synthesis rate evaluation.
// LogRatio already includes the log-Jacobian of the log-normal
// proposal, Proposed-Current == LogRatio.
type Ratio struct {
	LogRatio float64
	Current  float64
	Proposed float64
}

// Model computes likelihood ratios of a translation model.
// Implementations read parameters from a parameter store and must be
// safe for concurrent PerGeneRatio calls for different genes.
type Model interface {
	// PerGeneRatio compares the proposed and current synthesis rate
	// of a gene under a mixture element.
	PerGeneRatio(gene *genome.Gene, geneIndex, mixture int) (Ratio, error)
	// PerGroupingRatio returns the log-likelihood difference between
	// proposed and current codon-specific values of a group.
	PerGroupingRatio(group parameter.Group, g *genome.Genome) (float64, error)
	// HyperparameterRatio returns the log acceptance ratio for the
	// proposed sPhi.
	HyperparameterRatio(g *genome.Genome, iteration int) (float64, error)
	// SimulateGenome draws a new genome from the model.
	SimulateGenome(g *genome.Genome, rng *rand.Rand) (*genome.Genome, error)
}

// PartitionFunctionModel is a Model with a partition function per
// mixture element. It is required for stores keeping partition
// functions.
type PartitionFunctionModel interface {
	Model
	// PartitionFunctionRatio returns the log acceptance ratio for the
	// proposed partition functions.
	PartitionFunctionRatio(g *genome.Genome) (float64, error)
}
