package model

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/parameter"
)

var panseLayout = parameter.Layout{
	Families: []parameter.FamilySpec{
		{Name: "alpha", Dim: parameter.MutationDim, Initial: 1},
		{Name: "lambdaPrime", Dim: parameter.SelectionDim, Initial: 1},
		{Name: "nse", Dim: parameter.MutationDim, Initial: 1e-3},
	},
	Grouping:          parameter.ByCodon,
	PartitionFunction: true,
}

// PANSE is the ribosome footprint model with nonsense errors: a
// ribosome reaches position i with probability
// exp(-sum of nse over preceding codons). The footprint rate of a
// mixture element is scaled by 1/Z, Z being its partition function.
type PANSE struct {
	base
	alpha, lambda, nse int
}

// NewPANSE creates a new PANSE model over a store with the PANSE
// layout.
func NewPANSE(s *parameter.Store, workers int) *PANSE {
	m := &PANSE{
		base:   base{store: s, workers: workers},
		alpha:  mustFamily(s, "alpha"),
		lambda: mustFamily(s, "lambdaPrime"),
		nse:    mustFamily(s, "nse"),
	}
	m.ll = m
	return m
}

// logLike always uses the whole gene since nonsense errors of a codon
// affect all downstream positions.
func (m *PANSE) logLike(gene *genome.Gene, phi float64, v values) float64 {
	return m.positionLogLike(gene, phi, v, math.Log(m.store.PartitionFunction(v.mixture, false)))
}

func (m *PANSE) positionLogLike(gene *genome.Gene, phi float64, v values, logZ float64) float64 {
	logRate := math.Log(phi) - logZ
	logS := 0.0
	ll := 0.0
	for pos := 0; pos < gene.Len(); pos++ {
		c := gene.Codon(pos)
		ll += negBinomial(float64(gene.ObservedAt(pos)), v.get(m.alpha, c), logRate+logS, v.get(m.lambda, c))
		logS -= v.get(m.nse, c)
	}
	return ll
}

// PartitionFunctionRatio compares proposed and current partition
// functions of all mixture elements. The prior on log Z is flat and
// the proposal is symmetric in log Z, so only likelihoods enter.
func (m *PANSE) PartitionFunctionRatio(g *genome.Genome) (float64, error) {
	assignment := m.store.Mixture().Assignment
	return g.Sum(m.workers, func(i int, gene *genome.Gene) (float64, error) {
		k := assignment[i]
		phi := m.store.SynthesisRate(i, k, false)
		v := values{store: m.store, mixture: k}
		z, zP := m.store.PartitionFunction(k, false), m.store.PartitionFunction(k, true)
		c := m.positionLogLike(gene, phi, v, math.Log(z))
		p := m.positionLogLike(gene, phi, v, math.Log(zP))
		if err := degenerate(fmt.Sprintf("gene %s, partition function %v -> %v", gene.ID, z, zP), c, p); err != nil {
			return 0, err
		}
		return p - c, nil
	})
}

// SimulateGenome draws footprint counts for every position.
func (m *PANSE) SimulateGenome(g *genome.Genome, rng *rand.Rand) (*genome.Genome, error) {
	out := genome.New()
	assignment := m.store.Mixture().Assignment
	for i := 0; i < g.Len(); i++ {
		gene := g.Gene(i).Copy()
		k := assignment[i]
		phi := m.store.SynthesisRate(i, k, false) / m.store.PartitionFunction(k, false)
		v := values{store: m.store, mixture: k}
		counts := make([]int, gene.Len())
		logS := 0.0
		for pos := range counts {
			c := gene.Codon(pos)
			rate := distuv.Gamma{Alpha: v.get(m.alpha, c), Beta: v.get(m.lambda, c), Src: rng}.Rand()
			counts[pos] = int(distuv.Poisson{Lambda: phi * math.Exp(logS) * rate, Src: rng}.Rand())
			logS -= v.get(m.nse, c)
		}
		if err := gene.SetObserved(counts); err != nil {
			return nil, err
		}
		if err := out.Add(gene); err != nil {
			return nil, err
		}
	}
	return out, nil
}
