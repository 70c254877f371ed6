package model

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mrrlab/ribmc/bio"
	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/parameter"
)

var rfpLayout = parameter.Layout{
	Families: []parameter.FamilySpec{
		{Name: "alpha", Dim: parameter.MutationDim, Initial: 1},
		{Name: "lambdaPrime", Dim: parameter.SelectionDim, Initial: 1},
	},
	Grouping: parameter.ByCodon,
}

// negBinomial returns the log-probability of r footprints for a
// gamma-poisson compound with shape a, rate lambda and scale
// exp(logPhi).
func negBinomial(r, a, logPhi, lambda float64) float64 {
	lg1, _ := math.Lgamma(a + r)
	lg2, _ := math.Lgamma(a)
	lg3, _ := math.Lgamma(r + 1)
	l := math.Log(lambda + math.Exp(logPhi))
	return lg1 - lg2 - lg3 + r*(logPhi-l) + a*(math.Log(lambda)-l)
}

// RFP is the ribosome footprint model: footprints of a codon follow a
// negative binomial with shape n*alpha.
type RFP struct {
	base
	alpha, lambda int
}

// NewRFP creates a new RFP model over a store with the RFP layout.
func NewRFP(s *parameter.Store, workers int) *RFP {
	m := &RFP{
		base:   base{store: s, workers: workers},
		alpha:  mustFamily(s, "alpha"),
		lambda: mustFamily(s, "lambdaPrime"),
	}
	m.ll = m
	return m
}

func (m *RFP) logLike(gene *genome.Gene, phi float64, v values) float64 {
	logPhi := math.Log(phi)
	ll := 0.0
	if v.group != nil {
		for _, c := range v.group.Codons {
			ll += m.codonLogLike(gene, c, logPhi, v)
		}
		return ll
	}
	for c := 0; c < bio.NCodon; c++ {
		ll += m.codonLogLike(gene, c, logPhi, v)
	}
	return ll
}

func (m *RFP) codonLogLike(gene *genome.Gene, c int, logPhi float64, v values) float64 {
	n := gene.CodonCount(c)
	if n == 0 {
		return 0
	}
	a := float64(n) * v.get(m.alpha, c)
	return negBinomial(float64(gene.Observed(c)), a, logPhi, v.get(m.lambda, c))
}

// SimulateGenome draws footprint counts for every codon.
func (m *RFP) SimulateGenome(g *genome.Genome, rng *rand.Rand) (*genome.Genome, error) {
	out := genome.New()
	assignment := m.store.Mixture().Assignment
	for i := 0; i < g.Len(); i++ {
		gene := g.Gene(i).Copy()
		k := assignment[i]
		phi := m.store.SynthesisRate(i, k, false)
		v := values{store: m.store, mixture: k}
		for c := 0; c < bio.NCodon; c++ {
			n := gene.CodonCount(c)
			if n == 0 {
				gene.SetObservedForCodon(c, 0)
				continue
			}
			rate := distuv.Gamma{
				Alpha: float64(n) * v.get(m.alpha, c),
				Beta:  v.get(m.lambda, c),
				Src:   rng,
			}.Rand()
			count := distuv.Poisson{Lambda: phi * rate, Src: rng}.Rand()
			gene.SetObservedForCodon(c, int(count))
		}
		if err := out.Add(gene); err != nil {
			return nil, err
		}
	}
	log.Debugf("Simulated footprint counts for %d genes", out.Len())
	return out, nil
}
