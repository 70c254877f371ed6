package model

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mrrlab/ribmc/bio"
	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/parameter"
)

// FONSE cost coefficients, cost = a1 + a2 * position.
const (
	fonseA1 = 4
	fonseA2 = 4
)

var rocLayout = parameter.Layout{
	Families: []parameter.FamilySpec{
		{Name: "mutation", Dim: parameter.MutationDim, Initial: 1},
		{Name: "selection", Dim: parameter.SelectionDim, Initial: 1},
	},
	Grouping: parameter.ByAminoAcid,
}

// maxSynonymous is the largest number of codons per amino acid.
const maxSynonymous = 6

// codonUsage is shared by models of codon choice within amino acids.
type codonUsage struct {
	base
	mut, sel int
}

func newCodonUsage(s *parameter.Store, workers int) codonUsage {
	return codonUsage{
		base: base{store: s, workers: workers},
		mut:  mustFamily(s, "mutation"),
		sel:  mustFamily(s, "selection"),
	}
}

// mustFamily returns the family index and panics if the store was
// created with a wrong layout.
func mustFamily(s *parameter.Store, name string) int {
	i, ok := s.FamilyIndex(name)
	if !ok {
		panic("parameter store has no family " + name)
	}
	return i
}

// logits computes unnormalized log-probabilities of synonymous codons.
func (m *codonUsage) logits(dst []float64, syn []int, phi, cost float64, v values) []float64 {
	for i, c := range syn {
		dst[i] = math.Log(v.get(m.mut, c)) - v.get(m.sel, c)*phi*cost
	}
	return dst
}

// simulate draws codons for every position, keeping amino acids.
func (m *codonUsage) simulate(g *genome.Genome, rng *rand.Rand, cost func(pos int) float64) (*genome.Genome, error) {
	out := genome.New()
	assignment := m.store.Mixture().Assignment
	var buf [maxSynonymous]float64
	for i := 0; i < g.Len(); i++ {
		gene := g.Gene(i)
		k := assignment[i]
		phi := m.store.SynthesisRate(i, k, false)
		v := values{store: m.store, mixture: k}
		codons := make([]int, gene.Len())
		for pos := range codons {
			c := gene.Codon(pos)
			syn := bio.SynonymousCodons(bio.AminoAcidOf(c))
			if len(syn) < 2 {
				codons[pos] = c
				continue
			}
			l := m.logits(buf[:len(syn)], syn, phi, cost(pos), v)
			floats.AddConst(-floats.Max(l), l)
			for j := range l {
				l[j] = math.Exp(l[j])
			}
			codons[pos] = syn[int(distuv.NewCategorical(l, rng).Rand())]
		}
		ng, err := simulated(gene, codons)
		if err != nil {
			return nil, err
		}
		if err := out.Add(ng); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ROC is the ribosome overhead cost model: probability of a codon
// within its amino acid is proportional to mutation*exp(-selection*phi).
type ROC struct {
	codonUsage
}

// NewROC creates a new ROC model over a store with the ROC layout.
func NewROC(s *parameter.Store, workers int) *ROC {
	m := &ROC{newCodonUsage(s, workers)}
	m.ll = m
	return m
}

func (m *ROC) logLike(gene *genome.Gene, phi float64, v values) float64 {
	if v.group != nil {
		return m.aminoAcidLogLike(gene, bio.AminoAcidOf(v.group.Codons[0]), phi, v)
	}
	ll := 0.0
	for _, aa := range bio.AminoAcids {
		ll += m.aminoAcidLogLike(gene, aa, phi, v)
	}
	return ll
}

func (m *ROC) aminoAcidLogLike(gene *genome.Gene, aa byte, phi float64, v values) float64 {
	syn := bio.SynonymousCodons(aa)
	if len(syn) < 2 || gene.AminoAcidCount(aa) == 0 {
		return 0
	}
	var buf [maxSynonymous]float64
	l := m.logits(buf[:len(syn)], syn, phi, 1, v)
	lse := floats.LogSumExp(l)
	ll := 0.0
	for i, c := range syn {
		if n := gene.CodonCount(c); n > 0 {
			ll += float64(n) * (l[i] - lse)
		}
	}
	return ll
}

// SimulateGenome draws synonymous codons for every position.
func (m *ROC) SimulateGenome(g *genome.Genome, rng *rand.Rand) (*genome.Genome, error) {
	return m.simulate(g, rng, func(int) float64 { return 1 })
}

// FONSE is the first order nonsense error model: like ROC, but the
// cost of a codon grows linearly with its position.
type FONSE struct {
	codonUsage
}

// NewFONSE creates a new FONSE model over a store with the ROC
// layout.
func NewFONSE(s *parameter.Store, workers int) *FONSE {
	m := &FONSE{newCodonUsage(s, workers)}
	m.ll = m
	return m
}

func positionCost(pos int) float64 {
	return fonseA1 + fonseA2*float64(pos)
}

func (m *FONSE) logLike(gene *genome.Gene, phi float64, v values) float64 {
	ll := 0.0
	if v.group != nil {
		for _, c := range v.group.Codons {
			for _, pos := range gene.Positions(c) {
				ll += m.positionLogLike(gene, pos, phi, v)
			}
		}
		return ll
	}
	for pos := 0; pos < gene.Len(); pos++ {
		ll += m.positionLogLike(gene, pos, phi, v)
	}
	return ll
}

func (m *FONSE) positionLogLike(gene *genome.Gene, pos int, phi float64, v values) float64 {
	c := gene.Codon(pos)
	syn := bio.SynonymousCodons(bio.AminoAcidOf(c))
	if len(syn) < 2 {
		return 0
	}
	var buf [maxSynonymous]float64
	l := m.logits(buf[:len(syn)], syn, phi, positionCost(pos), v)
	// synonymous codons have consecutive indices
	return l[c-syn[0]] - floats.LogSumExp(l)
}

// SimulateGenome draws synonymous codons for every position.
func (m *FONSE) SimulateGenome(g *genome.Genome, rng *rand.Rand) (*genome.Genome, error) {
	return m.simulate(g, rng, positionCost)
}
