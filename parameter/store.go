package parameter

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/mrrlab/ribmc/bio"
)

// Settings are initial values of the store.
type Settings struct {
	// SPhi is the initial value of the synthesis rate prior scale.
	SPhi float64
	// Phi is the initial synthesis rate of every gene.
	Phi float64
	// CodonWidth is the initial proposal width for codon-specific
	// groups.
	CodonWidth float64
	// SPhiWidth is the initial proposal width for sPhi.
	SPhiWidth float64
	// PhiWidth is the initial proposal width for synthesis rates.
	PhiWidth float64
	// PartitionFunctionWidth is the initial proposal width for
	// partition functions.
	PartitionFunctionWidth float64
}

// NewSettings creates default settings.
func NewSettings() *Settings {
	return &Settings{
		SPhi:       2,
		Phi:        1,
		CodonWidth: 0.1,
		SPhiWidth:  0.1,
		PhiWidth:   0.1,

		PartitionFunctionWidth: 0.1,
	}
}

// Store owns all parameters of a run.
type Store struct {
	layout      Layout
	families    []*Block
	familyIndex map[string]int
	groups      []Group
	free        [bio.NCodon]bool
	groupOf     [bio.NCodon]int
	codonTuners []*Tuner

	mixture   *Mixture
	phi       *Block
	phiTuners [][]*Tuner

	sPhi, sPhiProposed float64
	sPhiTuner          *Tuner

	// partition functions, nil unless the layout asks for them
	z      *Block
	zTuner *Tuner
}

// NewStore creates a parameter store for a layout and a mixture.
func NewStore(layout Layout, mixture *Mixture, s *Settings) (*Store, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	numGenes := len(mixture.Assignment)
	if err := mixture.Validate(numGenes); err != nil {
		return nil, err
	}
	for _, v := range []float64{s.SPhi, s.Phi, s.CodonWidth, s.SPhiWidth, s.PhiWidth, s.PartitionFunctionWidth} {
		if !(v > 0) {
			return nil, fmt.Errorf("%w: initial settings %+v", ErrNonPositive, *s)
		}
	}

	st := &Store{
		layout:       layout,
		familyIndex:  make(map[string]int, len(layout.Families)),
		groups:       layout.Grouping.Groups(),
		mixture:      mixture,
		sPhi:         s.SPhi,
		sPhiProposed: s.SPhi,
		sPhiTuner:    NewTuner(s.SPhiWidth),
	}
	for i, f := range layout.Families {
		st.familyIndex[f.Name] = i
		st.families = append(st.families,
			NewBlock(f.Name, mixture.categories(f.Dim), bio.NCodon, f.Initial))
	}
	for c := range st.groupOf {
		st.groupOf[c] = -1
	}
	for gi, g := range st.groups {
		for _, c := range g.Free {
			st.free[c] = true
			st.groupOf[c] = gi
		}
		st.codonTuners = append(st.codonTuners, NewTuner(s.CodonWidth))
	}

	ncat := mixture.SelectionCategories()
	st.phi = NewBlock("synthesisRate", ncat, numGenes, s.Phi)
	st.phiTuners = make([][]*Tuner, ncat)
	for cat := range st.phiTuners {
		st.phiTuners[cat] = make([]*Tuner, numGenes)
		for gene := range st.phiTuners[cat] {
			st.phiTuners[cat][gene] = NewTuner(s.PhiWidth)
		}
	}
	if layout.PartitionFunction {
		st.z = NewBlock("partitionFunction", 1, mixture.Len(), 1)
		st.zTuner = NewTuner(s.PartitionFunctionWidth)
	}
	log.Debugf("Parameter store: %d families, %d groups, %d mixtures, %d genes",
		len(st.families), len(st.groups), mixture.Len(), numGenes)
	return st, nil
}

// Layout returns the codon-specific parameter layout.
func (s *Store) Layout() Layout {
	return s.layout
}

// Groups returns codon groups. The returned slice must not be
// modified.
func (s *Store) Groups() []Group {
	return s.groups
}

// Family returns the family block by its index in the layout.
func (s *Store) Family(family int) *Block {
	return s.families[family]
}

// FamilyIndex returns the index of a family by name.
func (s *Store) FamilyIndex(name string) (int, bool) {
	i, ok := s.familyIndex[name]
	return i, ok
}

// Mixture returns the mixture definition.
func (s *Store) Mixture() *Mixture {
	return s.mixture
}

// NumGenes returns number of genes.
func (s *Store) NumGenes() int {
	return len(s.mixture.Assignment)
}

// IsFree checks if a codon has free codon-specific parameters.
func (s *Store) IsFree(codon int) bool {
	return s.free[codon]
}

// CodonSpecific returns a codon-specific value of a family for a
// mixture element.
func (s *Store) CodonSpecific(family, mixture, codon int, proposed bool) float64 {
	cat := s.mixture.Category(mixture, s.layout.Families[family].Dim)
	return s.families[family].Value(cat, codon, proposed)
}

// SynthesisCategory returns the synthesis rate category of a mixture
// element.
func (s *Store) SynthesisCategory(mixture int) int {
	return s.mixture.Elements[mixture].Selection
}

// SynthesisRate returns the synthesis rate of a gene under a mixture
// element.
func (s *Store) SynthesisRate(gene, mixture int, proposed bool) float64 {
	return s.phi.Value(s.SynthesisCategory(mixture), gene, proposed)
}

// SynthesisRates returns the synthesis rate block.
func (s *Store) SynthesisRates() *Block {
	return s.phi
}

// SPhi returns the current or proposed sPhi.
func (s *Store) SPhi(proposed bool) float64 {
	if proposed {
		return s.sPhiProposed
	}
	return s.sPhi
}

// ProposeCodonSpecific proposes new values for every family, category
// and free codon. Fixed codons keep their current value.
func (s *Store) ProposeCodonSpecific(rng *rand.Rand) {
	for _, b := range s.families {
		for cat := range b.current {
			for c := range b.current[cat] {
				if !s.free[c] {
					b.Reject(cat, c)
					continue
				}
				w := s.codonTuners[s.groupOf[c]].Width
				b.SetProposed(cat, c, LogNormalProposal(rng, b.current[cat][c], w))
			}
		}
	}
}

// CommitCodonSpecific accepts the proposal for a group in every
// family and category.
func (s *Store) CommitCodonSpecific(group int) {
	for _, b := range s.families {
		b.Commit(s.groups[group].Free...)
	}
	s.codonTuners[group].Accept()
}

// ProposeHyperparameter proposes a new sPhi.
func (s *Store) ProposeHyperparameter(rng *rand.Rand) {
	s.sPhiProposed = LogNormalProposal(rng, s.sPhi, s.sPhiTuner.Width)
}

// CommitHyperparameter accepts the proposed sPhi.
func (s *Store) CommitHyperparameter() {
	s.sPhi = s.sPhiProposed
	s.sPhiTuner.Accept()
}

// ProposeSynthesisRates proposes new synthesis rates for every gene
// and category.
func (s *Store) ProposeSynthesisRates(rng *rand.Rand) {
	for cat := range s.phi.current {
		for gene, v := range s.phi.current[cat] {
			s.phi.SetProposed(cat, gene, LogNormalProposal(rng, v, s.phiTuners[cat][gene].Width))
		}
	}
}

// CommitSynthesisRate accepts the proposed synthesis rate of a gene
// in a category.
func (s *Store) CommitSynthesisRate(gene, category int) {
	s.phi.CommitCategory(category, gene)
	s.phiTuners[category][gene].Accept()
}

// SetSynthesisRate sets the synthesis rate of a gene in every
// category.
func (s *Store) SetSynthesisRate(gene int, v float64) {
	for cat := range s.phi.current {
		s.phi.Set(cat, gene, v)
	}
}

// SetSPhi sets sPhi.
func (s *Store) SetSPhi(v float64) {
	if !(v > 0) {
		panic("sPhi should be > 0")
	}
	s.sPhi, s.sPhiProposed = v, v
}

// AdaptCodonSpecific runs adaptation for every codon group.
func (s *Store) AdaptCodonSpecific(window int, adapt bool) {
	for gi, t := range s.codonTuners {
		rate := t.Adapt(window, adapt)
		log.Debugf("Group %s: acceptance rate %.2f, width %g", s.groups[gi].Key, rate, t.Width)
	}
}

// AdaptHyperparameter runs adaptation for sPhi.
func (s *Store) AdaptHyperparameter(window int, adapt bool) {
	rate := s.sPhiTuner.Adapt(window, adapt)
	log.Debugf("sPhi: acceptance rate %.2f, width %g", rate, s.sPhiTuner.Width)
}

// AdaptSynthesisRates runs adaptation for every gene and category.
func (s *Store) AdaptSynthesisRates(window int, adapt bool) {
	for cat := range s.phiTuners {
		for _, t := range s.phiTuners[cat] {
			t.Adapt(window, adapt)
		}
	}
}

// CodonTuner returns the tuner of a codon group.
func (s *Store) CodonTuner(group int) *Tuner {
	return s.codonTuners[group]
}

// HyperparameterTuner returns the sPhi tuner.
func (s *Store) HyperparameterTuner() *Tuner {
	return s.sPhiTuner
}

// SynthesisRateTuner returns the tuner of a gene in a category.
func (s *Store) SynthesisRateTuner(gene, category int) *Tuner {
	return s.phiTuners[category][gene]
}
