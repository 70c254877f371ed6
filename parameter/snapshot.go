package parameter

import (
	"fmt"
)

// Snapshot is a copy of all parameter values and proposal widths. It
// is used to restart and checkpoint a chain.
type Snapshot struct {
	Iteration     int     `json:"iteration"`
	LogLikelihood float64 `json:"logLikelihood"`

	// Families maps family name to current values [category][codon].
	Families map[string][][]float64 `json:"families"`
	// CodonWidths maps codon group key to proposal width.
	CodonWidths map[string]float64 `json:"codonWidths"`

	SynthesisRates  [][]float64 `json:"synthesisRates"`
	SynthesisWidths [][]float64 `json:"synthesisWidths"`
	SPhi            float64     `json:"sPhi"`
	SPhiWidth       float64     `json:"sPhiWidth"`

	MixtureElements      []MixtureElement `json:"mixtureElements"`
	MixtureProbabilities []float64        `json:"mixtureProbabilities"`
	MixtureAssignment    []int            `json:"mixtureAssignment"`

	// PartitionFunction is set only for layouts with a partition
	// function, one value per mixture element.
	PartitionFunction      []float64 `json:"partitionFunction,omitempty"`
	PartitionFunctionWidth float64   `json:"partitionFunctionWidth,omitempty"`
}

// Dump creates a snapshot of the current state.
func (s *Store) Dump() *Snapshot {
	snap := &Snapshot{
		Families:             make(map[string][][]float64, len(s.families)),
		CodonWidths:          make(map[string]float64, len(s.groups)),
		SynthesisRates:       s.phi.Values(),
		SynthesisWidths:      make([][]float64, len(s.phiTuners)),
		SPhi:                 s.sPhi,
		SPhiWidth:            s.sPhiTuner.Width,
		MixtureElements:      append([]MixtureElement(nil), s.mixture.Elements...),
		MixtureProbabilities: append([]float64(nil), s.mixture.Probabilities...),
		MixtureAssignment:    append([]int(nil), s.mixture.Assignment...),
	}
	if s.z != nil {
		snap.PartitionFunction = s.PartitionFunctions()
		snap.PartitionFunctionWidth = s.zTuner.Width
	}
	for _, b := range s.families {
		snap.Families[b.Name] = b.Values()
	}
	for gi, g := range s.groups {
		snap.CodonWidths[g.Key] = s.codonTuners[gi].Width
	}
	for cat := range s.phiTuners {
		snap.SynthesisWidths[cat] = make([]float64, len(s.phiTuners[cat]))
		for gene, t := range s.phiTuners[cat] {
			snap.SynthesisWidths[cat][gene] = t.Width
		}
	}
	return snap
}

// Load replaces the state with a snapshot. The snapshot must match
// the layout, mixture definition and number of genes of the store.
// Nothing is changed if an error is returned.
func (s *Store) Load(snap *Snapshot) error {
	if len(snap.MixtureElements) != len(s.mixture.Elements) {
		return fmt.Errorf("%w: snapshot has %d mixtures, expected %d",
			ErrShape, len(snap.MixtureElements), len(s.mixture.Elements))
	}
	for i, e := range snap.MixtureElements {
		if e != s.mixture.Elements[i] {
			return fmt.Errorf("%w: mixture element %d differs", ErrShape, i)
		}
	}
	mix := &Mixture{
		Elements:      s.mixture.Elements,
		Probabilities: snap.MixtureProbabilities,
		Assignment:    snap.MixtureAssignment,
	}
	if err := mix.Validate(s.NumGenes()); err != nil {
		return err
	}
	if len(snap.Families) != len(s.families) {
		return fmt.Errorf("%w: snapshot has %d families, expected %d", ErrShape, len(snap.Families), len(s.families))
	}
	if !(snap.SPhi > 0) || !(snap.SPhiWidth > 0) {
		return fmt.Errorf("%w: sPhi=%v, width=%v", ErrNonPositive, snap.SPhi, snap.SPhiWidth)
	}
	for _, g := range s.groups {
		w, ok := snap.CodonWidths[g.Key]
		if !ok {
			return fmt.Errorf("%w: no width for group %s", ErrShape, g.Key)
		}
		if !(w > 0) {
			return fmt.Errorf("%w: width of %s=%v", ErrNonPositive, g.Key, w)
		}
	}

	var z *Block
	switch {
	case s.z == nil && len(snap.PartitionFunction) > 0:
		return fmt.Errorf("%w: snapshot has a partition function", ErrShape)
	case s.z != nil:
		if !(snap.PartitionFunctionWidth > 0) {
			return fmt.Errorf("%w: partition function width=%v", ErrNonPositive, snap.PartitionFunctionWidth)
		}
		z = NewBlock(s.z.Name, 1, s.z.Size(), 1)
		if err := z.Load([][]float64{snap.PartitionFunction}); err != nil {
			return err
		}
	}

	// validate blocks on copies first, so that a failure leaves the
	// store intact
	phi := NewBlock(s.phi.Name, s.phi.Categories(), s.phi.Size(), 1)
	if err := phi.Load(snap.SynthesisRates); err != nil {
		return err
	}
	widths := NewBlock("synthesisWidth", s.phi.Categories(), s.phi.Size(), 1)
	if err := widths.Load(snap.SynthesisWidths); err != nil {
		return err
	}
	families := make([]*Block, len(s.families))
	for i, b := range s.families {
		vals, ok := snap.Families[b.Name]
		if !ok {
			return fmt.Errorf("%w: no family %s in snapshot", ErrShape, b.Name)
		}
		families[i] = NewBlock(b.Name, b.Categories(), b.Size(), 1)
		if err := families[i].Load(vals); err != nil {
			return err
		}
	}

	s.families = families
	s.phi = phi
	for cat := range s.phiTuners {
		for gene, t := range s.phiTuners[cat] {
			t.Width = widths.Current(cat, gene)
		}
	}
	for gi, g := range s.groups {
		s.codonTuners[gi].Width = snap.CodonWidths[g.Key]
	}
	s.sPhi, s.sPhiProposed = snap.SPhi, snap.SPhi
	s.sPhiTuner.Width = snap.SPhiWidth
	if z != nil {
		s.z = z
		s.zTuner.Width = snap.PartitionFunctionWidth
	}
	s.mixture.Probabilities = append([]float64(nil), snap.MixtureProbabilities...)
	s.mixture.Assignment = append([]int(nil), snap.MixtureAssignment...)
	return nil
}
