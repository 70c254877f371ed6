package parameter

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/mrrlab/ribmc/bio"
)

func testLayout() Layout {
	return Layout{
		Families: []FamilySpec{
			{Name: "mutation", Dim: MutationDim, Initial: 1},
			{Name: "selection", Dim: SelectionDim, Initial: 0.5},
		},
		Grouping: ByAminoAcid,
	}
}

func newTestStore(tst *testing.T, state string, k, genes int) *Store {
	mix, err := NewMixture(state, k, genes)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s, err := NewStore(testLayout(), mix, NewSettings())
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return s
}

func TestTuner(tst *testing.T) {
	cases := []struct {
		accepted int
		factor   float64
	}{
		{10, 0.8},
		{35, 1.2},
		{25, 1},
		{20, 1},
		{30, 1},
	}
	for _, c := range cases {
		t := NewTuner(0.5)
		for i := 0; i < c.accepted; i++ {
			t.Accept()
		}
		rate := t.Adapt(100, true)
		if rate != float64(c.accepted)/100 {
			tst.Errorf("Wrong rate: %v", rate)
		}
		if t.Width != 0.5*c.factor {
			tst.Errorf("Wrong width for %d accepted. Expected %v, got %v", c.accepted, 0.5*c.factor, t.Width)
		}
		if t.Accepted() != 0 {
			tst.Error("Counter was not reset")
		}
		if len(t.Rates) != 1 || t.Rates[0] != rate {
			tst.Errorf("Wrong rate trace: %v", t.Rates)
		}
	}

	t := NewTuner(0.5)
	t.Adapt(100, false)
	if t.Width != 0.5 {
		tst.Error("Width changed without adaptation")
	}
}

func TestGroups(tst *testing.T) {
	groups := ByAminoAcid.Groups()
	if len(groups) != 18 {
		tst.Errorf("Expected 18 amino acid groups, got %d", len(groups))
	}
	free := 0
	for _, g := range groups {
		if g.Key == "M" || g.Key == "W" {
			tst.Errorf("Single codon group %s was not skipped", g.Key)
		}
		free += len(g.Free)
	}
	// 61 codons - 2 single-codon amino acids - 18 references
	if free != 41 {
		tst.Errorf("Expected 41 free codons, got %d", free)
	}
	if len(ByCodon.Groups()) != bio.NCodon {
		tst.Error("Wrong number of codon groups")
	}
}

func TestMixtureStates(tst *testing.T) {
	cases := []struct {
		state     string
		mut, sel  int
		firstElem MixtureElement
		lastElem  MixtureElement
	}{
		{AllUnique, 3, 3, MixtureElement{0, 0}, MixtureElement{2, 2}},
		{MutationShared, 1, 3, MixtureElement{0, 0}, MixtureElement{0, 2}},
		{SelectionShared, 3, 1, MixtureElement{0, 0}, MixtureElement{2, 0}},
	}
	for _, c := range cases {
		m, err := NewMixture(c.state, 3, 7)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if m.MutationCategories() != c.mut || m.SelectionCategories() != c.sel {
			tst.Errorf("%s: wrong categories %d %d", c.state, m.MutationCategories(), m.SelectionCategories())
		}
		if m.Elements[0] != c.firstElem || m.Elements[2] != c.lastElem {
			tst.Errorf("%s: wrong elements %v", c.state, m.Elements)
		}
		counts := m.Counts()
		if counts[0] != 3 || counts[1] != 2 || counts[2] != 2 {
			tst.Errorf("Wrong counts %v", counts)
		}
	}
	if _, err := NewMixture("bad", 2, 2); err == nil {
		tst.Error("Expected error for unknown state")
	}
	_, err := NewMixtureFromElements([]MixtureElement{{0, 0}, {2, 0}}, 2)
	if !errors.Is(err, ErrShape) {
		tst.Errorf("Expected ErrShape for category gap, got %v", err)
	}
}

func TestProposeCommit(tst *testing.T) {
	s := newTestStore(tst, AllUnique, 2, 3)
	rng := rand.New(rand.NewSource(1))
	s.ProposeCodonSpecific(rng)

	mut, _ := s.FamilyIndex("mutation")
	b := s.Family(mut)
	if b.Categories() != 2 {
		tst.Fatalf("Expected 2 categories, got %d", b.Categories())
	}
	for c := 0; c < bio.NCodon; c++ {
		changed := b.Proposed(0, c) != b.Current(0, c)
		if s.IsFree(c) != changed {
			tst.Errorf("Codon %s: free=%v, changed=%v", bio.Codons[c], s.IsFree(c), changed)
		}
	}

	groups := s.Groups()
	var ala int
	for gi, g := range groups {
		if g.Key == "A" {
			ala = gi
		}
	}
	s.CommitCodonSpecific(ala)
	for c := 0; c < bio.NCodon; c++ {
		inGroup := groups[ala].Contains(c) && s.IsFree(c)
		for cat := 0; cat < 2; cat++ {
			committed := b.Current(cat, c) == b.Proposed(cat, c)
			if inGroup && !committed {
				tst.Errorf("Codon %s was not committed", bio.Codons[c])
			}
			if !inGroup && s.IsFree(c) && b.Current(cat, c) != 1 {
				tst.Errorf("Codon %s changed outside of the group", bio.Codons[c])
			}
		}
	}
	if s.CodonTuner(ala).Accepted() != 1 {
		tst.Error("Group tuner was not incremented")
	}
	ref := groups[ala].Codons[len(groups[ala].Codons)-1]
	if b.Current(0, ref) != 1 || bio.Codons[ref] != "GCT" {
		tst.Error("Reference codon changed")
	}
}

func TestSynthesisRates(tst *testing.T) {
	s := newTestStore(tst, MutationShared, 2, 4)
	rng := rand.New(rand.NewSource(2))
	s.ProposeSynthesisRates(rng)
	old := s.SynthesisRate(1, 1, false)
	prop := s.SynthesisRate(1, 1, true)
	if old == prop {
		tst.Fatal("Synthesis rate was not proposed")
	}
	s.CommitSynthesisRate(1, s.SynthesisCategory(1))
	if s.SynthesisRate(1, 1, false) != prop {
		tst.Error("Synthesis rate was not committed")
	}
	if s.SynthesisRate(1, 0, false) != old || s.SynthesisRate(2, 1, false) != old {
		tst.Error("Commit changed other values")
	}
	if s.SynthesisRateTuner(1, 1).Accepted() != 1 {
		tst.Error("Tuner was not incremented")
	}

	s.ProposeHyperparameter(rng)
	if s.SPhi(true) == s.SPhi(false) {
		tst.Error("sPhi was not proposed")
	}
	p := s.SPhi(true)
	s.CommitHyperparameter()
	if s.SPhi(false) != p {
		tst.Error("sPhi was not committed")
	}
}

func TestLogNormalProposal(tst *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 20000
	sum, sum2 := 0.0, 0.0
	for i := 0; i < n; i++ {
		v := math.Log(LogNormalProposal(rng, 2, 0.3)) - math.Log(2)
		sum += v
		sum2 += v * v
	}
	mean := sum / float64(n)
	sd := math.Sqrt(sum2/float64(n) - mean*mean)
	if math.Abs(mean) > 0.01 || math.Abs(sd-0.3) > 0.01 {
		tst.Errorf("Wrong log-step distribution: mean=%v, sd=%v", mean, sd)
	}
}

func TestSnapshot(tst *testing.T) {
	s := newTestStore(tst, AllUnique, 2, 3)
	rng := rand.New(rand.NewSource(4))
	s.ProposeCodonSpecific(rng)
	for gi := range s.Groups() {
		s.CommitCodonSpecific(gi)
	}
	s.ProposeSynthesisRates(rng)
	s.CommitSynthesisRate(0, 1)
	s.CodonTuner(3).Width = 0.7
	s.Mixture().Assignment[2] = 1
	snap := s.Dump()

	s2 := newTestStore(tst, AllUnique, 2, 3)
	if err := s2.Load(snap); err != nil {
		tst.Fatal("Error: ", err)
	}
	snap2 := s2.Dump()
	if snap2.SynthesisRates[1][0] != snap.SynthesisRates[1][0] {
		tst.Error("Synthesis rate was not loaded")
	}
	if snap2.Families["mutation"][1][0] != snap.Families["mutation"][1][0] {
		tst.Error("Codon-specific value was not loaded")
	}
	if s2.CodonTuner(3).Width != 0.7 {
		tst.Error("Width was not loaded")
	}
	if s2.Mixture().Assignment[2] != 1 {
		tst.Error("Assignment was not loaded")
	}

	snap.SynthesisRates[0][1] = -1
	err := s2.Load(snap)
	if !errors.Is(err, ErrNonPositive) {
		tst.Errorf("Expected ErrNonPositive, got %v", err)
	}
	if s2.SynthesisRate(1, 0, false) <= 0 {
		tst.Error("Failed load modified the store")
	}

	s3 := newTestStore(tst, AllUnique, 3, 3)
	if err := s3.Load(s.Dump()); !errors.Is(err, ErrShape) {
		tst.Errorf("Expected ErrShape, got %v", err)
	}
}

func TestSetPanics(tst *testing.T) {
	defer func() {
		if recover() == nil {
			tst.Error("Expected panic")
		}
	}()
	b := NewBlock("x", 1, 2, 1)
	b.Set(0, 0, 0)
}

func newPartitionStore(tst *testing.T, k int) *Store {
	layout := testLayout()
	layout.PartitionFunction = true
	mix, err := NewMixture(AllUnique, k, 4)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s, err := NewStore(layout, mix, NewSettings())
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return s
}

func TestPartitionFunction(tst *testing.T) {
	plain := newTestStore(tst, AllUnique, 2, 4)
	if plain.HasPartitionFunction() || plain.PartitionFunction(1, true) != 1 || plain.PartitionFunctions() != nil {
		tst.Error("Store without partition function should report Z=1")
	}

	s := newPartitionStore(tst, 2)
	if !s.HasPartitionFunction() || s.PartitionFunction(1, false) != 1 {
		tst.Fatal("Partition function should start at 1")
	}
	rng := rand.New(rand.NewSource(8))
	s.ProposePartitionFunction(rng)
	prop := []float64{s.PartitionFunction(0, true), s.PartitionFunction(1, true)}
	if prop[0] == 1 || prop[1] == 1 || s.PartitionFunction(0, false) != 1 {
		tst.Errorf("Wrong proposal: %v", prop)
	}
	s.CommitPartitionFunction()
	for k, v := range prop {
		if s.PartitionFunction(k, false) != v {
			tst.Errorf("Mixture %d: expected %v, got %v", k, v, s.PartitionFunction(k, false))
		}
	}
	if s.PartitionFunctionTuner().Accepted() != 1 {
		tst.Error("Accepted proposal was not counted")
	}
	s.AdaptPartitionFunction(10, true)
	if w := s.PartitionFunctionTuner().Width; math.Abs(w-0.08) > 1e-12 {
		tst.Errorf("Expected width 0.08, got %v", w)
	}

	snap := s.Dump()
	if len(snap.PartitionFunction) != 2 || snap.PartitionFunctionWidth != s.PartitionFunctionTuner().Width {
		tst.Fatalf("Wrong snapshot: %v, %v", snap.PartitionFunction, snap.PartitionFunctionWidth)
	}
	s2 := newPartitionStore(tst, 2)
	if err := s2.Load(snap); err != nil {
		tst.Fatal("Error: ", err)
	}
	if s2.PartitionFunction(1, false) != prop[1] || s2.PartitionFunctionTuner().Width != snap.PartitionFunctionWidth {
		tst.Error("Partition function was not loaded")
	}
	if err := plain.Load(snap); !errors.Is(err, ErrShape) {
		tst.Errorf("Expected ErrShape, got %v", err)
	}
	snap.PartitionFunction[0] = 0
	if err := s2.Load(snap); !errors.Is(err, ErrNonPositive) {
		tst.Errorf("Expected ErrNonPositive, got %v", err)
	}
	if s2.PartitionFunction(0, false) != prop[0] {
		tst.Error("Failed load modified the store")
	}
}

func TestReferenceCodons(tst *testing.T) {
	for _, g := range ByAminoAcid.Groups() {
		if len(g.Free) != len(g.Codons)-1 {
			tst.Errorf("Group %s: %d free of %d codons", g.Key, len(g.Free), len(g.Codons))
		}
		last := g.Codons[len(g.Codons)-1]
		if !bio.IsReference(last) {
			tst.Errorf("Group %s: %s is not the reference", g.Key, bio.Codons[last])
		}
		if g.Contains(last) && containsInt(g.Free, last) {
			tst.Errorf("Group %s: reference codon is free", g.Key)
		}
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
