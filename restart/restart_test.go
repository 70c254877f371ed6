package restart

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/mrrlab/ribmc/parameter"
)

func newStore(tst *testing.T) *parameter.Store {
	mix, err := parameter.NewMixture(parameter.MutationShared, 2, 12)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	layout := parameter.Layout{
		Families: []parameter.FamilySpec{
			{Name: "mutation", Dim: parameter.MutationDim, Initial: 1},
			{Name: "selection", Dim: parameter.SelectionDim, Initial: 1},
		},
		Grouping: parameter.ByAminoAcid,
	}
	st, err := parameter.NewStore(layout, mix, parameter.NewSettings())
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return st
}

func TestWriteRead(tst *testing.T) {
	st := newStore(tst)
	rng := rand.New(rand.NewSource(1))
	st.ProposeCodonSpecific(rng)
	for gi := range st.Groups() {
		st.CommitCodonSpecific(gi)
	}
	st.ProposeSynthesisRates(rng)
	for gene := 0; gene < st.NumGenes(); gene++ {
		st.CommitSynthesisRate(gene, 1)
	}
	st.Mixture().Probabilities[0], st.Mixture().Probabilities[1] = 0.3, 0.7
	snap := st.Dump()
	snap.Iteration = 250
	snap.LogLikelihood = -1234.0625

	var buf bytes.Buffer
	if err := Write(&buf, snap); err != nil {
		tst.Fatal("Error: ", err)
	}
	text := buf.String()
	if !strings.Contains(text, ">current_selection:\n***\n") {
		tst.Error("No selection section in restart file")
	}
	for _, line := range strings.Split(text, "\n") {
		if n := len(strings.Fields(line)); n > perRow {
			tst.Errorf("Row with %d values: %q", n, line)
		}
	}

	snap2, err := Read(strings.NewReader(text))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if snap2.Iteration != 250 || snap2.LogLikelihood != -1234.0625 {
		tst.Errorf("Wrong header values %d %v", snap2.Iteration, snap2.LogLikelihood)
	}

	st2 := newStore(tst)
	if err := st2.Load(snap2); err != nil {
		tst.Fatal("Error: ", err)
	}
	snap3 := st2.Dump()
	for gene := range snap.SynthesisRates[1] {
		if snap3.SynthesisRates[1][gene] != snap.SynthesisRates[1][gene] {
			tst.Errorf("Synthesis rate of gene %d differs", gene)
		}
	}
	for name, vals := range snap.Families {
		for cat := range vals {
			for c := range vals[cat] {
				if snap3.Families[name][cat][c] != vals[cat][c] {
					tst.Errorf("%s[%d][%d] differs", name, cat, c)
				}
			}
		}
	}
	if snap3.MixtureProbabilities[1] != 0.7 {
		tst.Error("Mixture probabilities differ")
	}
	for key, w := range snap.CodonWidths {
		if snap3.CodonWidths[key] != w {
			tst.Errorf("Width of %s differs", key)
		}
	}
}

func TestReadErrors(tst *testing.T) {
	bad := []string{
		"1 2 3\n",
		">iteration\n1\n",
		">iteration:\nx\n",
		">iteration:\n1\n>iteration:\n2\n",
		">iteration:\n1\n",
	}
	for _, data := range bad {
		if _, err := Read(strings.NewReader(data)); err == nil {
			tst.Errorf("Expected error for %q", data)
		}
	}
}

func TestPartitionFunction(tst *testing.T) {
	mix, err := parameter.NewMixture(parameter.AllUnique, 3, 4)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	layout := parameter.Layout{
		Families:          []parameter.FamilySpec{{Name: "alpha", Dim: parameter.MutationDim, Initial: 1}},
		Grouping:          parameter.ByCodon,
		PartitionFunction: true,
	}
	st, err := parameter.NewStore(layout, mix, parameter.NewSettings())
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	st.SetPartitionFunction(2, 0.375)
	st.PartitionFunctionTuner().Width = 0.25

	var buf bytes.Buffer
	if err := Write(&buf, st.Dump()); err != nil {
		tst.Fatal("Error: ", err)
	}
	if !strings.Contains(buf.String(), ">partitionFunction:\n1 1 0.375\n>std_partitionFunction:\n0.25\n") {
		tst.Errorf("No partition function section in:\n%s", buf.String())
	}
	snap, err := Read(strings.NewReader(buf.String()))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	st2, _ := parameter.NewStore(layout, mix, parameter.NewSettings())
	if err := st2.Load(snap); err != nil {
		tst.Fatal("Error: ", err)
	}
	if st2.PartitionFunction(2, false) != 0.375 || st2.PartitionFunctionTuner().Width != 0.25 {
		tst.Error("Partition function was not restored")
	}

	// stores without a partition function don't write the section
	buf.Reset()
	if err := Write(&buf, newStore(tst).Dump()); err != nil {
		tst.Fatal("Error: ", err)
	}
	if strings.Contains(buf.String(), "partitionFunction") {
		tst.Error("Unexpected partition function section")
	}
}
