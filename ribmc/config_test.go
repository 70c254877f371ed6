package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrrlab/ribmc/bio"
	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/model"
	"github.com/mrrlab/ribmc/parameter"
)

const testConfig = `
mixtures:
  - {mutation: 1, selection: 1}
  - {mutation: 1, selection: 2}
sPhi: 1.5
widths:
  codon: 0.05
  partitionFunction: 0.2
synthesisRate:
  b: 2.5
initial:
  - {family: selection, mixture: 2, codon: gcu, value: 0.7}
`

func writeConfig(tst *testing.T, text string) string {
	fn := filepath.Join(tst.TempDir(), "config.yaml")
	if err := os.WriteFile(fn, []byte(text), 0666); err != nil {
		tst.Fatal("Error: ", err)
	}
	return fn
}

func testGenome(tst *testing.T) *genome.Genome {
	g, err := genome.FromSequences(bio.Sequences{
		{Name: "a", Sequence: "ATGGCTGCAAAA"},
		{Name: "b", Sequence: "ATGGCCGCGAAG"},
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return g
}

func TestNormalizeCodon(tst *testing.T) {
	for in, exp := range map[string]string{"gcu": "GCT", " Aug ": "ATG", "TTT": "TTT"} {
		if got := normalizeCodon(in); got != exp {
			tst.Errorf("Error: %q -> %q, expected %q", in, got, exp)
		}
	}
}

func TestConfig(tst *testing.T) {
	cfg, err := readConfig(writeConfig(tst, testConfig))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	g := testGenome(tst)

	mix, err := cfg.mixture(g.Len())
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if mix.Len() != 2 || mix.MutationCategories() != 1 || mix.SelectionCategories() != 2 {
		tst.Fatalf("Error: wrong mixture %+v", mix.Elements)
	}

	ss := parameter.NewSettings()
	cfg.updateSettings(ss)
	if ss.SPhi != 1.5 || ss.CodonWidth != 0.05 || ss.PhiWidth != 0.1 || ss.PartitionFunctionWidth != 0.2 {
		tst.Errorf("Error: wrong settings %+v", ss)
	}

	st, err := parameter.NewStore(model.Variants["ROC"].Layout, mix, ss)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if err := cfg.apply(st, g); err != nil {
		tst.Fatal("Error: ", err)
	}

	fi, _ := st.FamilyIndex("selection")
	codon, _ := bio.ParseCodon("GCT")
	if v := st.CodonSpecific(fi, 1, codon, false); v != 0.7 {
		tst.Error("Error: selection value", v, "expected 0.7")
	}
	if v := st.CodonSpecific(fi, 0, codon, false); v == 0.7 {
		tst.Error("Error: first mixture should not change")
	}
	if v := st.SynthesisRates().Value(0, 1, false); v != 2.5 {
		tst.Error("Error: synthesis rate", v, "expected 2.5")
	}
}

func TestConfigErrors(tst *testing.T) {
	g := testGenome(tst)
	for _, text := range []string{
		"initial:\n  - {family: nosuch, mixture: 1, codon: GCT, value: 1}\n",
		"initial:\n  - {family: mutation, mixture: 3, codon: GCT, value: 1}\n",
		"initial:\n  - {family: mutation, mixture: 1, codon: XYZ, value: 1}\n",
		"synthesisRate:\n  nosuch: 1\n",
	} {
		cfg, err := readConfig(writeConfig(tst, text))
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		mix, _ := parameter.NewMixture(parameter.AllUnique, 1, g.Len())
		st, err := parameter.NewStore(model.Variants["ROC"].Layout, mix, parameter.NewSettings())
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if err := cfg.apply(st, g); err == nil {
			tst.Errorf("Error: expected an error for %q", text)
		}
	}

	cfg, err := readConfig(writeConfig(tst, "synthesisRate:\n  a: -1\n"))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	mix, _ := parameter.NewMixture(parameter.AllUnique, 1, g.Len())
	st, _ := parameter.NewStore(model.Variants["ROC"].Layout, mix, parameter.NewSettings())
	if err := cfg.apply(st, g); !errors.Is(err, parameter.ErrNonPositive) {
		tst.Error("Error: expected ErrNonPositive, got", err)
	}

	cfg, err = readConfig(writeConfig(tst, "mixtures:\n  - {mutation: 0, selection: 1}\n"))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err := cfg.mixture(g.Len()); err == nil {
		tst.Error("Error: expected an error for 0-based categories")
	}
}
