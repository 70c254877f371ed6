package traceout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/mrrlab/ribmc/bio"
	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/mcmc"
	"github.com/mrrlab/ribmc/model"
	"github.com/mrrlab/ribmc/parameter"
)

func testTrace(tst *testing.T, name string) (*mcmc.Trace, *genome.Genome) {
	g, err := genome.FromSequences(bio.Sequences{
		{Name: "first", Sequence: "GCAGCCGCGAAAAAGCTGTTA"},
		{Name: "second", Sequence: "TCTTCAAGCGGAGGC"},
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	for i := 0; i < g.Len(); i++ {
		gene := g.Gene(i)
		counts := make([]int, gene.Len())
		for pos := range counts {
			counts[pos] = pos % 3
		}
		if err := gene.SetObserved(counts); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	v := model.Variants[name]
	mix, _ := parameter.NewMixture(parameter.SelectionShared, 2, g.Len())
	st, err := parameter.NewStore(v.Layout, mix, parameter.NewSettings())
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s := mcmc.NewSettings()
	s.Samples = 5
	s.Thinning = 3
	s.ReportPeriod = 0
	sampler, err := mcmc.New(v.New(st, 1), st, g, rand.New(rand.NewSource(1)), s)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if err := sampler.Run(); err != nil {
		tst.Fatal("Error: ", err)
	}
	return sampler.Trace(), g
}

func readLines(tst *testing.T, path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestWriteTSV(tst *testing.T) {
	t, g := testTrace(tst, "ROC")
	dir := filepath.Join(tst.TempDir(), "trace")
	if err := WriteTSV(dir, t, g); err != nil {
		tst.Fatal("Error: ", err)
	}

	lines := readLines(tst, filepath.Join(dir, "synthesisRate_cat0.tsv"))
	if len(lines) != 7 {
		tst.Fatalf("Expected header and 6 samples, got %d lines", len(lines))
	}
	if lines[0] != "iteration\tfirst\tsecond" {
		tst.Errorf("Wrong header %q", lines[0])
	}
	if !strings.HasPrefix(lines[6], "15\t") {
		tst.Errorf("Wrong last iteration %q", lines[6])
	}

	lines = readLines(tst, filepath.Join(dir, "global.tsv"))
	if lines[0] != "iteration\tlogLikelihood\tsPhi\tp0\tp1" {
		tst.Errorf("Wrong header %q", lines[0])
	}

	// selectionShared: two mutation categories, one selection category
	for _, name := range []string{"mutation_cat0.tsv", "mutation_cat1.tsv", "selection_cat0.tsv", "mixtureAssignment.tsv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			tst.Error("Error: ", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "selection_cat1.tsv")); err == nil {
		tst.Error("Unexpected selection category")
	}
	lines = readLines(tst, filepath.Join(dir, "mutation_cat1.tsv"))
	if n := len(strings.Split(lines[0], "\t")); n != bio.NCodon+1 {
		tst.Errorf("Expected %d columns, got %d", bio.NCodon+1, n)
	}
}

func TestPlot(tst *testing.T) {
	t, _ := testTrace(tst, "ROC")
	dir := tst.TempDir()
	if err := Plot(dir, t); err != nil {
		tst.Fatal("Error: ", err)
	}
	for _, name := range []string{"logLikelihood.png", "sPhi.png", "mixtureProbability.png"} {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			tst.Error("Error: ", err)
			continue
		}
		if fi.Size() == 0 {
			tst.Errorf("%s is empty", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "partitionFunction.png")); err == nil {
		tst.Error("ROC has no partition function plot")
	}
}

func TestPartitionFunctionOutput(tst *testing.T) {
	t, g := testTrace(tst, "PANSE")
	dir := tst.TempDir()
	if err := WriteTSV(dir, t, g); err != nil {
		tst.Fatal("Error: ", err)
	}
	lines := readLines(tst, filepath.Join(dir, "global.tsv"))
	if lines[0] != "iteration\tlogLikelihood\tsPhi\tp0\tp1\tZ0\tZ1" {
		tst.Errorf("Wrong header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "\t1\t1") {
		tst.Errorf("Initial partition functions should be 1: %q", lines[1])
	}
	if err := Plot(dir, t); err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "partitionFunction.png")); err != nil {
		tst.Error("Error: ", err)
	}
}
