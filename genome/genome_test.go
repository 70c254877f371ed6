package genome

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mrrlab/ribmc/bio"
)

func mustCodon(tst *testing.T, s string) int {
	c, err := bio.ParseCodon(s)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return c
}

func TestFromSequence(tst *testing.T) {
	g, err := FromSequence("g1", "ATGGCAGCANNNGCTTAA")
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if g.Len() != 4 {
		tst.Fatalf("Wrong gene length. Expected 4, got %d", g.Len())
	}
	gca := mustCodon(tst, "GCA")
	if g.CodonCount(gca) != 2 {
		tst.Errorf("Wrong GCA count: %d", g.CodonCount(gca))
	}
	pos := g.Positions(gca)
	if len(pos) != 2 || pos[0] != 1 || pos[1] != 2 {
		tst.Errorf("Wrong GCA positions: %v", pos)
	}
	if g.AminoAcidCount('A') != 3 {
		tst.Errorf("Wrong alanine count: %d", g.AminoAcidCount('A'))
	}
	if g.Sequence() != "ATGGCAGCAGCT" {
		tst.Errorf("Wrong sequence: %s", g.Sequence())
	}
	if _, err := FromSequence("g2", "ATGG"); err == nil {
		tst.Error("Expected error for incomplete codon")
	}
}

func TestNewGeneRange(tst *testing.T) {
	if _, err := NewGene("x", []int{0, bio.NCodon}); err == nil {
		tst.Error("Expected error for out of range codon")
	}
}

func TestGenomeDuplicate(tst *testing.T) {
	g := New()
	a, _ := NewGene("a", []int{1, 2})
	if err := g.Add(a); err != nil {
		tst.Fatal("Error: ", err)
	}
	if err := g.Add(a.Copy()); err == nil {
		tst.Error("Expected duplicate id error")
	}
	if i, ok := g.Lookup("a"); !ok || i != 0 {
		tst.Error("Lookup failed")
	}
}

func TestCounts(tst *testing.T) {
	g, err := FromSequences(bio.Sequences{
		{Name: "g1", Sequence: "GCAGCAGCT"},
		{Name: "g2", Sequence: "AAAAAG"},
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	data := "# comment\ng1\t0\t3\ng1\t2\t1\ng2 AAA 7\n"
	if err := ReadCounts(strings.NewReader(data), g); err != nil {
		tst.Fatal("Error: ", err)
	}
	g1 := g.Gene(0)
	if !g1.HasPositionalCounts() || g1.ObservedAt(0) != 3 || g1.ObservedAt(1) != 0 {
		tst.Error("Wrong positional counts")
	}
	if g1.Observed(mustCodon(tst, "GCA")) != 3 || g1.Observed(mustCodon(tst, "GCT")) != 1 {
		tst.Error("Wrong per codon counts")
	}
	g2 := g.Gene(1)
	if g2.HasPositionalCounts() || g2.Observed(mustCodon(tst, "AAA")) != 7 {
		tst.Error("Wrong codon counts for g2")
	}
	if g2.TotalObserved() != 7 {
		tst.Errorf("Wrong total: %d", g2.TotalObserved())
	}

	var buf bytes.Buffer
	if err := WriteCounts(&buf, g); err != nil {
		tst.Fatal("Error: ", err)
	}
	exp := "# gene\tposition\tcount\ng1\t0\t3\ng1\t2\t1\ng2\tAAA\t7\n"
	if buf.String() != exp {
		tst.Errorf("Wrong output. Expected:\n%q\ngot\n%q", exp, buf.String())
	}
}

func TestCountsUnlisted(tst *testing.T) {
	g, err := FromSequences(bio.Sequences{
		{Name: "g1", Sequence: "GCAGCAGCT"},
		{Name: "g2", Sequence: "AAAAAG"},
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if err := ReadCounts(strings.NewReader("g1\t1\t4\n"), g); err != nil {
		tst.Fatal("Error: ", err)
	}
	g2 := g.Gene(1)
	if !g2.HasPositionalCounts() || g2.TotalObserved() != 0 || g2.ObservedAt(1) != 0 {
		tst.Error("Unlisted gene should have zero positional counts")
	}
	if g.Gene(0).TotalObserved() != 4 {
		tst.Errorf("Wrong total: %d", g.Gene(0).TotalObserved())
	}
}

func TestCountsErrors(tst *testing.T) {
	g, _ := FromSequences(bio.Sequences{{Name: "g1", Sequence: "GCAGCA"}})
	bad := []string{
		"g1\t5\t1\n",
		"g1\t0\t-1\n",
		"g9\t0\t1\n",
		"g1\t0\t1\ng1\tGCA\t1\n",
		"g1\tTAA\t1\n",
	}
	for _, data := range bad {
		if err := ReadCounts(strings.NewReader(data), g); err == nil {
			tst.Errorf("Expected error for %q", data)
		}
	}
	err := ReadCounts(strings.NewReader("g1\tTAA\t1\n"), g)
	if !errors.Is(err, bio.ErrInvalidCodon) {
		tst.Errorf("Expected ErrInvalidCodon, got %v", err)
	}
}

func TestSum(tst *testing.T) {
	g := New()
	for i := 0; i < 100; i++ {
		gene, _ := NewGene(strings.Repeat("g", i+1), []int{i % bio.NCodon})
		g.Add(gene)
	}
	f := func(i int, gene *Gene) (float64, error) {
		return 1 / float64(i+3), nil
	}
	s1, err := g.Sum(1, f)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	for _, w := range []int{2, 4, 16} {
		s, err := g.Sum(w, f)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if s != s1 {
			tst.Errorf("Sum depends on workers: %v != %v", s, s1)
		}
	}

	errStop := errors.New("stop")
	_, err = g.Sum(4, func(i int, gene *Gene) (float64, error) {
		if i == 50 {
			return 0, errStop
		}
		return 1, nil
	})
	if !errors.Is(err, errStop) {
		tst.Errorf("Expected error, got %v", err)
	}
}
