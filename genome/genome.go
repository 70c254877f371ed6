// Package genome stores genes as codon summaries: counts and ordered
// positions of every sense codon, and optional ribosome footprint
// counts.
package genome

import (
	"errors"
	"fmt"
	"strings"

	"github.com/op/go-logging"

	"github.com/mrrlab/ribmc/bio"
)

var log = logging.MustGetLogger("genome")

// Gene is a single gene summarized by codon. Positions are indices in
// the sense-codon sequence of the gene (stop and ambiguous codons are
// dropped when a gene is built from nucleotides).
type Gene struct {
	ID string

	codons    []int
	counts    [bio.NCodon]int
	positions [bio.NCodon][]int

	// observed stores footprint counts per position, nil if counts
	// are known only per codon.
	observed      []int
	observedCodon [bio.NCodon]int
}

// NewGene creates a gene from a sequence of codon indices.
func NewGene(id string, codons []int) (*Gene, error) {
	g := &Gene{
		ID:     id,
		codons: make([]int, len(codons)),
	}
	for pos, c := range codons {
		if c < 0 || c >= bio.NCodon {
			return nil, fmt.Errorf("gene %s: codon index %d out of range at position %d", id, c, pos)
		}
		g.codons[pos] = c
		g.counts[c]++
		g.positions[c] = append(g.positions[c], pos)
	}
	return g, nil
}

// FromSequence creates a gene from a nucleotide sequence. Stop codons
// and codons with ambiguous nucleotides are skipped.
func FromSequence(id, seq string) (*Gene, error) {
	if len(seq)%3 != 0 {
		return nil, fmt.Errorf("gene %s: sequence length doesn't divide by 3", id)
	}
	seq = strings.Replace(strings.ToUpper(seq), "U", "T", -1)
	codons := make([]int, 0, len(seq)/3)
	skipped := 0
	for i := 0; i < len(seq); i += 3 {
		c, err := bio.ParseCodon(seq[i : i+3])
		if err != nil {
			skipped++
			continue
		}
		codons = append(codons, c)
	}
	if skipped > 1 {
		// one terminal stop codon is expected
		log.Debugf("gene %s: skipped %d non-sense codons", id, skipped)
	}
	return NewGene(id, codons)
}

// Len returns number of sense codons in the gene.
func (g *Gene) Len() int {
	return len(g.codons)
}

// Codon returns the codon index at a position.
func (g *Gene) Codon(pos int) int {
	return g.codons[pos]
}

// CodonCount returns number of occurrences of a codon.
func (g *Gene) CodonCount(codon int) int {
	return g.counts[codon]
}

// Positions returns ordered positions of a codon. The returned slice
// must not be modified.
func (g *Gene) Positions(codon int) []int {
	return g.positions[codon]
}

// AminoAcidCount returns number of codons encoding an amino acid.
func (g *Gene) AminoAcidCount(aa byte) (n int) {
	for _, c := range bio.SynonymousCodons(aa) {
		n += g.counts[c]
	}
	return
}

// SetObserved sets footprint counts per position.
func (g *Gene) SetObserved(counts []int) error {
	if len(counts) != len(g.codons) {
		return fmt.Errorf("gene %s: %d counts for %d positions", g.ID, len(counts), len(g.codons))
	}
	g.observed = make([]int, len(counts))
	g.observedCodon = [bio.NCodon]int{}
	for pos, n := range counts {
		if n < 0 {
			return fmt.Errorf("gene %s: negative count at position %d", g.ID, pos)
		}
		g.observed[pos] = n
		g.observedCodon[g.codons[pos]] += n
	}
	return nil
}

// SetObservedForCodon sets the total footprint count of a codon. It
// drops per-position counts.
func (g *Gene) SetObservedForCodon(codon, n int) {
	g.observed = nil
	g.observedCodon[codon] = n
}

// HasPositionalCounts returns true if footprint counts are known per
// position.
func (g *Gene) HasPositionalCounts() bool {
	return g.observed != nil
}

// ObservedAt returns the footprint count at a position (zero if
// counts are known only per codon).
func (g *Gene) ObservedAt(pos int) int {
	if g.observed == nil {
		return 0
	}
	return g.observed[pos]
}

// Observed returns the total footprint count for a codon.
func (g *Gene) Observed(codon int) int {
	return g.observedCodon[codon]
}

// TotalObserved returns the sum of all footprint counts.
func (g *Gene) TotalObserved() (n int) {
	for _, v := range g.observedCodon {
		n += v
	}
	return
}

// Copy creates a deep copy of the gene.
func (g *Gene) Copy() *Gene {
	ng, _ := NewGene(g.ID, g.codons)
	if g.observed != nil {
		ng.observed = append([]int(nil), g.observed...)
	}
	ng.observedCodon = g.observedCodon
	return ng
}

// Sequence returns the nucleotide sequence of sense codons.
func (g *Gene) Sequence() string {
	var b strings.Builder
	b.Grow(len(g.codons) * 3)
	for _, c := range g.codons {
		b.WriteString(bio.Codons[c])
	}
	return b.String()
}

// Genome is an ordered collection of genes.
type Genome struct {
	genes []*Gene
	index map[string]int
}

// New creates an empty genome.
func New() *Genome {
	return &Genome{index: make(map[string]int)}
}

// FromSequences creates a genome from nucleotide sequences.
func FromSequences(seqs bio.Sequences) (*Genome, error) {
	g := New()
	for _, seq := range seqs {
		gene, err := FromSequence(seq.Name, seq.Sequence)
		if err != nil {
			return nil, err
		}
		if err := g.Add(gene); err != nil {
			return nil, err
		}
	}
	if g.Len() == 0 {
		return nil, errors.New("no genes found")
	}
	return g, nil
}

// Add appends a gene to the genome.
func (g *Genome) Add(gene *Gene) error {
	if _, ok := g.index[gene.ID]; ok {
		return fmt.Errorf("duplicate gene id %s", gene.ID)
	}
	g.index[gene.ID] = len(g.genes)
	g.genes = append(g.genes, gene)
	return nil
}

// Len returns number of genes.
func (g *Genome) Len() int {
	return len(g.genes)
}

// Gene returns i-th gene.
func (g *Genome) Gene(i int) *Gene {
	return g.genes[i]
}

// Lookup returns a gene index by its ID.
func (g *Genome) Lookup(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// ToSequences converts genome into nucleotide sequences.
func (g *Genome) ToSequences() bio.Sequences {
	seqs := make(bio.Sequences, len(g.genes))
	for i, gene := range g.genes {
		seqs[i] = bio.Sequence{Name: gene.ID, Sequence: gene.Sequence()}
	}
	return seqs
}
