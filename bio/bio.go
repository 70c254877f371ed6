// Package bio provides functions related to the genetic code and
// nucleotide sequences.
package bio

import (
	"bufio"
	"errors"
	"io"
	"sort"
	"strings"
)

var (
	// GeneticCode is a map, codon string (capital letters) is the key,
	// amino acids (capital letter) are values. Stop codons map to '_'.
	GeneticCode = map[string]byte{
		"ATA": 'I', "ATC": 'I', "ATT": 'I', "ATG": 'M',
		"ACA": 'T', "ACC": 'T', "ACG": 'T', "ACT": 'T',
		"AAC": 'N', "AAT": 'N', "AAA": 'K', "AAG": 'K',
		"AGC": 'S', "AGT": 'S', "AGA": 'R', "AGG": 'R',
		"CTA": 'L', "CTC": 'L', "CTG": 'L', "CTT": 'L',
		"CCA": 'P', "CCC": 'P', "CCG": 'P', "CCT": 'P',
		"CAC": 'H', "CAT": 'H', "CAA": 'Q', "CAG": 'Q',
		"CGA": 'R', "CGC": 'R', "CGG": 'R', "CGT": 'R',
		"GTA": 'V', "GTC": 'V', "GTG": 'V', "GTT": 'V',
		"GCA": 'A', "GCC": 'A', "GCG": 'A', "GCT": 'A',
		"GAC": 'D', "GAT": 'D', "GAA": 'E', "GAG": 'E',
		"GGA": 'G', "GGC": 'G', "GGG": 'G', "GGT": 'G',
		"TCA": 'S', "TCC": 'S', "TCG": 'S', "TCT": 'S',
		"TTC": 'F', "TTT": 'F', "TTA": 'L', "TTG": 'L',
		"TAC": 'Y', "TAT": 'Y', "TAA": '_', "TAG": '_',
		"TGC": 'C', "TGT": 'C', "TGA": '_', "TGG": 'W'}
	// RGeneticCode is mapping amino acids to their codons, codons
	// are sorted alphabetically.
	RGeneticCode map[byte][]string
)

func init() {
	// initialize RGeneticCode
	RGeneticCode = make(map[byte][]string, 21)
	for codon, aa := range GeneticCode {
		RGeneticCode[aa] = append(RGeneticCode[aa], codon)
	}
	for _, codons := range RGeneticCode {
		sort.Strings(codons)
	}
	initCodons()
}

// IsStopCodon tests if the string is a stop-codon (DNA alphabet,
// capital letters).
func IsStopCodon(codon string) bool {
	return GeneticCode[codon] == '_'
}

// Sequence is a type which is intended for storing nucleotide or
// protein sequence with it's name.
type Sequence struct {
	Name     string
	Sequence string
}

// Sequences stores multiple sequences, e.g. all the genes of a genome.
type Sequences []Sequence

// ParseFasta parses FASTA sequences from a reader.
func ParseFasta(rd io.Reader) (seqs Sequences, err error) {
	seqs = make(Sequences, 0, 10)
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			seq := Sequence{Name: strings.TrimSpace(line[1:])}
			seqs = append(seqs, seq)
		} else {
			if len(seqs) == 0 {
				return nil, errors.New("sequence w/o prefix")
			}
			line = strings.ToUpper(strings.Replace(line, " ", "", -1))
			seqs[len(seqs)-1].Sequence += line
		}
	}
	return seqs, scanner.Err()
}

// Wrap inputs a string and wraps it so string length is n characters
// or less.
func Wrap(seq string, n int) string {
	var b strings.Builder
	for i := 0; i < len(seq); i += n {
		end := i + n
		if end > len(seq) {
			end = len(seq)
		}
		b.WriteString(seq[i:end])
		b.WriteByte('\n')
	}
	return b.String()
}

// String returns a sequence in FASTA format.
func (seq Sequence) String() string {
	return ">" + seq.Name + "\n" + Wrap(seq.Sequence, 80)
}

// String returns sequences in FASTA format.
func (seqs Sequences) String() string {
	var b strings.Builder
	for _, seq := range seqs {
		b.WriteString(seq.String())
	}
	return b.String()
}
