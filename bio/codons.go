package bio

import (
	"errors"
	"fmt"
	"sort"
)

// NCodon is the number of sense codons in the standard genetic code.
const NCodon = 61

// ErrInvalidCodon is returned for strings which are not one of the
// 61 upper-case sense codons.
var ErrInvalidCodon = errors.New("invalid codon")

var (
	// Codons lists sense codons grouped by amino acid (amino acids
	// in alphabetical order, codons sorted within an amino acid).
	// Position in this array is the codon index used everywhere.
	Codons [NCodon]string
	// AminoAcids lists the 20 amino acids in alphabetical order.
	AminoAcids []byte

	codonIndex = make(map[string]int, NCodon)
	aminoAcid  [NCodon]byte
	synonymous = make(map[byte][]int, 20)
)

// initCodons fills codon index tables, it is called from init after
// RGeneticCode is ready.
func initCodons() {
	for aa := range RGeneticCode {
		if aa == '_' {
			continue
		}
		AminoAcids = append(AminoAcids, aa)
	}
	sort.Slice(AminoAcids, func(i, j int) bool { return AminoAcids[i] < AminoAcids[j] })

	i := 0
	for _, aa := range AminoAcids {
		for _, codon := range RGeneticCode[aa] {
			Codons[i] = codon
			codonIndex[codon] = i
			aminoAcid[i] = aa
			synonymous[aa] = append(synonymous[aa], i)
			i++
		}
	}
	if i != NCodon {
		panic(fmt.Sprintf("expected %d sense codons, got %d", NCodon, i))
	}
}

// ParseCodon returns the index of a codon. The codon has to be
// normalized already (upper case, T instead of U).
func ParseCodon(codon string) (int, error) {
	i, ok := codonIndex[codon]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrInvalidCodon, codon)
	}
	return i, nil
}

// AminoAcidOf returns the amino acid encoded by a codon index.
func AminoAcidOf(codon int) byte {
	return aminoAcid[codon]
}

// SynonymousCodons returns indices of all codons encoding an amino
// acid. The returned slice must not be modified.
func SynonymousCodons(aa byte) []int {
	return synonymous[aa]
}

// IsReference tests if a codon is the reference codon of its amino
// acid, i.e. the last one alphabetically.
func IsReference(codon int) bool {
	syn := synonymous[aminoAcid[codon]]
	return syn[len(syn)-1] == codon
}
