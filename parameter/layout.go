// Package parameter stores all parameters sampled by the MCMC:
// codon-specific families, per-gene synthesis rates, the sPhi
// hyperparameter and the mixture definition. Every value has a current
// and a proposed copy.
package parameter

import (
	"errors"
	"fmt"

	"github.com/op/go-logging"

	"github.com/mrrlab/ribmc/bio"
)

var log = logging.MustGetLogger("parameter")

var (
	// ErrNonPositive is returned when a parameter value is not
	// strictly positive.
	ErrNonPositive = errors.New("parameter value should be > 0")
	// ErrShape is returned when arrays have wrong dimensions.
	ErrShape = errors.New("wrong parameter shape")
)

// Dim specifies which mixture category a family follows.
type Dim int

const (
	// MutationDim families have one category per mutation category.
	MutationDim Dim = iota
	// SelectionDim families have one category per selection
	// category.
	SelectionDim
)

func (d Dim) String() string {
	switch d {
	case MutationDim:
		return "mutation"
	case SelectionDim:
		return "selection"
	}
	return fmt.Sprintf("Dim(%d)", int(d))
}

// Grouping specifies how codons are grouped for codon-specific
// updates.
type Grouping int

const (
	// ByAminoAcid groups synonymous codons. Amino acids with a
	// single codon are skipped, the last codon of every amino acid
	// is a fixed reference.
	ByAminoAcid Grouping = iota
	// ByCodon makes every sense codon its own group.
	ByCodon
)

// FamilySpec describes one codon-specific family.
type FamilySpec struct {
	Name    string
	Dim     Dim
	Initial float64
}

// Layout is the codon-specific parameter layout of a model.
type Layout struct {
	Families []FamilySpec
	Grouping Grouping
	// PartitionFunction adds a partition function per mixture
	// element, updated together with sPhi.
	PartitionFunction bool
}

// Group is a set of codons updated together.
type Group struct {
	// Key is the amino acid letter or the codon.
	Key string
	// Codons are all codons of the group.
	Codons []int
	// Free are codons which have free parameters.
	Free []int
}

// Contains checks if codon belongs to the group.
func (g *Group) Contains(codon int) bool {
	for _, c := range g.Codons {
		if c == codon {
			return true
		}
	}
	return false
}

// Groups returns codon groups for a grouping.
func (gr Grouping) Groups() (groups []Group) {
	switch gr {
	case ByAminoAcid:
		for _, aa := range bio.AminoAcids {
			syn := bio.SynonymousCodons(aa)
			if len(syn) < 2 {
				continue
			}
			groups = append(groups, Group{
				Key:    string(aa),
				Codons: syn,
				Free:   freeCodons(syn),
			})
		}
	case ByCodon:
		for c, codon := range bio.Codons {
			groups = append(groups, Group{
				Key:    codon,
				Codons: []int{c},
				Free:   []int{c},
			})
		}
	default:
		panic("unknown grouping")
	}
	return
}

// freeCodons drops the reference codon.
func freeCodons(syn []int) (free []int) {
	for _, c := range syn {
		if !bio.IsReference(c) {
			free = append(free, c)
		}
	}
	return
}

// Validate checks the layout.
func (l Layout) Validate() error {
	if len(l.Families) == 0 {
		return errors.New("layout has no families")
	}
	seen := make(map[string]bool)
	for _, f := range l.Families {
		if f.Name == "" || seen[f.Name] {
			return fmt.Errorf("bad or duplicate family name %q", f.Name)
		}
		seen[f.Name] = true
		if !(f.Initial > 0) {
			return fmt.Errorf("%w: initial %s=%v", ErrNonPositive, f.Name, f.Initial)
		}
		if f.Dim != MutationDim && f.Dim != SelectionDim {
			return fmt.Errorf("family %s: unknown dimension %v", f.Name, f.Dim)
		}
	}
	if l.Grouping != ByAminoAcid && l.Grouping != ByCodon {
		return errors.New("unknown grouping")
	}
	return nil
}
