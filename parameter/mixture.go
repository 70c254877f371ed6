package parameter

import (
	"fmt"
	"math"
)

// Mixture definition states.
const (
	AllUnique       = "allUnique"
	MutationShared  = "mutationShared"
	SelectionShared = "selectionShared"
)

// MixtureElement maps a mixture element to its categories. The
// synthesis rate category is the selection category.
type MixtureElement struct {
	Mutation  int `json:"mutation" yaml:"mutation"`
	Selection int `json:"selection" yaml:"selection"`
}

// Mixture is the mixture definition together with the mutable
// element probabilities and gene assignments.
type Mixture struct {
	Elements      []MixtureElement
	Probabilities []float64
	Assignment    []int
}

// NewMixture creates a mixture of k elements from a state keyword.
// Genes are assigned round-robin, probabilities are uniform.
func NewMixture(state string, k, numGenes int) (*Mixture, error) {
	if k < 1 {
		return nil, fmt.Errorf("number of mixtures should be >= 1, got %d", k)
	}
	elements := make([]MixtureElement, k)
	for i := range elements {
		switch state {
		case AllUnique:
			elements[i] = MixtureElement{Mutation: i, Selection: i}
		case MutationShared:
			elements[i] = MixtureElement{Mutation: 0, Selection: i}
		case SelectionShared:
			elements[i] = MixtureElement{Mutation: i, Selection: 0}
		default:
			return nil, fmt.Errorf("unknown mixture state %q", state)
		}
	}
	return NewMixtureFromElements(elements, numGenes)
}

// NewMixtureFromElements creates a mixture from an explicit element
// list. Category indices must cover 0..n-1 without gaps.
func NewMixtureFromElements(elements []MixtureElement, numGenes int) (*Mixture, error) {
	m := &Mixture{
		Elements:      append([]MixtureElement(nil), elements...),
		Probabilities: make([]float64, len(elements)),
		Assignment:    make([]int, numGenes),
	}
	for i := range m.Probabilities {
		m.Probabilities[i] = 1 / float64(len(elements))
	}
	for i := range m.Assignment {
		m.Assignment[i] = i % len(elements)
	}
	if err := m.Validate(numGenes); err != nil {
		return nil, err
	}
	return m, nil
}

// Len returns number of mixture elements.
func (m *Mixture) Len() int {
	return len(m.Elements)
}

// MutationCategories returns number of mutation categories.
func (m *Mixture) MutationCategories() int {
	return m.categories(MutationDim)
}

// SelectionCategories returns number of selection (and synthesis
// rate) categories.
func (m *Mixture) SelectionCategories() int {
	return m.categories(SelectionDim)
}

// Category returns category of a mixture element for a dimension.
func (m *Mixture) Category(mixture int, d Dim) int {
	if d == MutationDim {
		return m.Elements[mixture].Mutation
	}
	return m.Elements[mixture].Selection
}

func (m *Mixture) categories(d Dim) int {
	n := 0
	for i := range m.Elements {
		if c := m.Category(i, d); c+1 > n {
			n = c + 1
		}
	}
	return n
}

// Validate checks mixture consistency.
func (m *Mixture) Validate(numGenes int) error {
	if len(m.Elements) == 0 {
		return fmt.Errorf("%w: empty mixture", ErrShape)
	}
	for _, d := range []Dim{MutationDim, SelectionDim} {
		used := make([]bool, m.categories(d))
		for i := range m.Elements {
			c := m.Category(i, d)
			if c < 0 {
				return fmt.Errorf("%w: negative %v category", ErrShape, d)
			}
			used[c] = true
		}
		for c, u := range used {
			if !u {
				return fmt.Errorf("%w: %v category %d is not used", ErrShape, d, c)
			}
		}
	}
	if len(m.Probabilities) != len(m.Elements) {
		return fmt.Errorf("%w: %d probabilities for %d mixtures", ErrShape, len(m.Probabilities), len(m.Elements))
	}
	sum := 0.0
	for _, p := range m.Probabilities {
		if !(p > 0) {
			return fmt.Errorf("%w: mixture probability %v", ErrNonPositive, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-8 {
		return fmt.Errorf("mixture probabilities sum to %v", sum)
	}
	if len(m.Assignment) != numGenes {
		return fmt.Errorf("%w: %d assignments for %d genes", ErrShape, len(m.Assignment), numGenes)
	}
	for gene, k := range m.Assignment {
		if k < 0 || k >= len(m.Elements) {
			return fmt.Errorf("%w: gene %d assigned to mixture %d", ErrShape, gene, k)
		}
	}
	return nil
}

// Counts returns number of genes assigned to every mixture element.
func (m *Mixture) Counts() []int {
	counts := make([]int, len(m.Elements))
	for _, k := range m.Assignment {
		counts[k]++
	}
	return counts
}
