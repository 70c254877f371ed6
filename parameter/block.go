package parameter

import (
	"fmt"
)

// Block is a double-buffered parameter family. Values are indexed by
// category and index; current and proposed always have the same
// shape.
type Block struct {
	Name     string
	current  [][]float64
	proposed [][]float64
}

// NewBlock creates a block with all values set to initial.
func NewBlock(name string, categories, size int, initial float64) *Block {
	if categories < 1 || size < 0 {
		panic(fmt.Sprintf("bad block shape %dx%d", categories, size))
	}
	b := &Block{
		Name:     name,
		current:  make([][]float64, categories),
		proposed: make([][]float64, categories),
	}
	for cat := range b.current {
		b.current[cat] = make([]float64, size)
		b.proposed[cat] = make([]float64, size)
		for i := range b.current[cat] {
			b.current[cat][i] = initial
			b.proposed[cat][i] = initial
		}
	}
	return b
}

// Categories returns number of categories.
func (b *Block) Categories() int {
	return len(b.current)
}

// Size returns number of values per category.
func (b *Block) Size() int {
	return len(b.current[0])
}

// Current returns current value.
func (b *Block) Current(cat, i int) float64 {
	return b.current[cat][i]
}

// Proposed returns proposed value.
func (b *Block) Proposed(cat, i int) float64 {
	return b.proposed[cat][i]
}

// Value returns either proposed or current value.
func (b *Block) Value(cat, i int, proposed bool) float64 {
	if proposed {
		return b.proposed[cat][i]
	}
	return b.current[cat][i]
}

// Set sets both current and proposed value.
func (b *Block) Set(cat, i int, v float64) {
	if !(v > 0) {
		panic(fmt.Sprintf("%s[%d][%d]: value should be > 0, got %v", b.Name, cat, i, v))
	}
	b.current[cat][i] = v
	b.proposed[cat][i] = v
}

// SetProposed sets proposed value.
func (b *Block) SetProposed(cat, i int, v float64) {
	b.proposed[cat][i] = v
}

// Reject resets proposed value to current.
func (b *Block) Reject(cat, i int) {
	b.proposed[cat][i] = b.current[cat][i]
}

// Commit copies proposed to current for the indices in every
// category.
func (b *Block) Commit(indices ...int) {
	for cat := range b.current {
		for _, i := range indices {
			b.current[cat][i] = b.proposed[cat][i]
		}
	}
}

// CommitCategory copies proposed to current for a single category and
// index.
func (b *Block) CommitCategory(cat, i int) {
	b.current[cat][i] = b.proposed[cat][i]
}

// Values returns a copy of current values.
func (b *Block) Values() [][]float64 {
	vals := make([][]float64, len(b.current))
	for cat := range b.current {
		vals[cat] = append([]float64(nil), b.current[cat]...)
	}
	return vals
}

// Load replaces current and proposed values with a copy of vals.
func (b *Block) Load(vals [][]float64) error {
	if len(vals) != len(b.current) {
		return fmt.Errorf("%w: %s has %d categories, got %d", ErrShape, b.Name, len(b.current), len(vals))
	}
	for cat := range vals {
		if len(vals[cat]) != len(b.current[cat]) {
			return fmt.Errorf("%w: %s[%d] has %d values, got %d", ErrShape, b.Name, cat, len(b.current[cat]), len(vals[cat]))
		}
		for i, v := range vals[cat] {
			if !(v > 0) {
				return fmt.Errorf("%w: %s[%d][%d]=%v", ErrNonPositive, b.Name, cat, i, v)
			}
		}
	}
	for cat := range vals {
		copy(b.current[cat], vals[cat])
		copy(b.proposed[cat], vals[cat])
	}
	return nil
}
