package parameter

import (
	"golang.org/x/exp/rand"
)

// HasPartitionFunction returns true if the store keeps a partition
// function per mixture element.
func (s *Store) HasPartitionFunction() bool {
	return s.z != nil
}

// PartitionFunction returns the current or proposed partition
// function of a mixture element, 1 if the layout has none.
func (s *Store) PartitionFunction(mixture int, proposed bool) float64 {
	if s.z == nil {
		return 1
	}
	return s.z.Value(0, mixture, proposed)
}

// ProposePartitionFunction proposes new partition functions for all
// mixture elements.
func (s *Store) ProposePartitionFunction(rng *rand.Rand) {
	for k, v := range s.z.current[0] {
		s.z.SetProposed(0, k, LogNormalProposal(rng, v, s.zTuner.Width))
	}
}

// CommitPartitionFunction accepts the proposed partition functions.
func (s *Store) CommitPartitionFunction() {
	for k := range s.z.current[0] {
		s.z.Commit(k)
	}
	s.zTuner.Accept()
}

// SetPartitionFunction sets the partition function of a mixture
// element.
func (s *Store) SetPartitionFunction(mixture int, v float64) {
	if s.z == nil {
		panic("layout has no partition function")
	}
	s.z.Set(0, mixture, v)
}

// AdaptPartitionFunction runs adaptation for the partition function
// proposal width.
func (s *Store) AdaptPartitionFunction(window int, adapt bool) {
	rate := s.zTuner.Adapt(window, adapt)
	log.Debugf("Partition function: acceptance rate %.2f, width %g", rate, s.zTuner.Width)
}

// PartitionFunctionTuner returns the partition function tuner, nil if
// the layout has no partition function.
func (s *Store) PartitionFunctionTuner() *Tuner {
	return s.zTuner
}

// PartitionFunctions returns current partition functions, nil if the
// layout has none.
func (s *Store) PartitionFunctions() []float64 {
	if s.z == nil {
		return nil
	}
	return s.z.Values()[0]
}
