// Package mcmc implements the adaptive Metropolis-Hastings sampler
// shared by all translation models.
package mcmc

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/parameter"
)

var log = logging.MustGetLogger("mcmc")

// State is the sampler state.
type State int

const (
	// Init is the state before Run.
	Init State = iota
	// Running is the state during Run.
	Running
	// Drained is the state after all iterations are done.
	Drained
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Running:
		return "running"
	case Drained:
		return "drained"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Checkpointer saves sampler state periodically.
type Checkpointer interface {
	// Save stores a snapshot.
	Save(*parameter.Snapshot) error
	// Old returns true if the last save was too long ago.
	Old() bool
}

// Sampler is the adaptive Metropolis-Hastings sampler.
type Sampler struct {
	*Settings
	model  Model
	zModel PartitionFunctionModel
	store  *parameter.Store
	genome *genome.Genome
	rng    *rand.Rand

	state     State
	iteration int
	logLike   float64
	trace     *Trace

	// per gene and mixture ratios, [gene*K+mixture]
	ratios []Ratio
	dist   []float64

	checkpointer Checkpointer
	metrics      *Metrics
}

// New creates a new sampler. The store must hold one synthesis rate
// per gene of the genome.
func New(m Model, st *parameter.Store, g *genome.Genome, rng *rand.Rand, s *Settings) (*Sampler, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if st.NumGenes() != g.Len() {
		return nil, fmt.Errorf("parameter store has %d genes, genome has %d", st.NumGenes(), g.Len())
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	var zm PartitionFunctionModel
	if st.HasPartitionFunction() {
		var ok bool
		if zm, ok = m.(PartitionFunctionModel); !ok {
			return nil, errors.New("model has no partition function ratio")
		}
	}
	k := st.Mixture().Len()
	return &Sampler{
		Settings: s,
		model:    m,
		zModel:   zm,
		store:    st,
		genome:   g,
		rng:      rng,
		ratios:   make([]Ratio, g.Len()*k),
		dist:     make([]float64, k),
	}, nil
}

// SetCheckpointer enables checkpoints.
func (s *Sampler) SetCheckpointer(c Checkpointer) {
	s.checkpointer = c
}

// SetMetrics enables prometheus metrics.
func (s *Sampler) SetMetrics(m *Metrics) {
	s.metrics = m
}

// State returns the sampler state.
func (s *Sampler) State() State {
	return s.state
}

// Trace returns the trace, nil before Run.
func (s *Sampler) Trace() *Trace {
	return s.trace
}

// LogLikelihood returns the log-likelihood of the last synthesis rate
// update.
func (s *Sampler) LogLikelihood() float64 {
	return s.logLike
}

// accept implements the Metropolis-Hastings acceptance rule.
func (s *Sampler) accept(logRatio float64) bool {
	a := math.Exp(logRatio)
	return a > 1 || s.rng.Float64() < a
}

// Run runs all iterations. It can be called only once.
func (s *Sampler) Run() error {
	if s.state != Init {
		return fmt.Errorf("sampler is %v", s.state)
	}
	s.state = Running
	s.trace = newTrace(s.store, s.Samples, s.Thinning)

	if err := s.initialLogLikelihood(); err != nil {
		return err
	}
	s.trace.record(0, s.store, s.logLike)

	iterations := s.Iterations()
	log.Infof("Running %d iterations (%d samples, thinning %d)", iterations, s.Samples, s.Thinning)
	start := time.Now()
	for s.iteration = 0; s.iteration < iterations; s.iteration++ {
		itStart := time.Now()
		if err := s.step(); err != nil {
			return fmt.Errorf("iteration %d: %w", s.iteration, err)
		}

		if (s.iteration+1)%s.Thinning == 0 {
			s.trace.record((s.iteration+1)/s.Thinning, s.store, s.logLike)
		}
		if s.ReportPeriod > 0 && (s.iteration+1)%s.ReportPeriod == 0 {
			log.Infof("%d: logL=%f, sPhi=%f", s.iteration+1, s.logLike, s.store.SPhi(false))
		}
		if s.metrics != nil {
			s.metrics.Iterations.Inc()
			s.metrics.LogLikelihood.Set(s.logLike)
			s.metrics.SPhi.Set(s.store.SPhi(false))
			s.metrics.IterationDuration.Observe(time.Since(itStart).Seconds())
		}
		if s.checkpointer != nil && s.checkpointer.Old() {
			s.saveCheckpoint(s.iteration + 1)
		}
	}
	if s.checkpointer != nil {
		s.saveCheckpoint(iterations)
	}
	s.state = Drained
	log.Infof("Finished %d iterations in %v", iterations, time.Since(start))
	return nil
}

// saveCheckpoint saves the state, errors are only logged.
func (s *Sampler) saveCheckpoint(iteration int) {
	snap := s.store.Dump()
	snap.Iteration = iteration
	snap.LogLikelihood = s.logLike
	if err := s.checkpointer.Save(snap); err != nil {
		log.Warningf("Cannot save checkpoint: %v", err)
	}
}

// step performs one iteration.
func (s *Sampler) step() error {
	boundary := (s.iteration+1)%s.AdaptiveWidth == 0
	adapt := s.AdaptUntil <= 0 || s.iteration < s.AdaptUntil

	if s.EstimateCodonSpecific {
		if err := s.updateCodonSpecific(); err != nil {
			return err
		}
		if boundary {
			s.store.AdaptCodonSpecific(s.AdaptiveWidth, adapt)
		}
	}
	if s.EstimateHyperparameter {
		if err := s.updateHyperparameter(); err != nil {
			return err
		}
		if boundary {
			s.store.AdaptHyperparameter(s.AdaptiveWidth, adapt)
			if s.zModel != nil {
				s.store.AdaptPartitionFunction(s.AdaptiveWidth, adapt)
			}
		}
	}
	if s.EstimateSynthesisRate {
		if err := s.updateSynthesisRates(); err != nil {
			return err
		}
		if boundary {
			s.store.AdaptSynthesisRates(s.AdaptiveWidth, adapt)
		}
	}
	return nil
}

// updateCodonSpecific proposes all codon-specific values and accepts
// or rejects every group independently.
func (s *Sampler) updateCodonSpecific() error {
	s.store.ProposeCodonSpecific(s.rng)
	groups := s.store.Groups()
	accepted := 0
	for gi, group := range groups {
		lr, err := s.model.PerGroupingRatio(group, s.genome)
		if err != nil {
			return err
		}
		if s.accept(lr) {
			s.store.CommitCodonSpecific(gi)
			accepted++
		}
	}
	s.metrics.proposals(familyCodon, len(groups), accepted)
	return nil
}

// updateHyperparameter updates sPhi and, if the model has them, the
// partition functions.
func (s *Sampler) updateHyperparameter() error {
	s.store.ProposeHyperparameter(s.rng)
	lr, err := s.model.HyperparameterRatio(s.genome, s.iteration)
	if err != nil {
		return err
	}
	accepted := 0
	if s.accept(lr) {
		s.store.CommitHyperparameter()
		accepted = 1
	}
	s.metrics.proposals(familyHyper, 1, accepted)

	if s.zModel == nil {
		return nil
	}
	s.store.ProposePartitionFunction(s.rng)
	lr, err = s.zModel.PartitionFunctionRatio(s.genome)
	if err != nil {
		return err
	}
	accepted = 0
	if s.accept(lr) {
		s.store.CommitPartitionFunction()
		accepted = 1
	}
	s.metrics.proposals(familyPartition, 1, accepted)
	return nil
}

// computeRatios evaluates every gene under every mixture element in
// parallel.
func (s *Sampler) computeRatios() error {
	k := s.store.Mixture().Len()
	return s.genome.Each(s.Workers, func(i int, gene *genome.Gene) error {
		for mixture := 0; mixture < k; mixture++ {
			r, err := s.model.PerGeneRatio(gene, i, mixture)
			if err != nil {
				return err
			}
			s.ratios[i*k+mixture] = r
		}
		return nil
	})
}

// initialLogLikelihood computes the log-likelihood of the initial
// state.
func (s *Sampler) initialLogLikelihood() error {
	if err := s.computeRatios(); err != nil {
		return err
	}
	mix := s.store.Mixture()
	k := mix.Len()
	s.logLike = 0
	for i := 0; i < s.genome.Len(); i++ {
		curr, _, shift := mixtureDistribution(s.dist, mix.Probabilities, s.ratios[i*k:(i+1)*k])
		s.logLike += curr + shift
	}
	return nil
}

// updateSynthesisRates proposes synthesis rates for all genes, draws
// mixture assignments, accepts or rejects every gene and redraws
// mixture probabilities.
func (s *Sampler) updateSynthesisRates() error {
	s.store.ProposeSynthesisRates(s.rng)
	if err := s.computeRatios(); err != nil {
		return err
	}

	mix := s.store.Mixture()
	k := mix.Len()
	drawMixture := k > 1 && s.EstimateMixture
	counts := make([]int, k)
	logLike := 0.0
	accepted := 0
	for i := 0; i < s.genome.Len(); i++ {
		curr, prop, shift := mixtureDistribution(s.dist, mix.Probabilities, s.ratios[i*k:(i+1)*k])
		cat := mix.Assignment[i]
		if drawMixture {
			cat = int(distuv.NewCategorical(s.dist, s.rng).Rand())
			mix.Assignment[i] = cat
		}
		counts[cat]++
		if s.accept(prop - curr) {
			s.store.CommitSynthesisRate(i, s.store.SynthesisCategory(cat))
			logLike += prop + shift
			accepted++
		} else {
			logLike += curr + shift
		}
	}
	if drawMixture {
		copy(mix.Probabilities, drawProbabilities(s.rng, counts, s.DirichletPrior))
	}
	s.logLike = logLike
	s.metrics.proposals(familyPhi, s.genome.Len(), accepted)
	return nil
}
