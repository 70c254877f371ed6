// Package model implements translation models: ROC, FONSE, RFP and
// PANSE. All of them satisfy mcmc.Model.
package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mrrlab/ribmc/genome"
	"github.com/mrrlab/ribmc/mcmc"
	"github.com/mrrlab/ribmc/parameter"
)

var log = logging.MustGetLogger("model")

// ErrDegenerate is returned when a log-likelihood is not finite.
var ErrDegenerate = errors.New("non-finite log-likelihood")

// ErrCounts is returned when footprint counts don't fit the model.
var ErrCounts = errors.New("unsuitable footprint counts")

// Variant describes a model: its parameter layout and constructor.
type Variant struct {
	Name        string
	Description string
	Layout      parameter.Layout
	// NeedsCounts is true if the model uses footprint counts.
	NeedsCounts bool
	New         func(s *parameter.Store, workers int) mcmc.Model

	// NeedsPositionalCounts is true if the model uses footprint
	// counts per position rather than per codon.
	NeedsPositionalCounts bool
}

// Variants lists all models by name.
var Variants = map[string]Variant{
	"ROC": {
		Name:        "ROC",
		Description: "ribosome overhead cost, codon usage within amino acids",
		Layout:      rocLayout,
		New:         func(s *parameter.Store, workers int) mcmc.Model { return NewROC(s, workers) },
	},
	"FONSE": {
		Name:        "FONSE",
		Description: "first order nonsense error, position dependent cost",
		Layout:      rocLayout,
		New:         func(s *parameter.Store, workers int) mcmc.Model { return NewFONSE(s, workers) },
	},
	"RFP": {
		Name:        "RFP",
		Description: "ribosome footprint counts per codon",
		Layout:      rfpLayout,
		NeedsCounts: true,
		New:         func(s *parameter.Store, workers int) mcmc.Model { return NewRFP(s, workers) },
	},
	"PANSE": {
		Name:        "PANSE",
		Description: "ribosome footprint counts per position with nonsense errors",
		Layout:      panseLayout,
		NeedsCounts: true,
		New:         func(s *parameter.Store, workers int) mcmc.Model { return NewPANSE(s, workers) },

		NeedsPositionalCounts: true,
	},
}

// CheckCounts checks that the genome has the footprint counts the
// model needs.
func (v Variant) CheckCounts(g *genome.Genome) error {
	if !v.NeedsCounts {
		return nil
	}
	total := 0
	for i := 0; i < g.Len(); i++ {
		gene := g.Gene(i)
		if v.NeedsPositionalCounts && !gene.HasPositionalCounts() {
			return fmt.Errorf("%w: %s model needs counts per position, gene %s has none",
				ErrCounts, v.Name, gene.ID)
		}
		total += gene.TotalObserved()
	}
	if total == 0 {
		return fmt.Errorf("%w: %s model needs footprint counts", ErrCounts, v.Name)
	}
	return nil
}

// Names returns sorted model names.
func Names() []string {
	names := make([]string, 0, len(Variants))
	for name := range Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// values resolves codon-specific values for one mixture element.
// Codons of group use proposed values if proposed is set; without a
// group all codons do.
type values struct {
	store    *parameter.Store
	mixture  int
	group    *parameter.Group
	proposed bool
}

func (v values) get(family, codon int) float64 {
	p := v.proposed && (v.group == nil || v.group.Contains(codon))
	return v.store.CodonSpecific(family, v.mixture, codon, p)
}

// likelihood is the model specific part: log-likelihood of a gene
// given a synthesis rate. If v.group is set, terms which do not depend
// on the group may be left out.
type likelihood interface {
	logLike(gene *genome.Gene, phi float64, v values) float64
}

// base implements the parts shared by all models.
type base struct {
	store   *parameter.Store
	workers int
	ll      likelihood
}

// prior returns the log-normal synthesis rate prior with mean 1.
func prior(sPhi float64) distuv.LogNormal {
	return distuv.LogNormal{Mu: -sPhi * sPhi / 2, Sigma: sPhi}
}

func degenerate(what string, vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s", ErrDegenerate, what)
		}
	}
	return nil
}

// PerGeneRatio compares the proposed and current synthesis rate of a
// gene, codon-specific parameters are current.
func (b *base) PerGeneRatio(gene *genome.Gene, geneIndex, mixture int) (mcmc.Ratio, error) {
	phi := b.store.SynthesisRate(geneIndex, mixture, false)
	phiP := b.store.SynthesisRate(geneIndex, mixture, true)
	pr := prior(b.store.SPhi(false))
	v := values{store: b.store, mixture: mixture}

	c := b.ll.logLike(gene, phi, v) + pr.LogProb(phi)
	p := b.ll.logLike(gene, phiP, v) + pr.LogProb(phiP)
	if err := degenerate(fmt.Sprintf("gene %s, mixture %d", gene.ID, mixture), c, p); err != nil {
		return mcmc.Ratio{}, err
	}
	jacobian := math.Log(phi) - math.Log(phiP)
	return mcmc.Ratio{
		LogRatio: (p - c) - jacobian,
		Current:  c - math.Log(phiP),
		Proposed: p - math.Log(phi),
	}, nil
}

// occurrences counts codons of a group in a gene.
func occurrences(gene *genome.Gene, group *parameter.Group) (n int) {
	for _, c := range group.Codons {
		n += gene.CodonCount(c)
	}
	return
}

// PerGroupingRatio sums the log-likelihood differences over genes
// containing the group, synthesis rates are current.
func (b *base) PerGroupingRatio(group parameter.Group, g *genome.Genome) (float64, error) {
	assignment := b.store.Mixture().Assignment
	lr, err := g.Sum(b.workers, func(i int, gene *genome.Gene) (float64, error) {
		if occurrences(gene, &group) == 0 {
			return 0, nil
		}
		k := assignment[i]
		phi := b.store.SynthesisRate(i, k, false)
		c := b.ll.logLike(gene, phi, values{store: b.store, mixture: k, group: &group})
		p := b.ll.logLike(gene, phi, values{store: b.store, mixture: k, group: &group, proposed: true})
		if err := degenerate(fmt.Sprintf("gene %s, group %s", gene.ID, group.Key), c, p); err != nil {
			return 0, err
		}
		return p - c, nil
	})
	return lr, err
}

// HyperparameterRatio computes the sPhi log acceptance ratio.
func (b *base) HyperparameterRatio(g *genome.Genome, iteration int) (float64, error) {
	s, sP := b.store.SPhi(false), b.store.SPhi(true)
	cur, prop := prior(s), prior(sP)
	assignment := b.store.Mixture().Assignment
	lr, err := g.Sum(b.workers, func(i int, gene *genome.Gene) (float64, error) {
		phi := b.store.SynthesisRate(i, assignment[i], false)
		return prop.LogProb(phi) - cur.LogProb(phi), nil
	})
	if err != nil {
		return 0, err
	}
	lr -= math.Log(s) - math.Log(sP)
	if err := degenerate(fmt.Sprintf("sPhi %v -> %v at iteration %d", s, sP, iteration), lr); err != nil {
		return 0, err
	}
	return lr, nil
}

// simulated creates a gene with new codons, keeping positional
// footprint counts.
func simulated(gene *genome.Gene, codons []int) (*genome.Gene, error) {
	ng, err := genome.NewGene(gene.ID, codons)
	if err != nil {
		return nil, err
	}
	if gene.HasPositionalCounts() {
		counts := make([]int, gene.Len())
		for pos := range counts {
			counts[pos] = gene.ObservedAt(pos)
		}
		if err := ng.SetObserved(counts); err != nil {
			return nil, err
		}
	}
	return ng, nil
}
