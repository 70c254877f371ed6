package mcmc

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Estimate is a posterior mean and standard deviation.
type Estimate struct {
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
}

func estimate(x []float64) Estimate {
	if len(x) < 2 {
		if len(x) == 1 {
			return Estimate{Mean: x[0]}
		}
		return Estimate{}
	}
	mean, sd := stat.MeanStdDev(x, nil)
	return Estimate{Mean: mean, SD: sd}
}

// Summary is the posterior summary of a trace.
type Summary struct {
	Burnin  int `json:"burnin"`
	Samples int `json:"samples"`

	SPhi Estimate `json:"sPhi"`
	// SynthesisRate is [category][gene].
	SynthesisRate [][]Estimate `json:"synthesisRate"`
	// CodonSpecific maps family to [category][codon].
	CodonSpecific      map[string][][]Estimate `json:"codonSpecific"`
	MixtureProbability []Estimate              `json:"mixtureProbability"`
	LogLikelihood      Estimate                `json:"logLikelihood"`
	PartitionFunction  []Estimate              `json:"partitionFunction,omitempty"`
	// CodonCovariance maps "family/category/group" to the covariance
	// matrix of the free codons of groups with more than one free
	// codon.
	CodonCovariance map[string][][]float64 `json:"codonCovariance,omitempty"`
}

// Summarize computes posterior estimates using samples after
// burnin.
func (t *Trace) Summarize(burnin int) (*Summary, error) {
	if burnin < 0 || burnin >= t.n {
		return nil, fmt.Errorf("burnin %d out of range, trace has %d samples", burnin, t.n)
	}
	s := &Summary{
		Burnin:        burnin,
		Samples:       t.n - burnin,
		SPhi:          estimate(t.SPhi[burnin:t.n]),
		LogLikelihood: estimate(t.LogLikelihood[burnin:t.n]),
		CodonSpecific: make(map[string][][]Estimate, len(t.Families)),
	}

	first := t.SynthesisRate[0]
	s.SynthesisRate = make([][]Estimate, len(first))
	for cat := range first {
		s.SynthesisRate[cat] = make([]Estimate, len(first[cat]))
		for gene := range first[cat] {
			s.SynthesisRate[cat][gene] = estimate(t.SynthesisRateSeries(gene, cat)[burnin:])
		}
	}

	for fi, name := range t.Families {
		vals := t.CodonSpecific[fi][0]
		est := make([][]Estimate, len(vals))
		for cat := range vals {
			est[cat] = make([]Estimate, len(vals[cat]))
			for c := range vals[cat] {
				est[cat][c] = estimate(t.CodonSpecificSeries(fi, cat, c)[burnin:])
			}
		}
		s.CodonSpecific[name] = est
	}

	for k := range t.MixtureProbability[0] {
		s.MixtureProbability = append(s.MixtureProbability, estimate(t.MixtureProbabilitySeries(k)[burnin:]))
	}
	if t.PartitionFunction != nil {
		for k := range t.PartitionFunction[0] {
			s.PartitionFunction = append(s.PartitionFunction, estimate(t.PartitionFunctionSeries(k)[burnin:]))
		}
	}
	if s.Samples >= 2 {
		s.CodonCovariance = t.codonCovariance(burnin)
	}
	return s, nil
}

// codonCovariance computes covariance matrices of all groups with
// more than one free codon.
func (t *Trace) codonCovariance(burnin int) map[string][][]float64 {
	covs := make(map[string][][]float64)
	for fi, name := range t.Families {
		for cat := range t.CodonSpecific[fi][0] {
			for gi, codons := range t.groupCodons {
				if len(codons) < 2 {
					continue
				}
				cov, err := t.Covariance(fi, cat, codons, burnin)
				if err != nil {
					log.Warning("Covariance:", err)
					continue
				}
				m := make([][]float64, len(codons))
				for i := range m {
					m[i] = make([]float64, len(codons))
					for j := range m[i] {
						m[i][j] = cov.At(i, j)
					}
				}
				covs[fmt.Sprintf("%s/%d/%s", name, cat, t.Groups[gi])] = m
			}
		}
	}
	return covs
}

// Covariance computes the posterior covariance matrix of
// codon-specific values of a family in a category.
func (t *Trace) Covariance(family, category int, codons []int, burnin int) (*mat.SymDense, error) {
	n := t.n - burnin
	if burnin < 0 || n < 2 {
		return nil, fmt.Errorf("not enough samples after burnin %d", burnin)
	}
	if len(codons) == 0 {
		return nil, errors.New("no codons")
	}
	x := mat.NewDense(n, len(codons), nil)
	for i := 0; i < n; i++ {
		for j, c := range codons {
			x.Set(i, j, t.CodonSpecific[family][burnin+i][category][c])
		}
	}
	cov := mat.NewSymDense(len(codons), nil)
	stat.CovarianceMatrix(cov, x, nil)
	return cov, nil
}
