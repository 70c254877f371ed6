package mcmc

import (
	"github.com/mrrlab/ribmc/parameter"
)

// Trace stores samples of all parameters. Sample 0 is the initial
// state; sample s is recorded after s*Thinning iterations.
type Trace struct {
	Thinning int
	// Families lists codon-specific family names in layout order.
	Families []string
	// Groups lists codon group keys.
	Groups []string
	// free codons of every group
	groupCodons [][]int

	// SynthesisRate is [sample][category][gene].
	SynthesisRate      [][][]float64
	MixtureAssignment  [][]int
	MixtureProbability [][]float64
	SPhi               []float64
	// CodonSpecific is [family][sample][category][codon].
	CodonSpecific [][][][]float64
	LogLikelihood []float64
	// PartitionFunction is [sample][mixture], nil if the model has no
	// partition function.
	PartitionFunction [][]float64

	n int
}

func newTrace(st *parameter.Store, samples, thinning int) *Trace {
	t := &Trace{
		Thinning:           thinning,
		SynthesisRate:      make([][][]float64, samples+1),
		MixtureAssignment:  make([][]int, samples+1),
		MixtureProbability: make([][]float64, samples+1),
		SPhi:               make([]float64, samples+1),
		LogLikelihood:      make([]float64, samples+1),
	}
	for _, f := range st.Layout().Families {
		t.Families = append(t.Families, f.Name)
		t.CodonSpecific = append(t.CodonSpecific, make([][][]float64, samples+1))
	}
	for _, g := range st.Groups() {
		t.Groups = append(t.Groups, g.Key)
		t.groupCodons = append(t.groupCodons, g.Free)
	}
	if st.HasPartitionFunction() {
		t.PartitionFunction = make([][]float64, samples+1)
	}
	return t
}

// record stores the current state as a sample.
func (t *Trace) record(sample int, st *parameter.Store, logLike float64) {
	mix := st.Mixture()
	t.SynthesisRate[sample] = st.SynthesisRates().Values()
	t.MixtureAssignment[sample] = append([]int(nil), mix.Assignment...)
	t.MixtureProbability[sample] = append([]float64(nil), mix.Probabilities...)
	t.SPhi[sample] = st.SPhi(false)
	for fi := range t.CodonSpecific {
		t.CodonSpecific[fi][sample] = st.Family(fi).Values()
	}
	t.LogLikelihood[sample] = logLike
	if t.PartitionFunction != nil {
		t.PartitionFunction[sample] = st.PartitionFunctions()
	}
	if sample+1 > t.n {
		t.n = sample + 1
	}
}

// Len returns the number of recorded samples.
func (t *Trace) Len() int {
	return t.n
}

// SynthesisRateSeries returns the synthesis rate samples of a gene in
// a category.
func (t *Trace) SynthesisRateSeries(gene, category int) []float64 {
	v := make([]float64, t.n)
	for s := range v {
		v[s] = t.SynthesisRate[s][category][gene]
	}
	return v
}

// CodonSpecificSeries returns samples of a codon-specific value.
func (t *Trace) CodonSpecificSeries(family, category, codon int) []float64 {
	v := make([]float64, t.n)
	for s := range v {
		v[s] = t.CodonSpecific[family][s][category][codon]
	}
	return v
}

// MixtureProbabilitySeries returns samples of a mixture probability.
func (t *Trace) MixtureProbabilitySeries(mixture int) []float64 {
	v := make([]float64, t.n)
	for s := range v {
		v[s] = t.MixtureProbability[s][mixture]
	}
	return v
}

// PartitionFunctionSeries returns samples of the partition function
// of a mixture element.
func (t *Trace) PartitionFunctionSeries(mixture int) []float64 {
	v := make([]float64, t.n)
	for s := range v {
		v[s] = t.PartitionFunction[s][mixture]
	}
	return v
}
