package mcmc

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distmv"
)

// mixtureDistribution fills dst with the probabilities of mixture
// elements for a gene given per-element ratios. All log-likelihoods
// are shifted by their mean before exponentiation; the shift is
// returned and cancels in the normalization.
func mixtureDistribution(dst, probs []float64, ratios []Ratio) (currLogLike, propLogLike, shift float64) {
	k := len(ratios)
	avg := 0.0
	for _, r := range ratios {
		avg += r.Current + r.Proposed
	}
	avg /= float64(2 * k)

	for i, r := range ratios {
		lp := math.Log(probs[i])
		dst[i] = lp + (r.Current - avg)
		currLogLike += dst[i]
		propLogLike += lp + (r.Proposed - avg)
	}

	max := floats.Max(dst)
	sum := 0.0
	for i := range dst {
		dst[i] = math.Exp(dst[i] - max)
		sum += dst[i]
	}
	floats.Scale(1/sum, dst)
	return currLogLike, propLogLike, float64(k) * avg
}

// drawProbabilities draws mixture probabilities from a Dirichlet
// distribution with concentration count+prior.
func drawProbabilities(rng *rand.Rand, counts []int, prior float64) []float64 {
	alpha := make([]float64, len(counts))
	for i, n := range counts {
		alpha[i] = float64(n) + prior
	}
	return distmv.NewDirichlet(alpha, rng).Rand(nil)
}
