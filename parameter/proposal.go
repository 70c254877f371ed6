package parameter

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// LogNormalProposal draws a log-normal random walk step around x,
// i.e. exp(Normal(log(x), sd)).
func LogNormalProposal(rng *rand.Rand, x, sd float64) float64 {
	if sd <= 0 {
		panic("sd should be > 0")
	}
	return math.Exp(distuv.Normal{Mu: math.Log(x), Sigma: sd, Src: rng}.Rand())
}
