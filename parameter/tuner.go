package parameter

const (
	// acceptance band targeted by the tuner
	lowAcceptance  = 0.2
	highAcceptance = 0.3
	shrinkFactor   = 0.8
	growFactor     = 1.2
)

// Tuner keeps a proposal width and counts accepted proposals. Every
// adaptation window the width is rescaled towards the target
// acceptance band.
type Tuner struct {
	// Width is the standard deviation of the log-normal proposal.
	Width float64
	// Rates is the acceptance rate trace, one entry per window.
	Rates    []float64
	accepted int
}

// NewTuner creates a new tuner with the initial width.
func NewTuner(width float64) *Tuner {
	if width <= 0 {
		panic("width should be > 0")
	}
	return &Tuner{Width: width}
}

// Accept registers an accepted proposal.
func (t *Tuner) Accept() {
	t.accepted++
}

// Accepted returns number of accepted proposals since the last
// adaptation.
func (t *Tuner) Accepted() int {
	return t.accepted
}

// Adapt computes the acceptance rate over window iterations, rescales
// the width if adapt is true, resets the counter and records the rate.
func (t *Tuner) Adapt(window int, adapt bool) float64 {
	rate := float64(t.accepted) / float64(window)
	if adapt {
		switch {
		case rate < lowAcceptance:
			t.Width *= shrinkFactor
		case rate > highAcceptance:
			t.Width *= growFactor
		}
	}
	t.accepted = 0
	t.Rates = append(t.Rates, rate)
	return rate
}
