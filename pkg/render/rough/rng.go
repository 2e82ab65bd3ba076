package rough

// rng is a small Park-Miller generator. It is deterministic per seed so the
// same node renders with the same wobble every time, which keeps cached
// artifacts stable.
type rng struct {
	state int64
}

const (
	rngModulus    = 2147483647 // 2^31 - 1
	rngMultiplier = 48271
)

func newRNG(seed int64) *rng {
	s := seed % rngModulus
	if s <= 0 {
		s += rngModulus - 1
	}
	return &rng{state: s}
}

// next returns a value in [0, 1).
func (r *rng) next() float64 {
	r.state = (r.state * rngMultiplier) % rngModulus
	return float64(r.state-1) / float64(rngModulus-1)
}

// offset returns a value in [-span, span).
func (r *rng) offset(span float64) float64 {
	return span * (2*r.next() - 1)
}
