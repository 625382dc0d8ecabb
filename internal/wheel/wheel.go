package wheel

import "math"

// Wheel is a validated, immutable set of outcomes and their arcs.
type Wheel struct {
	cfg     Config
	weights []float64
	total   float64
	arcs    []Arc
}

// NewWheel validates cfg and lays the outcomes out around the circle in order.
func NewWheel(cfg Config) (*Wheel, error) {
	cfg.Outcomes = append([]Outcome(nil), cfg.Outcomes...)
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	w := &Wheel{
		cfg:     cfg,
		weights: make([]float64, len(cfg.Outcomes)),
		arcs:    make([]Arc, len(cfg.Outcomes)),
	}
	for i, o := range cfg.Outcomes {
		w.weights[i] = 1
		if o.Weight != nil {
			w.weights[i] = *o.Weight
		}
		w.total += w.weights[i]
	}

	// ends are cumulative so neighbouring arcs share a boundary exactly
	var cum float64
	start := 0.0
	for i := range w.arcs {
		cum += w.weights[i]
		end := 360 * cum / w.total
		if i == len(w.arcs)-1 {
			end = 360
		}
		w.arcs[i] = Arc{Start: start, End: end}
		start = end
	}
	return w, nil
}

func (w *Wheel) Config() Config {
	c := w.cfg
	c.Outcomes = append([]Outcome(nil), w.cfg.Outcomes...)
	return c
}

func (w *Wheel) Outcomes() []Outcome { return append([]Outcome(nil), w.cfg.Outcomes...) }

func (w *Wheel) Arcs() []Arc { return append([]Arc(nil), w.arcs...) }

// Probability is the nominal selection probability of outcome i.
func (w *Wheel) Probability(i int) float64 { return w.weights[i] / w.total }

// NormalizeDegrees maps d into [0, 360).
func NormalizeDegrees(d float64) float64 {
	r := math.Mod(d, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r = 0
	}
	return r
}

// Resolve returns the index of the outcome whose arc contains rotation.
// Arcs are closed-open, so a boundary belongs to the arc starting there.
func (w *Wheel) Resolve(rotation float64) int {
	r := NormalizeDegrees(rotation)
	for i, a := range w.arcs {
		if r < a.End {
			return i
		}
	}
	return len(w.arcs) - 1
}

// pick draws an outcome index by weight, skipping blanks when prizeOnly is set.
func (w *Wheel) pick(rng RandomSource, prizeOnly bool) int {
	allowed := func(i int) bool { return !prizeOnly || !w.cfg.Outcomes[i].Blank }

	var sum float64
	last := -1
	for i, wt := range w.weights {
		if allowed(i) {
			sum += wt
			last = i
		}
	}
	r := rng.Float64() * sum
	for i, wt := range w.weights {
		if !allowed(i) {
			continue
		}
		if r < wt {
			return i
		}
		r -= wt
	}
	return last
}

// drawTarget returns the absolute rotation the next spin stops at, starting
// from current. The added rotation is always in [minTurns*360, minTurns*360+360).
func (w *Wheel) drawTarget(current float64, mode Mode, minTurns int, rng RandomSource, prizeOnly bool) float64 {
	base := float64(minTurns) * 360
	if prizeOnly {
		mode = ModeWeighted
	}
	switch mode {
	case ModeWholeDegree:
		return current + base + math.Floor(rng.Float64()*360)
	case ModeWeighted:
		a := w.arcs[w.pick(rng, prizeOnly)]
		// land in the middle 90% of the arc, away from the dividers
		landing := a.Start + a.Span()*(0.05+0.9*rng.Float64())
		return current + base + NormalizeDegrees(landing-NormalizeDegrees(current))
	default:
		return current + base + rng.Float64()*360
	}
}

// streak counts consecutive blank results for the guarantee rule.
type streak struct {
	limit  int
	blanks int
}

// forced reports whether the next spin must land on a non-blank outcome.
func (s *streak) forced() bool {
	return s.limit > 0 && s.blanks+1 >= s.limit
}

func (s *streak) observe(o Outcome) {
	if o.Blank {
		s.blanks++
	} else {
		s.blanks = 0
	}
}
