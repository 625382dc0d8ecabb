package wheel

import (
	"math"
	"sort"
)

// SimParams describes one fairness simulation. Zero Mode/MinTurns and a nil
// Guarantee take the wheel's own settings.
type SimParams struct {
	Mode      Mode
	MinTurns  int
	Guarantee *int
	Trials    int
	Seed      uint64 // 0 => crypto source
}

// Stats summarizes integer samples.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// Frequency compares one outcome's nominal and observed selection rates.
type Frequency struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Expected  float64 `json:"expected"`
	Observed  float64 `json:"observed"`
	Count     int     `json:"count"`
	Deviation float64 `json:"deviation"` // Observed - Expected
}

// Report is the result of Simulate.
type Report struct {
	Trials       int         `json:"trials"`
	Mode         Mode        `json:"mode"`
	MinTurns     int         `json:"min_turns"`
	Guarantee    int         `json:"guarantee"`
	Frequencies  []Frequency `json:"frequencies"`
	MaxDeviation float64     `json:"max_deviation"`
	ChiSquare    float64     `json:"chi_square"`
	SpinsToPrize *Stats      `json:"spins_to_prize,omitempty"` // only when the wheel has blanks
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// population variance
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:   mean,
		Var:    variance,
		StdDev: math.Sqrt(variance),
		P50:    percentile(0.50),
		P90:    percentile(0.90),
		P99:    percentile(0.99),
	}
}

// Simulate draws terminal angles exactly as a Spinner does, without animation
// timing, and tallies the resolved outcomes. Expected rates are the nominal
// weight shares, so a guarantee shows up as deviation.
func Simulate(w *Wheel, p SimParams) (Report, error) {
	if p.Mode == "" {
		p.Mode = w.cfg.Mode
	}
	if p.MinTurns == 0 {
		p.MinTurns = w.cfg.MinTurns
	}
	guarantee := w.cfg.Guarantee
	if p.Guarantee != nil {
		guarantee = *p.Guarantee
	}
	probe := w.cfg
	probe.Mode, probe.MinTurns, probe.Guarantee = p.Mode, p.MinTurns, guarantee
	if err := probe.normalize(); err != nil {
		return Report{}, err
	}
	rep := Report{Trials: p.Trials, Mode: p.Mode, MinTurns: p.MinTurns, Guarantee: guarantee}
	if p.Trials <= 0 {
		return rep, nil
	}

	rng := DefaultRNG()
	if p.Seed != 0 {
		rng = NewSeededRNG(p.Seed)
	}

	counts := make([]int, len(w.arcs))
	hasBlank := false
	for _, o := range w.cfg.Outcomes {
		hasBlank = hasBlank || o.Blank
	}
	var toPrize []int
	run := 0
	st := streak{limit: guarantee}
	rotation := 0.0
	for i := 0; i < p.Trials; i++ {
		rotation = w.drawTarget(rotation, p.Mode, p.MinTurns, rng, st.forced())
		idx := w.Resolve(rotation)
		counts[idx]++
		o := w.cfg.Outcomes[idx]
		st.observe(o)
		// keep the accumulator small; whole turns do not change the angle
		rotation = NormalizeDegrees(rotation)

		run++
		if !o.Blank {
			toPrize = append(toPrize, run)
			run = 0
		}
	}

	n := float64(p.Trials)
	for i, o := range w.cfg.Outcomes {
		exp := w.Probability(i)
		obs := float64(counts[i]) / n
		dev := obs - exp
		rep.Frequencies = append(rep.Frequencies, Frequency{
			ID:        o.ID,
			Label:     o.Label,
			Expected:  exp,
			Observed:  obs,
			Count:     counts[i],
			Deviation: dev,
		})
		if math.Abs(dev) > rep.MaxDeviation {
			rep.MaxDeviation = math.Abs(dev)
		}
		e := exp * n
		d := float64(counts[i]) - e
		rep.ChiSquare += d * d / e
	}
	if hasBlank {
		s := calcStats(toPrize)
		rep.SpinsToPrize = &s
	}
	return rep, nil
}
