package reward

import (
	"fmt"

	"github.com/xtding233/reward-wheel/internal/catalog"
	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/wheel"
)

var quotePlans = []int{1, 5, 10}

// Slice is one outcome with its arc and nominal probability.
type Slice struct {
	wheel.Outcome
	Arc         wheel.Arc `json:"arc"`
	Probability float64   `json:"probability"`
}

// WheelView describes a wheel for clients that draw it.
type WheelView struct {
	Name       string       `json:"name"`
	Version    string       `json:"version,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	Mode       wheel.Mode   `json:"mode"`
	Easing     wheel.Easing `json:"easing"`
	DurationMS int64        `json:"duration_ms"`
	MinTurns   int          `json:"min_turns"`
	Guarantee  int          `json:"guarantee,omitempty"`
	Price      coins.Price  `json:"price"`
	Quotes     map[int]int  `json:"quotes"` // spins -> coins
	Plans      []coins.Plan `json:"plans"`
	Slices     []Slice      `json:"slices"`
}

func (s *Service) Describe(name string) (WheelView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(name)
	if err != nil {
		return WheelView{}, err
	}
	w := e.spinner.Wheel()
	cfg := w.Config()
	price := e.res.Price

	v := WheelView{
		Name:       name,
		Version:    e.res.Version,
		Notes:      e.res.Notes,
		Mode:       cfg.Mode,
		Easing:     cfg.Easing,
		DurationMS: cfg.Duration.Milliseconds(),
		MinTurns:   cfg.MinTurns,
		Guarantee:  cfg.Guarantee,
		Price:      price,
		Quotes:     map[int]int{1: price.ForSpins(1), 10: price.ForSpins(10)},
	}
	for _, n := range quotePlans {
		v.Plans = append(v.Plans, price.Cheapest(n))
	}
	arcs := w.Arcs()
	for i, o := range w.Outcomes() {
		v.Slices = append(v.Slices, Slice{Outcome: o, Arc: arcs[i], Probability: w.Probability(i)})
	}
	return v, nil
}

// SimRequest selects what to simulate. Empty fields keep the wheel's settings.
type SimRequest struct {
	Mode      string
	MinTurns  *int
	Guarantee *int
	Trials    int
	Seed      uint64
}

// Simulate runs a fairness simulation on a freshly resolved copy of the wheel.
// It never touches the live spinner or the wallet.
func (s *Service) Simulate(name string, req SimRequest) (wheel.Report, error) {
	if req.Trials <= 0 || req.Trials > MaxSimTrials {
		return wheel.Report{}, fmt.Errorf("%w: trials must be in 1..%d", ErrInvalidRequest, MaxSimTrials)
	}
	if req.MinTurns != nil && *req.MinTurns < 1 {
		return wheel.Report{}, fmt.Errorf("%w: min_turns must be >= 1", ErrInvalidRequest)
	}
	if req.Guarantee != nil && *req.Guarantee < 0 {
		return wheel.Report{}, fmt.Errorf("%w: guarantee must be >= 0", ErrInvalidRequest)
	}
	o := catalog.Overrides{MinTurns: req.MinTurns, Guarantee: req.Guarantee}
	if req.Mode != "" {
		o.Mode = &req.Mode
	}
	res, err := s.catalog.Resolve(name, o)
	if err != nil {
		return wheel.Report{}, err
	}
	w, err := wheel.NewWheel(res.Wheel)
	if err != nil {
		return wheel.Report{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return wheel.Simulate(w, wheel.SimParams{Trials: req.Trials, Seed: req.Seed})
}
