package coins

// Plan is the cheapest way to buy at least Spins spins.
type Plan struct {
	Spins   int `json:"spins"`   // requested
	Bundles int `json:"bundles"` // bundles bought
	Singles int `json:"singles"` // single spins bought
	Total   int `json:"total"`   // spins actually granted, >= Spins
	Cost    int `json:"cost"`
}

// Cheapest finds the minimum-cost combination of bundles and single spins
// that grants at least n spins. Buying a whole bundle may beat paying for the
// remainder one by one, so the plan can overshoot n.
func (p Price) Cheapest(n int) Plan {
	if n <= 0 {
		return Plan{}
	}
	best := Plan{Spins: n, Singles: n, Total: n, Cost: n * p.PerSpin}
	if p.PerBundle <= 0 || p.BundleSize <= 1 {
		return best
	}
	maxBundles := (n + p.BundleSize - 1) / p.BundleSize
	for b := 1; b <= maxBundles; b++ {
		singles := n - b*p.BundleSize
		if singles < 0 {
			singles = 0
		}
		cost := b*p.PerBundle + singles*p.PerSpin
		// ties keep fewer bundles
		if cost < best.Cost {
			best = Plan{Spins: n, Bundles: b, Singles: singles, Total: b*p.BundleSize + singles, Cost: cost}
		}
	}
	return best
}
