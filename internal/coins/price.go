package coins

// Price defines how many coins spins cost.
type Price struct {
	PerSpin    int `json:"per_spin"`              // coins per single spin, e.g. 10
	PerBundle  int `json:"per_bundle,omitempty"`  // optional; price of BundleSize spins bought together
	BundleSize int `json:"bundle_size,omitempty"` // optional; 0 or 1 disables bundles
}

// ForSpins returns the coins required for n spins.
func (p Price) ForSpins(n int) int {
	if n <= 0 {
		return 0
	}
	if p.PerBundle > 0 && p.BundleSize > 1 && n >= p.BundleSize {
		bundles := n / p.BundleSize
		rem := n % p.BundleSize
		return bundles*p.PerBundle + rem*p.PerSpin
	}
	return n * p.PerSpin
}
