// types.go
package catalog

import (
	"time"

	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/wheel"
)

// Raw config loaded from YAML.
type RawConfig struct {
	Version  string          `yaml:"version"`
	Spin     SpinConfig      `yaml:"spin"`
	Cost     *CostConfig     `yaml:"cost,omitempty"`
	Outcomes []wheel.Outcome `yaml:"outcomes,omitempty"`
	Notes    string          `yaml:"notes,omitempty"`
}

type SpinConfig struct {
	DurationMS *int   `yaml:"duration_ms,omitempty"`
	FrameMS    *int   `yaml:"frame_ms,omitempty"`
	MinTurns   *int   `yaml:"min_turns,omitempty"`
	Easing     string `yaml:"easing,omitempty"` // linear | easeOutQuad | easeOutCubic | easeInOutCubic
	Mode       string `yaml:"mode,omitempty"`   // rotation | weighted | whole_degree
	Guarantee  *int   `yaml:"guarantee,omitempty"`
}

type CostConfig struct {
	PerSpin    *int `yaml:"per_spin"`
	PerBundle  *int `yaml:"per_bundle,omitempty"`
	BundleSize *int `yaml:"bundle_size,omitempty"`
}

// Resolved is a wheel definition ready for the engine.
type Resolved struct {
	Name    string
	Version string
	Notes   string
	Wheel   wheel.Config
	Price   coins.Price
}

// Overrides replace merged settings for one resolution (simulations, tests).
type Overrides struct {
	Mode      *string
	MinTurns  *int
	Guarantee *int
	Duration  *time.Duration
}

type Resolver interface {
	// Resolve merges default -> wheel -> overrides into engine params.
	Resolve(name string, o Overrides) (Resolved, error)
}
