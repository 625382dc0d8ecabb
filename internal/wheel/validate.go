package wheel

import (
	"fmt"
	"math"
	"strings"
)

// normalize fills defaults and checks the config. All problems are reported
// together, wrapped in ErrInvalidConfiguration.
func (c *Config) normalize() error {
	if c.Duration == 0 {
		c.Duration = DefaultDuration
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = DefaultFrameInterval
	}
	if c.MinTurns == 0 {
		c.MinTurns = DefaultMinTurns
	}
	if c.Easing == "" {
		c.Easing = EaseOutCubic
	}
	if c.Mode == "" {
		c.Mode = ModeRotation
	}

	var errs []string
	if len(c.Outcomes) == 0 {
		errs = append(errs, "at least one outcome is required")
	}
	seen := make(map[string]int, len(c.Outcomes))
	prizes := 0
	for i, o := range c.Outcomes {
		if o.ID == "" {
			errs = append(errs, fmt.Sprintf("outcomes[%d].id must not be empty", i))
		} else if j, dup := seen[o.ID]; dup {
			errs = append(errs, fmt.Sprintf("outcomes[%d].id %q duplicates outcomes[%d]", i, o.ID, j))
		} else {
			seen[o.ID] = i
		}
		if o.Weight != nil {
			w := *o.Weight
			if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
				errs = append(errs, fmt.Sprintf("outcomes[%d].weight must be > 0", i))
			}
		}
		if o.Coins < 0 {
			errs = append(errs, fmt.Sprintf("outcomes[%d].coins must be >= 0", i))
		}
		if !o.Blank {
			prizes++
		}
	}
	if c.Duration < 0 {
		errs = append(errs, "duration must be > 0")
	}
	if c.FrameInterval < 0 {
		errs = append(errs, "frame interval must be > 0")
	}
	if c.MinTurns < 1 {
		errs = append(errs, "min turns must be >= 1")
	}
	if !c.Easing.valid() {
		errs = append(errs, fmt.Sprintf("unknown easing %q", c.Easing))
	}
	if !c.Mode.valid() {
		errs = append(errs, fmt.Sprintf("unknown mode %q", c.Mode))
	}
	if c.Guarantee < 0 {
		errs = append(errs, "guarantee must be >= 0")
	}
	if c.Guarantee > 0 && len(c.Outcomes) > 0 && prizes == 0 {
		errs = append(errs, "guarantee needs at least one non-blank outcome")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(errs, "; "))
	}
	return nil
}
