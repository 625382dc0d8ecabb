package catalog

import (
	"fmt"
	"math"
	"strings"
)

// ValidateRaw checks semantic constraints of a merged RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// spin
	if cfg.Spin.DurationMS != nil && *cfg.Spin.DurationMS <= 0 {
		errs = append(errs, "spin.duration_ms must be > 0")
	}
	if cfg.Spin.FrameMS != nil && *cfg.Spin.FrameMS <= 0 {
		errs = append(errs, "spin.frame_ms must be > 0")
	}
	if cfg.Spin.MinTurns != nil && *cfg.Spin.MinTurns < 1 {
		errs = append(errs, "spin.min_turns must be >= 1")
	}
	switch cfg.Spin.Easing {
	case "", "linear", "easeOutQuad", "easeOutCubic", "easeInOutCubic":
	default:
		errs = append(errs, "spin.easing must be one of: linear, easeOutQuad, easeOutCubic, easeInOutCubic")
	}
	switch cfg.Spin.Mode {
	case "", "rotation", "weighted", "whole_degree":
	default:
		errs = append(errs, "spin.mode must be one of: rotation, weighted, whole_degree")
	}
	if cfg.Spin.Guarantee != nil && *cfg.Spin.Guarantee < 0 {
		errs = append(errs, "spin.guarantee must be >= 0 (0 disables it)")
	}

	// cost
	if cfg.Cost != nil {
		if cfg.Cost.PerSpin != nil && *cfg.Cost.PerSpin < 0 {
			errs = append(errs, "cost.per_spin must be >= 0")
		}
		if cfg.Cost.PerBundle != nil && *cfg.Cost.PerBundle < 0 {
			errs = append(errs, "cost.per_bundle must be >= 0")
		}
		if cfg.Cost.BundleSize != nil && *cfg.Cost.BundleSize < 0 {
			errs = append(errs, "cost.bundle_size must be >= 0")
		}
	}

	// outcomes
	if len(cfg.Outcomes) == 0 {
		errs = append(errs, "outcomes must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Outcomes))
	prizes := 0
	for i, o := range cfg.Outcomes {
		if o.ID == "" {
			errs = append(errs, fmt.Sprintf("outcomes[%d].id is required", i))
		} else if seen[o.ID] {
			errs = append(errs, fmt.Sprintf("outcomes[%d].id %q is duplicated", i, o.ID))
		}
		seen[o.ID] = true
		if o.Weight != nil && (math.IsNaN(*o.Weight) || math.IsInf(*o.Weight, 0) || *o.Weight <= 0) {
			errs = append(errs, fmt.Sprintf("outcomes[%d].weight must be > 0", i))
		}
		if o.Coins < 0 {
			errs = append(errs, fmt.Sprintf("outcomes[%d].coins must be >= 0", i))
		}
		if !o.Blank {
			prizes++
		}
	}
	if cfg.Spin.Guarantee != nil && *cfg.Spin.Guarantee > 0 && len(cfg.Outcomes) > 0 && prizes == 0 {
		errs = append(errs, "spin.guarantee needs at least one non-blank outcome")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
