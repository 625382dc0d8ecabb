package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/wheel"
)

var (
	ErrWheelNotFound = errors.New("wheel not found")
	ErrInvalidName   = errors.New("invalid wheel name")
	ErrInvalidConfig = errors.New("invalid wheel config")
)

const defaultName = "default"

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Paths helper for default/wheel files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/config
}

func (p Paths) WheelsDir() string {
	return filepath.Join(p.BaseDir, "wheels")
}
func (p Paths) DefaultPath() string {
	return filepath.Join(p.WheelsDir(), defaultName+".yaml")
}
func (p Paths) WheelPath(name string) string {
	return filepath.Join(p.WheelsDir(), name+".yaml")
}

// Loader reads YAML wheel definitions and merges default -> wheel.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig
}

// NewLoader creates a catalog loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

// ValidName reports whether name may be used as a wheel name.
func ValidName(name string) bool {
	return name != defaultName && namePattern.MatchString(name)
}

// LoadMerged loads and merges default -> wheel without validating.
func (l *Loader) LoadMerged(name string) (RawConfig, error) {
	if !ValidName(name) {
		return RawConfig{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	l.mu.RLock()
	cfg, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	defCfg, _, err := readYAML(l.paths.DefaultPath()) // default file optional
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	wheelCfg, found, err := readYAML(l.paths.WheelPath(name))
	if err != nil {
		return RawConfig{}, fmt.Errorf("read wheel %s: %w", name, err)
	}
	if !found {
		return RawConfig{}, fmt.Errorf("%w: %s", ErrWheelNotFound, name)
	}

	merged := mergeRaw(defCfg, wheelCfg)

	l.mu.Lock()
	l.cache[name] = merged
	l.mu.Unlock()
	return merged, nil
}

// Resolve validates the merged config and applies overrides.
func (l *Loader) Resolve(name string, o Overrides) (Resolved, error) {
	raw, err := l.LoadMerged(name)
	if err != nil {
		return Resolved{}, err
	}
	if err := ValidateRaw(raw); err != nil {
		return Resolved{}, fmt.Errorf("wheel %s: %w", name, err)
	}

	cfg := wheel.Config{
		Outcomes: append([]wheel.Outcome(nil), raw.Outcomes...),
		Easing:   wheel.Easing(raw.Spin.Easing),
		Mode:     wheel.Mode(raw.Spin.Mode),
	}
	if raw.Spin.DurationMS != nil {
		cfg.Duration = time.Duration(*raw.Spin.DurationMS) * time.Millisecond
	}
	if raw.Spin.FrameMS != nil {
		cfg.FrameInterval = time.Duration(*raw.Spin.FrameMS) * time.Millisecond
	}
	if raw.Spin.MinTurns != nil {
		cfg.MinTurns = *raw.Spin.MinTurns
	}
	if raw.Spin.Guarantee != nil {
		cfg.Guarantee = *raw.Spin.Guarantee
	}

	// overrides
	if o.Mode != nil {
		cfg.Mode = wheel.Mode(*o.Mode)
	}
	if o.MinTurns != nil {
		cfg.MinTurns = *o.MinTurns
	}
	if o.Guarantee != nil {
		cfg.Guarantee = *o.Guarantee
	}
	if o.Duration != nil {
		cfg.Duration = *o.Duration
	}

	var price coins.Price
	if raw.Cost != nil {
		if raw.Cost.PerSpin != nil {
			price.PerSpin = *raw.Cost.PerSpin
		}
		if raw.Cost.PerBundle != nil {
			price.PerBundle = *raw.Cost.PerBundle
		}
		if raw.Cost.BundleSize != nil {
			price.BundleSize = *raw.Cost.BundleSize
		}
	}

	return Resolved{
		Name:    name,
		Version: raw.Version,
		Notes:   raw.Notes,
		Wheel:   cfg,
		Price:   price,
	}, nil
}

// List returns the names of all wheel files, sorted.
func (l *Loader) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.paths.WheelsDir(), "*.yaml"))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), ".yaml")
		if ValidName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Missing files return a zero
// config and found=false.
func readYAML(path string) (RawConfig, bool, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, false, nil
		}
		return RawConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, true, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}
	return cfg, true, nil
}

// mergeRaw overlays b on a: set scalars in b win, outcomes in b replace a's.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// spin
	if b.Spin.DurationMS != nil {
		out.Spin.DurationMS = b.Spin.DurationMS
	}
	if b.Spin.FrameMS != nil {
		out.Spin.FrameMS = b.Spin.FrameMS
	}
	if b.Spin.MinTurns != nil {
		out.Spin.MinTurns = b.Spin.MinTurns
	}
	if b.Spin.Easing != "" {
		out.Spin.Easing = b.Spin.Easing
	}
	if b.Spin.Mode != "" {
		out.Spin.Mode = b.Spin.Mode
	}
	if b.Spin.Guarantee != nil {
		out.Spin.Guarantee = b.Spin.Guarantee
	}

	// cost
	switch {
	case out.Cost == nil && b.Cost != nil:
		c := *b.Cost
		out.Cost = &c
	case out.Cost != nil && b.Cost != nil:
		c := *out.Cost
		if b.Cost.PerSpin != nil {
			c.PerSpin = b.Cost.PerSpin
		}
		if b.Cost.PerBundle != nil {
			c.PerBundle = b.Cost.PerBundle
		}
		if b.Cost.BundleSize != nil {
			c.BundleSize = b.Cost.BundleSize
		}
		out.Cost = &c
	}

	// outcomes
	if len(b.Outcomes) > 0 {
		out.Outcomes = append([]wheel.Outcome(nil), b.Outcomes...)
	}

	return out
}
