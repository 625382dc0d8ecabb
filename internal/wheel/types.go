package wheel

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfiguration = errors.New("invalid wheel configuration")
	ErrSpinCanceled         = errors.New("spin canceled")
	ErrSpinInFlight         = errors.New("spin still in flight")
)

const (
	DefaultDuration      = 3000 * time.Millisecond
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultMinTurns      = 2
)

// Mode selects how a spin's terminal angle is drawn.
type Mode string

const (
	// Uniform continuous rotation in [MinTurns*360, MinTurns*360+360).
	ModeRotation Mode = "rotation"
	// Outcome drawn by weight first, then a landing angle inside its arc.
	ModeWeighted Mode = "weighted"
	// Whole-degree rotation floor(u*360) on top of MinTurns turns.
	ModeWholeDegree Mode = "whole_degree"
)

func (m Mode) valid() bool {
	switch m {
	case ModeRotation, ModeWeighted, ModeWholeDegree:
		return true
	}
	return false
}

// Outcome is one slice of the wheel.
type Outcome struct {
	ID     string   `json:"id" yaml:"id"`
	Label  string   `json:"label" yaml:"label"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight,omitempty"` // nil counts as 1
	Coins  int      `json:"coins,omitempty" yaml:"coins,omitempty"`   // coins credited when selected
	Blank  bool     `json:"blank,omitempty" yaml:"blank,omitempty"`   // "try again" slice
}

// Weight returns a pointer for Outcome.Weight literals.
func Weight(v float64) *float64 { return &v }

// Config describes a wheel. Zero values take the package defaults.
type Config struct {
	Outcomes      []Outcome
	Duration      time.Duration
	FrameInterval time.Duration
	MinTurns      int
	Easing        Easing
	Mode          Mode
	Guarantee     int // after Guarantee-1 blanks in a row the next spin skips blanks; 0 disables
}

// Arc is the closed-open interval [Start, End) of one outcome, in degrees.
type Arc struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (a Arc) Span() float64 { return a.End - a.Start }

// Phase is the spinner lifecycle state.
type Phase int

const (
	Idle Phase = iota
	Spinning
	Resolved
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Spinning:
		return "spinning"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*p = Idle
	case "spinning":
		*p = Spinning
	case "resolved":
		*p = Resolved
	default:
		return fmt.Errorf("unknown phase %q", b)
	}
	return nil
}

// SpinResult is produced once per completed spin.
type SpinResult struct {
	Outcome       Outcome   `json:"outcome"`
	Index         int       `json:"index"`
	FinalRotation float64   `json:"final_rotation"` // degrees in [0,360)
	Target        float64   `json:"target"`         // absolute rotation the animation ended on
	Seq           uint64    `json:"seq"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

// Frame is one animation sample for a rendering layer.
type Frame struct {
	Rotation float64   `json:"rotation"`
	Phase    Phase     `json:"phase"`
	Progress float64   `json:"progress"` // linear time progress of the current spin, 0..1
	At       time.Time `json:"at"`
}

// State is a snapshot of a spinner.
type State struct {
	Phase       Phase       `json:"phase"`
	Rotation    float64     `json:"rotation"`
	Target      *float64    `json:"target,omitempty"` // set while spinning
	LastResult  *SpinResult `json:"last_result,omitempty"`
	Seq         uint64      `json:"seq"`
	BlankStreak int         `json:"blank_streak"`
}
