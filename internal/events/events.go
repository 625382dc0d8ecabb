package events

import (
	"context"
	"encoding/json"
	"time"
)

// SpinResolved is published once for every completed spin.
type SpinResolved struct {
	ID            string    `json:"id"`
	Wheel         string    `json:"wheel"`
	Seq           uint64    `json:"seq"`
	OutcomeID     string    `json:"outcome_id"`
	Label         string    `json:"label"`
	Index         int       `json:"index"`
	FinalRotation float64   `json:"final_rotation"`
	Coins         int       `json:"coins"`
	Balance       int       `json:"balance"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

func (e SpinResolved) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func SpinResolvedFromJSON(b []byte) (SpinResolved, error) {
	var e SpinResolved
	err := json.Unmarshal(b, &e)
	return e, err
}

// Publisher delivers spin events to the outside world.
type Publisher interface {
	PublishSpinResolved(ctx context.Context, e SpinResolved) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishSpinResolved(context.Context, SpinResolved) error { return nil }
func (Nop) Close() error                                            { return nil }
