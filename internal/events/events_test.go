package events

import (
	"context"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

func sampleEvent() SpinResolved {
	return SpinResolved{
		ID:            "6f1c1f0e-3a57-4a41-9f57-4f0d1b1d2a10",
		Wheel:         "rewards",
		Seq:           3,
		OutcomeID:     "coins-20",
		Label:         "20 Coins",
		Index:         2,
		FinalRotation: 101.5,
		Coins:         20,
		Balance:       130,
		ResolvedAt:    time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewPublishing(t *testing.T) {
	e := sampleEvent()
	msg, err := newPublishing(e)
	if err != nil {
		t.Fatal(err)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp091.Persistent {
		t.Fatalf("unexpected message headers: %+v", msg)
	}
	if msg.MessageId != e.ID || !msg.Timestamp.Equal(e.ResolvedAt) {
		t.Fatalf("id/timestamp not carried: %s %v", msg.MessageId, msg.Timestamp)
	}
	back, err := SpinResolvedFromJSON(msg.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !back.ResolvedAt.Equal(e.ResolvedAt) {
		t.Fatalf("resolved_at = %v", back.ResolvedAt)
	}
	back.ResolvedAt = e.ResolvedAt
	if back != e {
		t.Fatalf("body = %+v, want %+v", back, e)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishSpinResolved(context.Background(), sampleEvent()); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}
