package events

import (
	"context"
	"time"
)

// Reschedule event types.
const (
	TypeRescheduleConfirmed = "reschedule.confirmed"
	TypeRescheduleCancelled = "reschedule.cancelled"
)

// Event is a domain fact published after a successful commit.
type Event struct {
	ID          string      `json:"event_id"`
	Type        string      `json:"event_type"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Payload     interface{} `json:"payload"`
}

// Publisher emits events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
