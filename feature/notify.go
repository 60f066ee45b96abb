package feature

import (
	"context"
	"time"
)

// Event announces that features of one category of an entity were written.
type Event struct {
	EntityKind EntityKind
	EntityID   string
	Category   string

	// Features lists the written feature names in sorted order.
	Features []string

	ComputeID *string

	// UpdatedAt is the updated_at of the written record. It identifies the write.
	UpdatedAt time.Time
}

// Notifier publishes feature availability events.
type Notifier interface {
	Publish(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// EventFor builds the availability event for a written record.
func EventFor(r *Record) Event {
	return Event{
		EntityKind: r.Entity.Kind,
		EntityID:   r.Entity.ID,
		Category:   r.Category,
		Features:   r.Data.Names(),
		ComputeID:  r.Meta.ComputeID,
		UpdatedAt:  r.Meta.UpdatedAt,
	}
}
