// Package notify delivers feature availability events to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

const (
	// EventTypeFeatureAvailable is the event_type of every published payload.
	EventTypeFeatureAvailable = "feature_available"

	// ResourceTypeFeature is the resource_type of every published payload.
	ResourceTypeFeature = "feature"
)

// Payload is the JSON document published for each event.
type Payload struct {
	EventID      string   `json:"event_id"`
	EventType    string   `json:"event_type"`
	Timestamp    string   `json:"timestamp"`
	EntityType   string   `json:"entity_type"`
	EntityID     string   `json:"entity_id"`
	ResourceType string   `json:"resource_type"`
	ResourceName string   `json:"resource_name"`
	ComputeID    string   `json:"compute_id"`
	Features     []string `json:"features"`
}

// eventNamespace scopes derived event ids.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("featurestore/feature_available"))

// EventID returns the id of the event announcing e. It is derived from the entity,
// the category and the write's updated_at, so the API and the stream relay announce
// the same write under the same id. Events without updated_at get a random id.
func EventID(e feature.Event) string {
	if e.UpdatedAt.IsZero() {
		return uuid.NewString()
	}
	name := strings.Join([]string{
		string(e.EntityKind), e.EntityID, e.Category, feature.FormatTimestamp(e.UpdatedAt),
	}, "\x00")
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

// NewPayload builds the payload for e. A missing compute id is replaced by a fresh one.
func NewPayload(e feature.Event, now time.Time) Payload {
	computeID := uuid.NewString()
	if e.ComputeID != nil && *e.ComputeID != "" {
		computeID = *e.ComputeID
	}
	features := e.Features
	if features == nil {
		features = []string{}
	}
	return Payload{
		EventID:      EventID(e),
		EventType:    EventTypeFeatureAvailable,
		Timestamp:    feature.FormatTimestamp(now),
		EntityType:   string(e.EntityKind),
		EntityID:     e.EntityID,
		ResourceType: ResourceTypeFeature,
		ResourceName: e.Category,
		ComputeID:    computeID,
		Features:     features,
	}
}

// Marshal encodes the payload as JSON.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, feature.Event) error { return nil }
