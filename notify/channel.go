package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

// DefaultTopic is the watermill topic events are published on.
const DefaultTopic = "features.available"

// ChannelPublisher publishes events through a watermill publisher, by default an
// in-process Go channel pub/sub.
type ChannelPublisher struct {
	pub   message.Publisher
	topic string
	now   func() time.Time
}

// NewChannelPublisher wraps pub. An empty topic uses DefaultTopic.
func NewChannelPublisher(pub message.Publisher, topic string) *ChannelPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &ChannelPublisher{pub: pub, topic: topic, now: time.Now}
}

// NewGoChannel returns an in-process pub/sub suitable for NewChannelPublisher.
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
}

// Topic returns the topic events are published on.
func (p *ChannelPublisher) Topic() string { return p.topic }

// Publish sends e as a JSON message keyed by its event id.
func (p *ChannelPublisher) Publish(ctx context.Context, e feature.Event) error {
	payload := NewPayload(e, p.now())
	data, err := payload.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	msg := message.NewMessage(payload.EventID, data)
	msg.Metadata.Set("entity_type", payload.EntityType)
	msg.Metadata.Set("resource_name", payload.ResourceName)
	msg.SetContext(ctx)

	if err := p.pub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish event to topic %s: %w", p.topic, err)
	}
	return nil
}
