package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

// NATSConfig configures the JetStream publisher.
type NATSConfig struct {
	// URL of the NATS server.
	// Default: nats.DefaultURL
	URL string

	// Stream is the JetStream stream that captures the subjects.
	// Default: "FEATURES"
	Stream string

	// SubjectPrefix is prepended to the entity type to form the subject,
	// e.g. "features.available.bright_uid".
	// Default: "features.available"
	SubjectPrefix string
}

func (c *NATSConfig) validate() {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Stream == "" {
		c.Stream = "FEATURES"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "features.available"
	}
}

// NATSPublisher publishes events to a JetStream stream.
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config NATSConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewNATSPublisher connects to NATS and ensures the stream exists.
func NewNATSPublisher(ctx context.Context, config NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	config.validate()

	nc, err := nats.Connect(config.URL,
		nats.Name("featurestore"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      config.Stream,
		Subjects:  []string{config.SubjectPrefix + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,

		// Covers the lag between an API publish and the stream relay's copy.
		Duplicates: 10 * time.Minute,
	})
	if err != nil {
		// The stream may be managed elsewhere; publishing still works if it exists.
		logger.Warn("ensure stream failed", "stream", config.Stream, "error", err)
	}

	return &NATSPublisher{nc: nc, js: js, config: config, logger: logger, now: time.Now}, nil
}

// Subject returns the subject events for kind are published on.
func (p *NATSPublisher) Subject(kind feature.EntityKind) string {
	return p.config.SubjectPrefix + "." + string(kind)
}

// Publish sends e to JetStream. The event id is used as the message id so the
// server drops duplicates.
func (p *NATSPublisher) Publish(ctx context.Context, e feature.Event) error {
	payload := NewPayload(e, p.now())
	data, err := payload.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	subject := p.Subject(e.EntityKind)
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(payload.EventID)); err != nil {
		return fmt.Errorf("publish event to subject %s: %w", subject, err)
	}
	p.logger.Debug("feature event published", "subject", subject, "event_id", payload.EventID, "category", e.Category)
	return nil
}

// Close drains pending publishes and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
