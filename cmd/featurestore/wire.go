package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/config"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/notify"
)

// newDynamoClient builds the single DynamoDB client shared by the process.
func newDynamoClient(ctx context.Context, s config.Settings) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.AWSRegion),
		awsconfig.WithRetryMaxAttempts(s.AWSMaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if s.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(s.AWSEndpoint)
		}
	}), nil
}

// newNotifier returns the configured notifier and a function releasing it.
func newNotifier(ctx context.Context, s config.Settings, logger *slog.Logger) (feature.Notifier, func() error, error) {
	switch s.NotifyBackend {
	case config.NotifyNATS:
		pub, err := notify.NewNATSPublisher(ctx, notify.NATSConfig{
			URL:           s.NATSURL,
			Stream:        s.NATSStream,
			SubjectPrefix: s.NATSSubjectPrefix,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return pub, pub.Close, nil

	case config.NotifyMemory:
		pubsub := notify.NewGoChannel(watermill.NewSlogLogger(logger))
		pub := notify.NewChannelPublisher(pubsub, "")
		messages, err := pubsub.Subscribe(ctx, pub.Topic())
		if err != nil {
			_ = pubsub.Close()
			return nil, nil, fmt.Errorf("subscribe to %s: %w", pub.Topic(), err)
		}
		go func() {
			for msg := range messages {
				logger.Info("feature event", "event_id", msg.UUID, "payload", string(msg.Payload))
				msg.Ack()
			}
		}()
		return pub, pubsub.Close, nil
	}

	return notify.Nop{}, func() error { return nil }, nil
}

// newService wires storage, policy and notifier into a feature service.
func newService(ctx context.Context, s config.Settings, logger *slog.Logger) (*feature.Service, *feature.Store, func() error, error) {
	client, err := newDynamoClient(ctx, s)
	if err != nil {
		return nil, nil, nil, err
	}
	store := feature.NewStore(client, s.FeatureConfig())

	notifier, closeNotifier, err := newNotifier(ctx, s, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	svc := feature.NewService(store, s.Policy(), notifier, logger)
	svc.SetNotifyTimeout(s.NotifyTimeout)
	return svc, store, closeNotifier, nil
}
