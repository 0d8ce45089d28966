package pubsub

import (
	"context"
	"fmt"

	"coursehub/internal/config"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, attributes map[string]string) (string, error)
	Close() error
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
// When an emulator host is configured the client talks to it without credentials.
// The client outlives ctx: cancelling ctx after construction does not close it.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set")
	}
	var opts []option.ClientOption
	if cfg.PubSubEmulatorHost != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSubEmulatorHost), option.WithoutAuthentication())
	}
	client, err := pubsub.NewClient(context.WithoutCancel(ctx), cfg.GCPProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte, attributes map[string]string) (string, error) {
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{Data: payload, Attributes: attributes})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}

func (p *PubSubPublisher) Close() error {
	return p.client.Close()
}

// LogPublisher writes messages to the log instead of Pub/Sub. It is used
// when no GCP project is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "LogPublisher").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, payload []byte, attributes map[string]string) (string, error) {
	p.logger.Info().
		Str("topic", topic).
		Interface("attributes", attributes).
		RawJSON("payload", payload).
		Msg("Pub/Sub disabled, logging event")
	return "", nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// New returns a Pub/Sub publisher when the config enables it, a log
// publisher otherwise.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Publisher, error) {
	if !cfg.PubSubEnabled() {
		logger.Warn().Msg("GCP_PROJECT_ID not set, audit events will only be logged")
		return NewLogPublisher(logger), nil
	}
	return NewPublisher(ctx, cfg)
}
