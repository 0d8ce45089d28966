package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Containers reach the API running on the host through host.docker.internal.
const defaultDLQEndpointLocal = "http://host.docker.internal:8080/v1/dlq/record"

const retention = 7 * 24 * time.Hour

// topology names the local resources for one audit topic.
type topology struct {
	Topic       string
	DLQTopic    string
	Sub         string
	DLQSub      string
	DLQEndpoint string
}

func newTopology(topic, endpoint string) topology {
	if endpoint == "" {
		endpoint = defaultDLQEndpointLocal
	}
	return topology{
		Topic:       topic,
		DLQTopic:    topic + "-dlq",
		Sub:         topic + "-sub",
		DLQSub:      topic + "-dlq-sub",
		DLQEndpoint: strings.TrimRight(endpoint, "/"),
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on system environment variables.")
	}

	logger := logger.New()
	logger.Info().Msg("Starting Pub/Sub setup for the local emulator")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		logger.Fatal().Msg("GCP_PROJECT_ID is not set in the environment.")
	}
	if cfg.PubSubEmulatorHost == "" {
		logger.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set; this tool only targets the emulator.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error().Msgf("Failed to close pubsub client: %v", err)
		}
	}()

	resetEmulator(ctx, client, logger)
	t := newTopology(cfg.PubSubAuditTopic, cfg.DLQEndpointURL)
	if err := createResources(ctx, client, logger, t); err != nil {
		logger.Fatal().Err(err).Msg("Pub/Sub setup failed")
	}

	logger.Info().Str("topic", t.Topic).Str("dlq_endpoint", t.DLQEndpoint).Msg("Pub/Sub setup for local environment complete")
}

// resetEmulator deletes every subscription and topic. Only run it against
// the emulator.
func resetEmulator(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) {
	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list subscriptions: %v", err)
		}
		logger.Info().Str("subscription", sub.ID()).Msg("Deleting subscription")
		if err := sub.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("subscription", sub.ID()).Msg("Failed to delete subscription")
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list topics: %v", err)
		}
		logger.Info().Str("topic", topic.ID()).Msg("Deleting topic")
		if err := topic.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("topic", topic.ID()).Msg("Failed to delete topic")
		}
	}
}

// createResources sets up the audit topic with a pull subscription whose
// undeliverable events land on a dead-letter topic pushed to the API.
func createResources(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, t topology) error {
	dlqTopic, err := ensureTopic(ctx, client, logger, t.DLQTopic)
	if err != nil {
		return err
	}
	mainTopic, err := ensureTopic(ctx, client, logger, t.Topic)
	if err != nil {
		return err
	}

	retry := &pubsub.RetryPolicy{MinimumBackoff: 10 * time.Second, MaximumBackoff: 600 * time.Second}
	if err := ensureSubscription(ctx, client, logger, t.Sub, pubsub.SubscriptionConfig{
		Topic:            mainTopic,
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
		RetryPolicy:      retry,
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopic.String(),
			MaxDeliveryAttempts: 5,
		},
	}); err != nil {
		return err
	}
	return ensureSubscription(ctx, client, logger, t.DLQSub, pubsub.SubscriptionConfig{
		Topic:            dlqTopic,
		PushConfig:       pubsub.PushConfig{Endpoint: t.DLQEndpoint},
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
		RetryPolicy:      retry,
	})
}

func ensureTopic(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, id string) (*pubsub.Topic, error) {
	topic := client.Topic(id)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking topic %s: %w", id, err)
	}
	if exists {
		logger.Info().Str("topic", id).Msg("Topic already exists")
		return topic, nil
	}
	logger.Info().Str("topic", id).Dur("retention", retention).Msg("Creating topic")
	return client.CreateTopicWithConfig(ctx, id, &pubsub.TopicConfig{RetentionDuration: retention})
}

func ensureSubscription(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, id string, cfg pubsub.SubscriptionConfig) error {
	sub := client.Subscription(id)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("checking subscription %s: %w", id, err)
	}
	if !exists {
		logger.Info().Str("subscription", id).Str("endpoint", cfg.PushConfig.Endpoint).Msg("Creating subscription")
		if _, err := client.CreateSubscription(ctx, id, cfg); err != nil {
			return fmt.Errorf("creating subscription %s: %w", id, err)
		}
		return nil
	}

	existing, err := sub.Config(ctx)
	if err != nil {
		return fmt.Errorf("reading subscription %s: %w", id, err)
	}
	if existing.PushConfig.Endpoint == cfg.PushConfig.Endpoint && existing.AckDeadline == cfg.AckDeadline {
		logger.Info().Str("subscription", id).Msg("Subscription is up to date")
		return nil
	}
	logger.Info().Str("subscription", id).Msg("Updating subscription")
	_, err = sub.Update(ctx, pubsub.SubscriptionConfigToUpdate{
		PushConfig:  &cfg.PushConfig,
		AckDeadline: cfg.AckDeadline,
		RetryPolicy: cfg.RetryPolicy,
	})
	if err != nil {
		return fmt.Errorf("updating subscription %s: %w", id, err)
	}
	return nil
}
