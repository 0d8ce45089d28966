package pubsub

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"coursehub/internal/config"

	ps "cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherInvalidProject(t *testing.T) {
	cfg := &config.Config{GCPProjectID: ""}
	if _, err := NewPublisher(context.Background(), cfg); err == nil {
		t.Fatal("expected error when project ID is empty")
	}
}

func TestNewFallsBackToLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	pub, err := New(context.Background(), &config.Config{}, logger)
	require.NoError(t, err)
	require.IsType(t, &LogPublisher{}, pub)

	id, err := pub.Publish(context.Background(), "deletion-audit", []byte(`{"outcome":"executed"}`), map[string]string{"entity_type": "course"})
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Contains(t, buf.String(), `"topic":"deletion-audit"`)
	assert.Contains(t, buf.String(), `"outcome":"executed"`)
	assert.NoError(t, pub.Close())
}

func TestPublishWithEmulator(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	ctx := context.Background()
	cfg := &config.Config{GCPProjectID: "test-project", PubSubEmulatorHost: emulator}
	pub, err := NewPublisher(ctx, cfg)
	require.NoError(t, err)
	defer pub.Close()

	topic, err := pub.client.CreateTopic(ctx, "audit-test-topic")
	require.NoError(t, err)
	sub, err := pub.client.CreateSubscription(ctx, "audit-test-sub", ps.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	msgID, err := pub.Publish(ctx, "audit-test-topic", []byte(`{"entity_type":"course"}`), map[string]string{"outcome": "executed"})
	require.NoError(t, err)
	require.NotEmpty(t, msgID)

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c := make(chan *ps.Message, 1)
	go func() {
		_ = sub.Receive(recvCtx, func(ctx context.Context, m *ps.Message) {
			c <- m
			m.Ack()
			cancel()
		})
	}()

	select {
	case m := <-c:
		assert.Equal(t, `{"entity_type":"course"}`, string(m.Data))
		assert.Equal(t, "executed", m.Attributes["outcome"])
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message from emulator subscription")
	}
}

func TestPublisherOutlivesStartupContext(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pub, err := New(startCtx, &config.Config{GCPProjectID: "test-project", PubSubEmulatorHost: emulator}, zerolog.Nop())
	cancel()
	require.NoError(t, err)
	defer pub.Close()

	ctx := context.Background()
	_, err = pub.(*PubSubPublisher).client.CreateTopic(ctx, "startup-ctx-topic")
	require.NoError(t, err)

	publishCtx, cancelPublish := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPublish()
	msgID, err := pub.Publish(publishCtx, "startup-ctx-topic", []byte(`{"entity_type":"lesson"}`), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, msgID)
}
