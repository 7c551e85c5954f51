//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/quake-globe-data/internal/adapter/kafka"
	"github.com/couchcryptid/quake-globe-data/internal/config"
	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/observability"
)

const testSinkTopic = "test-earthquake-events"

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fl(v float64) *float64 { return &v }

func testFeature(id string, mag float64) domain.Feature {
	return domain.Feature{
		ID: id,
		Geometry: domain.Geometry{
			Type:        "Point",
			Coordinates: []*float64{fl(142.1), fl(38.3), fl(29)},
		},
		Properties: domain.Properties{
			Mag:   fl(mag),
			Time:  fl(1_756_500_000_000),
			Place: "off the east coast of Honshu, Japan",
		},
	}
}

// TestKafkaWriterPublish verifies that admitted events published through the
// kafka.Writer arrive on the sink topic keyed by event ID with the feature
// document intact.
func TestKafkaWriterPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger(), observability.NewMetricsForTesting())
	t.Cleanup(func() { _ = writer.Close() })

	features := []domain.Feature{
		testFeature("us7000abcd", 6.1),
		testFeature("us7000abce", 4.8),
	}
	require.NoError(t, writer.PublishAdded(ctx, features))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   testSinkTopic,
		GroupID: fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for _, want := range features {
		readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		cancelRead()
		require.NoError(t, err, "read from sink topic")

		assert.Equal(t, want.ID, string(msg.Key))

		var got domain.Feature
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, *want.Properties.Mag, *got.Properties.Mag)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "1756500000000", headers["event_time_ms"])
	}
}

// TestKafkaWriterPublishNothing verifies that an empty feature set is a
// no-op and never touches the broker.
func TestKafkaWriterPublishNothing(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:   []string{"localhost:1"},
		KafkaSinkTopic: testSinkTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger(), observability.NewMetricsForTesting())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.PublishAdded(context.Background(), nil))
}
