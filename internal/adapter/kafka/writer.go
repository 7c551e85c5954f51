// Package kafka publishes newly admitted earthquake events to a sink topic
// for downstream consumers. The publisher is optional and flag-gated; the
// pipeline is fully functional without it.
package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-globe-data/internal/config"
	"github.com/couchcryptid/quake-globe-data/internal/domain"
	"github.com/couchcryptid/quake-globe-data/internal/observability"
)

// Writer produces admitted-event messages to a Kafka topic.
// It implements merge.AddedPublisher.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// PublishAdded serializes and publishes the newly admitted features in a
// single WriteMessages call.
func (w *Writer) PublishAdded(ctx context.Context, features []domain.Feature) error {
	if len(features) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(features))
	for i := range features {
		msg, err := serializeToMessage(features[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.metrics.EventsPublished.Add(float64(len(msgs)))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a feature into a Kafka message keyed by the
// event's stable ID. Only deduplicated features reach the publisher, so the
// ID is always present.
func serializeToMessage(f domain.Feature) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event %s: %w", f.ID, err)
	}

	var eventMs int64
	if f.Properties.Time != nil {
		eventMs = int64(*f.Properties.Time)
	}

	return kafkago.Message{
		Key:   []byte(f.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_time_ms", Value: []byte(strconv.FormatInt(eventMs, 10))},
		},
	}, nil
}
