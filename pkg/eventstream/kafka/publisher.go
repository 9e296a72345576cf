// Package kafka publishes run events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	segkafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/echolab/echotext/pkg/eventstream"
)

// Config holds Kafka publisher settings.
type Config struct {
	// Brokers is a comma-separated list of broker addresses.
	Brokers string

	// Topic is the topic run events are written to.
	Topic string
}

// Publisher writes run events to a Kafka topic, keyed by run ID so events
// for the same run land in the same partition.
type Publisher struct {
	writer *segkafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if c.Brokers == "" {
		return nil, errors.New("kafka brokers are required")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	writer := &segkafka.Writer{
		Addr:     segkafka.TCP(strings.Split(c.Brokers, ",")...),
		Topic:    c.Topic,
		Balancer: &segkafka.Hash{},
	}

	logger.Info("kafka event publisher initialized",
		zap.String("brokers", c.Brokers),
		zap.String("topic", c.Topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishRun serializes the event as JSON and writes it to the topic.
func (p *Publisher) PublishRun(ctx context.Context, event *eventstream.RunCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilRunEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling run event: %w", err)
	}

	msg := segkafka.Message{
		Key:   []byte(event.Run.ID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing run event: %w", err)
	}

	p.logger.Debug("published run event",
		zap.String("run_id", event.Run.ID),
		zap.String("event_id", event.EventID),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
