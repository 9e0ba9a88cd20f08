package infra

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// topicPrefix namespaces this service's topics in the shared cluster.
const topicPrefix = "negoride."

// EventTopic maps a domain event type to its Kafka topic.
func EventTopic(eventType string) string {
	return topicPrefix + eventType
}

// KafkaProducer publishes outbox events. A disabled producer (KAFKA_ENABLED
// false or no brokers) turns every Publish into a no-op so local development
// runs without a broker.
type KafkaProducer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaProducer creates the producer from config.
func NewKafkaProducer(cfg *Config, logger *slog.Logger) *KafkaProducer {
	if !cfg.KafkaEnabled || cfg.KafkaBrokers == "" {
		logger.Info("kafka producer disabled")
		return &KafkaProducer{logger: logger}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("kafka producer initialized", "brokers", cfg.KafkaBrokers)
	return &KafkaProducer{writer: w, logger: logger}
}

// Publish sends one message. Keying by partition key keeps all events of a
// payment on one partition, so downstream consumers see them in order.
func (p *KafkaProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if p.writer == nil {
		return nil
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Key: key, Value: value})
}

// Close shuts down the writer.
func (p *KafkaProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// KafkaConsumer tails one payment event topic.
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer creates a consumer joined to the given group.
func NewKafkaConsumer(cfg *Config, topic, groupID string) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(cfg.KafkaBrokers, ","),
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaConsumer{reader: r}
}

// ReadMessage blocks until the next message or ctx cancellation.
func (c *KafkaConsumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return c.reader.ReadMessage(ctx)
}

// Close shuts down the reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
