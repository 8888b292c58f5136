package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Producer publishes notification payloads keyed by recipient so consumers
// can fan messages out to per-user channels. Delivery is best effort:
// callers log failures and move on, booking correctness never depends on it.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

func (p *Producer) Publish(userID string, payload []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(userID),
			Value: payload,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NoopPublisher stands in when Kafka is disabled (local dev, tests).
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, []byte) error { return nil }
