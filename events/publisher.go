// Package events publishes audit events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// DiagnosisLogged is emitted after a diagnosis log has been persisted.
const DiagnosisLogged = "diagnosis.logged"

type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaPublisher writes events to one topic keyed by Event.Key. Writes are
// asynchronous: Publish only enqueues, and delivery failures are logged.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
		Async:        true,
	})
	writer.Completion = func(messages []kafka.Message, err error) {
		if err != nil {
			log.Error().Err(err).Int("messages", len(messages)).Str("topic", topic).Msg("failed to deliver events")
		}
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode event")
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	return errors.Wrap(err, "failed to publish event")
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }

// New returns a Kafka publisher, or a NopPublisher when brokers is empty.
func New(brokers []string, topic string, log zerolog.Logger) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic, log)
}
