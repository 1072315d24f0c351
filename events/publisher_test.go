package events

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutBrokersDropsEvents(t *testing.T) {
	publisher := New(nil, "diagnosis-logs", zerolog.Nop())
	assert.IsType(t, NopPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), Event{Type: DiagnosisLogged, Key: "patient-1"}))
	assert.NoError(t, publisher.Close())
}

func TestKafkaPublisherDoesNotBlockCallers(t *testing.T) {
	publisher, ok := New([]string{"localhost:9092"}, "diagnosis-logs", zerolog.Nop()).(*KafkaPublisher)
	require.True(t, ok)
	defer publisher.writer.Close()

	assert.Equal(t, "diagnosis-logs", publisher.writer.Topic)
	assert.True(t, publisher.writer.Async)
	require.NotNil(t, publisher.writer.Completion)
}

func TestKafkaPublisherLogsDeliveryFailures(t *testing.T) {
	var out bytes.Buffer
	publisher := NewKafkaPublisher([]string{"localhost:9092"}, "diagnosis-logs", zerolog.New(&out))
	defer publisher.writer.Close()

	publisher.writer.Completion([]kafka.Message{{Key: []byte("patient-1")}}, nil)
	assert.Empty(t, out.String())

	publisher.writer.Completion([]kafka.Message{{Key: []byte("patient-1")}}, errors.New("broker unreachable"))
	assert.Contains(t, out.String(), "failed to deliver events")
	assert.Contains(t, out.String(), "broker unreachable")
}
