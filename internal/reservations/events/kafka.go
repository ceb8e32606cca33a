package events

import (
	"context"

	"roomreserve/pkg/kafka"
)

const source = "reservations"

// KafkaTransport publishes events through a kafka.Producer and its dead letter queue.
type KafkaTransport struct {
	producer *kafka.Producer
}

func NewKafkaTransport(producer *kafka.Producer) *KafkaTransport {
	return &KafkaTransport{producer: producer}
}

func (t *KafkaTransport) Send(ctx context.Context, key, eventType string, body []byte) error {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithRawValue(body).
		WithEventType(eventType).
		WithSource(source).
		Build()
	if err != nil {
		return err
	}
	return t.producer.Publish(ctx, msg)
}

func (t *KafkaTransport) Close() error {
	return t.producer.Close()
}
