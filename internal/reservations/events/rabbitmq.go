package events

import (
	"context"

	"roomreserve/pkg/rabbitmq"
)

type RabbitMQTransport struct {
	publisher *rabbitmq.Publisher
}

func NewRabbitMQTransport(publisher *rabbitmq.Publisher) *RabbitMQTransport {
	return &RabbitMQTransport{publisher: publisher}
}

func (t *RabbitMQTransport) Send(ctx context.Context, key, eventType string, body []byte) error {
	return t.publisher.Publish(ctx, key, eventType, body)
}

func (t *RabbitMQTransport) Close() error {
	return t.publisher.Close()
}
