package notifier

import (
	"context"
	"errors"

	"roomreserve/internal/reservations/events"
	"roomreserve/pkg/kafka"
	"roomreserve/pkg/rabbitmq"
)

// KafkaHandler adapts the notifier to the kafka consumer. Undecodable payloads are
// permanent failures and go straight to the DLQ; delivery failures are retried.
func (n *Notifier) KafkaHandler() kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := events.Decode(msg.Value)
		if err != nil {
			return kafka.NewPermanentError("invalid reservation event", err)
		}
		if err := n.Handle(ctx, event); err != nil {
			return kafka.NewTransientError("notification delivery failed", err)
		}
		return nil
	}
}

// RabbitMQHandler adapts the notifier to the rabbitmq consumer. Undecodable payloads are
// acknowledged and dropped since a redelivery cannot fix them.
func (n *Notifier) RabbitMQHandler() rabbitmq.Handler {
	return func(ctx context.Context, d rabbitmq.Delivery) error {
		event, err := events.Decode(d.Body)
		if err != nil {
			if errors.Is(err, events.ErrUnknownEventType) {
				n.log.Warn("Dropping event of unknown type", "message_id", d.MessageID, "type", d.Type)
			} else {
				n.log.Error("Dropping undecodable event", "message_id", d.MessageID, "error", err)
			}
			return nil
		}
		return n.Handle(ctx, event)
	}
}
