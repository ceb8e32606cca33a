package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomreserve/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	prefetchCount = 50
	maxBackoff    = 30 * time.Second
)

// Delivery is the part of an AMQP message handlers see.
type Delivery struct {
	MessageID   string
	Type        string
	Body        []byte
	Redelivered bool
}

type Handler func(ctx context.Context, d Delivery) error

type Consumer struct {
	url     string
	queue   string
	handler Handler
	log     *logger.Logger
}

func NewConsumer(url, queue string, handler Handler, log *logger.Logger) (*Consumer, error) {
	if url == "" {
		return nil, fmt.Errorf("rabbitmq url cannot be empty")
	}
	if queue == "" {
		return nil, fmt.Errorf("queue cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}
	return &Consumer{url: url, queue: queue, handler: handler, log: log}, nil
}

// Start consumes until ctx is cancelled, reconnecting with exponential backoff.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("Failed to dial rabbitmq, retrying", "error", err, "backoff", backoff)
			if !wait(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("Rabbitmq consume loop ended, reconnecting", "error", err)
		if !wait(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		c.log.Warn("Failed to set rabbitmq QoS", "error", err)
	}

	if err := declareQueue(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks on success. A failed message is requeued once, then dropped.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	err := c.handler(ctx, Delivery{
		MessageID:   d.MessageId,
		Type:        d.Type,
		Body:        d.Body,
		Redelivered: d.Redelivered,
	})
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			c.log.Error("Failed to ack rabbitmq message", "message_id", d.MessageId, "error", ackErr)
		}
		return
	}

	requeue := !d.Redelivered
	c.log.Error("Failed to handle rabbitmq message",
		"message_id", d.MessageId,
		"type", d.Type,
		"requeue", requeue,
		"error", err,
	)
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		c.log.Error("Failed to nack rabbitmq message", "message_id", d.MessageId, "error", nackErr)
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
