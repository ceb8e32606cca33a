// Package events turns reservation changes into broker messages for the notifier.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"roomreserve/pkg/logger"
	"roomreserve/pkg/metrics"
	"roomreserve/pkg/model"
)

var ErrUnknownEventType = errors.New("unknown reservation event type")

// Publisher hands reservation events to the configured broker.
type Publisher interface {
	PublishCreated(ctx context.Context, event *model.ReservationEvent) error
	PublishUpdated(ctx context.Context, event *model.ReservationEvent) error
	PublishCancelled(ctx context.Context, event *model.ReservationEvent) error
	PublishReminder(ctx context.Context, event *model.ReservationEvent) error
	Close() error
}

// Transport delivers one encoded event. key groups the messages of a series.
type Transport interface {
	Send(ctx context.Context, key, eventType string, body []byte) error
	Close() error
}

type publisher struct {
	transport Transport
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewPublisher wraps transport. m may be nil.
func NewPublisher(transport Transport, log *logger.Logger, m *metrics.Metrics) Publisher {
	return &publisher{
		transport: transport,
		log:       log,
		metrics:   m,
	}
}

func (p *publisher) PublishCreated(ctx context.Context, event *model.ReservationEvent) error {
	return p.publish(ctx, model.EventReservationCreated, event)
}

func (p *publisher) PublishUpdated(ctx context.Context, event *model.ReservationEvent) error {
	return p.publish(ctx, model.EventReservationUpdated, event)
}

func (p *publisher) PublishCancelled(ctx context.Context, event *model.ReservationEvent) error {
	return p.publish(ctx, model.EventReservationCancelled, event)
}

func (p *publisher) PublishReminder(ctx context.Context, event *model.ReservationEvent) error {
	return p.publish(ctx, model.EventReservationReminder, event)
}

func (p *publisher) Close() error {
	return p.transport.Close()
}

func (p *publisher) publish(ctx context.Context, eventType string, event *model.ReservationEvent) error {
	event.Type = eventType
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	err = p.transport.Send(ctx, Key(event), eventType, body)
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(eventType, metrics.Result(err)).Inc()
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s event for reservation %s: %w", eventType, event.ReservationID, err)
	}

	p.log.Debug("Reservation event published",
		"type", eventType,
		"reservation_id", event.ReservationID,
		"series_id", event.SeriesID,
	)
	return nil
}

// Key is the partition key of an event: the series id, falling back to the reservation id.
func Key(event *model.ReservationEvent) string {
	if event.SeriesID != "" {
		return event.SeriesID
	}
	return event.ReservationID
}

// Decode parses a message body produced by a Publisher.
func Decode(body []byte) (*model.ReservationEvent, error) {
	var event model.ReservationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode reservation event: %w", err)
	}
	switch event.Type {
	case model.EventReservationCreated, model.EventReservationUpdated,
		model.EventReservationCancelled, model.EventReservationReminder:
		return &event, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
}
