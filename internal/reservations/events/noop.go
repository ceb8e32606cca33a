package events

import (
	"context"

	"roomreserve/pkg/logger"
)

// LogTransport drops events after logging them. Used when no broker is configured.
type LogTransport struct {
	log *logger.Logger
}

func NewLogTransport(log *logger.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(_ context.Context, key, eventType string, body []byte) error {
	t.log.Info("Event broker disabled, dropping event", "key", key, "type", eventType, "size", len(body))
	return nil
}

func (t *LogTransport) Close() error {
	return nil
}
