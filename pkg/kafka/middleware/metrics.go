package kafka_middleware

import (
	"context"
	"time"

	"roomreserve/pkg/kafka"
	"roomreserve/pkg/metrics"
)

const (
	resultTransient = "transient"
	resultPermanent = "permanent"
)

// MetricsProducerMiddleware records publish latency and success or failure per message.
func MetricsProducerMiddleware(m *metrics.Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		observe(m, metrics.DirectionPublish, start, metrics.Result(err))
		return err
	}
}

// MetricsConsumerMiddleware splits handler failures into transient ones, which the consumer
// retries, and permanent ones, which go to the dead letter topic.
func MetricsConsumerMiddleware(m *metrics.Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		observe(m, metrics.DirectionConsume, start, consumeResult(err))
		return err
	}
}

func observe(m *metrics.Metrics, direction string, start time.Time, result string) {
	m.BrokerDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
	m.BrokerMessages.WithLabelValues(direction, result).Inc()
}

func consumeResult(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if kafka.ClassifyError(err) == kafka.ErrorTypeTransient {
		return resultTransient
	}
	return resultPermanent
}
