package events

import (
	"fmt"

	"roomreserve/pkg/config"
	"roomreserve/pkg/kafka"
	kafka_config "roomreserve/pkg/kafka/config"
	kafka_middleware "roomreserve/pkg/kafka/middleware"
	"roomreserve/pkg/metrics"
	"roomreserve/pkg/rabbitmq"
)

// NewFromConfig builds the Publisher selected by EVENTS_BROKER.
func NewFromConfig(cfg *config.Config, m *metrics.Metrics) (Publisher, error) {
	var transport Transport

	switch cfg.EventsBroker {
	case config.BrokerKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			return nil, fmt.Errorf("invalid kafka configuration: %w", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, cfg.EventsTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		if m != nil {
			producer.Use(kafka_middleware.MetricsProducerMiddleware(m))
		}
		transport = NewKafkaTransport(producer)

	case config.BrokerRabbitMQ:
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.EventsTopic, cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to create rabbitmq publisher: %w", err)
		}
		transport = NewRabbitMQTransport(publisher)

	case config.BrokerNone:
		transport = NewLogTransport(cfg.Log)

	default:
		return nil, fmt.Errorf("unsupported events broker %q", cfg.EventsBroker)
	}

	cfg.Log.Info("Event publisher initialized", "broker", cfg.EventsBroker, "topic", cfg.EventsTopic)
	return NewPublisher(transport, cfg.Log, m), nil
}
