package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"roomreserve/internal/notifier"
	"roomreserve/pkg/config"
	"roomreserve/pkg/kafka"
	kafka_config "roomreserve/pkg/kafka/config"
	kafka_middleware "roomreserve/pkg/kafka/middleware"
	"roomreserve/pkg/metrics"
	"roomreserve/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	m := metrics.New(metrics.Namespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailer, err := notifier.NewMailer(ctx, cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize mailer", "error", err)
	}
	n := notifier.New(mailer, cfg.Log, m)

	metricsServer := &http.Server{Addr: ":" + cfg.Port, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Log.Error("Metrics server failed", "error", err)
		}
	}()
	defer metricsServer.Close()

	cfg.Log.Info("Starting Notifier service", "broker", cfg.EventsBroker, "topic", cfg.EventsTopic)
	if err := consume(ctx, cfg, n, m); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Fatal("Notifier stopped with error", "error", err)
	}
	cfg.Log.Info("Notifier service stopped")
}

func consume(ctx context.Context, cfg *config.Config, n *notifier.Notifier, m *metrics.Metrics) error {
	switch cfg.EventsBroker {
	case config.BrokerKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			return err
		}
		kafkaCfg.LogConfiguration(cfg.Log)

		consumer, err := kafka.NewConsumer(kafkaCfg, cfg.Log, cfg.EventsTopic, cfg.NotifierGroupID, n.KafkaHandler())
		if err != nil {
			return err
		}
		defer consumer.Close()
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware(m))
		return consumer.Start(ctx)

	case config.BrokerRabbitMQ:
		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, cfg.EventsTopic, n.RabbitMQHandler(), cfg.Log)
		if err != nil {
			return err
		}
		return consumer.Start(ctx)
	}

	cfg.Log.Warn("No events broker configured, nothing to consume")
	<-ctx.Done()
	return ctx.Err()
}
