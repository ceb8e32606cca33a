package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"roomreserve/internal/reminders"
	"roomreserve/internal/reservations/events"
	"roomreserve/internal/reservations/repository"
	"roomreserve/pkg/config"
	"roomreserve/pkg/metrics"
)

const ServiceName = "reminders"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	m := metrics.New(metrics.Namespace, nil)

	publisher, err := events.NewFromConfig(cfg, m)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	scheduler := reminders.New(
		repository.NewMongoReservationRepository(cfg),
		repository.NewMongoRoomRepository(cfg),
		publisher,
		m,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	cfg.Log.Info("Reminders service stopped")
}
