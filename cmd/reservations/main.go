package main

import (
	"roomreserve/internal/reservations/events"
	"roomreserve/internal/reservations/handler"
	"roomreserve/internal/reservations/repository"
	"roomreserve/internal/reservations/service"
	"roomreserve/internal/reservations/validator"
	"roomreserve/pkg/app"
	"roomreserve/pkg/config"
	"roomreserve/pkg/metrics"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET must be set for the reservations service")
	}
	cfg.SetMongo()
	cfg.SetRedis()

	m := metrics.New(metrics.Namespace, nil)

	publisher, err := events.NewFromConfig(cfg, m)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}

	cfg.Log.Info("Starting Reservations service")
	reservationService := initServices(cfg, publisher, m)

	serverApp := app.NewApplication(cfg, m)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher, m *metrics.Metrics) service.ReservationService {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	roomRepo := repository.NewMongoRoomRepository(cfg)
	lockRepo := repository.NewReservationLockRepository(cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		roomRepo,
		lockRepo,
		reservationValidator,
		publisher,
		m,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService
}
