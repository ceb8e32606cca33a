package main

import (
	"context"
	"flag"
	"time"

	mongoMigration "roomreserve/internal/migrations/mongo"
	"roomreserve/pkg/config"
)

const (
	JobName           = "migrate"
	defaultJobTimeout = 2 * time.Minute
)

func main() {
	seed := flag.Bool("seed", true, "insert the default rooms when they are missing")
	timeout := flag.Duration("timeout", 0, "overall deadline for the job (default: twice the Mongo write timeout, at least 2m)")
	flag.Parse()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	deadline := *timeout
	if deadline <= 0 {
		deadline = max(2*cfg.WriteTimeout, defaultJobTimeout)
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName, "seed", *seed)
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	if *seed {
		rooms := cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(mongoMigration.RoomsCollection)
		inserted, err := mongoMigration.SeedRooms(ctx, rooms, mongoMigration.DefaultRooms)
		if err != nil {
			cfg.Log.Fatal("Seeding rooms failed", "error", err)
		}
		cfg.Log.Info("Rooms seeded", "inserted", inserted, "defaults", len(mongoMigration.DefaultRooms))
	}
	cfg.Log.Info("Migration completed successfully")
}
