package mongo

import (
	"context"
	"fmt"
	"time"

	"roomreserve/internal/migrations/mongo/validators"
	"roomreserve/pkg/logger"
	"roomreserve/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ReservationsCollection     = "Reservations"
	RoomsCollection            = "Rooms"
	ReservationLocksCollection = "Reservation_locks"
)

var (
	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "reminder_sent", Value: 1},
			{Key: "start_time", Value: 1},
		}},
	}

	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
	}

	// Expired locks are removed by the TTL monitor, which runs about once a minute.
	ReservationLocksIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var collections = []collectionDef{
	{Name: ReservationsCollection, Indexes: ReservationsIndexes, Validator: validators.ReservationValidator},
	{Name: RoomsCollection, Indexes: RoomsIndexes, Validator: validators.RoomValidator},
	{Name: ReservationLocksCollection, Indexes: ReservationLocksIndexes, Validator: validators.ReservationLockValidator},
}

// DefaultRooms are inserted when missing so a fresh deployment has something to book.
var DefaultRooms = []model.Room{
	{Name: "Conference Room A", Location: "Floor 1", Capacity: 10, IsActive: true},
	{Name: "Conference Room B", Location: "Floor 1", Capacity: 6, IsActive: true},
	{Name: "Board Room", Location: "Floor 2", Capacity: 20, IsActive: true},
	{Name: "Focus Room", Location: "Floor 2", Capacity: 2, IsActive: true},
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, def := range collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully", "collections", len(collections))
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}

type roomUpserter interface {
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// SeedRooms inserts rooms that do not exist yet, matched by name. Existing rooms are left
// untouched so manual edits survive re-runs.
func SeedRooms(ctx context.Context, coll roomUpserter, rooms []model.Room) (int, error) {
	inserted := 0
	for _, room := range rooms {
		result, err := coll.UpdateOne(ctx,
			bson.M{"name": room.Name},
			bson.M{"$setOnInsert": roomSeedDocument(room, time.Now().UTC())},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to seed room %q: %w", room.Name, err)
		}
		if result.UpsertedCount > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func roomSeedDocument(room model.Room, now time.Time) bson.M {
	return bson.M{
		"name":       room.Name,
		"location":   room.Location,
		"capacity":   room.Capacity,
		"is_active":  room.IsActive,
		"created_at": now,
	}
}
