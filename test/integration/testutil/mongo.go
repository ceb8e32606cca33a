package testutil

import (
	"context"
	"testing"
	"time"

	"roomreserve/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "roomreserve_test"
	ConnectionTimeout   = 10 * time.Second

	ReservationsCollection     = "Reservations"
	RoomsCollection            = "Rooms"
	ReservationLocksCollection = "Reservation_locks"
)

// MongoHelper provides MongoDB test utilities
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
		DBName:   dbName,
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanReservations empties the reservation and lock collections, keeping validators and
// indexes created by the migration job.
func (m *MongoHelper) CleanReservations(t *testing.T) {
	t.Helper()
	for _, name := range []string{ReservationsCollection, ReservationLocksCollection} {
		m.CleanCollection(t, name)
	}
}

func (m *MongoHelper) CleanCollection(t *testing.T, collectionName string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.Database.Collection(collectionName).DeleteMany(ctx, bson.M{}); err != nil {
		t.Fatalf("failed to clean collection %s: %v", collectionName, err)
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T, collectionName string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.Database.Collection(collectionName).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collectionName, err)
	}
	return count
}

// InsertRoom stores room and returns its id.
func (m *MongoHelper) InsertRoom(t *testing.T, room model.Room) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := primitive.NewObjectID()
	_, err := m.Database.Collection(RoomsCollection).InsertOne(ctx, bson.M{
		"_id":       id,
		"name":      room.Name + " " + id.Hex()[18:],
		"location":  room.Location,
		"capacity":  room.Capacity,
		"is_active": room.IsActive,
	})
	if err != nil {
		t.Fatalf("failed to insert room: %v", err)
	}
	t.Cleanup(func() {
		_, _ = m.Database.Collection(RoomsCollection).DeleteOne(context.Background(), bson.M{"_id": id})
	})
	return id.Hex()
}
