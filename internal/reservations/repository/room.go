package repository

import (
	"context"
	"errors"
	"fmt"

	reservationserrors "roomreserve/internal/reservations/errors"
	"roomreserve/pkg/config"
	"roomreserve/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const RoomsCollectionName = "Rooms"

// RoomRepository is a read-only view of the rooms seeded by the migration job.
type RoomRepository interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
}

type mongoRoomRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomRepository(cfg *config.Config) RoomRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomRepository{
		cfg:        cfg,
		collection: db.Collection(RoomsCollectionName),
	}
}

func (r *mongoRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var room model.Room
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}
