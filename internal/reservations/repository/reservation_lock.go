package repository

import (
	"context"
	"fmt"
	"time"

	reservationserrors "roomreserve/internal/reservations/errors"
	"roomreserve/pkg/config"
	"roomreserve/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LocksCollectionName = "Reservation_locks"

// ReservationLockRepository manages advisory slot locks.
type ReservationLockRepository interface {
	Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error)
	Delete(ctx context.Context, lockID, owner string) error
}

type mongoReservationLockRepository struct {
	collection *mongo.Collection
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		collection: db.Collection(LocksCollectionName),
	}
}

// Create returns ErrLockHeld when a lock with the same id exists.
func (r *mongoReservationLockRepository) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	lock.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrLockHeld, lock.ID)
		}
		return nil, fmt.Errorf("failed to create reservation lock: %w", err)
	}

	return lock, nil
}

// Delete removes a lock only if it is still held by owner, so an expired lock re-acquired by
// another request is left alone.
func (r *mongoReservationLockRepository) Delete(ctx context.Context, lockID, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	return err
}
