package mongo

import (
	"context"
	"errors"
	"fmt"

	apperrors "roomreserve/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const writeConflictCode = 112

// ErrWriteConflict is returned when concurrent transactions kept touching the same documents
// until the driver gave up retrying.
var ErrWriteConflict = errors.New("transaction write conflict")

type TransactionFunc func(ctx mongo.SessionContext) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type mongoTransactionManager struct {
	client *mongo.Client
	opts   *options.TransactionOptions
}

// NewTransactionManager runs callbacks in snapshot transactions committed with majority write
// concern, so a conflict check and the inserts that follow it see one consistent state.
func NewTransactionManager(client *mongo.Client) TransactionManager {
	return &mongoTransactionManager{
		client: client,
		opts: options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.Majority()),
	}
}

func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	}, m.opts)

	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case IsWriteConflict(err):
		return fmt.Errorf("%w: %v", ErrWriteConflict, err)
	}
	return fmt.Errorf("transaction failed: %w", err)
}

// IsWriteConflict reports whether err is a server write conflict or still carries the
// transient transaction label after the driver's retries.
func IsWriteConflict(err error) bool {
	if errors.Is(err, ErrWriteConflict) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == writeConflictCode || cmdErr.HasErrorLabel("TransientTransactionError")
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == writeConflictCode {
				return true
			}
		}
		return writeErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}
