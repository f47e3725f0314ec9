package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/meli/ecommerce-orders-api/internal/core/port"
)

// TransactionManager runs callbacks inside a session transaction. Repositories
// take part by using the session context handed to the callback, which
// requires a replica set deployment. A callback that is already inside a
// transaction joins it instead of starting a new one.
type TransactionManager struct {
	client *mongo.Client
	opts   *options.TransactionOptions
}

func NewTransactionManager(client *mongo.Client) *TransactionManager {
	return &TransactionManager{
		client: client,
		opts: options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.Majority()),
	}
}

func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if sess := mongo.SessionFromContext(ctx); sess != nil {
		return fn(ctx)
	}

	session, err := tm.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, tm.opts)

	return err
}

var _ port.TransactionManager = (*TransactionManager)(nil)
