package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meli/ecommerce-orders-api/internal/adapters/mongo/document"
	"github.com/meli/ecommerce-orders-api/internal/core/logger"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
)

// BaseRepository holds the collection plumbing shared by every document type
// and translates driver errors into service errors named after entityName.
type BaseRepository[T document.Document] struct {
	collection *mongo.Collection
	entityName string
}

func NewBaseRepository[T document.Document](db *mongo.Database, collectionName, entityName string) *BaseRepository[T] {
	return &BaseRepository[T]{
		collection: db.Collection(collectionName),
		entityName: entityName,
	}
}

// EnsureIndexes creates the given indexes. Failures are logged and do not
// stop the repository from serving requests.
func (r *BaseRepository[T]) EnsureIndexes(ctx context.Context, indexes ...mongo.IndexModel) {
	if len(indexes) == 0 {
		return
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Error(ctx, "failed to create indexes", err, map[string]any{
			"collection": r.collection.Name(),
		})
	}
}

func (r *BaseRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var doc T
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, r.parseError(err)
	}
	return &doc, nil
}

// Find returns every matching document, or an empty slice.
func (r *BaseRepository[T]) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, r.parseError(err)
	}
	defer cursor.Close(ctx)

	docs := make([]T, 0)
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, r.parseError(err)
	}
	return docs, nil
}

func (r *BaseRepository[T]) Insert(ctx context.Context, doc *T) error {
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return r.parseError(err)
	}
	return nil
}

// UpdateOne applies $set to the single document matching filter and fails
// with a not found error when nothing matches.
func (r *BaseRepository[T]) UpdateOne(ctx context.Context, filter bson.M, set bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return r.parseError(err)
	}
	if result.MatchedCount == 0 {
		return r.notFound()
	}
	return nil
}

// DeleteByID succeeds when the document is already gone.
func (r *BaseRepository[T]) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return r.parseError(err)
	}
	return nil
}

func (r *BaseRepository[T]) notFound() error {
	return serviceerrors.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName))
}

func (r *BaseRepository[T]) parseError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return r.notFound()
	case mongo.IsDuplicateKeyError(err):
		return serviceerrors.NewConflictError(fmt.Sprintf("%s already exists", r.entityName))
	default:
		return fmt.Errorf("mongo %s: %w", r.entityName, err)
	}
}
