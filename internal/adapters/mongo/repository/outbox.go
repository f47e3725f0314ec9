package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meli/ecommerce-orders-api/internal/adapters/mongo/document"
	"github.com/meli/ecommerce-orders-api/internal/adapters/outbox"
)

type OutboxRepository struct {
	*BaseRepository[document.OutboxDocument]
}

func NewOutboxRepository(db *mongo.Database) *OutboxRepository {
	repo := &OutboxRepository{
		BaseRepository: NewBaseRepository[document.OutboxDocument](db, "outbox", "outbox entry"),
	}
	repo.EnsureIndexes(context.Background(), mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: 1}}})
	return repo
}

func (r *OutboxRepository) Insert(ctx context.Context, entry outbox.Entry) error {
	doc := document.ToOutboxDocument(entry)
	return r.BaseRepository.Insert(ctx, &doc)
}

func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	docs, err := r.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	entries := make([]outbox.Entry, len(docs))
	for i, doc := range docs {
		entries[i] = doc.ToEntry()
	}

	return entries, nil
}

func (r *OutboxRepository) Delete(ctx context.Context, id string) error {
	return r.DeleteByID(ctx, id)
}
