package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meli/ecommerce-orders-api/internal/adapters/mongo/document"
	"github.com/meli/ecommerce-orders-api/internal/core/domain"
)

type OrderRepository struct {
	*BaseRepository[document.OrderDocument]
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	repo := &OrderRepository{
		BaseRepository: NewBaseRepository[document.OrderDocument](db, "orders", "order"),
	}
	repo.EnsureIndexes(context.Background(),
		mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "created_by", Value: 1}}},
	)
	return repo
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	doc, err := document.ToDocument(order)
	if err != nil {
		return err
	}

	return r.Insert(ctx, doc)
}

func (r *OrderRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Order, error) {
	doc, err := r.FindByID(ctx, string(id))
	if err != nil {
		return nil, err
	}

	return doc.ToDomain()
}

func (r *OrderRepository) ListActive(ctx context.Context) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	docs, err := r.Find(ctx, bson.M{"status": string(domain.OrderStatusActive)}, opts)
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, len(docs))
	for i := range docs {
		order, err := docs[i].ToDomain()
		if err != nil {
			return nil, err
		}
		orders[i] = order
	}

	return orders, nil
}

// SoftDelete only matches active orders, so a second delete reports not found.
func (r *OrderRepository) SoftDelete(ctx context.Context, id domain.ID, deletedAt time.Time) error {
	return r.UpdateOne(ctx,
		bson.M{"_id": string(id), "status": string(domain.OrderStatusActive)},
		bson.M{
			"status":     string(domain.OrderStatusDeleted),
			"deleted_at": deletedAt,
			"updated_at": deletedAt,
		},
	)
}
