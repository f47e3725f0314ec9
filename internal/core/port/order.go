package port

import (
	"context"
	"time"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

type OrderPort interface {
	Create(ctx context.Context, order *domain.Order) error
	// GetByID returns the order whatever its status.
	GetByID(ctx context.Context, id domain.ID) (*domain.Order, error)
	ListActive(ctx context.Context) ([]*domain.Order, error)
	// SoftDelete fails with a not found error when the order is missing or already deleted.
	SoftDelete(ctx context.Context, id domain.ID, deletedAt time.Time) error
}
